package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"attractions-web/internal/domain"
	"attractions-web/internal/observability"
)

// DefaultBaseURL is the public attractions API.
const DefaultBaseURL = "https://dae-mobile-assignment.hkit.cc/api"

const maxBodyBytes = 1 << 20

// SessionReader supplies the bearer token for authenticated calls.
type SessionReader interface {
	Read(ctx context.Context) (domain.Session, error)
}

// Client is the Remote Data Gateway: one typed method per API operation.
// A Client is safe for concurrent use; bind it to a session with WithSession.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	contract   *Contract
	attempts   int
	backoff    time.Duration
	session    SessionReader
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithRetry sets how many times idempotent GETs are attempted and the base backoff between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.backoff = backoff
	}
}

// WithContract overrides the embedded response contract.
func WithContract(contract *Contract) Option {
	return func(c *Client) { c.contract = contract }
}

// NewClient creates a gateway for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.contract == nil {
		contract, err := DefaultContract()
		if err != nil {
			return nil, err
		}
		c.contract = contract
	}

	return c, nil
}

// WithSession returns a copy of the client that reads its bearer token from s.
// The copy shares the HTTP client and rate limiter with c.
func (c *Client) WithSession(s SessionReader) *Client {
	cp := *c
	cp.session = s
	return &cp
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	token  string
}

type response struct {
	status  int
	raw     []byte
	doc     any
	jsonErr error
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// errorMessage prefers the body's "error" field over the generic status text.
func (r *response) errorMessage() string {
	if m, ok := r.doc.(map[string]any); ok {
		if msg, ok := m["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("HTTP error! status: %d", r.status)
}

// token returns the bound session's token or ErrAuthRequired.
func (c *Client) token(ctx context.Context, op string) (string, error) {
	if c.session == nil {
		return "", domain.NewError(domain.ErrAuthRequired, op, 0, "login required", nil)
	}
	s, err := c.session.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: failed to read session: %w", op, err)
	}
	if !s.Valid() {
		return "", domain.NewError(domain.ErrAuthRequired, op, 0, "login required", nil)
	}
	return s.Token, nil
}

// send performs the request and decodes the body as JSON regardless of status.
func (c *Client) send(ctx context.Context, req request) (*response, error) {
	start := time.Now()
	resp, err := c.roundTrip(ctx, req)
	observability.GatewayRequestDuration.WithLabelValues(req.op).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.GatewayRequestsTotal.WithLabelValues(req.op, "network").Inc()
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, req request) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, domain.NewError(domain.ErrNetwork, req.op, 0, "request cancelled", err)
		}
	}

	var payload []byte
	if req.body != nil {
		var err error
		if payload, err = json.Marshal(req.body); err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", req.op, err)
		}
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	attempts := 1
	if req.method == http.MethodGet {
		attempts = c.attempts
	}

	requestID := uuid.NewString()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, req.method, target, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%s: failed to create request: %w", req.op, err)
		}
		httpReq.Header.Set("Accept", "application/json")
		httpReq.Header.Set("X-Request-ID", requestID)
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		if req.token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+req.token)
		}

		httpResp, err := c.httpClient.Do(httpReq)
		if err == nil && (httpResp.StatusCode < 500 || attempt == attempts) {
			return readResponse(req.op, httpResp)
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("status %d", httpResp.StatusCode)
			httpResp.Body.Close()
		}

		if attempt < attempts {
			slog.Debug("retrying API request",
				slog.String("operation", req.op),
				slog.Int("attempt", attempt),
				slog.String("error", lastErr.Error()))
			if err := sleep(ctx, time.Duration(attempt)*c.backoff); err != nil {
				lastErr = err
				break
			}
		}
	}

	return nil, domain.NewError(domain.ErrNetwork, req.op, 0, "could not reach the attractions service", lastErr)
}

func readResponse(op string, httpResp *http.Response) (*response, error) {
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.NewError(domain.ErrNetwork, op, httpResp.StatusCode, "failed to read response", err)
	}

	resp := &response{status: httpResp.StatusCode, raw: raw}
	resp.jsonErr = json.Unmarshal(raw, &resp.doc)
	return resp, nil
}

// decode validates a successful response against schema and unmarshals it into out.
// Non-2xx responses become failKind errors carrying the body's message.
func (c *Client) decode(op string, resp *response, failKind error, schema string, out any) error {
	if !resp.ok() {
		return c.fail(op, domain.NewError(failKind, op, resp.status, resp.errorMessage(), nil))
	}
	if resp.jsonErr != nil {
		return c.fail(op, domain.NewError(domain.ErrMalformedResponse, op, resp.status, "response is not valid JSON", resp.jsonErr))
	}
	if err := c.contract.Validate(schema, resp.doc); err != nil {
		return c.fail(op, domain.NewError(domain.ErrMalformedResponse, op, resp.status, "response does not match the API contract", err))
	}
	if err := json.Unmarshal(resp.raw, out); err != nil {
		return c.fail(op, domain.NewError(domain.ErrMalformedResponse, op, resp.status, "response does not match the API contract", err))
	}
	observability.GatewayRequestsTotal.WithLabelValues(op, "ok").Inc()
	return nil
}

func (c *Client) fail(op string, err *domain.Error) error {
	observability.GatewayRequestsTotal.WithLabelValues(op, outcomeLabel(err)).Inc()
	slog.Warn("API request failed",
		slog.String("operation", op),
		slog.Int("status", err.Status),
		slog.String("error", err.Error()))
	return err
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuth):
		return "auth"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	default:
		return "http"
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
