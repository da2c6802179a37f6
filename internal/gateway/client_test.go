package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attractions-web/internal/domain"
	"attractions-web/internal/testutil"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRetry(1, 0)}, opts...)
	c, err := NewClient(baseURL, opts...)
	require.NoError(t, err)
	return c
}

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
	assert.Nil(t, c.limiter)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := newTestClient(t, "http://example.com/api/")
	assert.Equal(t, "http://example.com/api", c.baseURL)
}

func TestClient_SendsRequestID(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		testutil.WriteJSON(w, http.StatusOK, testutil.NewTestPage(1, 10, 0))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).ListAttractions(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Len(t, got, 36)
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url).ListAttractions(context.Background(), 1, "")

	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestClient(t, server.URL, WithTimeout(50*time.Millisecond))
	_, err := c.GetAttraction(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestClient_ContextCancelled(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, server.URL).GetAttraction(ctx, 1)

	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_RetriesServerErrorsOnGet(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		testutil.WriteJSON(w, http.StatusOK, testutil.NewTestAttraction(testutil.WithAttractionID(9)))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithRetry(3, time.Millisecond))
	a, err := c.GetAttraction(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, 9, a.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryPost(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		testutil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "down"})
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithRetry(3, time.Millisecond))
	_, err := c.Login(context.Background(), "alice", "secret")

	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RateLimitWaitCancelled(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"user_id": 1}`)
	c := newTestClient(t, server.URL, WithRateLimit(0.001, 1))

	// First call consumes the only token.
	_, err := c.CheckSession(context.Background(), "abc")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.CheckSession(ctx, "abc")

	assert.ErrorIs(t, err, domain.ErrNetwork)
}

func TestClient_WithSessionSharesTransport(t *testing.T) {
	c := newTestClient(t, "http://example.com", WithRateLimit(5, 5))
	store := testutil.NewMockSessionStore(domain.Session{})

	bound := c.WithSession(store)

	assert.Same(t, c.httpClient, bound.httpClient)
	assert.Same(t, c.limiter, bound.limiter)
	assert.Nil(t, c.session)
	assert.NotNil(t, bound.session)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		resp     response
		expected string
	}{
		{"error_field", response{status: 400, doc: map[string]any{"error": "bad input"}}, "bad input"},
		{"empty_error_field", response{status: 400, doc: map[string]any{"error": ""}}, "HTTP error! status: 400"},
		{"non_string_error", response{status: 500, doc: map[string]any{"error": 5.0}}, "HTTP error! status: 500"},
		{"no_body", response{status: 503}, "HTTP error! status: 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resp.errorMessage())
		})
	}
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "auth", outcomeLabel(domain.NewError(domain.ErrAuth, "op", 401, "", nil)))
	assert.Equal(t, "malformed", outcomeLabel(domain.NewError(domain.ErrMalformedResponse, "op", 200, "", nil)))
	assert.Equal(t, "network", outcomeLabel(domain.NewError(domain.ErrNetwork, "op", 0, "", nil)))
	assert.Equal(t, "http", outcomeLabel(errors.New("other")))
}
