package middleware

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"attractions-web/internal/observability"
)

// OpenAPIValidatorConfig holds configuration for OpenAPI validation middleware
type OpenAPIValidatorConfig struct {
	// Spec is the OpenAPI 3 document the requests are checked against
	Spec []byte
	// ValidateResponses logs responses that drift from the document
	ValidateResponses bool
	// SkipPaths are prefixes that bypass validation
	SkipPaths []string
}

// DefaultOpenAPIValidatorConfig validates requests only and skips operational endpoints.
func DefaultOpenAPIValidatorConfig(spec []byte) *OpenAPIValidatorConfig {
	return &OpenAPIValidatorConfig{
		Spec:      spec,
		SkipPaths: []string{"/health", "/metrics", "/ws"},
	}
}

// OpenAPIValidator rejects requests whose parameters or bodies violate the document
// with 400. Paths the document does not describe pass through to the router.
func OpenAPIValidator(config *OpenAPIValidatorConfig) (func(http.Handler) http.Handler, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(config.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAPI router: %w", err)
	}

	options := &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkipPath(r.URL.Path, config.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			logger := observability.FromContext(r.Context())

			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				logger.Debug("request not described by OpenAPI spec",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.Warn("request validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()))
				writeJSONError(w, http.StatusBadRequest, CodeValidation, validationMessage(err))
				return
			}

			if !config.ValidateResponses {
				next.ServeHTTP(w, r)
				return
			}

			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)
			validateResponse(r, input, route, recorder, logger)
		})
	}, nil
}

func validateResponse(r *http.Request, input *openapi3filter.RequestValidationInput, route *routers.Route, rec *responseRecorder, logger *slog.Logger) {
	err := openapi3filter.ValidateResponse(r.Context(), &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 rec.statusCode,
		Header:                 rec.Header(),
		Body:                   io.NopCloser(bytes.NewReader(rec.body.Bytes())),
		Options:                input.Options,
	})
	if err != nil {
		logger.Warn("response validation failed",
			slog.String("operation", route.Operation.OperationID),
			slog.Int("status", rec.statusCode),
			slog.String("error", err.Error()))
	}
}

// validationMessage keeps the first line of a kin-openapi error, which names the
// offending parameter or field without dumping the schema.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return "Request validation failed: " + msg
}

func shouldSkipPath(path string, skipPaths []string) bool {
	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
