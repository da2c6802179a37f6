package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSpec = `
openapi: 3.0.3
info:
  title: test
  version: 1.0.0
paths:
  /api/items:
    get:
      parameters:
        - name: page
          in: query
          schema:
            type: integer
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                type: object
                required: [items]
                properties:
                  items:
                    type: array
                    items:
                      type: object
  /api/items/{id}:
    parameters:
      - name: id
        in: path
        required: true
        schema:
          type: integer
          minimum: 1
    get:
      responses:
        '200':
          description: ok
  /api/login:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [username, password]
              properties:
                username:
                  type: string
                password:
                  type: string
      responses:
        '200':
          description: ok
`

func newValidator(t *testing.T, validateResponses bool, next http.Handler) http.Handler {
	t.Helper()
	cfg := DefaultOpenAPIValidatorConfig([]byte(testSpec))
	cfg.ValidateResponses = validateResponses
	mw, err := OpenAPIValidator(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestOpenAPIValidator_InvalidSpec(t *testing.T) {
	_, err := OpenAPIValidator(DefaultOpenAPIValidatorConfig([]byte("openapi: [")))
	assert.Error(t, err)

	_, err = OpenAPIValidator(DefaultOpenAPIValidatorConfig([]byte("openapi: 3.0.3\ninfo:\n  title: x\n")))
	assert.Error(t, err, "document without version or paths is rejected")
}

func TestOpenAPIValidator_Requests(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{"valid query", http.MethodGet, "/api/items?page=2", "", http.StatusOK},
		{"no query", http.MethodGet, "/api/items", "", http.StatusOK},
		{"non-integer query", http.MethodGet, "/api/items?page=two", "", http.StatusBadRequest},
		{"valid path", http.MethodGet, "/api/items/7", "", http.StatusOK},
		{"path below minimum", http.MethodGet, "/api/items/0", "", http.StatusBadRequest},
		{"non-integer path", http.MethodGet, "/api/items/abc", "", http.StatusBadRequest},
		{"valid body", http.MethodPost, "/api/login", `{"username":"alice","password":"secret"}`, http.StatusOK},
		{"missing field", http.MethodPost, "/api/login", `{"username":"alice"}`, http.StatusBadRequest},
		{"wrong type", http.MethodPost, "/api/login", `{"username":1,"password":"x"}`, http.StatusBadRequest},
		{"missing body", http.MethodPost, "/api/login", "", http.StatusBadRequest},
		{"undocumented path passes", http.MethodGet, "/api/unknown", "", http.StatusOK},
		{"skipped path", http.MethodGet, "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody string
			handler := newValidator(t, false, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				gotBody = string(b)
				w.WriteHeader(http.StatusOK)
			}))

			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.target, body)
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusBadRequest {
				var resp map[string]string
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Contains(t, resp["error"], "Request validation failed")
				assert.Equal(t, CodeValidation, resp["code"])
			}
			if tt.wantStatus == http.StatusOK && tt.body != "" {
				assert.Equal(t, tt.body, gotBody, "validated body is still readable downstream")
			}
		})
	}
}

func TestOpenAPIValidator_ResponseValidationDoesNotAlterResponse(t *testing.T) {
	handler := newValidator(t, true, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/items", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unexpected":true}`, w.Body.String())
}

func TestShouldSkipPath(t *testing.T) {
	skip := []string{"/health", "/metrics", "/ws"}

	assert.True(t, shouldSkipPath("/health", skip))
	assert.True(t, shouldSkipPath("/health/ready", skip))
	assert.True(t, shouldSkipPath("/ws", skip))
	assert.False(t, shouldSkipPath("/api/attractions", skip))
}
