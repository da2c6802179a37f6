package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_AllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		shouldAllow    bool
	}{
		{"allowed origin", []string{"http://localhost:3000", "http://example.com"}, "http://localhost:3000", true},
		{"allowed second origin", []string{"http://localhost:3000", "http://example.com"}, "http://example.com", true},
		{"disallowed origin", []string{"http://localhost:3000"}, "http://malicious.com", false},
		{"no origin header", []string{"http://localhost:3000"}, "", false},
		{"wildcard", []string{"*"}, "https://any-origin.test", true},
		{"wildcard without origin", []string{"*"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := CORS(tt.allowedOrigins)(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/api/attractions", nil)
			if tt.requestOrigin != "" {
				req.Header.Set("Origin", tt.requestOrigin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.True(t, called, "simple requests always reach the handler")
			if tt.shouldAllow {
				assert.Equal(t, tt.requestOrigin, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-CSRF-Token")
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestCORS_VaryOrigin(t *testing.T) {
	handler := CORS([]string{"http://localhost:3000"})(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	req.Header.Set("Origin", "http://other.test")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestCORS_Preflight(t *testing.T) {
	tests := []struct {
		name       string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed", "http://localhost:3000", http.StatusNoContent, "http://localhost:3000"},
		{"disallowed", "http://malicious.com", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := CORS([]string{"http://localhost:3000"})(okHandler(&called))

			req := httptest.NewRequest(http.MethodOptions, "/api/attractions/3/favorite", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.False(t, called, "preflight should not call next handler")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_PlainOptionsPassesThrough(t *testing.T) {
	called := false
	handler := CORS([]string{"http://localhost:3000"})(okHandler(&called))

	req := httptest.NewRequest(http.MethodOptions, "/api/attractions", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called)
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "http://localhost:3000", []string{"http://localhost:3000"}},
		{"multiple", "http://localhost:3000,http://example.com", []string{"http://localhost:3000", "http://example.com"}},
		{"trims spaces and slashes", "  http://localhost:3000/  ,  http://example.com  ", []string{"http://localhost:3000", "http://example.com"}},
		{"wildcard", "*", []string{"*"}},
		{"empty", "", nil},
		{"blank entries", "http://a.test,, ,", []string{"http://a.test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrigins(tt.input))
		})
	}
}

func BenchmarkCORS(b *testing.B) {
	handler := CORS([]string{"http://localhost:3000", "http://example.com"})(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/attractions", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
