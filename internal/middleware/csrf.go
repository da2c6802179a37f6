package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"attractions-web/internal/observability"
	"attractions-web/internal/security"
)

const (
	// CSRFCookie is readable by page scripts, which echo it in CSRFHeader.
	CSRFCookie = "csrf_token"
	CSRFHeader = "X-CSRF-Token"
)

// CSRF issues a profile-bound token cookie and requires it back in the X-CSRF-Token
// header on state-changing requests. Must run after Profile.
func CSRF(tokens *security.TokenManager, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profileID, ok := ProfileID(r.Context())
			if !ok {
				writeJSONError(w, http.StatusForbidden, CodeCSRF, "Forbidden")
				return
			}

			cookie, err := r.Cookie(CSRFCookie)
			if err != nil || tokens.Verify(profileID, cookie.Value) != nil {
				token, err := tokens.Generate(profileID)
				if err != nil {
					observability.FromContext(r.Context()).Error("failed to generate CSRF token",
						slog.String("error", err.Error()))
					writeJSONError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookie,
					Value:    token,
					Path:     "/",
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
				})
			}

			if isSafeMethod(r.Method) || isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			submitted := extractCSRFToken(r)
			if submitted == "" {
				logCSRFFailure(r, "missing token")
				writeJSONError(w, http.StatusForbidden, CodeCSRF, "Forbidden")
				return
			}
			if err := tokens.Verify(profileID, submitted); err != nil {
				logCSRFFailure(r, "invalid token")
				writeJSONError(w, http.StatusForbidden, CodeCSRF, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

func isExemptPath(path string) bool {
	for _, exempt := range []string{"/health", "/metrics", "/ws"} {
		if strings.HasPrefix(path, exempt) {
			return true
		}
	}
	return false
}

func extractCSRFToken(r *http.Request) string {
	if token := r.Header.Get(CSRFHeader); token != "" {
		return token
	}
	return r.Header.Get("X-XSRF-Token")
}

func logCSRFFailure(r *http.Request, reason string) {
	observability.FromContext(r.Context()).Warn("CSRF validation failed",
		slog.String("reason", reason),
		slog.String("method", r.Method),
		slog.String("path", r.RequestURI),
		slog.String("remote_addr", r.RemoteAddr),
	)
}
