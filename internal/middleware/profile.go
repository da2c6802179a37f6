package middleware

import (
	"context"
	"net/http"
	"time"

	"attractions-web/internal/observability"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const profileIDKey contextKey = "profile_id"

// ProfileCookie names the cookie that identifies a browser profile.
const ProfileCookie = "profile_id"

const profileCookieMaxAge = 365 * 24 * time.Hour

// Profile assigns every browser a stable profile ID. A missing or malformed
// cookie is replaced with a fresh UUID.
func Profile(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profileID := ""
			if cookie, err := r.Cookie(ProfileCookie); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					profileID = id.String()
				}
			}

			if profileID == "" {
				profileID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     ProfileCookie,
					Value:    profileID,
					Path:     "/",
					MaxAge:   int(profileCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithProfileID(r.Context(), profileID)))
		})
	}
}

// ProfileID returns the profile assigned by Profile.
func ProfileID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(profileIDKey).(string)
	return id, ok && id != ""
}

// WithProfileID stores a profile ID in ctx, also tagging log lines with it.
func WithProfileID(ctx context.Context, profileID string) context.Context {
	ctx = context.WithValue(ctx, profileIDKey, profileID)
	return observability.WithProfileID(ctx, profileID)
}

// RequestContext copies chi's request ID into the logging context and echoes it back.
// Must run after chimiddleware.RequestID.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := chimiddleware.GetReqID(r.Context())
		if reqID == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set(chimiddleware.RequestIDHeader, reqID)
		next.ServeHTTP(w, r.WithContext(observability.WithRequestID(r.Context(), reqID)))
	})
}
