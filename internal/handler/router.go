package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attractions-web/internal/middleware"
	"attractions-web/internal/security"
	ws "attractions-web/internal/websocket"
)

// RouterConfig wires the HTTP surface. Nil limiters, CSRF manager or validator disable
// the corresponding middleware.
type RouterConfig struct {
	Workspaces     Workspaces
	Hub            *ws.Hub
	AllowedOrigins []string
	PublicURL      string
	SecureCookies  bool
	CSRF           *security.TokenManager
	AuthLimiter    *middleware.RateLimiter
	APILimiter     *middleware.RateLimiter
	Validator      func(http.Handler) http.Handler
	ReadyChecks    []Check
}

// NewRouter builds the BFF router.
func NewRouter(cfg RouterConfig) chi.Router {
	authHandler := NewAuthHandler(cfg.Workspaces)
	attractionHandler := NewAttractionHandler(cfg.Workspaces, cfg.PublicURL)
	favoritesHandler := NewFavoritesHandler(cfg.Workspaces)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestContext)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Metrics())

	r.Get("/health", Health)
	r.Get("/health/ready", Ready(cfg.ReadyChecks...))
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, CodeNotFound, "Not Found")
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Profile(cfg.SecureCookies))
		if cfg.CSRF != nil {
			r.Use(middleware.CSRF(cfg.CSRF, cfg.SecureCookies))
		}

		if cfg.Hub != nil {
			wsHandler := NewWebSocketHandler(cfg.Hub, cfg.Workspaces, cfg.AllowedOrigins)
			r.Get("/ws", wsHandler.HandleConnection)
		}

		r.Route("/api", func(r chi.Router) {
			if cfg.Validator != nil {
				r.Use(cfg.Validator)
			}

			r.Group(func(r chi.Router) {
				if cfg.AuthLimiter != nil {
					r.Use(cfg.AuthLimiter.Middleware())
				}
				r.Post("/auth/register", authHandler.Register)
				r.Post("/auth/login", authHandler.Login)
			})

			r.Group(func(r chi.Router) {
				if cfg.APILimiter != nil {
					r.Use(cfg.APILimiter.Middleware())
				}

				r.Post("/auth/logout", authHandler.Logout)
				r.Get("/auth/status", authHandler.Status)

				r.Get("/attractions", attractionHandler.List)
				r.Get("/attractions/state", attractionHandler.State)
				r.Post("/attractions/next", attractionHandler.Next)
				r.Post("/attractions/previous", attractionHandler.Previous)
				r.Get("/attractions/{id}", attractionHandler.Detail)
				r.Post("/attractions/{id}/favorite", attractionHandler.ToggleFavorite)

				r.Get("/favorites", favoritesHandler.List)
				r.Delete("/favorites/{id}", favoritesHandler.Remove)
			})
		})
	})

	return r
}
