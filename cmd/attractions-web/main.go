package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attractions-web/internal/config"
	"attractions-web/internal/domain"
	"attractions-web/internal/gateway"
	"attractions-web/internal/handler"
	"attractions-web/internal/messaging"
	"attractions-web/internal/middleware"
	"attractions-web/internal/observability"
	"attractions-web/internal/repository/postgres"
	"attractions-web/internal/security"
	"attractions-web/internal/service"
	"attractions-web/internal/session"
	"attractions-web/internal/websocket"
)

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting attractions web",
		slog.String("api", cfg.APIBaseURL),
		slog.String("session_backend", cfg.SessionBackend))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	contract, err := gateway.DefaultContract()
	if err != nil {
		slog.Error("failed to load API contract", slog.String("error", err.Error()))
		os.Exit(1)
	}
	client, err := gateway.NewClient(cfg.APIBaseURL,
		gateway.WithTimeout(cfg.APITimeout),
		gateway.WithRateLimit(cfg.APIRateLimit, cfg.APIRateBurst),
		gateway.WithRetry(3, 200*time.Millisecond),
		gateway.WithContract(contract),
	)
	if err != nil {
		slog.Error("invalid API configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var readyChecks []handler.Check

	stores, pruner, db, err := sessionBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up session storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		readyChecks = append(readyChecks, handler.DatabaseCheck(db))
	}

	var publisher domain.BookmarkPublisher
	if cfg.RabbitMQURL != "" {
		rmqCtx, rmqCancel := context.WithTimeout(ctx, 60*time.Second)
		rmq, err := messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL)
		rmqCancel()
		if err != nil {
			slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rmq.Close()
		if err := rmq.Setup(); err != nil {
			slog.Error("failed to declare bookmark topology", slog.String("error", err.Error()))
			os.Exit(1)
		}
		publisher = rmq
		readyChecks = append(readyChecks, handler.RabbitMQCheck(rmq))
		slog.Info("publishing bookmark events to rabbitmq")
	}

	hub := websocket.NewHub()
	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("hub error", slog.String("error", err.Error()))
		}
	}()

	registry := service.NewRegistry(
		func(store domain.SessionStore) service.RemoteAPI { return client.WithSession(store) },
		stores,
		hub,
		publisher,
	)
	readyChecks = append(readyChecks, handler.WorkspacesCheck(registry))

	maintenance, err := service.NewMaintenance(registry, pruner, cfg.MaintenanceSchedule, cfg.WorkspaceIdleTTL, cfg.SessionRetention)
	if err != nil {
		slog.Error("failed to schedule maintenance", slog.String("error", err.Error()))
		os.Exit(1)
	}
	maintenance.Start()

	csrf, err := security.NewTokenManager([]byte(cfg.SessionSecret))
	if err != nil {
		slog.Error("failed to create CSRF token manager", slog.String("error", err.Error()))
		os.Exit(1)
	}

	authLimiter := middleware.NewRateLimiter(ctx, 5, 10)
	defer authLimiter.Stop()
	apiLimiter := middleware.NewRateLimiter(ctx, 20, 50)
	defer apiLimiter.Stop()

	var validator func(http.Handler) http.Handler
	if cfg.OpenAPIValidation {
		validator, err = middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig(handler.OpenAPISpec))
		if err != nil {
			slog.Error("failed to load OpenAPI document", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	r := handler.NewRouter(handler.RouterConfig{
		Workspaces:     registry,
		Hub:            hub,
		AllowedOrigins: middleware.ParseOrigins(cfg.AllowedOrigins),
		PublicURL:      cfg.PublicURL,
		SecureCookies:  cfg.IsProduction(),
		CSRF:           csrf,
		AuthLimiter:    authLimiter,
		APILimiter:     apiLimiter,
		Validator:      validator,
		ReadyChecks:    readyChecks,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("attractions web listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}
	maintenance.Stop(shutdownCtx)
	cancel()

	slog.Info("server stopped gracefully")
}

// sessionBackend returns the per-profile store factory for the configured backend.
// The pruner and database are nil unless sessions live in PostgreSQL.
func sessionBackend(ctx context.Context, cfg *config.Config) (service.StoreFactory, service.SessionPruner, *sql.DB, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendFile:
		return func(profileID string) (domain.SessionStore, error) {
			return session.NewFileStore(cfg.SessionDir, profileID, cfg.SessionSecret)
		}, nil, nil, nil

	case config.SessionBackendPostgres:
		connCtx, connCancel := context.WithTimeout(ctx, 10*time.Second)
		defer connCancel()

		db, err := config.NewPostgresConnection(connCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		repo, err := postgres.NewSessionRepository(db)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		slog.Info("storing sessions in postgresql")
		return func(profileID string) (domain.SessionStore, error) {
			return repo.ForProfile(profileID), nil
		}, repo, db, nil

	default:
		return func(string) (domain.SessionStore, error) {
			return session.NewMemoryStore(), nil
		}, nil, nil, nil
	}
}
