package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	profileIDKey contextKey = "profile_id"
)

var logger *slog.Logger

// InitLogger initializes the global structured logger.
// format is one of json, text or pretty (colored console output).
func InitLogger(level, format string) {
	logger = slog.New(newHandler(os.Stdout, level, format))
	slog.SetDefault(logger)
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: level == "debug",
	}

	switch format {
	case "json":
		return slog.NewJSONHandler(w, opts)
	case "pretty":
		return tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			AddSource:  opts.AddSource,
			TimeFormat: time.DateTime,
		})
	default:
		return slog.NewTextHandler(w, opts)
	}
}

// FromContext returns a logger with context values attached
func FromContext(ctx context.Context) *slog.Logger {
	base := logger
	if base == nil {
		base = slog.Default()
	}

	attrs := make([]any, 0, 2)

	if reqID, ok := ctx.Value(requestIDKey).(string); ok && reqID != "" {
		attrs = append(attrs, slog.String("request_id", reqID))
	}

	if profileID, ok := ctx.Value(profileIDKey).(string); ok && profileID != "" {
		attrs = append(attrs, slog.String("profile_id", profileID))
	}

	if len(attrs) > 0 {
		return base.With(attrs...)
	}
	return base
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithProfileID adds the browser profile ID to context
func WithProfileID(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, profileIDKey, profileID)
}

// RequestID returns the request ID stored in ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// parseLevel converts string level to slog.Level
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
