package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Health returns basic health check
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    string         `json:"status"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Check probes one dependency.
type Check struct {
	Name  string
	Probe func(ctx context.Context) HealthCheckResult
}

// Ready runs every check concurrently and reports 503 unless all are up.
func Ready(checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		results := make(map[string]HealthCheckResult, len(checks))
		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for _, c := range checks {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res := c.Probe(ctx)
				mu.Lock()
				results[c.Name] = res
				mu.Unlock()
			}()
		}
		wg.Wait()

		status := "ready"
		code := http.StatusOK
		for _, res := range results {
			if res.Status != "up" {
				status = "not_ready"
				code = http.StatusServiceUnavailable
			}
		}

		writeJSON(w, code, map[string]any{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"checks":    results,
		})
	}
}

// DatabaseCheck pings the session database.
func DatabaseCheck(db *sql.DB) Check {
	return Check{Name: "database", Probe: func(ctx context.Context) HealthCheckResult {
		start := time.Now()
		err := db.PingContext(ctx)
		latency := time.Since(start)

		if err != nil {
			return HealthCheckResult{
				Status:    "down",
				LatencyMs: latency.Milliseconds(),
				Error:     err.Error(),
			}
		}

		stats := db.Stats()
		return HealthCheckResult{
			Status:    "up",
			LatencyMs: latency.Milliseconds(),
			Metadata: map[string]any{
				"connections_open":   stats.OpenConnections,
				"connections_in_use": stats.InUse,
				"connections_idle":   stats.Idle,
				"max_open":           stats.MaxOpenConnections,
			},
		}
	}}
}

// ConnectionState is satisfied by the RabbitMQ connection.
type ConnectionState interface {
	IsClosed() bool
}

// RabbitMQCheck reports whether the broker connection is still open.
func RabbitMQCheck(conn ConnectionState) Check {
	return Check{Name: "rabbitmq", Probe: func(ctx context.Context) HealthCheckResult {
		if conn.IsClosed() {
			return HealthCheckResult{Status: "down", Error: "connection closed"}
		}
		return HealthCheckResult{Status: "up"}
	}}
}

// WorkspaceCounter reports how many profiles are live.
type WorkspaceCounter interface {
	Len() int
}

// WorkspacesCheck is always up and exposes the number of live workspaces.
func WorkspacesCheck(counter WorkspaceCounter) Check {
	return Check{Name: "workspaces", Probe: func(ctx context.Context) HealthCheckResult {
		return HealthCheckResult{Status: "up", Metadata: map[string]any{"active": counter.Len()}}
	}}
}
