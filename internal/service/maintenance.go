package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionPruner deletes stored sessions that have not been touched since before.
type SessionPruner interface {
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

// Maintenance runs periodic housekeeping on a cron schedule.
type Maintenance struct {
	registry  *Registry
	pruner    SessionPruner
	idleTTL   time.Duration
	retention time.Duration
	timeout   time.Duration
	cron      *cron.Cron
}

// NewMaintenance schedules housekeeping. pruner may be nil when sessions are not
// kept in a database.
func NewMaintenance(registry *Registry, pruner SessionPruner, schedule string, idleTTL, retention time.Duration) (*Maintenance, error) {
	m := &Maintenance{
		registry:  registry,
		pruner:    pruner,
		idleTTL:   idleTTL,
		retention: retention,
		timeout:   time.Minute,
		cron:      cron.New(),
	}
	if _, err := m.cron.AddFunc(schedule, func() { m.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", schedule, err)
	}
	return m, nil
}

func (m *Maintenance) Start() {
	m.cron.Start()
	slog.Info("maintenance scheduled", slog.Int("jobs", len(m.cron.Entries())))
}

// Stop waits for a running job to finish or ctx to expire.
func (m *Maintenance) Stop(ctx context.Context) {
	done := m.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce evicts idle workspaces, revalidates live sessions and prunes stale stored ones.
func (m *Maintenance) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	evicted := m.registry.EvictIdle(m.idleTTL)
	loggedOut := m.registry.RevalidateSessions(ctx)

	var pruned int64
	if m.pruner != nil && m.retention > 0 {
		n, err := m.pruner.DeleteStale(ctx, time.Now().Add(-m.retention))
		if err != nil {
			slog.Error("failed to prune stored sessions", slog.String("error", err.Error()))
		}
		pruned = n
	}

	slog.Info("maintenance completed",
		slog.Int("evicted", evicted),
		slog.Int("logged_out", loggedOut),
		slog.Int64("pruned", pruned),
		slog.Int("active", m.registry.Len()))
}
