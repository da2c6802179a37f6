package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"attractions-web/internal/domain"
	"attractions-web/internal/observability"
)

// ToggleResult is the favorite state of one attraction after a toggle attempt.
// On failure Favorited still holds the state before the toggle.
type ToggleResult struct {
	AttractionID int
	Favorited    bool
	Outcome      domain.BookmarkOutcome
	LoggedOut    bool
}

// FavoritesSynchronizer keeps the local favorite set in step with the server.
// At most one toggle per attraction ID is in flight; different IDs proceed concurrently.
type FavoritesSynchronizer struct {
	api       domain.BookmarkAPI
	store     domain.SessionStore
	publisher domain.BookmarkPublisher

	mu      sync.Mutex
	pending map[int]struct{}
}

// NewFavoritesSynchronizer creates a synchronizer. publisher may be nil.
func NewFavoritesSynchronizer(api domain.BookmarkAPI, store domain.SessionStore, publisher domain.BookmarkPublisher) *FavoritesSynchronizer {
	return &FavoritesSynchronizer{
		api:       api,
		store:     store,
		publisher: publisher,
		pending:   make(map[int]struct{}),
	}
}

// LoadFavoriteSet fetches the user's bookmarks. Without a session the set is empty.
// A rejected token clears the stored session and reports forcedLogout instead of an error.
func (s *FavoritesSynchronizer) LoadFavoriteSet(ctx context.Context) (set domain.FavoriteSet, forcedLogout bool, err error) {
	ids, err := s.api.ListFavoriteIDs(ctx)
	switch {
	case err == nil:
		return domain.NewFavoriteSet(ids...), false, nil
	case errors.Is(err, domain.ErrAuthRequired):
		return domain.NewFavoriteSet(), false, nil
	case errors.Is(err, domain.ErrAuth):
		s.forceLogout(ctx)
		return domain.NewFavoriteSet(), true, nil
	default:
		return nil, false, err
	}
}

// Pending reports whether a toggle for id is in flight.
func (s *FavoritesSynchronizer) Pending(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// Busy reports whether any toggle is in flight.
func (s *FavoritesSynchronizer) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Toggle removes the bookmark when currentlyFavorited, adds it otherwise.
func (s *FavoritesSynchronizer) Toggle(ctx context.Context, id int, currentlyFavorited bool) (ToggleResult, error) {
	result := ToggleResult{AttractionID: id, Favorited: currentlyFavorited}

	if !s.begin(id) {
		observability.FavoriteTogglesTotal.WithLabelValues("pending").Inc()
		return result, domain.ErrTogglePending
	}
	defer s.finish(id)

	var (
		outcome domain.BookmarkOutcome
		err     error
	)
	if currentlyFavorited {
		outcome, err = s.api.RemoveFavorite(ctx, id)
	} else {
		outcome, err = s.api.AddFavorite(ctx, id)
	}
	if err != nil {
		observability.FavoriteTogglesTotal.WithLabelValues("rolled_back").Inc()
		if errors.Is(err, domain.ErrAuth) {
			s.forceLogout(ctx)
			result.LoggedOut = true
		}
		return result, err
	}

	result.Favorited = !currentlyFavorited
	result.Outcome = outcome
	observability.FavoriteTogglesTotal.WithLabelValues("confirmed").Inc()

	if outcome.Changed() {
		s.publish(ctx, id, outcome)
	}
	return result, nil
}

func (s *FavoritesSynchronizer) begin(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.pending[id]; busy {
		return false
	}
	s.pending[id] = struct{}{}
	return true
}

func (s *FavoritesSynchronizer) finish(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

func (s *FavoritesSynchronizer) forceLogout(ctx context.Context) {
	logger := observability.FromContext(ctx)
	logger.Info("bookmark API rejected token, clearing session")
	if err := s.store.Clear(ctx); err != nil {
		logger.Error("failed to clear session", slog.String("error", err.Error()))
	}
}

func (s *FavoritesSynchronizer) publish(ctx context.Context, id int, outcome domain.BookmarkOutcome) {
	if s.publisher == nil {
		return
	}
	logger := observability.FromContext(ctx)
	session, err := s.store.Read(ctx)
	if err != nil {
		logger.Warn("skipping bookmark event, session unreadable", slog.String("error", err.Error()))
		return
	}
	if err := s.publisher.PublishBookmarkEvent(ctx, domain.NewBookmarkEvent(session, id, outcome)); err != nil {
		logger.Warn("failed to publish bookmark event",
			slog.Int("attraction_id", id),
			slog.String("error", err.Error()))
	}
}
