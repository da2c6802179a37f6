package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"attractions-web/internal/domain"
	"attractions-web/internal/observability"
	"attractions-web/internal/view"
)

// RemoteAPI is the full remote surface a workspace talks to.
type RemoteAPI interface {
	domain.AuthAPI
	domain.CatalogAPI
	domain.BookmarkAPI
}

// APIFactory binds the remote API to a profile's session store.
type APIFactory func(store domain.SessionStore) RemoteAPI

// StoreFactory opens the session store of a browser profile.
type StoreFactory func(profileID string) (domain.SessionStore, error)

// EventSink delivers view events to the connections of a profile.
type EventSink interface {
	SendToProfile(profileID string, event view.Event)
}

// Workspace is everything one browser profile owns.
type Workspace struct {
	ProfileID    string
	Store        domain.SessionStore
	Catalog      domain.CatalogAPI
	Auth         *AuthService
	Favorites    *FavoritesSynchronizer
	List         *ListController
	FavoriteList *FavoriteListService
	Detail       *DetailService

	lastSeen time.Time
}

// Registry creates workspaces on first use and evicts idle ones.
type Registry struct {
	apis      APIFactory
	stores    StoreFactory
	sink      EventSink
	publisher domain.BookmarkPublisher
	now       func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry creates a registry. sink and publisher may be nil.
func NewRegistry(apis APIFactory, stores StoreFactory, sink EventSink, publisher domain.BookmarkPublisher) *Registry {
	return &Registry{
		apis:       apis,
		stores:     stores,
		sink:       sink,
		publisher:  publisher,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Get returns the workspace of profileID, creating it if needed.
func (r *Registry) Get(profileID string) (*Workspace, error) {
	if profileID == "" {
		return nil, errors.New("empty profile id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ws, ok := r.workspaces[profileID]; ok {
		ws.lastSeen = r.now()
		return ws, nil
	}

	store, err := r.stores(profileID)
	if err != nil {
		return nil, err
	}
	ws := r.build(profileID, store)
	r.workspaces[profileID] = ws
	observability.WorkspacesActive.Inc()
	return ws, nil
}

func (r *Registry) build(profileID string, store domain.SessionStore) *Workspace {
	api := r.apis(store)
	favorites := NewFavoritesSynchronizer(api, store, r.publisher)

	var observer ViewObserver
	if r.sink != nil {
		observer = ObserverFunc(func(event view.Event) {
			r.sink.SendToProfile(profileID, event)
		})
	}

	return &Workspace{
		ProfileID:    profileID,
		Store:        store,
		Catalog:      api,
		Auth:         NewAuthService(api, store),
		Favorites:    favorites,
		List:         NewListController(api, favorites, store, observer),
		FavoriteList: NewFavoriteListService(api, favorites, store),
		Detail:       NewDetailService(api, favorites, store),
		lastSeen:     r.now(),
	}
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// EvictIdle drops workspaces not used within ttl. Stored sessions are kept.
// A workspace with a favorite toggle in flight stays until the toggle settles,
// so a rebuilt workspace never runs a second toggle for the same bookmark.
func (r *Registry) EvictIdle(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var idle []*Workspace
	for id, ws := range r.workspaces {
		if ws.lastSeen.Before(cutoff) && !ws.Favorites.Busy() {
			idle = append(idle, ws)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range idle {
		ws.List.Leave()
		observability.WorkspacesActive.Dec()
	}
	return len(idle)
}

// RevalidateSessions checks the stored session of every live workspace and
// notifies profiles whose session was rejected.
func (r *Registry) RevalidateSessions(ctx context.Context) int {
	r.mu.Lock()
	live := make([]*Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		live = append(live, ws)
	}
	r.mu.Unlock()

	loggedOut := 0
	for _, ws := range live {
		out, err := ws.Auth.Revalidate(ctx)
		if err != nil {
			slog.Warn("session revalidation failed",
				slog.String("profile_id", ws.ProfileID),
				slog.String("error", err.Error()))
			continue
		}
		if out {
			loggedOut++
			ws.List.SyncAuth(ctx)
			if r.sink != nil {
				r.sink.SendToProfile(ws.ProfileID, view.LoggedOutEvent())
			}
		}
	}
	return loggedOut
}
