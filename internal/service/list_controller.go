package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"attractions-web/internal/domain"
	"attractions-web/internal/observability"
	"attractions-web/internal/view"
)

// ViewObserver receives view state changes as they happen.
type ViewObserver interface {
	Notify(event view.Event)
}

// ObserverFunc adapts a function to ViewObserver.
type ObserverFunc func(event view.Event)

func (f ObserverFunc) Notify(event view.Event) { f(event) }

// ListState is a snapshot of the attraction list screen.
type ListState struct {
	CurrentPage   int
	SearchTerm    string
	Loading       bool
	Authenticated bool
	Favorites     domain.FavoriteSet
	View          *view.ListView
	LastError     error
}

// ListController drives the paginated attraction list. Every LoadPage supersedes the
// previous one: its context is cancelled and its result, if it still arrives, is dropped.
type ListController struct {
	catalog   domain.CatalogAPI
	favorites *FavoritesSynchronizer
	store     domain.SessionStore
	observer  ViewObserver

	mu         sync.Mutex
	state      ListState
	generation uint64
	cancel     context.CancelFunc
}

func NewListController(catalog domain.CatalogAPI, favorites *FavoritesSynchronizer, store domain.SessionStore, observer ViewObserver) *ListController {
	if observer == nil {
		observer = ObserverFunc(func(view.Event) {})
	}
	return &ListController{
		catalog:   catalog,
		favorites: favorites,
		store:     store,
		observer:  observer,
		state:     ListState{Favorites: domain.NewFavoriteSet()},
	}
}

// State returns a copy of the current state.
func (c *ListController) State() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.View != nil {
		v := *s.View
		s.View = &v
	}
	return s
}

// InitList loads the first page for search.
func (c *ListController) InitList(ctx context.Context, search string) (view.ListView, error) {
	return c.LoadPage(ctx, 1, search)
}

// NextPage loads the page after the current one with the current search term.
func (c *ListController) NextPage(ctx context.Context) (view.ListView, error) {
	page, search, err := c.adjacent(func(p view.PaginationView) bool { return p.NextDisabled }, 1)
	if err != nil {
		return view.ListView{}, err
	}
	return c.LoadPage(ctx, page, search)
}

// PreviousPage loads the page before the current one with the current search term.
func (c *ListController) PreviousPage(ctx context.Context) (view.ListView, error) {
	page, search, err := c.adjacent(func(p view.PaginationView) bool { return p.PreviousDisabled }, -1)
	if err != nil {
		return view.ListView{}, err
	}
	return c.LoadPage(ctx, page, search)
}

func (c *ListController) adjacent(disabled func(view.PaginationView) bool, step int) (int, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.View == nil || disabled(c.state.View.Pagination) {
		return 0, "", domain.ErrNoAdjacentPage
	}
	return c.state.CurrentPage + step, c.state.SearchTerm, nil
}

// LoadPage resolves the favorite set, then fetches and renders page. A failed fetch
// leaves CurrentPage at the last successfully loaded page.
func (c *ListController) LoadPage(ctx context.Context, page int, search string) (view.ListView, error) {
	page = max(page, 1)
	search = strings.TrimSpace(search)
	logger := observability.FromContext(ctx)

	loadCtx, gen := c.begin(ctx)
	c.observer.Notify(view.LoadingEvent(page, search))

	var warnings []view.Feedback
	favorites, loggedOut, err := c.favorites.LoadFavoriteSet(loadCtx)
	if err != nil {
		if !c.current(gen) {
			return c.superseded()
		}
		logger.Warn("favorite set unavailable, rendering without it", slog.String("error", err.Error()))
		warnings = append(warnings, view.FavoritesWarning(err))
		favorites = domain.NewFavoriteSet()
	}
	if loggedOut {
		warnings = append(warnings, view.LoggedOutWarning())
	}

	authenticated := false
	if session, err := c.store.Read(loadCtx); err == nil {
		authenticated = session.Valid()
	}

	result, err := c.catalog.ListAttractions(loadCtx, page, search)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return c.superseded()
	}
	c.state.Loading = false
	c.state.Authenticated = authenticated
	c.state.Favorites = favorites
	if err != nil {
		c.state.LastError = err
		c.mu.Unlock()

		logger.Error("failed to load attractions",
			slog.Int("page", page),
			slog.String("search", search),
			slog.String("error", err.Error()))
		observability.ListLoadsTotal.WithLabelValues("error").Inc()
		if loggedOut {
			c.observer.Notify(view.LoggedOutEvent())
		}
		c.observer.Notify(view.FeedbackEvent(view.PageLoadError(page, err)))
		return view.ListView{}, err
	}

	v := view.RenderList(result, favorites, authenticated, warnings)
	v.SearchTerm = search
	c.state.CurrentPage = result.Pagination.Page
	c.state.SearchTerm = search
	c.state.View = &v
	c.state.LastError = nil
	c.mu.Unlock()

	observability.ListLoadsTotal.WithLabelValues("ok").Inc()
	if loggedOut {
		c.observer.Notify(view.LoggedOutEvent())
	}
	c.observer.Notify(view.RenderedEvent(v))
	return v, nil
}

// begin invalidates any load in flight and enters the loading state.
func (c *ListController) begin(ctx context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	c.generation++
	c.cancel = cancel
	c.state.Loading = true
	return loadCtx, c.generation
}

func (c *ListController) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation
}

func (c *ListController) superseded() (view.ListView, error) {
	observability.ListLoadsTotal.WithLabelValues("superseded").Inc()
	return view.ListView{}, domain.ErrSuperseded
}

// Leave abandons the list screen. Any load in flight is cancelled and its result dropped.
func (c *ListController) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.state.Loading = false
}

// ToggleFavorite flips the favorite state of id as currently known to the list.
func (c *ListController) ToggleFavorite(ctx context.Context, id int) (view.FavoriteButton, error) {
	c.mu.Lock()
	favorited := c.state.Favorites.Has(id)
	c.mu.Unlock()

	result, err := c.favorites.Toggle(ctx, id, favorited)

	c.mu.Lock()
	switch {
	case result.LoggedOut:
		c.state.Authenticated = false
		c.state.Favorites = domain.NewFavoriteSet()
	case err == nil && result.Favorited:
		c.state.Authenticated = true
		c.state.Favorites = c.state.Favorites.With(id)
	case err == nil:
		c.state.Authenticated = true
		c.state.Favorites = c.state.Favorites.Without(id)
	}
	button := view.RenderFavoriteButton(domain.Attraction{ID: id}, c.state.Authenticated && c.state.Favorites.Has(id), c.state.Authenticated)
	c.refreshButtonsLocked()
	c.mu.Unlock()

	if err != nil {
		if result.LoggedOut {
			c.observer.Notify(view.LoggedOutEvent())
		}
		if !errors.Is(err, domain.ErrTogglePending) {
			c.observer.Notify(view.FavoriteToggledEvent(button, view.ToggleError(err)))
		}
		return button, err
	}
	c.observer.Notify(view.FavoriteToggledEvent(button, view.ToggleFeedback(result.Favorited)))
	return button, nil
}

// SyncAuth adopts the stored session after a login or logout. The favorite set of a
// new session is fetched; the displayed page is re-rendered and pushed to the observer.
func (c *ListController) SyncAuth(ctx context.Context) {
	authenticated := false
	if session, err := c.store.Read(ctx); err == nil {
		authenticated = session.Valid()
	}

	favorites := domain.NewFavoriteSet()
	if authenticated {
		set, loggedOut, err := c.favorites.LoadFavoriteSet(ctx)
		switch {
		case err != nil:
			observability.FromContext(ctx).Warn("favorite set unavailable after login",
				slog.String("error", err.Error()))
		case loggedOut:
			authenticated = false
		default:
			favorites = set
		}
	}

	c.mu.Lock()
	c.state.Authenticated = authenticated
	c.state.Favorites = favorites
	c.refreshButtonsLocked()
	var rendered *view.ListView
	if c.state.View != nil {
		v := *c.state.View
		rendered = &v
	}
	c.mu.Unlock()

	if rendered != nil {
		c.observer.Notify(view.RenderedEvent(*rendered))
	}
}

// refreshButtonsLocked re-renders the favorite buttons of the displayed page.
func (c *ListController) refreshButtonsLocked() {
	if c.state.View == nil {
		return
	}
	v := *c.state.View
	v.Items = append([]view.ItemView(nil), v.Items...)
	for i := range v.Items {
		a := domain.Attraction{ID: v.Items[i].ID}
		v.Items[i].Favorite = view.RenderFavoriteButton(a, c.state.Authenticated && c.state.Favorites.Has(a.ID), c.state.Authenticated)
	}
	c.state.View = &v
}
