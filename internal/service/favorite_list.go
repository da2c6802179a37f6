package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"attractions-web/internal/domain"
	"attractions-web/internal/observability"
	"attractions-web/internal/view"
)

const detailFetchLimit = 4

// FavoriteListService builds the favorites screen from bookmark IDs and attraction details.
type FavoriteListService struct {
	catalog   domain.CatalogAPI
	favorites *FavoritesSynchronizer
	store     domain.SessionStore
}

func NewFavoriteListService(catalog domain.CatalogAPI, favorites *FavoritesSynchronizer, store domain.SessionStore) *FavoriteListService {
	return &FavoriteListService{
		catalog:   catalog,
		favorites: favorites,
		store:     store,
	}
}

// Load renders the favorites of the logged-in user. Details are fetched concurrently;
// attractions whose details fail are listed in a warning.
func (s *FavoriteListService) Load(ctx context.Context) (view.FavoritesView, error) {
	session, err := s.store.Read(ctx)
	if err != nil {
		return view.FavoritesView{}, err
	}
	if !session.Valid() {
		return view.RenderFavoritesLoggedOut(), nil
	}

	set, loggedOut, err := s.favorites.LoadFavoriteSet(ctx)
	if err != nil {
		return view.FavoritesView{}, err
	}
	if loggedOut {
		v := view.RenderFavoritesLoggedOut()
		v.Warnings = append(v.Warnings, view.LoggedOutWarning())
		return v, nil
	}

	ids := set.IDs()
	details := make([]*domain.Attraction, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailFetchLimit)
	for i, id := range ids {
		g.Go(func() error {
			a, err := s.catalog.GetAttraction(gctx, id)
			if err != nil {
				// Only cancellation aborts the screen; other failures mark the item.
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				observability.FromContext(ctx).Warn("failed to load favorite attraction",
					slog.Int("attraction_id", id),
					slog.String("error", err.Error()))
				return nil
			}
			details[i] = &a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return view.FavoritesView{}, err
	}

	loaded := make([]domain.Attraction, 0, len(ids))
	var failed []int
	for i, a := range details {
		if a == nil {
			failed = append(failed, ids[i])
			continue
		}
		loaded = append(loaded, *a)
	}
	return view.RenderFavorites(loaded, failed), nil
}

// Remove unbookmarks id and re-renders the screen.
func (s *FavoriteListService) Remove(ctx context.Context, id int) (view.FavoritesView, error) {
	if _, err := s.favorites.Toggle(ctx, id, true); err != nil {
		return view.FavoritesView{}, err
	}
	return s.Load(ctx)
}
