package service

import (
	"context"
	"log/slog"

	"attractions-web/internal/domain"
	"attractions-web/internal/observability"
	"attractions-web/internal/view"
)

// DetailService renders the detail screen of one attraction.
type DetailService struct {
	catalog   domain.CatalogAPI
	favorites *FavoritesSynchronizer
	store     domain.SessionStore
}

func NewDetailService(catalog domain.CatalogAPI, favorites *FavoritesSynchronizer, store domain.SessionStore) *DetailService {
	return &DetailService{catalog: catalog, favorites: favorites, store: store}
}

// Detail fetches the attraction and marks it favorited when it is bookmarked.
// A failed bookmark lookup degrades to "not favorited" rather than failing the screen.
func (s *DetailService) Detail(ctx context.Context, id int, pageURL string) (view.DetailView, error) {
	a, err := s.catalog.GetAttraction(ctx, id)
	if err != nil {
		return view.DetailView{}, err
	}

	set, _, err := s.favorites.LoadFavoriteSet(ctx)
	if err != nil {
		observability.FromContext(ctx).Warn("favorites unavailable for detail view",
			slog.Int("attraction_id", id),
			slog.String("error", err.Error()))
		set = domain.NewFavoriteSet()
	}

	session, err := s.store.Read(ctx)
	if err != nil {
		return view.DetailView{}, err
	}

	return view.RenderDetail(a, set.Has(id), session.Valid(), pageURL), nil
}
