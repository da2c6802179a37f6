package view

import (
	"fmt"
	"strconv"
	"strings"

	"attractions-web/internal/domain"
)

// User-facing texts.
const (
	LabelFavorite         = "Favorite"
	LabelFavorited        = "Favorited"
	LabelLoginToFavorite  = "Log in to favorite"
	LabelRemoveFavorite   = "Remove from favorites"
	MessageNoResults      = "No attractions found."
	MessageNoFavorites    = "You have not favorited any attractions yet."
	MessageLoginRequired  = "Log in to see your favorites."
	MessageFavoriteAdded  = "Added to favorites"
	MessageFavoriteRemove = "Removed from favorites"
)

// RenderFavoriteButton initializes the toggle from the attraction's membership in the favorite set.
// Logged-out users get a disabled button that never shows as favorited.
func RenderFavoriteButton(a domain.Attraction, favorited, authenticated bool) FavoriteButton {
	if !authenticated {
		return FavoriteButton{
			AttractionID: a.ID,
			Label:        LabelLoginToFavorite,
			Action:       ActionLogin,
		}
	}
	if favorited {
		return FavoriteButton{
			AttractionID: a.ID,
			Favorited:    true,
			Enabled:      true,
			Label:        LabelFavorited,
			Action:       ActionRemove,
		}
	}
	return FavoriteButton{
		AttractionID: a.ID,
		Enabled:      true,
		Label:        LabelFavorite,
		Action:       ActionAdd,
	}
}

// RenderPagination computes control availability: previous is disabled iff page <= 1,
// next iff page >= total pages.
func RenderPagination(p domain.Pagination) PaginationView {
	total := p.TotalPages()
	return PaginationView{
		Page:             p.Page,
		TotalPages:       total,
		Total:            p.Total,
		Limit:            p.Limit,
		PreviousDisabled: p.Page <= 1,
		NextDisabled:     p.Page >= total,
		Label:            fmt.Sprintf("Page %d of %d", p.Page, max(total, 1)),
	}
}

// RenderItem builds one attraction card.
func RenderItem(a domain.Attraction, favorited, authenticated bool) ItemView {
	item := ItemView{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		ImageAlt:    a.Title,
		DetailPath:  DetailPath(a.ID),
		Favorite:    RenderFavoriteButton(a, favorited, authenticated),
		Share:       ShareLinkFor(a, DetailPath(a.ID)),
	}
	if a.HasVideo() {
		item.VideoURL = *a.VideoURL
	}
	return item
}

// RenderList produces the display tree for a loaded page. It always builds a fresh tree.
func RenderList(page domain.Page, favorites domain.FavoriteSet, authenticated bool, warnings []Feedback) ListView {
	items := make([]ItemView, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, RenderItem(a, authenticated && favorites.Has(a.ID), authenticated))
	}

	v := ListView{
		Items:      items,
		Pagination: RenderPagination(page.Pagination),
		Warnings:   append([]Feedback{}, warnings...),
	}
	if len(items) == 0 {
		v.Empty = true
		v.EmptyMessage = MessageNoResults
	}
	return v
}

// RenderDetail builds the detail screen. pageURL is the absolute address used for sharing;
// the relative detail path is used when it is empty.
func RenderDetail(a domain.Attraction, favorited, authenticated bool, pageURL string) DetailView {
	item := RenderItem(a, favorited, authenticated)
	if pageURL != "" {
		item.Share = ShareLinkFor(a, pageURL)
	}
	return DetailView{Item: item}
}

// RenderFavorites builds the favorites screen from the attractions whose details loaded.
// failedIDs lists bookmarks whose details could not be fetched; when nothing loaded
// at all the view carries an error instead of an empty list.
func RenderFavorites(attractions []domain.Attraction, failedIDs []int) FavoritesView {
	items := make([]FavoriteItemView, 0, len(attractions))
	for _, a := range attractions {
		items = append(items, FavoriteItemView{
			ItemView:    RenderItem(a, true, true),
			RemoveLabel: LabelRemoveFavorite,
		})
	}

	v := FavoritesView{Items: items, Warnings: []Feedback{}}
	switch {
	case len(items) == 0 && len(failedIDs) > 0:
		f := Failure("Could not load any of your favorite attractions.")
		v.Error = &f
	case len(failedIDs) > 0:
		v.Warnings = append(v.Warnings, Warning("Could not load favorites with IDs: "+joinIDs(failedIDs)))
	case len(items) == 0:
		v.Empty = true
		v.EmptyMessage = MessageNoFavorites
	}
	return v
}

// RenderFavoritesLoggedOut is the favorites screen for anonymous users.
func RenderFavoritesLoggedOut() FavoritesView {
	return FavoritesView{
		Items:        []FavoriteItemView{},
		Empty:        true,
		EmptyMessage: MessageLoginRequired,
		Warnings:     []Feedback{},
	}
}

// FavoritesWarning is shown when the favorite set could not be loaded for a page.
func FavoritesWarning(err error) Feedback {
	return Warning(fmt.Sprintf("Could not load favorite status: %s. Favorite markers may be inaccurate.", domain.UserMessage(err)))
}

// LoggedOutWarning is shown after a forced logout.
func LoggedOutWarning() Feedback {
	return Warning("Your session has expired. Please log in again.")
}

// PageLoadError is shown when a page fetch fails.
func PageLoadError(page int, err error) Feedback {
	return Failure(fmt.Sprintf("Failed to load page %d: %s", page, domain.UserMessage(err)))
}

// ToggleFeedback reports the result of a favorite toggle.
func ToggleFeedback(favorited bool) Feedback {
	if favorited {
		return Success(MessageFavoriteAdded)
	}
	return Success(MessageFavoriteRemove)
}

// ToggleError reports a failed favorite toggle.
func ToggleError(err error) Feedback {
	return Failure("Favorite action failed: " + domain.UserMessage(err))
}

// DetailPath is the route of an attraction's detail screen.
func DetailPath(id int) string {
	return "/attractions/" + strconv.Itoa(id)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
