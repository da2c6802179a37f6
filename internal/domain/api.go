package domain

import (
	"context"
)

// AuthAPI is the remote authentication surface.
type AuthAPI interface {
	Register(ctx context.Context, username, password string) (Credentials, error)
	Login(ctx context.Context, username, password string) (Credentials, error)
	CheckSession(ctx context.Context, token string) (*int, error)
}

// CatalogAPI serves attraction pages and details.
type CatalogAPI interface {
	ListAttractions(ctx context.Context, page int, search string) (Page, error)
	GetAttraction(ctx context.Context, id int) (Attraction, error)
}

// BookmarkAPI manages the bookmarks of the session's user.
type BookmarkAPI interface {
	AddFavorite(ctx context.Context, id int) (BookmarkOutcome, error)
	RemoveFavorite(ctx context.Context, id int) (BookmarkOutcome, error)
	ListFavoriteIDs(ctx context.Context) ([]int, error)
}

// BookmarkPublisher announces confirmed bookmark changes.
type BookmarkPublisher interface {
	PublishBookmarkEvent(ctx context.Context, event *BookmarkEvent) error
}
