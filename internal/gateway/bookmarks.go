package gateway

import (
	"context"
	"fmt"
	"net/http"

	"attractions-web/internal/domain"
)

type bookmarkMessage struct {
	Message domain.BookmarkOutcome `json:"message"`
}

// AddFavorite bookmarks an attraction for the session's user.
func (c *Client) AddFavorite(ctx context.Context, id int) (domain.BookmarkOutcome, error) {
	return c.mutateBookmark(ctx, "add_favorite", http.MethodPost, id, schemaAddResult)
}

// RemoveFavorite deletes a bookmark for the session's user.
func (c *Client) RemoveFavorite(ctx context.Context, id int) (domain.BookmarkOutcome, error) {
	return c.mutateBookmark(ctx, "remove_favorite", http.MethodDelete, id, schemaRemoveResult)
}

func (c *Client) mutateBookmark(ctx context.Context, op, method string, id int, schema string) (domain.BookmarkOutcome, error) {
	token, err := c.token(ctx, op)
	if err != nil {
		return "", err
	}

	resp, err := c.send(ctx, request{
		op:     op,
		method: method,
		path:   fmt.Sprintf("/bookmarks/%d", id),
		token:  token,
	})
	if err != nil {
		return "", err
	}

	var body bookmarkMessage
	if err := c.decode(op, resp, authKind(resp.status), schema, &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// ListFavoriteIDs returns the IDs bookmarked by the session's user.
// A 401 is reported as ErrAuth so the caller can log the user out.
func (c *Client) ListFavoriteIDs(ctx context.Context) ([]int, error) {
	const op = "list_favorites"
	token, err := c.token(ctx, op)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/bookmarks",
		token:  token,
	})
	if err != nil {
		return nil, err
	}

	if resp.status == http.StatusUnauthorized {
		return nil, c.fail(op, domain.NewError(domain.ErrAuth, op, resp.status, "Authentication failed. Please log in again.", nil))
	}

	var body struct {
		ItemIDs []int `json:"item_ids"`
	}
	if err := c.decode(op, resp, domain.ErrHTTP, schemaBookmarkIDs, &body); err != nil {
		return nil, err
	}
	if body.ItemIDs == nil {
		body.ItemIDs = []int{}
	}
	return body.ItemIDs, nil
}

func authKind(status int) error {
	if status == http.StatusUnauthorized {
		return domain.ErrAuth
	}
	return domain.ErrHTTP
}
