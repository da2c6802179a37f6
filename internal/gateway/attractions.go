package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"attractions-web/internal/domain"
)

// ListAttractions fetches one page of the catalog. Pages below 1 are requested as 1;
// an empty search term means unfiltered.
func (c *Client) ListAttractions(ctx context.Context, page int, search string) (domain.Page, error) {
	const op = "list_attractions"
	if page < 1 {
		page = 1
	}

	resp, err := c.send(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/attractions",
		query: url.Values{
			"page":   []string{strconv.Itoa(page)},
			"search": []string{search},
		},
	})
	if err != nil {
		return domain.Page{}, err
	}

	var result domain.Page
	if err := c.decode(op, resp, domain.ErrHTTP, schemaPage, &result); err != nil {
		return domain.Page{}, err
	}
	if err := result.Validate(); err != nil {
		return domain.Page{}, c.fail(op, domain.NewError(domain.ErrMalformedResponse, op, resp.status, "inconsistent pagination", err))
	}
	if result.Items == nil {
		result.Items = []domain.Attraction{}
	}
	return result, nil
}

// GetAttraction fetches a single attraction.
func (c *Client) GetAttraction(ctx context.Context, id int) (domain.Attraction, error) {
	const op = "get_attraction"

	resp, err := c.send(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   fmt.Sprintf("/attractions/%d", id),
	})
	if err != nil {
		return domain.Attraction{}, err
	}

	var attraction domain.Attraction
	if err := c.decode(op, resp, domain.ErrHTTP, schemaAttraction, &attraction); err != nil {
		return domain.Attraction{}, err
	}
	return attraction, nil
}
