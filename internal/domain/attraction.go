package domain

import (
	"fmt"
)

// Attraction is one catalog entry as served by the remote API.
type Attraction struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	VideoURL    *string `json:"videoUrl"`
}

// HasVideo reports whether the attraction has a non-empty video URL.
func (a Attraction) HasVideo() bool {
	return a.VideoURL != nil && *a.VideoURL != ""
}

// Pagination describes where a Page sits in the catalog.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// TotalPages returns ceil(Total / Limit).
func (p Pagination) TotalPages() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// HasPrevious reports whether a previous page exists.
func (p Pagination) HasPrevious() bool {
	return p.Page > 1
}

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages()
}

// Page is a bounded slice of the catalog.
type Page struct {
	Items      []Attraction `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

// Validate checks the invariants every page returned by the API must hold.
func (p Page) Validate() error {
	pg := p.Pagination
	if pg.Limit <= 0 {
		return fmt.Errorf("pagination limit must be positive, got %d", pg.Limit)
	}
	if pg.Total < 0 {
		return fmt.Errorf("pagination total must not be negative, got %d", pg.Total)
	}
	if len(p.Items) > pg.Limit {
		return fmt.Errorf("page holds %d items but limit is %d", len(p.Items), pg.Limit)
	}
	maxPage := max(pg.TotalPages(), 1)
	if pg.Page < 1 || pg.Page > maxPage {
		return fmt.Errorf("page %d outside [1, %d]", pg.Page, maxPage)
	}
	return nil
}
