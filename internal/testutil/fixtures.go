package testutil

import (
	"fmt"
	"sync/atomic"

	"attractions-web/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

func nextID() int {
	return int(idCounter.Add(1))
}

// AttractionOptions allows customizing attraction fixture creation
type AttractionOptions struct {
	ID          int
	Title       string
	Description string
	ImageURL    string
	VideoURL    *string
}

// NewTestAttraction creates an attraction with sensible defaults
func NewTestAttraction(opts ...func(*AttractionOptions)) domain.Attraction {
	o := &AttractionOptions{ID: nextID()}
	for _, opt := range opts {
		opt(o)
	}

	if o.Title == "" {
		o.Title = fmt.Sprintf("Attraction %d", o.ID)
	}
	if o.Description == "" {
		o.Description = fmt.Sprintf("Description of attraction %d", o.ID)
	}
	if o.ImageURL == "" {
		o.ImageURL = fmt.Sprintf("https://images.example.com/%d.jpg", o.ID)
	}

	return domain.Attraction{
		ID:          o.ID,
		Title:       o.Title,
		Description: o.Description,
		ImageURL:    o.ImageURL,
		VideoURL:    o.VideoURL,
	}
}

func WithAttractionID(id int) func(*AttractionOptions) {
	return func(o *AttractionOptions) {
		o.ID = id
	}
}

func WithTitle(title string) func(*AttractionOptions) {
	return func(o *AttractionOptions) {
		o.Title = title
	}
}

func WithVideo(url string) func(*AttractionOptions) {
	return func(o *AttractionOptions) {
		o.VideoURL = &url
	}
}

// NewTestAttractions creates count attractions with IDs 1..count
func NewTestAttractions(count int) []domain.Attraction {
	items := make([]domain.Attraction, count)
	for i := range items {
		items[i] = NewTestAttraction(WithAttractionID(i + 1))
	}
	return items
}

// NewTestSession returns a complete logged-in session
func NewTestSession(userID int, token string) domain.Session {
	return domain.Session{
		Token:    token,
		UserID:   userID,
		Username: fmt.Sprintf("user%d", userID),
	}
}

// NewTestPage builds a page echoing the given pagination
func NewTestPage(page, limit, total int, items ...domain.Attraction) domain.Page {
	if items == nil {
		items = []domain.Attraction{}
	}
	return domain.Page{
		Items:      items,
		Pagination: domain.Pagination{Page: page, Limit: limit, Total: total},
	}
}
