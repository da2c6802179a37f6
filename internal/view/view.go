// Package view turns attraction data into JSON-serializable display trees.
// Everything here is a pure function of its inputs: no I/O, no shared state.
package view

// FeedbackKind classifies an inline message.
type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackWarning FeedbackKind = "warning"
	FeedbackError   FeedbackKind = "error"
)

// Feedback is a message rendered next to the control that triggered it.
type Feedback struct {
	Kind    FeedbackKind `json:"kind"`
	Message string       `json:"message"`
}

func Success(message string) Feedback { return Feedback{Kind: FeedbackSuccess, Message: message} }
func Warning(message string) Feedback { return Feedback{Kind: FeedbackWarning, Message: message} }
func Failure(message string) Feedback { return Feedback{Kind: FeedbackError, Message: message} }

// Favorite button actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionLogin  = "login"
)

// FavoriteButton describes the favorite toggle of one attraction.
type FavoriteButton struct {
	AttractionID int    `json:"attraction_id"`
	Favorited    bool   `json:"favorited"`
	Enabled      bool   `json:"enabled"`
	Label        string `json:"label"`
	Action       string `json:"action"`
}

// ShareLink carries what a share sheet needs.
type ShareLink struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// ItemView is one attraction card.
type ItemView struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ImageURL    string         `json:"image_url"`
	ImageAlt    string         `json:"image_alt"`
	VideoURL    string         `json:"video_url,omitempty"`
	DetailPath  string         `json:"detail_path"`
	Favorite    FavoriteButton `json:"favorite"`
	Share       ShareLink      `json:"share"`
}

// PaginationView describes the previous/next controls.
type PaginationView struct {
	Page             int    `json:"page"`
	TotalPages       int    `json:"total_pages"`
	Total            int    `json:"total"`
	Limit            int    `json:"limit"`
	PreviousDisabled bool   `json:"previous_disabled"`
	NextDisabled     bool   `json:"next_disabled"`
	Label            string `json:"label"`
}

// ListView is the full display tree of one attraction page load.
type ListView struct {
	Items        []ItemView     `json:"items"`
	Pagination   PaginationView `json:"pagination"`
	SearchTerm   string         `json:"search_term"`
	Empty        bool           `json:"empty"`
	EmptyMessage string         `json:"empty_message,omitempty"`
	Warnings     []Feedback     `json:"warnings"`
}

// DetailView is the attraction detail screen.
type DetailView struct {
	Item ItemView `json:"item"`
}

// FavoriteItemView is one card in the favorites screen.
type FavoriteItemView struct {
	ItemView
	RemoveLabel string `json:"remove_label"`
}

// FavoritesView is the favorites screen.
type FavoritesView struct {
	Items        []FavoriteItemView `json:"items"`
	Empty        bool               `json:"empty"`
	EmptyMessage string             `json:"empty_message,omitempty"`
	Warnings     []Feedback         `json:"warnings"`
	Error        *Feedback          `json:"error,omitempty"`
}
