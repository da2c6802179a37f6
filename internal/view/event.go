package view

import "strconv"

// EventType names a view state change pushed to the browser.
type EventType string

const (
	EventLoading         EventType = "loading"
	EventRendered        EventType = "rendered"
	EventError           EventType = "error"
	EventWarning         EventType = "warning"
	EventLoggedOut       EventType = "logged_out"
	EventFavoriteToggled EventType = "favorite_toggled"
)

// Event is one view state change.
type Event struct {
	Type     EventType       `json:"type"`
	Page     int             `json:"page,omitempty"`
	Search   string          `json:"search,omitempty"`
	Message  string          `json:"message,omitempty"`
	List     *ListView       `json:"list,omitempty"`
	Button   *FavoriteButton `json:"button,omitempty"`
	Feedback *Feedback       `json:"feedback,omitempty"`
}

// LoadingEvent announces that page is being loaded.
func LoadingEvent(page int, search string) Event {
	return Event{Type: EventLoading, Page: page, Search: search, Message: loadingMessage(page)}
}

// RenderedEvent carries a freshly rendered list.
func RenderedEvent(list ListView) Event {
	return Event{Type: EventRendered, Page: list.Pagination.Page, Search: list.SearchTerm, List: &list}
}

// FeedbackEvent wraps an error or warning.
func FeedbackEvent(f Feedback) Event {
	t := EventWarning
	if f.Kind == FeedbackError {
		t = EventError
	}
	return Event{Type: t, Message: f.Message, Feedback: &f}
}

// LoggedOutEvent signals a forced logout.
func LoggedOutEvent() Event {
	f := LoggedOutWarning()
	return Event{Type: EventLoggedOut, Message: f.Message, Feedback: &f}
}

// FavoriteToggledEvent carries the updated button and its feedback.
func FavoriteToggledEvent(button FavoriteButton, f Feedback) Event {
	return Event{Type: EventFavoriteToggled, Message: f.Message, Button: &button, Feedback: &f}
}

func loadingMessage(page int) string {
	return "Loading page " + strconv.Itoa(page) + "..."
}
