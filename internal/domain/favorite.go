package domain

import (
	"sort"
	"time"
)

// BookmarkOutcome is the idempotent result of a bookmark mutation.
type BookmarkOutcome string

const (
	OutcomeNewlyBookmarked   BookmarkOutcome = "newly bookmarked"
	OutcomeAlreadyBookmarked BookmarkOutcome = "already bookmarked"
	OutcomeNewlyDeleted      BookmarkOutcome = "newly deleted"
	OutcomeAlreadyDeleted    BookmarkOutcome = "already deleted"
)

// Changed reports whether the call changed server-side state.
func (o BookmarkOutcome) Changed() bool {
	return o == OutcomeNewlyBookmarked || o == OutcomeNewlyDeleted
}

// Favorited reports the bookmark state after the call.
func (o BookmarkOutcome) Favorited() bool {
	return o == OutcomeNewlyBookmarked || o == OutcomeAlreadyBookmarked
}

// FavoriteSet holds the attraction IDs bookmarked by the current user.
// Mutating helpers return copies so a set handed to the renderer never changes underneath it.
type FavoriteSet map[int]struct{}

// NewFavoriteSet builds a set from a list of IDs.
func NewFavoriteSet(ids ...int) FavoriteSet {
	s := make(FavoriteSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s FavoriteSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// With returns a copy of s including id.
func (s FavoriteSet) With(id int) FavoriteSet {
	out := s.clone()
	out[id] = struct{}{}
	return out
}

// Without returns a copy of s excluding id.
func (s FavoriteSet) Without(id int) FavoriteSet {
	out := s.clone()
	delete(out, id)
	return out
}

// IDs returns the members in ascending order.
func (s FavoriteSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s FavoriteSet) clone() FavoriteSet {
	out := make(FavoriteSet, len(s)+1)
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// BookmarkEvent is published after a confirmed bookmark mutation.
type BookmarkEvent struct {
	UserID       int             `json:"user_id"`
	Username     string          `json:"username"`
	AttractionID int             `json:"attraction_id"`
	Outcome      BookmarkOutcome `json:"outcome"`
	Timestamp    int64           `json:"timestamp"`
}

// NewBookmarkEvent stamps an event with the current time.
func NewBookmarkEvent(session Session, attractionID int, outcome BookmarkOutcome) *BookmarkEvent {
	return &BookmarkEvent{
		UserID:       session.UserID,
		Username:     session.Username,
		AttractionID: attractionID,
		Outcome:      outcome,
		Timestamp:    time.Now().Unix(),
	}
}
