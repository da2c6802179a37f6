package domain

import (
	"context"
	"errors"
	"strconv"
)

// ErrIncompleteSession is returned when saving a session without a token.
var ErrIncompleteSession = errors.New("session has no token")

// Storage keys used by every SessionStore backend.
const (
	KeyAuthToken    = "authToken"
	KeyAuthUserID   = "authUserId"
	KeyAuthUsername = "authUsername"
)

// SessionKeys lists the keys a complete session occupies.
var SessionKeys = []string{KeyAuthToken, KeyAuthUserID, KeyAuthUsername}

// Session represents the authenticated identity of the current profile.
// The zero value means logged out.
type Session struct {
	Token    string `json:"-"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

// Valid reports whether the session carries a token.
func (s Session) Valid() bool {
	return s.Token != ""
}

// Values maps the session onto its storage keys.
func (s Session) Values() map[string]string {
	return map[string]string{
		KeyAuthToken:    s.Token,
		KeyAuthUserID:   strconv.Itoa(s.UserID),
		KeyAuthUsername: s.Username,
	}
}

// SessionFromValues rebuilds a session from stored keys. ok is false when any key
// is missing or unusable; callers must then clear whatever is left.
func SessionFromValues(values map[string]string) (Session, bool) {
	token, hasToken := values[KeyAuthToken]
	rawID, hasID := values[KeyAuthUserID]
	username, hasName := values[KeyAuthUsername]
	if !hasToken || !hasID || !hasName || token == "" {
		return Session{}, false
	}
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return Session{}, false
	}
	return Session{Token: token, UserID: id, Username: username}, true
}

// Credentials is what the auth endpoints hand back on success.
type Credentials struct {
	UserID int    `json:"user_id"`
	Token  string `json:"token"`
}

// SessionStore persists a Session across restarts.
// Read returns the zero Session when nothing, or only part of a session, is stored.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Read(ctx context.Context) (Session, error)
	Clear(ctx context.Context) error
}
