package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"attractions-web/internal/domain"
	"attractions-web/internal/observability"
)

type AuthService struct {
	api   domain.AuthAPI
	store domain.SessionStore
}

func NewAuthService(api domain.AuthAPI, store domain.SessionStore) *AuthService {
	return &AuthService{
		api:   api,
		store: store,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (domain.Session, error) {
	username = strings.TrimSpace(username)
	creds, err := s.api.Register(ctx, username, password)
	if err != nil {
		return domain.Session{}, err
	}
	return s.persist(ctx, creds, username)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (domain.Session, error) {
	username = strings.TrimSpace(username)
	creds, err := s.api.Login(ctx, username, password)
	if err != nil {
		return domain.Session{}, err
	}
	return s.persist(ctx, creds, username)
}

func (s *AuthService) persist(ctx context.Context, creds domain.Credentials, username string) (domain.Session, error) {
	session := domain.Session{Token: creds.Token, UserID: creds.UserID, Username: username}
	if err := s.store.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	observability.FromContext(ctx).Info("user authenticated",
		slog.Int("user_id", session.UserID),
		slog.String("username", session.Username),
	)
	return session, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// Current returns the stored session without contacting the API.
func (s *AuthService) Current(ctx context.Context) (domain.Session, error) {
	return s.store.Read(ctx)
}

// CheckLoginStatus validates the stored session against the API. Any session that
// is incomplete, rejected, owned by another user or cannot be verified is cleared,
// and the zero Session is returned.
func (s *AuthService) CheckLoginStatus(ctx context.Context) (domain.Session, error) {
	return s.verify(ctx, true)
}

// Revalidate checks a stored session in the background. Unlike CheckLoginStatus it
// keeps the session when the API cannot be reached. loggedOut reports whether a
// previously valid session was cleared.
func (s *AuthService) Revalidate(ctx context.Context) (loggedOut bool, err error) {
	before, err := s.store.Read(ctx)
	if err != nil || !before.Valid() {
		return false, err
	}
	after, err := s.verify(ctx, false)
	if err != nil {
		return false, err
	}
	return !after.Valid(), nil
}

func (s *AuthService) verify(ctx context.Context, clearOnError bool) (domain.Session, error) {
	session, err := s.store.Read(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if !session.Valid() {
		return domain.Session{}, s.store.Clear(ctx)
	}

	userID, err := s.api.CheckSession(ctx, session.Token)
	if err != nil {
		if clearOnError {
			s.clear(ctx, "session check failed")
		}
		return domain.Session{}, err
	}
	if userID == nil || *userID != session.UserID {
		s.clear(ctx, "stored session no longer valid")
		return domain.Session{}, nil
	}
	return session, nil
}

func (s *AuthService) clear(ctx context.Context, reason string) {
	logger := observability.FromContext(ctx)
	logger.Info(reason)
	if err := s.store.Clear(ctx); err != nil {
		logger.Error("failed to clear session", slog.String("error", err.Error()))
	}
}
