// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the attractions-web application.
package testutil

import (
	"context"
	"errors"
	"sync"

	"attractions-web/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockStorage        = errors.New("mock: storage failure")
)

// MockSessionStore implements domain.SessionStore for testing
type MockSessionStore struct {
	mu sync.Mutex

	// Function overrides - set these to customize behavior
	SaveFunc  func(ctx context.Context, session domain.Session) error
	ReadFunc  func(ctx context.Context) (domain.Session, error)
	ClearFunc func(ctx context.Context) error

	Session    domain.Session
	SaveCalls  int
	ClearCalls int
}

// NewMockSessionStore creates a store holding session
func NewMockSessionStore(session domain.Session) *MockSessionStore {
	return &MockSessionStore{Session: session}
}

func (m *MockSessionStore) Save(ctx context.Context, session domain.Session) error {
	m.mu.Lock()
	m.SaveCalls++
	m.mu.Unlock()
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Session = session
	return nil
}

func (m *MockSessionStore) Read(ctx context.Context) (domain.Session, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Session, nil
}

func (m *MockSessionStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.ClearCalls++
	m.mu.Unlock()
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Session = domain.Session{}
	return nil
}

// Current returns the stored session
func (m *MockSessionStore) Current() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Session
}

// MockBookmarkPublisher records published bookmark events
type MockBookmarkPublisher struct {
	mu sync.Mutex

	PublishFunc func(ctx context.Context, event *domain.BookmarkEvent) error
	Events      []domain.BookmarkEvent
}

// NewMockBookmarkPublisher creates a new MockBookmarkPublisher
func NewMockBookmarkPublisher() *MockBookmarkPublisher {
	return &MockBookmarkPublisher{}
}

func (m *MockBookmarkPublisher) PublishBookmarkEvent(ctx context.Context, event *domain.BookmarkEvent) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, *event)
	return nil
}

// Published returns a copy of the recorded events
func (m *MockBookmarkPublisher) Published() []domain.BookmarkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.BookmarkEvent(nil), m.Events...)
}
