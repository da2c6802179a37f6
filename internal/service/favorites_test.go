package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attractions-web/internal/domain"
	"attractions-web/internal/testutil"
)

type mockBookmarkAPI struct {
	add    func(ctx context.Context, id int) (domain.BookmarkOutcome, error)
	remove func(ctx context.Context, id int) (domain.BookmarkOutcome, error)
	list   func(ctx context.Context) ([]int, error)
}

func (m *mockBookmarkAPI) AddFavorite(ctx context.Context, id int) (domain.BookmarkOutcome, error) {
	if m.add != nil {
		return m.add(ctx, id)
	}
	return domain.OutcomeNewlyBookmarked, nil
}

func (m *mockBookmarkAPI) RemoveFavorite(ctx context.Context, id int) (domain.BookmarkOutcome, error) {
	if m.remove != nil {
		return m.remove(ctx, id)
	}
	return domain.OutcomeNewlyDeleted, nil
}

func (m *mockBookmarkAPI) ListFavoriteIDs(ctx context.Context) ([]int, error) {
	if m.list != nil {
		return m.list(ctx)
	}
	return []int{}, nil
}

// loggedInFixture wires a fake API, a logged-in session store and a bound gateway client.
func loggedInFixture(t *testing.T) (*testutil.FakeAPI, *testutil.MockSessionStore, int) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	userID := api.AddUser("alice", "secret")
	store := testutil.NewMockSessionStore(domain.Session{Token: api.IssueToken(userID), UserID: userID, Username: "alice"})
	return api, store, userID
}

func TestFavoritesSynchronizer_LoadFavoriteSet(t *testing.T) {
	api, store, userID := loggedInFixture(t)
	api.SetBookmarks(userID, 3, 1, 2)
	syncer := NewFavoritesSynchronizer(newGatewayClient(t, api, store), store, nil)

	set, loggedOut, err := syncer.LoadFavoriteSet(context.Background())

	require.NoError(t, err)
	assert.False(t, loggedOut)
	assert.Equal(t, []int{1, 2, 3}, set.IDs())
}

func TestFavoritesSynchronizer_LoadFavoriteSet_NoSession(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	store := testutil.NewMockSessionStore(domain.Session{})
	syncer := NewFavoritesSynchronizer(newGatewayClient(t, api, store), store, nil)

	set, loggedOut, err := syncer.LoadFavoriteSet(context.Background())

	require.NoError(t, err)
	assert.False(t, loggedOut)
	assert.Empty(t, set)
	assert.Equal(t, 0, api.Requests("GET /bookmarks"))
}

func TestFavoritesSynchronizer_LoadFavoriteSet_RejectedToken(t *testing.T) {
	api, store, _ := loggedInFixture(t)
	api.RevokeToken(store.Current().Token)
	syncer := NewFavoritesSynchronizer(newGatewayClient(t, api, store), store, nil)

	set, loggedOut, err := syncer.LoadFavoriteSet(context.Background())

	require.NoError(t, err)
	assert.True(t, loggedOut)
	assert.Empty(t, set)
	assert.False(t, store.Current().Valid())
}

func TestFavoritesSynchronizer_LoadFavoriteSet_ServerError(t *testing.T) {
	api, store, _ := loggedInFixture(t)
	api.Handle("GET /bookmarks", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	})
	syncer := NewFavoritesSynchronizer(newGatewayClient(t, api, store), store, nil)

	set, loggedOut, err := syncer.LoadFavoriteSet(context.Background())

	require.ErrorIs(t, err, domain.ErrHTTP)
	assert.Nil(t, set)
	assert.False(t, loggedOut)
	assert.True(t, store.Current().Valid())
}

func TestFavoritesSynchronizer_Toggle(t *testing.T) {
	api, store, userID := loggedInFixture(t)
	publisher := testutil.NewMockBookmarkPublisher()
	syncer := NewFavoritesSynchronizer(newGatewayClient(t, api, store), store, publisher)
	ctx := context.Background()

	result, err := syncer.Toggle(ctx, 5, false)
	require.NoError(t, err)
	assert.True(t, result.Favorited)
	assert.Equal(t, domain.OutcomeNewlyBookmarked, result.Outcome)
	assert.True(t, api.Bookmarks(userID).Has(5))

	result, err = syncer.Toggle(ctx, 5, true)
	require.NoError(t, err)
	assert.False(t, result.Favorited)
	assert.Equal(t, domain.OutcomeNewlyDeleted, result.Outcome)
	assert.False(t, api.Bookmarks(userID).Has(5))

	events := publisher.Published()
	require.Len(t, events, 2)
	assert.Equal(t, userID, events[0].UserID)
	assert.Equal(t, "alice", events[0].Username)
	assert.Equal(t, 5, events[0].AttractionID)
	assert.Equal(t, domain.OutcomeNewlyDeleted, events[1].Outcome)
}

func TestFavoritesSynchronizer_Toggle_IdempotentOutcomesNotPublished(t *testing.T) {
	api, store, userID := loggedInFixture(t)
	api.SetBookmarks(userID, 5)
	publisher := testutil.NewMockBookmarkPublisher()
	syncer := NewFavoritesSynchronizer(newGatewayClient(t, api, store), store, publisher)

	// Stale local state: the UI thinks 5 is not favorited.
	result, err := syncer.Toggle(context.Background(), 5, false)

	require.NoError(t, err)
	assert.True(t, result.Favorited)
	assert.Equal(t, domain.OutcomeAlreadyBookmarked, result.Outcome)
	assert.Empty(t, publisher.Published())
}

func TestFavoritesSynchronizer_Toggle_FailureKeepsState(t *testing.T) {
	api := &mockBookmarkAPI{
		remove: func(ctx context.Context, id int) (domain.BookmarkOutcome, error) {
			return "", domain.NewError(domain.ErrNetwork, "remove_favorite", 0, "", errors.New("reset"))
		},
	}
	store := testutil.NewMockSessionStore(testutil.NewTestSession(1, "t"))
	syncer := NewFavoritesSynchronizer(api, store, nil)

	result, err := syncer.Toggle(context.Background(), 9, true)

	require.ErrorIs(t, err, domain.ErrNetwork)
	assert.True(t, result.Favorited)
	assert.False(t, result.LoggedOut)
	assert.False(t, syncer.Pending(9))
}

func TestFavoritesSynchronizer_Toggle_RejectedTokenLogsOut(t *testing.T) {
	api, store, _ := loggedInFixture(t)
	api.RevokeToken(store.Current().Token)
	syncer := NewFavoritesSynchronizer(newGatewayClient(t, api, store), store, nil)

	result, err := syncer.Toggle(context.Background(), 2, false)

	require.ErrorIs(t, err, domain.ErrAuth)
	assert.True(t, result.LoggedOut)
	assert.False(t, result.Favorited)
	assert.False(t, store.Current().Valid())
}

func TestFavoritesSynchronizer_Toggle_NoSession(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	store := testutil.NewMockSessionStore(domain.Session{})
	syncer := NewFavoritesSynchronizer(newGatewayClient(t, api, store), store, nil)

	_, err := syncer.Toggle(context.Background(), 2, false)

	require.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Equal(t, 0, api.Requests("POST /bookmarks/2"))
}

func TestFavoritesSynchronizer_Toggle_PendingRejected(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &mockBookmarkAPI{
		add: func(ctx context.Context, id int) (domain.BookmarkOutcome, error) {
			if id == 1 {
				close(entered)
				<-release
			}
			return domain.OutcomeNewlyBookmarked, nil
		},
	}
	store := testutil.NewMockSessionStore(testutil.NewTestSession(1, "t"))
	syncer := NewFavoritesSynchronizer(api, store, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = syncer.Toggle(ctx, 1, false)
	}()
	<-entered

	assert.True(t, syncer.Pending(1))
	result, err := syncer.Toggle(ctx, 1, false)
	require.ErrorIs(t, err, domain.ErrTogglePending)
	assert.False(t, result.Favorited)

	// A different attraction is not blocked.
	result, err = syncer.Toggle(ctx, 2, false)
	require.NoError(t, err)
	assert.True(t, result.Favorited)

	close(release)
	wg.Wait()
	assert.False(t, syncer.Pending(1))
}

func TestFavoritesSynchronizer_PublishFailureIgnored(t *testing.T) {
	publisher := testutil.NewMockBookmarkPublisher()
	publisher.PublishFunc = func(ctx context.Context, event *domain.BookmarkEvent) error {
		return errors.New("broker down")
	}
	store := testutil.NewMockSessionStore(testutil.NewTestSession(1, "t"))
	syncer := NewFavoritesSynchronizer(&mockBookmarkAPI{}, store, publisher)

	result, err := syncer.Toggle(context.Background(), 3, false)

	require.NoError(t, err)
	assert.True(t, result.Favorited)
}
