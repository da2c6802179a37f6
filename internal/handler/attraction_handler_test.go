package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attractions-web/internal/domain"
	"attractions-web/internal/testutil"
	"attractions-web/internal/view"
)

func TestAttractionHandler_List(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetAttractions(testutil.NewTestAttractions(25))
	profile := newProfile()

	w := env.do(t, http.MethodGet, "/api/attractions", profile, nil)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	list := testutil.DecodeJSON[view.ListView](t, w)
	assert.Len(t, list.Items, 10)
	assert.Equal(t, 1, list.Pagination.Page)
	assert.Equal(t, 3, list.Pagination.TotalPages)
	assert.True(t, list.Pagination.PreviousDisabled)
	assert.Equal(t, view.ActionLogin, list.Items[0].Favorite.Action)
}

func TestAttractionHandler_List_PageAndSearch(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetAttractions([]domain.Attraction{
		testutil.NewTestAttraction(testutil.WithAttractionID(1), testutil.WithTitle("Castle Peak")),
		testutil.NewTestAttraction(testutil.WithAttractionID(2), testutil.WithTitle("Harbour")),
		testutil.NewTestAttraction(testutil.WithAttractionID(3), testutil.WithTitle("Old Castle")),
	})
	env.api.SetPageLimit(1)
	profile := newProfile()

	w := env.do(t, http.MethodGet, "/api/attractions?page=2&search=%20castle%20", profile, nil)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	list := testutil.DecodeJSON[view.ListView](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 3, list.Items[0].ID)
	assert.Equal(t, "castle", list.SearchTerm)

	state := env.workspace(t, profile).List.State()
	assert.Equal(t, 2, state.CurrentPage)
	assert.Equal(t, "castle", state.SearchTerm)
}

func TestAttractionHandler_List_InvalidPage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/attractions?page=two", newProfile(), nil)

	testutil.AssertStatusCode(t, w, http.StatusBadRequest)
}

func TestAttractionHandler_List_InvalidPageWithoutValidator(t *testing.T) {
	env := newTestEnv(t, func(cfg *RouterConfig) {
		cfg.Validator = func(next http.Handler) http.Handler { return next }
	})

	w := env.do(t, http.MethodGet, "/api/attractions?page=two", newProfile(), nil)

	testutil.AssertJSONError(t, w, http.StatusBadRequest, "Invalid page number")
}

func TestAttractionHandler_List_Upstream(t *testing.T) {
	env := newTestEnv(t)
	env.api.Handle("GET /attractions", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "maintenance"})
	})

	w := env.do(t, http.MethodGet, "/api/attractions", newProfile(), nil)

	testutil.AssertJSONError(t, w, http.StatusBadGateway, "maintenance")
	testutil.AssertJSONContains(t, w, "code", CodeUpstream)
}

func TestAttractionHandler_NextPrevious(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetAttractions(testutil.NewTestAttractions(25))
	profile := newProfile()

	w := env.do(t, http.MethodPost, "/api/attractions/previous", profile, nil)
	testutil.AssertJSONError(t, w, http.StatusConflict, "no adjacent page")
	testutil.AssertJSONContains(t, w, "code", CodeNoAdjacentPage)

	env.do(t, http.MethodGet, "/api/attractions", profile, nil)

	w = env.do(t, http.MethodPost, "/api/attractions/next", profile, nil)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	assert.Equal(t, 2, testutil.DecodeJSON[view.ListView](t, w).Pagination.Page)

	w = env.do(t, http.MethodPost, "/api/attractions/next", profile, nil)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	assert.Equal(t, 3, testutil.DecodeJSON[view.ListView](t, w).Pagination.Page)

	w = env.do(t, http.MethodPost, "/api/attractions/next", profile, nil)
	testutil.AssertStatusCode(t, w, http.StatusConflict)

	w = env.do(t, http.MethodPost, "/api/attractions/previous", profile, nil)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	assert.Equal(t, 2, testutil.DecodeJSON[view.ListView](t, w).Pagination.Page)
}

func TestAttractionHandler_State(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetAttractions(testutil.NewTestAttractions(5))
	profile := newProfile()
	userID := env.login(t, profile, "alice")
	env.api.SetBookmarks(userID, 4, 2)

	env.do(t, http.MethodGet, "/api/attractions?search=", profile, nil)
	w := env.do(t, http.MethodGet, "/api/attractions/state", profile, nil)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	state := testutil.DecodeJSON[StateResponse](t, w)
	assert.Equal(t, 1, state.CurrentPage)
	assert.True(t, state.Authenticated)
	assert.False(t, state.Loading)
	assert.Equal(t, []int{2, 4}, state.Favorites)
	require.NotNil(t, state.View)
	assert.Len(t, state.View.Items, 5)
	assert.Empty(t, state.LastError)
}

func TestAttractionHandler_Detail(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetAttractions(testutil.NewTestAttractions(3))
	profile := newProfile()
	userID := env.login(t, profile, "alice")
	env.api.SetBookmarks(userID, 2)

	w := env.do(t, http.MethodGet, "/api/attractions/2", profile, nil)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	detail := testutil.DecodeJSON[view.DetailView](t, w)
	assert.Equal(t, 2, detail.Item.ID)
	assert.True(t, detail.Item.Favorite.Favorited)
	assert.Equal(t, "https://attractions.example"+view.DetailPath(2), detail.Item.Share.URL)
}

func TestAttractionHandler_Detail_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetAttractions(testutil.NewTestAttractions(3))

	w := env.do(t, http.MethodGet, "/api/attractions/42", newProfile(), nil)
	testutil.AssertStatusCode(t, w, http.StatusNotFound)
	testutil.AssertJSONContains(t, w, "code", CodeNotFound)

	w = env.do(t, http.MethodGet, "/api/attractions/0", newProfile(), nil)
	testutil.AssertStatusCode(t, w, http.StatusBadRequest)
}

func TestAttractionHandler_ToggleFavorite(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetAttractions(testutil.NewTestAttractions(5))
	profile := newProfile()
	userID := env.login(t, profile, "alice")
	env.do(t, http.MethodGet, "/api/attractions", profile, nil)

	w := env.do(t, http.MethodPost, "/api/attractions/3/favorite", profile, nil)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	resp := testutil.DecodeJSON[ToggleResponse](t, w)
	assert.True(t, resp.Button.Favorited)
	assert.Equal(t, view.ActionRemove, resp.Button.Action)
	assert.Equal(t, view.FeedbackSuccess, resp.Feedback.Kind)
	assert.True(t, env.api.Bookmarks(userID).Has(3))
	require.Len(t, env.publisher.Published(), 1)
	assert.Equal(t, domain.OutcomeNewlyBookmarked, env.publisher.Published()[0].Outcome)

	w = env.do(t, http.MethodPost, "/api/attractions/3/favorite", profile, nil)
	testutil.AssertStatusCode(t, w, http.StatusOK)
	assert.False(t, testutil.DecodeJSON[ToggleResponse](t, w).Button.Favorited)
	assert.False(t, env.api.Bookmarks(userID).Has(3))
}

func TestAttractionHandler_ToggleFavorite_LoggedOut(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetAttractions(testutil.NewTestAttractions(5))

	w := env.do(t, http.MethodPost, "/api/attractions/3/favorite", newProfile(), nil)

	testutil.AssertStatusCode(t, w, http.StatusUnauthorized)
	resp := testutil.DecodeJSON[struct {
		ErrorResponse
		ToggleResponse
	}](t, w)
	assert.Equal(t, CodeAuthRequired, resp.Code)
	assert.Equal(t, view.ActionLogin, resp.Button.Action)
	assert.Equal(t, view.FeedbackError, resp.Feedback.Kind)
}

func TestAttractionHandler_ToggleFavorite_Failure(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetAttractions(testutil.NewTestAttractions(5))
	profile := newProfile()
	env.login(t, profile, "alice")
	env.api.Handle("POST /bookmarks/3", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "try later"})
	})

	w := env.do(t, http.MethodPost, "/api/attractions/3/favorite", profile, nil)

	testutil.AssertJSONError(t, w, http.StatusBadGateway, "try later")
	assert.False(t, env.workspace(t, profile).List.State().Favorites.Has(3))
}

func TestAttractionHandler_ToggleFavorite_Pending(t *testing.T) {
	env := newTestEnv(t)
	env.api.SetAttractions(testutil.NewTestAttractions(5))
	profile := newProfile()
	env.login(t, profile, "alice")

	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	env.api.Handle("POST /bookmarks/3", func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		testutil.WriteJSON(w, http.StatusOK, map[string]string{"message": string(domain.OutcomeNewlyBookmarked)})
	})

	first := make(chan int, 1)
	go func() {
		first <- env.do(t, http.MethodPost, "/api/attractions/3/favorite", profile, nil).Code
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first toggle never reached the API")
	}

	w := env.do(t, http.MethodPost, "/api/attractions/3/favorite", profile, nil)
	testutil.AssertStatusCode(t, w, http.StatusConflict)
	testutil.AssertJSONContains(t, w, "code", CodeTogglePending)

	close(release)
	assert.Equal(t, http.StatusOK, <-first)
}
