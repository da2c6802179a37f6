package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"attractions-web/internal/domain"
)

type fakeUser struct {
	id       int
	password string
}

// FakeAPI is an in-memory stand-in for the remote attractions API.
// Routes can be overridden per "METHOD /path" (path without the /api prefix or query).
type FakeAPI struct {
	Server *httptest.Server

	mu          sync.Mutex
	users       map[string]fakeUser
	tokens      map[string]int
	bookmarks   map[int]map[int]struct{}
	attractions []domain.Attraction
	limit       int
	nextUserID  int
	requests    map[string]int
	overrides   map[string]http.HandlerFunc
}

// NewFakeAPI starts a fake API server that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		users:      make(map[string]fakeUser),
		tokens:     make(map[string]int),
		bookmarks:  make(map[int]map[int]struct{}),
		limit:      10,
		nextUserID: 41,
		requests:   make(map[string]int),
		overrides:  make(map[string]http.HandlerFunc),
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", f.handleSignup)
		r.Post("/auth/login", f.handleLogin)
		r.Get("/auth/check", f.handleCheck)
		r.Get("/attractions", f.handleList)
		r.Get("/attractions/{id}", f.handleGet)
		r.Get("/bookmarks", f.handleBookmarks)
		r.Post("/bookmarks/{id}", f.handleAddBookmark)
		r.Delete("/bookmarks/{id}", f.handleRemoveBookmark)
	})

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		route := req.Method + " " + strings.TrimPrefix(req.URL.Path, "/api")
		f.mu.Lock()
		f.requests[route]++
		override := f.overrides[route]
		f.mu.Unlock()

		if override != nil {
			override(w, req)
			return
		}
		r.ServeHTTP(w, req)
	}))
	t.Cleanup(f.Server.Close)

	return f
}

// BaseURL is the API root to hand to the gateway.
func (f *FakeAPI) BaseURL() string {
	return f.Server.URL + "/api"
}

// Handle overrides a single route, e.g. Handle("GET /attractions", h).
func (f *FakeAPI) Handle(route string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[route] = h
}

// SetAttractions replaces the catalog.
func (f *FakeAPI) SetAttractions(items []domain.Attraction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attractions = items
}

// SetPageLimit changes the page size.
func (f *FakeAPI) SetPageLimit(limit int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
}

// AddUser registers an account directly and returns its ID.
func (f *FakeAPI) AddUser(username, password string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUserID++
	f.users[username] = fakeUser{id: f.nextUserID, password: password}
	return f.nextUserID
}

// IssueToken creates a valid bearer token for userID.
func (f *FakeAPI) IssueToken(userID int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueTokenLocked(userID)
}

// RevokeToken invalidates a token so later calls get 401.
func (f *FakeAPI) RevokeToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
}

// Bookmarks returns the IDs bookmarked by userID.
func (f *FakeAPI) Bookmarks(userID int) domain.FavoriteSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := domain.NewFavoriteSet()
	for id := range f.bookmarks[userID] {
		out[id] = struct{}{}
	}
	return out
}

// SetBookmarks replaces the bookmarks of userID.
func (f *FakeAPI) SetBookmarks(userID int, ids ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookmarks[userID] = make(map[int]struct{}, len(ids))
	for _, id := range ids {
		f.bookmarks[userID][id] = struct{}{}
	}
}

// Requests counts calls to a route, e.g. Requests("GET /bookmarks").
func (f *FakeAPI) Requests(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[route]
}

func (f *FakeAPI) issueTokenLocked(userID int) string {
	token := fmt.Sprintf("token-%d-%d", userID, len(f.tokens)+1)
	f.tokens[token] = userID
	return token
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *FakeAPI) decodeAuth(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" || body.Password == "" {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "missing username or password"})
		return "", "", false
	}
	return body.Username, body.Password, true
}

func (f *FakeAPI) handleSignup(w http.ResponseWriter, r *http.Request) {
	username, password, ok := f.decodeAuth(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[username]; exists {
		WriteJSON(w, http.StatusConflict, map[string]string{"error": "username already taken"})
		return
	}
	f.nextUserID++
	f.users[username] = fakeUser{id: f.nextUserID, password: password}
	WriteJSON(w, http.StatusOK, map[string]any{"user_id": f.nextUserID, "token": f.issueTokenLocked(f.nextUserID)})
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	username, password, ok := f.decodeAuth(w, r)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u, exists := f.users[username]
	if !exists || u.password != password {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "wrong username or password"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user_id": u.id, "token": f.issueTokenLocked(u.id)})
}

func (f *FakeAPI) userFor(r *http.Request) (int, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return 0, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[token]
	return id, ok
}

func (f *FakeAPI) handleCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := f.userFor(r)
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user_id": id})
}

func (f *FakeAPI) handleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	search := strings.ToLower(r.URL.Query().Get("search"))

	f.mu.Lock()
	matches := make([]domain.Attraction, 0, len(f.attractions))
	for _, a := range f.attractions {
		if search == "" || strings.Contains(strings.ToLower(a.Title), search) {
			matches = append(matches, a)
		}
	}
	limit := f.limit
	f.mu.Unlock()

	p := domain.Pagination{Page: page, Limit: limit, Total: len(matches)}
	p.Page = min(max(p.Page, 1), max(p.TotalPages(), 1))

	start := min((p.Page-1)*limit, len(matches))
	end := min(start+limit, len(matches))
	WriteJSON(w, http.StatusOK, domain.Page{Items: matches[start:end], Pagination: p})
}

func (f *FakeAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attractions {
		if a.ID == id {
			WriteJSON(w, http.StatusOK, a)
			return
		}
	}
	WriteJSON(w, http.StatusNotFound, map[string]string{"error": "attraction not found"})
}

func (f *FakeAPI) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, ok := f.userFor(r)
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"item_ids": f.Bookmarks(userID).IDs()})
}

func (f *FakeAPI) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	f.mutateBookmark(w, r, true)
}

func (f *FakeAPI) handleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	f.mutateBookmark(w, r, false)
}

func (f *FakeAPI) mutateBookmark(w http.ResponseWriter, r *http.Request, add bool) {
	userID, ok := f.userFor(r)
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.bookmarks[userID]
	if set == nil {
		set = make(map[int]struct{})
		f.bookmarks[userID] = set
	}
	_, had := set[id]

	var outcome domain.BookmarkOutcome
	switch {
	case add && had:
		outcome = domain.OutcomeAlreadyBookmarked
	case add:
		set[id] = struct{}{}
		outcome = domain.OutcomeNewlyBookmarked
	case had:
		delete(set, id)
		outcome = domain.OutcomeNewlyDeleted
	default:
		outcome = domain.OutcomeAlreadyDeleted
	}
	WriteJSON(w, http.StatusOK, map[string]any{"message": outcome})
}
