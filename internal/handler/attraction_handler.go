package handler

import (
	"net/http"
	"strconv"
	"strings"

	"attractions-web/internal/domain"
	"attractions-web/internal/service"
	"attractions-web/internal/view"
)

// AttractionHandler serves the attraction list and detail screens.
type AttractionHandler struct {
	workspaces Workspaces
	publicURL  string
}

// NewAttractionHandler creates the handler. publicURL is the externally visible origin used
// in share links; relative links are used when it is empty.
func NewAttractionHandler(workspaces Workspaces, publicURL string) *AttractionHandler {
	return &AttractionHandler{workspaces: workspaces, publicURL: strings.TrimSuffix(publicURL, "/")}
}

// StateResponse is a snapshot of the list screen.
type StateResponse struct {
	CurrentPage   int            `json:"current_page"`
	SearchTerm    string         `json:"search_term"`
	Loading       bool           `json:"loading"`
	Authenticated bool           `json:"authenticated"`
	Favorites     []int          `json:"favorites"`
	View          *view.ListView `json:"view,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
}

func stateResponse(s service.ListState) StateResponse {
	resp := StateResponse{
		CurrentPage:   s.CurrentPage,
		SearchTerm:    s.SearchTerm,
		Loading:       s.Loading,
		Authenticated: s.Authenticated,
		Favorites:     s.Favorites.IDs(),
		View:          s.View,
	}
	if s.LastError != nil {
		resp.LastError = domain.UserMessage(s.LastError)
	}
	return resp
}

// List loads a page. Without a page parameter it starts a new search at page 1.
func (h *AttractionHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}

	query := r.URL.Query()
	search := query.Get("search")

	var (
		list view.ListView
		err  error
	)
	if raw := query.Get("page"); raw != "" {
		page, convErr := strconv.Atoi(raw)
		if convErr != nil {
			writeErrorMessage(w, http.StatusBadRequest, CodeValidation, "Invalid page number")
			return
		}
		list, err = ws.List.LoadPage(r.Context(), page, search)
	} else {
		list, err = ws.List.InitList(r.Context(), search)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// Next loads the page after the current one.
func (h *AttractionHandler) Next(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}

	list, err := ws.List.NextPage(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Previous loads the page before the current one.
func (h *AttractionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}

	list, err := ws.List.PreviousPage(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// State reports what the list screen currently shows.
func (h *AttractionHandler) State(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(ws.List.State()))
}

// Detail renders one attraction.
func (h *AttractionHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}

	pageURL := ""
	if h.publicURL != "" {
		pageURL = h.publicURL + view.DetailPath(id)
	}

	detail, err := ws.Detail.Detail(r.Context(), id, pageURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ToggleResponse carries the re-rendered button and its feedback.
type ToggleResponse struct {
	Button   view.FavoriteButton `json:"button"`
	Feedback view.Feedback       `json:"feedback"`
}

// ToggleFavorite flips the favorite state of an attraction. Failures still return
// the button so the browser can restore it.
func (h *AttractionHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}

	button, err := ws.List.ToggleFavorite(r.Context(), id)
	if err != nil {
		status, code := classify(err)
		if status == statusClientClosedRequest || code == CodeInternal {
			writeError(w, r, err)
			return
		}
		writeJSON(w, status, struct {
			ErrorResponse
			ToggleResponse
		}{
			ErrorResponse:  ErrorResponse{Error: domain.UserMessage(err), Code: code},
			ToggleResponse: ToggleResponse{Button: button, Feedback: view.ToggleError(err)},
		})
		return
	}

	writeJSON(w, http.StatusOK, ToggleResponse{Button: button, Feedback: view.ToggleFeedback(button.Favorited)})
}
