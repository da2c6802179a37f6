package handler

import (
	"net/http"
)

// FavoritesHandler serves the favorites screen.
type FavoritesHandler struct {
	workspaces Workspaces
}

func NewFavoritesHandler(workspaces Workspaces) *FavoritesHandler {
	return &FavoritesHandler{workspaces: workspaces}
}

// List renders the favorites screen. Entering it abandons the attraction list.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}

	ws.List.Leave()

	favorites, err := ws.FavoriteList.Load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favorites)
}

// Remove unbookmarks an attraction and re-renders the screen.
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}

	favorites, err := ws.FavoriteList.Remove(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favorites)
}
