package handler

import (
	"encoding/json"
	"net/http"

	"attractions-web/internal/domain"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	workspaces Workspaces
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(workspaces Workspaces) *AuthHandler {
	return &AuthHandler{workspaces: workspaces}
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse describes the login state of the profile.
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        int    `json:"user_id,omitempty"`
	Username      string `json:"username,omitempty"`
}

func sessionResponse(s domain.Session) SessionResponse {
	if !s.Valid() {
		return SessionResponse{}
	}
	return SessionResponse{Authenticated: true, UserID: s.UserID, Username: s.Username}
}

// Register creates a remote account and logs the profile in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, CodeValidation, "Invalid request body")
		return
	}

	session, err := ws.Auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ws.List.SyncAuth(r.Context())

	writeJSON(w, http.StatusCreated, sessionResponse(session))
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, CodeValidation, "Invalid request body")
		return
	}

	session, err := ws.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ws.List.SyncAuth(r.Context())

	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// Logout forgets the stored session. Logging out twice is not an error.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}

	if err := ws.Auth.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	ws.List.SyncAuth(r.Context())

	writeJSON(w, http.StatusOK, SessionResponse{})
}

// Status validates the stored session against the remote API.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r, h.workspaces)
	if !ok {
		return
	}

	session, err := ws.Auth.CheckLoginStatus(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !session.Valid() && ws.List.State().Authenticated {
		ws.List.SyncAuth(r.Context())
	}

	writeJSON(w, http.StatusOK, sessionResponse(session))
}
