package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"

	"attractions-web/internal/middleware"
	"attractions-web/internal/observability"
	ws "attractions-web/internal/websocket"
)

// WebSocketHandler upgrades connections that push view events to a browser profile
// and accept list commands from it.
type WebSocketHandler struct {
	hub        *ws.Hub
	workspaces Workspaces
	upgrader   websocket.Upgrader
}

// NewWebSocketHandler creates the handler. Same-host connections are always accepted;
// other origins must be listed in allowedOrigins ("*" accepts any).
func NewWebSocketHandler(hub *ws.Hub, workspaces Workspaces, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		workspaces: workspaces,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// HandleConnection handles WebSocket upgrade and connection
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	profileID, ok := middleware.ProfileID(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, CodeValidation, "Missing browser profile")
		return
	}
	workspace, err := h.workspaces.Get(profileID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.FromContext(r.Context()).Warn("websocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	// The request context ends when this handler returns; the client keeps its values
	// and owns its own cancellation.
	client := ws.NewClient(context.WithoutCancel(r.Context()), h.hub, conn, profileID, workspace.List)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
