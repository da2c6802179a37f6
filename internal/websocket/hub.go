package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"attractions-web/internal/observability"
	"attractions-web/internal/view"
)

// Envelope is one serialized view event addressed to a browser profile.
type Envelope struct {
	ProfileID string
	EventType view.EventType
	Data      []byte
}

// Hub maintains the connections of every profile and fans view events out to them
type Hub struct {
	// Registered clients by profile
	clients map[string]map[*Client]bool

	send       chan *Envelope
	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		send:       make(chan *Envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			slog.Info("hub shutting down gracefully")
			return ctx.Err()

		case client := <-h.register:
			if h.clients[client.profileID] == nil {
				h.clients[client.profileID] = make(map[*Client]bool)
			}
			h.clients[client.profileID][client] = true
			observability.WebSocketConnectionsActive.Inc()
			slog.Debug("client registered", slog.String("profile_id", client.profileID))

		case client := <-h.unregister:
			h.unregisterClient(client)

		case env := <-h.send:
			for client := range h.clients[env.ProfileID] {
				select {
				case client.send <- env.Data:
					observability.WebSocketEventsSent.WithLabelValues(string(env.EventType)).Inc()
				default:
					// Client's send buffer is full, drop the connection
					h.unregisterClient(client)
				}
			}
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.clients[client.profileID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	observability.WebSocketConnectionsActive.Dec()
	slog.Debug("client unregistered", slog.String("profile_id", client.profileID))

	if len(clients) == 0 {
		delete(h.clients, client.profileID)
	}
}

// shutdown closes every remaining client
func (h *Hub) shutdown() {
	close(h.done)

	for _, clients := range h.clients {
		for client := range clients {
			h.unregisterClient(client)
		}
	}

	slog.Info("hub shutdown complete")
}

// SendToProfile delivers event to every connection of profileID.
// Events sent after the hub stopped are dropped.
func (h *Hub) SendToProfile(profileID string, event view.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal view event",
			slog.String("error", err.Error()),
			slog.String("type", string(event.Type)))
		return
	}

	select {
	case h.send <- &Envelope{ProfileID: profileID, EventType: event.Type, Data: data}:
	case <-h.done:
	}
}

// Register registers a client with the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
