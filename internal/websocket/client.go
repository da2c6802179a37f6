package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"attractions-web/internal/domain"
	"attractions-web/internal/view"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // Must be less than pongWait
	maxMessageSize = 1024
	commandTimeout = 30 * time.Second
)

// Command types a browser may send.
const (
	CommandInit     = "init"
	CommandLoadPage = "load_page"
	CommandNext     = "next"
	CommandPrevious = "previous"
	CommandToggle   = "toggle_favorite"
	CommandLeave    = "leave"
)

// ListCommands is the list screen a connection drives.
type ListCommands interface {
	InitList(ctx context.Context, search string) (view.ListView, error)
	LoadPage(ctx context.Context, page int, search string) (view.ListView, error)
	NextPage(ctx context.Context) (view.ListView, error)
	PreviousPage(ctx context.Context) (view.ListView, error)
	ToggleFavorite(ctx context.Context, id int) (view.FavoriteButton, error)
	Leave()
}

// ClientCommand is a message received from the browser.
type ClientCommand struct {
	Type   string `json:"type"`
	Page   int    `json:"page,omitempty"`
	Search string `json:"search,omitempty"`
	ID     int    `json:"id,omitempty"`
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	profileID string
	list      ListCommands
	writeMu   sync.Mutex
	closed    atomic.Bool
	inflight  sync.WaitGroup
	ctx       context.Context
	ctxCancel context.CancelFunc
}

func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, profileID string, list ListCommands) *Client {
	clientCtx, cancel := context.WithCancel(ctx)

	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		profileID: profileID,
		list:      list,
		ctx:       clientCtx,
		ctxCancel: cancel,
	}
}

// ReadPump reads commands until the connection closes. Each command runs in its own
// goroutine so a newer page load can supersede one still in flight.
func (c *Client) ReadPump() {
	defer func() {
		c.ctxCancel()
		c.inflight.Wait()
		c.hub.Unregister(c)
		c.closeConnection()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("failed to set read deadline",
			slog.String("error", err.Error()),
			slog.String("profile_id", c.profileID))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket error",
					slog.String("error", err.Error()),
					slog.String("profile_id", c.profileID))
			}
			break
		}

		var cmd ClientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			slog.Warn("invalid command format",
				slog.String("error", err.Error()),
				slog.String("profile_id", c.profileID))
			c.hub.SendToProfile(c.profileID, view.FeedbackEvent(view.Failure("Invalid command")))
			continue
		}

		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()
			c.dispatch(cmd)
		}()
	}
}

func (c *Client) dispatch(cmd ClientCommand) {
	ctx, cancel := context.WithTimeout(c.ctx, commandTimeout)
	defer cancel()

	var err error
	switch cmd.Type {
	case CommandInit:
		_, err = c.list.InitList(ctx, cmd.Search)
	case CommandLoadPage:
		_, err = c.list.LoadPage(ctx, cmd.Page, cmd.Search)
	case CommandNext:
		_, err = c.list.NextPage(ctx)
	case CommandPrevious:
		_, err = c.list.PreviousPage(ctx)
	case CommandToggle:
		_, err = c.list.ToggleFavorite(ctx, cmd.ID)
	case CommandLeave:
		c.list.Leave()
	default:
		slog.Warn("unknown command type",
			slog.String("type", cmd.Type),
			slog.String("profile_id", c.profileID))
		c.hub.SendToProfile(c.profileID, view.FeedbackEvent(view.Failure("Unknown command: "+cmd.Type)))
		return
	}

	// Page and toggle failures are already reported by the list itself.
	switch {
	case err == nil, errors.Is(err, domain.ErrSuperseded):
	case errors.Is(err, domain.ErrNoAdjacentPage):
		c.hub.SendToProfile(c.profileID, view.FeedbackEvent(view.Warning("There is no page in that direction.")))
	case errors.Is(err, domain.ErrTogglePending):
		c.hub.SendToProfile(c.profileID, view.FeedbackEvent(view.Warning("This favorite is already being updated.")))
	default:
		slog.Debug("command failed",
			slog.String("type", cmd.Type),
			slog.String("profile_id", c.profileID),
			slog.String("error", err.Error()))
	}
}

// WritePump pumps events from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				_ = c.writeMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.writeMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeMessage writes a message to the WebSocket connection in a thread-safe manner
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return websocket.ErrCloseSent
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// closeConnection safely closes the WebSocket connection
func (c *Client) closeConnection() {
	if c.closed.CompareAndSwap(false, true) {
		c.writeMu.Lock()
		c.conn.Close()
		c.writeMu.Unlock()
	}
}
