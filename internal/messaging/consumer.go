package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"attractions-web/internal/domain"
	"attractions-web/internal/observability"
)

// ErrInvalidEvent marks a delivery that can never be processed.
var ErrInvalidEvent = errors.New("invalid bookmark event")

// BookmarkHandler processes one decoded bookmark event.
type BookmarkHandler func(ctx context.Context, event *domain.BookmarkEvent) error

type BookmarkConsumer struct {
	rmq     *RabbitMQ
	handler BookmarkHandler
}

func NewBookmarkConsumer(rmq *RabbitMQ, handler BookmarkHandler) *BookmarkConsumer {
	return &BookmarkConsumer{
		rmq:     rmq,
		handler: handler,
	}
}

// Start consumes the audit queue until ctx is done. Deliveries are acked after the
// handler succeeds; malformed ones are dropped, failed ones requeued.
func (c *BookmarkConsumer) Start(ctx context.Context) error {
	msgs, err := c.rmq.ConsumeBookmarkEvents()
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping bookmark consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Warn("bookmark consumer channel closed")
					return
				}
				c.process(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *BookmarkConsumer) process(ctx context.Context, msg amqp.Delivery) {
	err := Handle(ctx, msg.Body, c.handler)
	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			slog.Error("failed to ack bookmark event", slog.String("error", ackErr.Error()))
		}
	case errors.Is(err, ErrInvalidEvent):
		slog.Error("dropping invalid bookmark event",
			slog.String("error", err.Error()),
			slog.String("body", string(msg.Body)))
		_ = msg.Nack(false, false)
	default:
		slog.Error("failed to process bookmark event, requeueing",
			slog.String("error", err.Error()))
		_ = msg.Nack(false, !msg.Redelivered)
	}
}

// Handle decodes body and passes it to handler, counting the result.
func Handle(ctx context.Context, body []byte, handler BookmarkHandler) error {
	var event domain.BookmarkEvent
	if err := json.Unmarshal(body, &event); err != nil {
		observability.BookmarkEventsConsumed.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if event.AttractionID <= 0 || event.UserID <= 0 || event.Outcome == "" {
		observability.BookmarkEventsConsumed.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: missing user, attraction or outcome", ErrInvalidEvent)
	}

	if err := handler(ctx, &event); err != nil {
		observability.BookmarkEventsConsumed.WithLabelValues("failed").Inc()
		return err
	}
	observability.BookmarkEventsConsumed.WithLabelValues(RoutingKey(event.Outcome)).Inc()
	return nil
}

// AttractionCount is the net bookmark count of one attraction.
type AttractionCount struct {
	AttractionID int `json:"attraction_id"`
	Bookmarks    int `json:"bookmarks"`
}

// Tally keeps net bookmark counts per attraction from the events it has seen.
type Tally struct {
	mu     sync.Mutex
	counts map[int]int
}

func NewTally() *Tally {
	return &Tally{counts: make(map[int]int)}
}

// Record is a BookmarkHandler.
func (t *Tally) Record(ctx context.Context, event *domain.BookmarkEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch event.Outcome {
	case domain.OutcomeNewlyBookmarked:
		t.counts[event.AttractionID]++
	case domain.OutcomeNewlyDeleted:
		t.counts[event.AttractionID]--
	}

	slog.Info("bookmark event",
		slog.Int("user_id", event.UserID),
		slog.String("username", event.Username),
		slog.Int("attraction_id", event.AttractionID),
		slog.String("outcome", string(event.Outcome)))
	return nil
}

// Top returns up to n attractions with the most net bookmarks.
func (t *Tally) Top(n int) []AttractionCount {
	t.mu.Lock()
	out := make([]AttractionCount, 0, len(t.counts))
	for id, c := range t.counts {
		if c > 0 {
			out = append(out, AttractionCount{AttractionID: id, Bookmarks: c})
		}
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Bookmarks != out[j].Bookmarks {
			return out[i].Bookmarks > out[j].Bookmarks
		}
		return out[i].AttractionID < out[j].AttractionID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
