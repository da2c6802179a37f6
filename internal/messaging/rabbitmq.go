package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"attractions-web/internal/domain"
)

const (
	BookmarkExchange = "attractions.bookmarks"
	AuditQueue       = "bookmark.audit"

	RoutingKeyAdded     = "bookmark.added"
	RoutingKeyRemoved   = "bookmark.removed"
	RoutingKeyUnchanged = "bookmark.unchanged"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	rmq := &RabbitMQ{
		conn:    conn,
		channel: ch,
	}

	if err := rmq.Setup(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

// NewRabbitMQWithRetry keeps dialing with exponential backoff until it connects or ctx ends.
func NewRabbitMQWithRetry(ctx context.Context, url string) (*RabbitMQ, error) {
	backoff := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		rmq, err := NewRabbitMQ(url)
		if err == nil {
			return rmq, nil
		}
		slog.Warn("rabbitmq not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("giving up on RabbitMQ after %d attempts: %w", attempt, err)
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 10*time.Second)
	}
}

func (r *RabbitMQ) Setup() error {
	if err := r.channel.ExchangeDeclare(
		BookmarkExchange, // name
		"topic",          // type
		true,             // durable
		false,            // auto-deleted
		false,            // internal
		false,            // no-wait
		nil,              // arguments
	); err != nil {
		return fmt.Errorf("failed to declare bookmarks exchange: %w", err)
	}

	if _, err := r.channel.QueueDeclare(
		AuditQueue, // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		return fmt.Errorf("failed to declare %s queue: %w", AuditQueue, err)
	}

	if err := r.channel.QueueBind(
		AuditQueue,       // queue name
		"bookmark.*",     // routing key
		BookmarkExchange, // exchange
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to bind %s queue: %w", AuditQueue, err)
	}

	slog.Info("rabbitmq setup completed successfully")
	return nil
}

// RoutingKey maps a bookmark outcome to its topic.
func RoutingKey(outcome domain.BookmarkOutcome) string {
	switch outcome {
	case domain.OutcomeNewlyBookmarked:
		return RoutingKeyAdded
	case domain.OutcomeNewlyDeleted:
		return RoutingKeyRemoved
	default:
		return RoutingKeyUnchanged
	}
}

func (r *RabbitMQ) PublishBookmarkEvent(ctx context.Context, event *domain.BookmarkEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmark event: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		BookmarkExchange,
		RoutingKey(event.Outcome),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Unix(event.Timestamp, 0),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish bookmark event: %w", err)
	}

	slog.Debug("published bookmark event",
		slog.Int("user_id", event.UserID),
		slog.Int("attraction_id", event.AttractionID),
		slog.String("outcome", string(event.Outcome)))
	return nil
}

func (r *RabbitMQ) ConsumeBookmarkEvents() (<-chan amqp.Delivery, error) {
	msgs, err := r.channel.Consume(
		AuditQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}

	slog.Info("started consuming bookmark events",
		slog.String("queue", AuditQueue))
	return msgs, nil
}

func (r *RabbitMQ) IsClosed() bool {
	return r.conn == nil || r.conn.IsClosed()
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
