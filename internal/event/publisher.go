package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// InvitePublisher publishes invite events to RabbitMQ. Fire-and-forget from
// the caller's perspective: the write path never waits on notification
// delivery.
type InvitePublisher struct {
	conn              *RabbitMQConnection
	messagesPublished int64
	messagesFailed    int64
	lastPublishTime   time.Time
}

// NewInvitePublisher creates a new invite event publisher
func NewInvitePublisher(conn *RabbitMQConnection) *InvitePublisher {
	return &InvitePublisher{
		conn:            conn,
		lastPublishTime: time.Now(),
	}
}

// PublishInvite publishes one invite event to the invite queue.
func (p *InvitePublisher) PublishInvite(ctx context.Context, evt InviteEvent) error {
	// Ensure the queue exists
	_, err := p.conn.Channel.QueueDeclare(
		InviteQueue, // queue name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if evt.SentAt.IsZero() {
		evt.SentAt = time.Now().UTC()
	}

	body, err := json.Marshal(evt)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal invite event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",          // exchange
		InviteQueue, // routing key (queue name)
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish invite event: %w", err)
	}

	p.messagesPublished++
	p.lastPublishTime = time.Now()

	slog.Info("Invite event published",
		"queue", InviteQueue,
		"kind", evt.Kind,
		"invitee", evt.InviteeEmail,
	)

	return nil
}

// GetMetrics returns publisher metrics
func (p *InvitePublisher) GetMetrics() map[string]any {
	return map[string]any{
		"messages_published": p.messagesPublished,
		"messages_failed":    p.messagesFailed,
		"last_publish_time":  p.lastPublishTime,
		"queue":              InviteQueue,
	}
}

// HealthCheck returns the health status of the publisher
func (p *InvitePublisher) HealthCheck() PublisherHealthStatus {
	isHealthy := p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()

	return PublisherHealthStatus{
		IsHealthy:         isHealthy,
		MessagesPublished: p.messagesPublished,
		MessagesFailed:    p.messagesFailed,
		LastPublishTime:   p.lastPublishTime,
		Queue:             InviteQueue,
	}
}

// PublisherHealthStatus represents the health status of the publisher
type PublisherHealthStatus struct {
	IsHealthy         bool      `json:"is_healthy"`
	MessagesPublished int64     `json:"messages_published"`
	MessagesFailed    int64     `json:"messages_failed"`
	LastPublishTime   time.Time `json:"last_publish_time"`
	Queue             string    `json:"queue"`
}
