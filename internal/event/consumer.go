package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chronos-ua/chronos-backend/internal/models"
	"github.com/chronos-ua/chronos-backend/internal/notify"
	"github.com/chronos-ua/chronos-backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

const maxRetries = 3

type dispatcher interface {
	Send(ctx context.Context, userID string, payload notify.Payload, skip notify.SkipFlags) bool
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// InviteConsumer consumes invite events and pushes a realtime notification
// to the invitee. E-mail is skipped: the invite flow already mailed them.
type InviteConsumer struct {
	channel    *amqp.Channel
	users      userStore
	dispatcher dispatcher
	queueName  string
}

type ConsumerConfig struct {
	PrefetchCount int
}

func NewInviteConsumer(conn *RabbitMQConnection, cfg *ConsumerConfig, users userStore, d dispatcher) (*InviteConsumer, error) {
	ch, err := conn.Connection.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Set QoS for controlled processing
	if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	_, err = ch.QueueDeclare(
		InviteQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// Declare dead letter queue
	_, err = ch.QueueDeclare(
		InviteDLQ,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare DLQ: %w", err)
	}

	return &InviteConsumer{
		channel:    ch,
		users:      users,
		dispatcher: d,
		queueName:  InviteQueue,
	}, nil
}

// StartConsuming blocks processing invite events until ctx is cancelled.
func (c *InviteConsumer) StartConsuming(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("consumer channel closed")
			}
			if err := c.processMessage(ctx, msg); err != nil {
				slog.Error("error processing invite event", "error", err)

				retryCount := 0
				if val, ok := msg.Headers["x-retry-count"].(int32); ok {
					retryCount = int(val)
				}

				if retryCount < maxRetries {
					if err := c.requeueMessage(ctx, msg, retryCount+1); err != nil {
						slog.Error("failed to requeue invite event", "error", err)
						msg.Nack(false, false)
					} else {
						msg.Ack(false)
					}
				} else {
					msg.Nack(false, false)
					slog.Warn("invite event sent to DLQ", "retries", retryCount)
				}
			} else {
				msg.Ack(false)
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *InviteConsumer) processMessage(ctx context.Context, msg amqp.Delivery) error {
	var evt InviteEvent
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		return fmt.Errorf("failed to unmarshal invite event: %w", err)
	}

	payload, err := invitePayload(evt)
	if err != nil {
		return err
	}

	user, err := c.users.GetByEmail(ctx, evt.InviteeEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Invitee has no account yet; the invite mail is all they get.
			slog.Debug("invitee not registered, skipping realtime notification", "email", evt.InviteeEmail)
			return nil
		}
		return fmt.Errorf("failed to resolve invitee: %w", err)
	}

	c.dispatcher.Send(ctx, user.ID.Hex(), payload, notify.SkipFlags{Email: true})
	slog.Info("invite notification dispatched", "kind", evt.Kind, "invitee", evt.InviteeEmail)
	return nil
}

func invitePayload(evt InviteEvent) (notify.Payload, error) {
	switch evt.Kind {
	case InviteKindEvent:
		return notify.Payload{
			Title:   "Event Invitation",
			Message: fmt.Sprintf("You've been invited to: %s", evt.Title),
			URL:     "/events/" + evt.ID,
		}, nil
	case InviteKindCalendar:
		return notify.Payload{
			Title:   "Calendar Invitation",
			Message: fmt.Sprintf("You've been invited to calendar: %s", evt.Title),
			URL:     "/calendars/" + evt.ID,
		}, nil
	default:
		return notify.Payload{}, fmt.Errorf("unsupported invite kind: %s", evt.Kind)
	}
}

func (c *InviteConsumer) requeueMessage(ctx context.Context, msg amqp.Delivery, retryCount int) error {
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retry-count"] = int32(retryCount)

	// Exponential backoff via per-message expiration
	delay := time.Duration(retryCount*retryCount) * time.Second

	return c.channel.PublishWithContext(
		ctx,
		"",          // exchange
		c.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
			Expiration:  fmt.Sprintf("%d", delay.Milliseconds()),
		},
	)
}

// Close releases the consumer's channel.
func (c *InviteConsumer) Close() error {
	return c.channel.Close()
}
