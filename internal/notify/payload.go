package notify

import (
	"context"

	"github.com/chronos-ua/chronos-backend/internal/models"
)

// Payload is the notification body handed to every delivery channel. Built
// per send, never persisted.
type Payload struct {
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

// SkipFlags lets a caller suppress individual channels for one dispatch,
// typically to avoid double delivery when the caller already covers a
// channel itself (the invite flows send their own e-mail).
type SkipFlags struct {
	Socket bool
	SSE    bool
	Push   bool
	Email  bool
}

// PushResult is the per-fanout outcome of a web push delivery attempt.
// Expired holds endpoints the push service reported gone (HTTP 404/410);
// those are safe to prune. Failed holds endpoints that errored for any other
// reason and are left alone.
type PushResult struct {
	Succeeded int
	Expired   []string
	Failed    []string
}

// UserChannel is the SSE channel name carrying a user's notifications.
func UserChannel(userID string) string {
	return "user:" + userID
}

// SocketChannel delivers over live realtime connections. Returns true iff at
// least one connection accepted the payload.
type SocketChannel interface {
	SendToUser(userID string, payload Payload) bool
}

// SSEChannel delivers over server-sent-event streams.
type SSEChannel interface {
	HasSubscription(userID string) bool
	Emit(channel string, payload Payload)
}

// PushChannel delivers to stored web push subscriptions.
type PushChannel interface {
	SendToAll(ctx context.Context, subs []models.PushSubscription, payload Payload) PushResult
}

// EmailSender delivers a generic templated notification mail. Failures are
// reported, never fatal.
type EmailSender interface {
	SendGenericNotification(to, title, message, url string) error
}

// UserStore is the slice of the user repository the dispatch path needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	RemovePushSubscriptions(ctx context.Context, userID string, endpoints []string) error
}

// EventStore is the slice of the event repository the reconciler needs.
type EventStore interface {
	FindUpcomingWithReminders(ctx context.Context) ([]models.Event, error)
}
