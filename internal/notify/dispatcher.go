package notify

import (
	"context"
	"log/slog"
)

// Dispatcher delivers one notification to one user through the best
// available channel. Callers never learn which channel carried it.
//
// The cascade: realtime socket first, then SSE, both short-circuiting on
// success. Web push is tried against every stored subscription; expired
// endpoints are pruned best-effort. E-mail is additive, not a pure fallback:
// when the user has it enabled it is sent even if push already succeeded.
type Dispatcher struct {
	socket SocketChannel
	sse    SSEChannel
	push   PushChannel
	email  EmailSender
	users  UserStore
}

func NewDispatcher(socket SocketChannel, sse SSEChannel, push PushChannel, email EmailSender, users UserStore) *Dispatcher {
	return &Dispatcher{
		socket: socket,
		sse:    sse,
		push:   push,
		email:  email,
		users:  users,
	}
}

// Send attempts delivery and reports whether any channel succeeded. A user
// with no reachable channel is logged, not an error.
func (d *Dispatcher) Send(ctx context.Context, userID string, payload Payload, skip SkipFlags) bool {
	if !skip.Socket && d.socket.SendToUser(userID, payload) {
		slog.Debug("notification sent via socket", "user", userID)
		return true
	}

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		slog.Warn("notification dispatch aborted, user lookup failed", "user", userID, "error", err)
		return false
	}

	if !skip.SSE && d.sse.HasSubscription(userID) {
		d.sse.Emit(UserChannel(userID), payload)
		slog.Debug("notification sent via SSE", "user", userID)
		return true
	}

	sent := false

	if !skip.Push && len(user.PushSubscriptions) > 0 {
		result := d.push.SendToAll(ctx, user.PushSubscriptions, payload)
		if result.Succeeded > 0 {
			slog.Debug("notification sent via web push", "user", userID, "devices", result.Succeeded)
			sent = true
		}

		// Dead endpoints are pruned here rather than inside the channel so
		// the store stays behind one writer. Best-effort.
		if len(result.Expired) > 0 {
			if err := d.users.RemovePushSubscriptions(ctx, userID, result.Expired); err != nil {
				slog.Warn("failed to remove expired push subscriptions", "user", userID, "error", err)
			} else {
				slog.Info("removed expired push subscriptions", "user", userID, "count", len(result.Expired))
			}
		}
	}

	if !skip.Email && user.Email != "" && user.Preferences.EmailNotifications {
		if err := d.email.SendGenericNotification(user.Email, payload.Title, payload.Message, payload.URL); err != nil {
			slog.Error("failed to send notification e-mail", "user", userID, "error", err)
		} else {
			slog.Debug("notification sent via e-mail", "user", userID)
			sent = true
		}
	}

	if !sent {
		slog.Warn("no notification channel available", "user", userID, "title", payload.Title)
	}

	return sent
}
