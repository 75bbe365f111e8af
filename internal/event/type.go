package event

import "time"

const (
	// InviteQueue carries "invite sent" events from the calendar/event write
	// paths to the notification dispatcher.
	InviteQueue = "invite_notifications"
	// InviteDLQ receives invite events that exhausted their retries.
	InviteDLQ = "invite_notifications.dlq"
)

type InviteKind string

const (
	InviteKindEvent    InviteKind = "event"
	InviteKindCalendar InviteKind = "calendar"
)

// InviteEvent is published when a calendar or event invite was sent. The
// consumer notifies the invitee over the realtime channels; e-mail is
// suppressed there because the invite flow mails the invitee itself.
type InviteEvent struct {
	Kind         InviteKind `json:"kind"`
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	InviteeEmail string     `json:"invitee_email"`
	InviteeName  string     `json:"invitee_name,omitempty"`
	SentAt       time.Time  `json:"sent_at"`
}
