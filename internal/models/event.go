package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string

const (
	EventTypeArrangement EventType = "arrangement"
	EventTypeTask        EventType = "task"
	EventTypeReminder    EventType = "reminder"
	EventTypeEvent       EventType = "event"
	EventTypeHoliday     EventType = "holiday"
)

// ReminderMethod is the delivery method requested for an event reminder.
type ReminderMethod string

const (
	MethodEmail    ReminderMethod = "email"
	MethodPush     ReminderMethod = "push"
	MethodTelegram ReminderMethod = "telegram"
)

// Valid reports whether m is one of the supported reminder methods.
func (m ReminderMethod) Valid() bool {
	switch m {
	case MethodEmail, MethodPush, MethodTelegram:
		return true
	}
	return false
}

type EventRole string

const (
	RoleOwner  EventRole = "owner"
	RoleEditor EventRole = "editor"
	RoleViewer EventRole = "viewer"
)

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
)

type Reminder struct {
	Method        ReminderMethod `bson:"method" json:"method"`
	MinutesBefore int            `bson:"minutesBefore" json:"minutesBefore"`
}

// EventMember is a participant entry. User may be unset for invitations sent
// to an e-mail address that has no account yet.
type EventMember struct {
	User   *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Role   EventRole           `bson:"role" json:"role"`
	Status InviteStatus        `bson:"status" json:"status"`
	Email  string              `bson:"email,omitempty" json:"email,omitempty"`
}

type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CalendarID  primitive.ObjectID `bson:"calendarId" json:"calendarId"`
	CreatorID   primitive.ObjectID `bson:"creatorId" json:"creatorId"`
	CustomID    string             `bson:"customId,omitempty" json:"customId,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        EventType          `bson:"type" json:"type"`
	// Start and End are stored in UTC.
	Start       time.Time     `bson:"start" json:"start"`
	End         time.Time     `bson:"end" json:"end"`
	IsAllDay    bool          `bson:"isAllDay" json:"isAllDay"`
	IsOutdoor   bool          `bson:"isOutdoor,omitempty" json:"isOutdoor,omitempty"`
	IsCompleted bool          `bson:"isCompleted,omitempty" json:"isCompleted,omitempty"`
	Address     string        `bson:"address,omitempty" json:"address,omitempty"`
	ExternalURL string        `bson:"externalUrl,omitempty" json:"externalUrl,omitempty"`
	ImageURL    string        `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Reminders   []Reminder    `bson:"reminders,omitempty" json:"reminders,omitempty"`
	IsPrivate   bool          `bson:"isPrivate" json:"isPrivate"`
	Members     []EventMember `bson:"members,omitempty" json:"members,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// ReminderRecipients returns the user ids that should receive reminders for
// the event: the creator unconditionally, plus every member whose invite has
// been accepted.
func (e *Event) ReminderRecipients() []string {
	out := []string{e.CreatorID.Hex()}
	seen := map[string]bool{e.CreatorID.Hex(): true}
	for _, m := range e.Members {
		if m.User == nil || m.Status != InviteAccepted {
			continue
		}
		id := m.User.Hex()
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
