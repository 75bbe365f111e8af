package models

import "time"

type CreateCalendarRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
	IsPrivate   bool   `json:"isPrivate"`
}

type CreateEventRequest struct {
	CalendarID  string     `json:"calendarId" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Type        EventType  `json:"type"`
	Start       time.Time  `json:"start" binding:"required"`
	End         time.Time  `json:"end" binding:"required"`
	IsAllDay    bool       `json:"isAllDay"`
	IsOutdoor   bool       `json:"isOutdoor"`
	Address     string     `json:"address"`
	ExternalURL string     `json:"externalUrl"`
	Reminders   []Reminder `json:"reminders"`
}

// UpdateEventRequest carries partial updates; nil fields are untouched.
type UpdateEventRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Start       *time.Time  `json:"start"`
	End         *time.Time  `json:"end"`
	IsAllDay    *bool       `json:"isAllDay"`
	IsCompleted *bool       `json:"isCompleted"`
	Address     *string     `json:"address"`
	Reminders   *[]Reminder `json:"reminders"`
}

// TimingChanged reports whether the update touches anything that
// invalidates scheduled reminders.
func (r *UpdateEventRequest) TimingChanged() bool {
	return r.Start != nil || r.End != nil || r.Reminders != nil
}

type InviteMemberRequest struct {
	Email string    `json:"email" binding:"required,email"`
	Role  EventRole `json:"role"`
}

type InviteCalendarMemberRequest struct {
	Email string       `json:"email" binding:"required,email"`
	Role  CalendarRole `json:"role"`
}

type UnsubscribePushRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

type SendTestNotificationRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	URL     string `json:"url"`
}
