package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chronos-ua/chronos-backend/internal/event"
	"github.com/chronos-ua/chronos-backend/internal/models"
	"github.com/chronos-ua/chronos-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrForbidden      = errors.New("forbidden")
	ErrAlreadyInvited = errors.New("already invited")
)

// reminderScheduler is the slice of the reminder queue the lifecycle hooks
// use. Jobs are only ever created or cancelled through it.
type reminderScheduler interface {
	ScheduleEventReminders(event *models.Event) error
	CancelEventReminders(eventID string) int
}

// inviteMailer sends the templated invite mails.
type inviteMailer interface {
	SendEventInvite(to, eventTitle, inviteeName string) error
	SendCalendarInvite(to, calendarTitle, inviteeName string) error
}

// invitePublisher hands "invite sent" events to the bus.
type invitePublisher interface {
	PublishInvite(ctx context.Context, evt event.InviteEvent) error
}

// EventService owns event CRUD and keeps the reminder queue consistent with
// every write.
type EventService struct {
	events    repository.IEventRepository
	calendars repository.ICalendarRepository
	users     repository.IUserRepository
	scheduler reminderScheduler
	mailer    inviteMailer
	publisher invitePublisher
}

func NewEventService(
	events repository.IEventRepository,
	calendars repository.ICalendarRepository,
	users repository.IUserRepository,
	scheduler reminderScheduler,
	mailer inviteMailer,
	publisher invitePublisher,
) *EventService {
	return &EventService{
		events:    events,
		calendars: calendars,
		users:     users,
		scheduler: scheduler,
		mailer:    mailer,
		publisher: publisher,
	}
}

func validateReminders(reminders []models.Reminder) error {
	for _, r := range reminders {
		if !r.Method.Valid() {
			return fmt.Errorf("unsupported reminder method %q", r.Method)
		}
		if r.MinutesBefore < 0 {
			return fmt.Errorf("minutesBefore must not be negative")
		}
	}
	return nil
}

func (s *EventService) Create(ctx context.Context, userID string, req *models.CreateEventRequest) (*models.Event, error) {
	if req.End.Before(req.Start) {
		return nil, errors.New("end date must be after start date")
	}
	if err := validateReminders(req.Reminders); err != nil {
		return nil, err
	}

	calendarID, err := primitive.ObjectIDFromHex(req.CalendarID)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar id %q: %w", req.CalendarID, err)
	}
	creatorID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	eventType := req.Type
	if eventType == "" {
		eventType = models.EventTypeArrangement
	}

	evt := &models.Event{
		CalendarID:  calendarID,
		CreatorID:   creatorID,
		Title:       req.Title,
		Description: req.Description,
		Type:        eventType,
		Start:       req.Start.UTC(),
		End:         req.End.UTC(),
		IsAllDay:    req.IsAllDay,
		IsOutdoor:   req.IsOutdoor,
		Address:     req.Address,
		ExternalURL: req.ExternalURL,
		Reminders:   req.Reminders,
		IsPrivate:   true,
	}

	if err := s.events.Create(ctx, evt); err != nil {
		return nil, err
	}

	if len(evt.Reminders) > 0 {
		if err := s.scheduler.ScheduleEventReminders(evt); err != nil {
			slog.Error("failed to schedule reminders for new event", "event", evt.ID.Hex(), "error", err)
		}
	}

	return evt, nil
}

func (s *EventService) Get(ctx context.Context, eventID string) (*models.Event, error) {
	return s.events.GetByID(ctx, eventID)
}

// Update applies a partial update. When reminders, start or end changed, all
// pending reminder jobs for the event are cancelled and rebuilt from the new
// state.
func (s *EventService) Update(ctx context.Context, userID, eventID string, req *models.UpdateEventRequest) (*models.Event, error) {
	evt, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	canEdit, err := s.canEditEvent(ctx, evt, userID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		evt.Title = *req.Title
	}
	if req.Description != nil {
		evt.Description = *req.Description
	}
	if req.Start != nil {
		evt.Start = req.Start.UTC()
	}
	if req.End != nil {
		evt.End = req.End.UTC()
	}
	if req.IsAllDay != nil {
		evt.IsAllDay = *req.IsAllDay
	}
	if req.IsCompleted != nil {
		evt.IsCompleted = *req.IsCompleted
	}
	if req.Address != nil {
		evt.Address = *req.Address
	}
	if req.Reminders != nil {
		if err := validateReminders(*req.Reminders); err != nil {
			return nil, err
		}
		evt.Reminders = *req.Reminders
	}
	if evt.End.Before(evt.Start) {
		return nil, errors.New("end date must be after start date")
	}

	if err := s.events.Update(ctx, evt); err != nil {
		return nil, err
	}

	if req.TimingChanged() {
		s.scheduler.CancelEventReminders(eventID)
		if len(evt.Reminders) > 0 {
			if err := s.scheduler.ScheduleEventReminders(evt); err != nil {
				slog.Error("failed to reschedule reminders", "event", eventID, "error", err)
			}
		}
	}

	return evt, nil
}

func (s *EventService) Delete(ctx context.Context, userID, eventID string) error {
	evt, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	canEdit, err := s.canEditEvent(ctx, evt, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return ErrForbidden
	}

	if err := s.events.Delete(ctx, eventID); err != nil {
		return err
	}

	s.scheduler.CancelEventReminders(eventID)
	return nil
}

// InviteMember adds a pending member, mails the invite and publishes the
// invite event for realtime notification. Only the creator can invite.
func (s *EventService) InviteMember(ctx context.Context, senderID, eventID string, req *models.InviteMemberRequest) error {
	evt, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	if evt.CreatorID.Hex() != senderID {
		return ErrForbidden
	}

	for _, m := range evt.Members {
		if m.Email == req.Email {
			return ErrAlreadyInvited
		}
	}

	role := req.Role
	if role == "" {
		role = models.RoleViewer
	}
	member := models.EventMember{
		Role:   role,
		Status: models.InvitePending,
		Email:  req.Email,
	}

	var inviteeName string
	invitee, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		member.User = &invitee.ID
		inviteeName = invitee.Name
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if err := s.events.AddMember(ctx, eventID, member); err != nil {
		return err
	}

	// The invite mail and the bus event are both best-effort; the
	// membership write above is the source of truth.
	if err := s.mailer.SendEventInvite(req.Email, evt.Title, inviteeName); err != nil {
		slog.Error("failed to send event invite mail", "event", eventID, "email", req.Email, "error", err)
	}

	if err := s.publisher.PublishInvite(ctx, event.InviteEvent{
		Kind:         event.InviteKindEvent,
		ID:           eventID,
		Title:        evt.Title,
		InviteeEmail: req.Email,
		InviteeName:  inviteeName,
		SentAt:       time.Now().UTC(),
	}); err != nil {
		slog.Error("failed to publish event invite", "event", eventID, "error", err)
	}

	return nil
}

// AcceptInvite flips the member's status to accepted. The member starts
// receiving reminders once the next reconciler pass picks the event up.
func (s *EventService) AcceptInvite(ctx context.Context, eventID, userID, userEmail string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	return s.events.AcceptInvite(ctx, eventID, uid, userEmail)
}

func (s *EventService) canEditEvent(ctx context.Context, evt *models.Event, userID string) (bool, error) {
	if evt.CreatorID.Hex() == userID {
		return true, nil
	}

	calendar, err := s.calendars.GetByID(ctx, evt.CalendarID.Hex())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	if calendar.OwnerID == uid {
		return true, nil
	}
	for _, m := range calendar.Members {
		if m.UserID != nil && *m.UserID == uid && m.Status == models.InviteAccepted && m.Role == models.CalendarRoleEditor {
			return true, nil
		}
	}
	return false, nil
}
