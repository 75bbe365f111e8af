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

type CalendarService struct {
	calendars repository.ICalendarRepository
	users     repository.IUserRepository
	mailer    inviteMailer
	publisher invitePublisher
}

func NewCalendarService(
	calendars repository.ICalendarRepository,
	users repository.IUserRepository,
	mailer inviteMailer,
	publisher invitePublisher,
) *CalendarService {
	return &CalendarService{
		calendars: calendars,
		users:     users,
		mailer:    mailer,
		publisher: publisher,
	}
}

func (s *CalendarService) Create(ctx context.Context, userID string, req *models.CreateCalendarRequest) (*models.Calendar, error) {
	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	calendar := &models.Calendar{
		Title:       req.Title,
		Description: req.Description,
		Color:       req.Color,
		IsPrivate:   req.IsPrivate,
		OwnerID:     ownerID,
	}
	if err := s.calendars.Create(ctx, calendar); err != nil {
		return nil, err
	}
	return calendar, nil
}

func (s *CalendarService) Get(ctx context.Context, calendarID string) (*models.Calendar, error) {
	return s.calendars.GetByID(ctx, calendarID)
}

// IsMember reports whether the user owns the calendar or appears in its
// member list. Chat and event access checks go through this.
func (s *CalendarService) IsMember(ctx context.Context, calendarID, userID string) (bool, error) {
	calendar, err := s.calendars.GetByID(ctx, calendarID)
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
	return calendar.IsMember(uid), nil
}

func (s *CalendarService) InviteMember(ctx context.Context, senderID, calendarID string, req *models.InviteCalendarMemberRequest) error {
	calendar, err := s.calendars.GetByID(ctx, calendarID)
	if err != nil {
		return err
	}

	if calendar.OwnerID.Hex() != senderID {
		return ErrForbidden
	}

	for _, m := range calendar.Members {
		if m.Email == req.Email {
			return ErrAlreadyInvited
		}
	}

	role := req.Role
	if role == "" {
		role = models.CalendarRoleReader
	}
	member := models.CalendarMember{
		Role:   role,
		Status: models.InvitePending,
		Email:  req.Email,
	}

	var inviteeName string
	invitee, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		member.UserID = &invitee.ID
		inviteeName = invitee.Name
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if err := s.calendars.AddMember(ctx, calendarID, member); err != nil {
		return err
	}

	if err := s.mailer.SendCalendarInvite(req.Email, calendar.Title, inviteeName); err != nil {
		slog.Error("failed to send calendar invite mail", "calendar", calendarID, "email", req.Email, "error", err)
	}

	if err := s.publisher.PublishInvite(ctx, event.InviteEvent{
		Kind:         event.InviteKindCalendar,
		ID:           calendarID,
		Title:        calendar.Title,
		InviteeEmail: req.Email,
		InviteeName:  inviteeName,
		SentAt:       time.Now().UTC(),
	}); err != nil {
		slog.Error("failed to publish calendar invite", "calendar", calendarID, "error", err)
	}

	return nil
}

func (s *CalendarService) AcceptInvite(ctx context.Context, calendarID, userID, userEmail string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	return s.calendars.AcceptInvite(ctx, calendarID, uid, userEmail)
}
