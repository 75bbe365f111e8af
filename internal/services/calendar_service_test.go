package services

import (
	"context"
	"testing"

	"github.com/chronos-ua/chronos-backend/internal/event"
	"github.com/chronos-ua/chronos-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type calendarServiceFixture struct {
	svc       *CalendarService
	calendars *fakeCalendarRepo
	users     *fakeUserRepo
	mailer    *fakeMailer
	publisher *fakePublisher
	ownerID   primitive.ObjectID
}

func newCalendarServiceFixture(t *testing.T) *calendarServiceFixture {
	t.Helper()

	calendars := newFakeCalendarRepo()
	users := &fakeUserRepo{byEmail: make(map[string]*models.User)}
	mailer := &fakeMailer{}
	publisher := &fakePublisher{}

	return &calendarServiceFixture{
		svc:       NewCalendarService(calendars, users, mailer, publisher),
		calendars: calendars,
		users:     users,
		mailer:    mailer,
		publisher: publisher,
		ownerID:   primitive.NewObjectID(),
	}
}

func (fx *calendarServiceFixture) createCalendar(t *testing.T) *models.Calendar {
	t.Helper()
	cal, err := fx.svc.Create(context.Background(), fx.ownerID.Hex(), &models.CreateCalendarRequest{
		Title: "Personal",
	})
	require.NoError(t, err)
	return cal
}

func TestCalendarCreate(t *testing.T) {
	fx := newCalendarServiceFixture(t)

	cal := fx.createCalendar(t)

	assert.Equal(t, fx.ownerID, cal.OwnerID)
	assert.Equal(t, "Personal", cal.Title)
}

func TestCalendarInviteMember_Publishes(t *testing.T) {
	fx := newCalendarServiceFixture(t)
	cal := fx.createCalendar(t)

	invitee := &models.User{ID: primitive.NewObjectID(), Name: "Taras", Email: "taras@example.com"}
	fx.users.byEmail[invitee.Email] = invitee

	err := fx.svc.InviteMember(context.Background(), fx.ownerID.Hex(), cal.ID.Hex(), &models.InviteCalendarMemberRequest{
		Email: invitee.Email,
	})
	require.NoError(t, err)

	stored, err := fx.calendars.GetByID(context.Background(), cal.ID.Hex())
	require.NoError(t, err)
	require.Len(t, stored.Members, 1)
	assert.Equal(t, models.InvitePending, stored.Members[0].Status)
	assert.Equal(t, models.CalendarRoleReader, stored.Members[0].Role)

	assert.Equal(t, []string{invitee.Email}, fx.mailer.calendarInvites)
	require.Len(t, fx.publisher.published, 1)
	assert.Equal(t, event.InviteKindCalendar, fx.publisher.published[0].Kind)
}

func TestCalendarInviteMember_OnlyOwner(t *testing.T) {
	fx := newCalendarServiceFixture(t)
	cal := fx.createCalendar(t)

	err := fx.svc.InviteMember(context.Background(), primitive.NewObjectID().Hex(), cal.ID.Hex(), &models.InviteCalendarMemberRequest{
		Email: "taras@example.com",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCalendarInviteMember_Duplicate(t *testing.T) {
	fx := newCalendarServiceFixture(t)
	cal := fx.createCalendar(t)

	req := &models.InviteCalendarMemberRequest{Email: "taras@example.com"}
	require.NoError(t, fx.svc.InviteMember(context.Background(), fx.ownerID.Hex(), cal.ID.Hex(), req))

	err := fx.svc.InviteMember(context.Background(), fx.ownerID.Hex(), cal.ID.Hex(), req)
	assert.ErrorIs(t, err, ErrAlreadyInvited)
}

func TestCalendarAcceptInvite(t *testing.T) {
	fx := newCalendarServiceFixture(t)
	cal := fx.createCalendar(t)

	require.NoError(t, fx.svc.InviteMember(context.Background(), fx.ownerID.Hex(), cal.ID.Hex(), &models.InviteCalendarMemberRequest{
		Email: "taras@example.com",
	}))

	inviteeID := primitive.NewObjectID()
	require.NoError(t, fx.svc.AcceptInvite(context.Background(), cal.ID.Hex(), inviteeID.Hex(), "taras@example.com"))

	member, err := fx.svc.IsMember(context.Background(), cal.ID.Hex(), inviteeID.Hex())
	require.NoError(t, err)
	assert.True(t, member)
}

func TestCalendarIsMember(t *testing.T) {
	fx := newCalendarServiceFixture(t)
	cal := fx.createCalendar(t)

	owner, err := fx.svc.IsMember(context.Background(), cal.ID.Hex(), fx.ownerID.Hex())
	require.NoError(t, err)
	assert.True(t, owner)

	stranger, err := fx.svc.IsMember(context.Background(), cal.ID.Hex(), primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.False(t, stranger)
}
