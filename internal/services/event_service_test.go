package services

import (
	"context"
	"testing"
	"time"

	"github.com/chronos-ua/chronos-backend/internal/event"
	"github.com/chronos-ua/chronos-backend/internal/models"
	"github.com/chronos-ua/chronos-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeEventRepo struct {
	events map[string]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*models.Event)}
}

func (f *fakeEventRepo) Create(ctx context.Context, evt *models.Event) error {
	if evt.ID.IsZero() {
		evt.ID = primitive.NewObjectID()
	}
	f.events[evt.ID.Hex()] = evt
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if evt, ok := f.events[id]; ok {
		copied := *evt
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEventRepo) Update(ctx context.Context, evt *models.Event) error {
	if _, ok := f.events[evt.ID.Hex()]; !ok {
		return repository.ErrNotFound
	}
	f.events[evt.ID.Hex()] = evt
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventRepo) GetByCalendar(ctx context.Context, calendarID string) ([]models.Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) FindUpcomingWithReminders(ctx context.Context) ([]models.Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) AddMember(ctx context.Context, eventID string, member models.EventMember) error {
	evt, ok := f.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	evt.Members = append(evt.Members, member)
	return nil
}

func (f *fakeEventRepo) AcceptInvite(ctx context.Context, eventID string, userID primitive.ObjectID, email string) error {
	evt, ok := f.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, m := range evt.Members {
		if m.Status == models.InvitePending && (m.Email == email || (m.User != nil && *m.User == userID)) {
			evt.Members[i].Status = models.InviteAccepted
			evt.Members[i].User = &userID
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeCalendarRepo struct {
	calendars map[string]*models.Calendar
}

func newFakeCalendarRepo() *fakeCalendarRepo {
	return &fakeCalendarRepo{calendars: make(map[string]*models.Calendar)}
}

func (f *fakeCalendarRepo) Create(ctx context.Context, cal *models.Calendar) error {
	if cal.ID.IsZero() {
		cal.ID = primitive.NewObjectID()
	}
	f.calendars[cal.ID.Hex()] = cal
	return nil
}

func (f *fakeCalendarRepo) GetByID(ctx context.Context, id string) (*models.Calendar, error) {
	if cal, ok := f.calendars[id]; ok {
		copied := *cal
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCalendarRepo) AddMember(ctx context.Context, calendarID string, member models.CalendarMember) error {
	cal, ok := f.calendars[calendarID]
	if !ok {
		return repository.ErrNotFound
	}
	cal.Members = append(cal.Members, member)
	return nil
}

func (f *fakeCalendarRepo) AcceptInvite(ctx context.Context, calendarID string, userID primitive.ObjectID, email string) error {
	cal, ok := f.calendars[calendarID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, m := range cal.Members {
		if m.Status == models.InvitePending && (m.Email == email || (m.UserID != nil && *m.UserID == userID)) {
			cal.Members[i].Status = models.InviteAccepted
			cal.Members[i].UserID = &userID
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeUserRepo struct {
	byEmail map[string]*models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) AddPushSubscription(ctx context.Context, userID string, sub models.PushSubscription) error {
	return nil
}

func (f *fakeUserRepo) RemovePushSubscription(ctx context.Context, userID, endpoint string) error {
	return nil
}

func (f *fakeUserRepo) RemovePushSubscriptions(ctx context.Context, userID string, endpoints []string) error {
	return nil
}

type fakeScheduler struct {
	scheduled []string
	cancelled []string
}

func (f *fakeScheduler) ScheduleEventReminders(evt *models.Event) error {
	f.scheduled = append(f.scheduled, evt.ID.Hex())
	return nil
}

func (f *fakeScheduler) CancelEventReminders(eventID string) int {
	f.cancelled = append(f.cancelled, eventID)
	return 1
}

type fakeMailer struct {
	eventInvites    []string
	calendarInvites []string
}

func (f *fakeMailer) SendEventInvite(to, eventTitle, inviteeName string) error {
	f.eventInvites = append(f.eventInvites, to)
	return nil
}

func (f *fakeMailer) SendCalendarInvite(to, calendarTitle, inviteeName string) error {
	f.calendarInvites = append(f.calendarInvites, to)
	return nil
}

type fakePublisher struct {
	published []event.InviteEvent
}

func (f *fakePublisher) PublishInvite(ctx context.Context, evt event.InviteEvent) error {
	f.published = append(f.published, evt)
	return nil
}

type eventServiceFixture struct {
	svc       *EventService
	events    *fakeEventRepo
	calendars *fakeCalendarRepo
	users     *fakeUserRepo
	scheduler *fakeScheduler
	mailer    *fakeMailer
	publisher *fakePublisher
	creatorID primitive.ObjectID
	calendar  *models.Calendar
}

func newEventServiceFixture(t *testing.T) *eventServiceFixture {
	t.Helper()

	events := newFakeEventRepo()
	calendars := newFakeCalendarRepo()
	users := &fakeUserRepo{byEmail: make(map[string]*models.User)}
	scheduler := &fakeScheduler{}
	mailer := &fakeMailer{}
	publisher := &fakePublisher{}

	creatorID := primitive.NewObjectID()
	calendar := &models.Calendar{Title: "Work", OwnerID: creatorID}
	require.NoError(t, calendars.Create(context.Background(), calendar))

	return &eventServiceFixture{
		svc:       NewEventService(events, calendars, users, scheduler, mailer, publisher),
		events:    events,
		calendars: calendars,
		users:     users,
		scheduler: scheduler,
		mailer:    mailer,
		publisher: publisher,
		creatorID: creatorID,
		calendar:  calendar,
	}
}

func (fx *eventServiceFixture) createEvent(t *testing.T, reminders []models.Reminder) *models.Event {
	t.Helper()
	evt, err := fx.svc.Create(context.Background(), fx.creatorID.Hex(), &models.CreateEventRequest{
		CalendarID: fx.calendar.ID.Hex(),
		Title:      "Standup",
		Start:      time.Now().Add(2 * time.Hour),
		End:        time.Now().Add(3 * time.Hour),
		Reminders:  reminders,
	})
	require.NoError(t, err)
	return evt
}

func TestCreate_SchedulesReminders(t *testing.T) {
	fx := newEventServiceFixture(t)

	evt := fx.createEvent(t, []models.Reminder{{Method: models.MethodPush, MinutesBefore: 10}})

	assert.Equal(t, []string{evt.ID.Hex()}, fx.scheduler.scheduled)
}

func TestCreate_NoRemindersNoScheduling(t *testing.T) {
	fx := newEventServiceFixture(t)

	fx.createEvent(t, nil)

	assert.Empty(t, fx.scheduler.scheduled)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	fx := newEventServiceFixture(t)

	_, err := fx.svc.Create(context.Background(), fx.creatorID.Hex(), &models.CreateEventRequest{
		CalendarID: fx.calendar.ID.Hex(),
		Title:      "Backwards",
		Start:      time.Now().Add(3 * time.Hour),
		End:        time.Now().Add(2 * time.Hour),
	})
	assert.Error(t, err)

	_, err = fx.svc.Create(context.Background(), fx.creatorID.Hex(), &models.CreateEventRequest{
		CalendarID: fx.calendar.ID.Hex(),
		Title:      "Bad method",
		Start:      time.Now().Add(2 * time.Hour),
		End:        time.Now().Add(3 * time.Hour),
		Reminders:  []models.Reminder{{Method: "pager", MinutesBefore: 10}},
	})
	assert.Error(t, err)
	assert.Empty(t, fx.scheduler.scheduled)
}

func TestUpdate_TimingChangeReschedules(t *testing.T) {
	fx := newEventServiceFixture(t)
	evt := fx.createEvent(t, []models.Reminder{{Method: models.MethodPush, MinutesBefore: 10}})

	newStart := time.Now().Add(4 * time.Hour)
	newEnd := newStart.Add(time.Hour)
	_, err := fx.svc.Update(context.Background(), fx.creatorID.Hex(), evt.ID.Hex(), &models.UpdateEventRequest{
		Start: &newStart,
		End:   &newEnd,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{evt.ID.Hex()}, fx.scheduler.cancelled)
	// Create plus the reschedule.
	assert.Equal(t, []string{evt.ID.Hex(), evt.ID.Hex()}, fx.scheduler.scheduled)
}

func TestUpdate_TitleOnlyKeepsJobs(t *testing.T) {
	fx := newEventServiceFixture(t)
	evt := fx.createEvent(t, []models.Reminder{{Method: models.MethodPush, MinutesBefore: 10}})

	title := "Renamed"
	updated, err := fx.svc.Update(context.Background(), fx.creatorID.Hex(), evt.ID.Hex(), &models.UpdateEventRequest{
		Title: &title,
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Empty(t, fx.scheduler.cancelled)
}

func TestUpdate_ClearingRemindersCancels(t *testing.T) {
	fx := newEventServiceFixture(t)
	evt := fx.createEvent(t, []models.Reminder{{Method: models.MethodPush, MinutesBefore: 10}})

	empty := []models.Reminder{}
	_, err := fx.svc.Update(context.Background(), fx.creatorID.Hex(), evt.ID.Hex(), &models.UpdateEventRequest{
		Reminders: &empty,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{evt.ID.Hex()}, fx.scheduler.cancelled)
	// Nothing rescheduled for an empty reminder list.
	assert.Equal(t, []string{evt.ID.Hex()}, fx.scheduler.scheduled)
}

func TestUpdate_ForbiddenForStrangers(t *testing.T) {
	fx := newEventServiceFixture(t)
	evt := fx.createEvent(t, nil)

	title := "Hijacked"
	_, err := fx.svc.Update(context.Background(), primitive.NewObjectID().Hex(), evt.ID.Hex(), &models.UpdateEventRequest{
		Title: &title,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDelete_CancelsReminders(t *testing.T) {
	fx := newEventServiceFixture(t)
	evt := fx.createEvent(t, []models.Reminder{{Method: models.MethodPush, MinutesBefore: 10}})

	require.NoError(t, fx.svc.Delete(context.Background(), fx.creatorID.Hex(), evt.ID.Hex()))

	assert.Equal(t, []string{evt.ID.Hex()}, fx.scheduler.cancelled)
	_, err := fx.svc.Get(context.Background(), evt.ID.Hex())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInviteMember_AddsPendingAndPublishes(t *testing.T) {
	fx := newEventServiceFixture(t)
	evt := fx.createEvent(t, nil)

	invitee := &models.User{ID: primitive.NewObjectID(), Name: "Olena", Email: "olena@example.com"}
	fx.users.byEmail[invitee.Email] = invitee

	err := fx.svc.InviteMember(context.Background(), fx.creatorID.Hex(), evt.ID.Hex(), &models.InviteMemberRequest{
		Email: invitee.Email,
	})
	require.NoError(t, err)

	stored, err := fx.events.GetByID(context.Background(), evt.ID.Hex())
	require.NoError(t, err)
	require.Len(t, stored.Members, 1)
	assert.Equal(t, models.InvitePending, stored.Members[0].Status)
	assert.Equal(t, invitee.ID, *stored.Members[0].User)

	assert.Equal(t, []string{invitee.Email}, fx.mailer.eventInvites)
	require.Len(t, fx.publisher.published, 1)
	assert.Equal(t, event.InviteKindEvent, fx.publisher.published[0].Kind)
	assert.Equal(t, invitee.Email, fx.publisher.published[0].InviteeEmail)
}

func TestInviteMember_UnregisteredEmail(t *testing.T) {
	fx := newEventServiceFixture(t)
	evt := fx.createEvent(t, nil)

	err := fx.svc.InviteMember(context.Background(), fx.creatorID.Hex(), evt.ID.Hex(), &models.InviteMemberRequest{
		Email: "stranger@example.com",
	})
	require.NoError(t, err)

	stored, err := fx.events.GetByID(context.Background(), evt.ID.Hex())
	require.NoError(t, err)
	require.Len(t, stored.Members, 1)
	assert.Nil(t, stored.Members[0].User)
	assert.Equal(t, "stranger@example.com", stored.Members[0].Email)
}

func TestInviteMember_Duplicate(t *testing.T) {
	fx := newEventServiceFixture(t)
	evt := fx.createEvent(t, nil)

	req := &models.InviteMemberRequest{Email: "olena@example.com"}
	require.NoError(t, fx.svc.InviteMember(context.Background(), fx.creatorID.Hex(), evt.ID.Hex(), req))

	err := fx.svc.InviteMember(context.Background(), fx.creatorID.Hex(), evt.ID.Hex(), req)
	assert.ErrorIs(t, err, ErrAlreadyInvited)
}

func TestInviteMember_OnlyCreator(t *testing.T) {
	fx := newEventServiceFixture(t)
	evt := fx.createEvent(t, nil)

	err := fx.svc.InviteMember(context.Background(), primitive.NewObjectID().Hex(), evt.ID.Hex(), &models.InviteMemberRequest{
		Email: "olena@example.com",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAcceptInvite_FlipsStatus(t *testing.T) {
	fx := newEventServiceFixture(t)
	evt := fx.createEvent(t, nil)

	require.NoError(t, fx.svc.InviteMember(context.Background(), fx.creatorID.Hex(), evt.ID.Hex(), &models.InviteMemberRequest{
		Email: "olena@example.com",
	}))

	inviteeID := primitive.NewObjectID()
	require.NoError(t, fx.svc.AcceptInvite(context.Background(), evt.ID.Hex(), inviteeID.Hex(), "olena@example.com"))

	stored, err := fx.events.GetByID(context.Background(), evt.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.InviteAccepted, stored.Members[0].Status)
	assert.Equal(t, inviteeID, *stored.Members[0].User)
}
