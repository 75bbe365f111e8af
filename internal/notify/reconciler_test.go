package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chronos-ua/chronos-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeEventStore struct {
	events []models.Event
	err    error
	calls  int
}

func (f *fakeEventStore) FindUpcomingWithReminders(ctx context.Context) ([]models.Event, error) {
	f.calls++
	return f.events, f.err
}

func TestRunOnce_SchedulesWithinWindow(t *testing.T) {
	q, _, _, _ := newTestQueue(time.Hour)
	defer q.Shutdown()

	creator := primitive.NewObjectID()
	accepted := primitive.NewObjectID()
	store := &fakeEventStore{
		events: []models.Event{
			{
				ID:        primitive.NewObjectID(),
				CreatorID: creator,
				Title:     "Soon",
				Start:     time.Now().Add(40 * time.Minute),
				Reminders: []models.Reminder{{Method: models.MethodPush, MinutesBefore: 10}},
				Members: []models.EventMember{
					{User: &accepted, Status: models.InviteAccepted},
				},
			},
			{
				// Notify time beyond the window: left for a later pass.
				ID:        primitive.NewObjectID(),
				CreatorID: creator,
				Title:     "Later",
				Start:     time.Now().Add(3 * time.Hour),
				Reminders: []models.Reminder{{Method: models.MethodPush, MinutesBefore: 10}},
			},
			{
				// Notify time already passed.
				ID:        primitive.NewObjectID(),
				CreatorID: creator,
				Title:     "Missed",
				Start:     time.Now().Add(5 * time.Minute),
				Reminders: []models.Reminder{{Method: models.MethodPush, MinutesBefore: 30}},
			},
		},
	}

	r := NewReconciler(q, store, time.Minute, time.Hour)
	r.RunOnce(context.Background())

	// Creator and the accepted member of the first event only.
	assert.Equal(t, 2, q.Len())
}

func TestRunOnce_Converges(t *testing.T) {
	q, _, _, _ := newTestQueue(time.Hour)
	defer q.Shutdown()

	store := &fakeEventStore{
		events: []models.Event{{
			ID:        primitive.NewObjectID(),
			CreatorID: primitive.NewObjectID(),
			Title:     "Standup",
			Start:     time.Now().Add(30 * time.Minute),
			Reminders: []models.Reminder{{Method: models.MethodPush, MinutesBefore: 10}},
		}},
	}

	r := NewReconciler(q, store, time.Minute, time.Hour)
	r.RunOnce(context.Background())
	require.Equal(t, 1, q.Len())

	// A second pass over unchanged data adds nothing.
	r.RunOnce(context.Background())
	assert.Equal(t, 1, q.Len())
}

func TestRunOnce_StoreFailureTolerated(t *testing.T) {
	q, _, _, _ := newTestQueue(time.Hour)
	defer q.Shutdown()

	store := &fakeEventStore{err: errors.New("connection reset")}
	r := NewReconciler(q, store, time.Minute, time.Hour)
	r.RunOnce(context.Background())

	assert.Equal(t, 0, q.Len())
}

func TestRun_StopsOnCancel(t *testing.T) {
	q, _, _, _ := newTestQueue(time.Hour)
	defer q.Shutdown()

	store := &fakeEventStore{}
	r := NewReconciler(q, store, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
	assert.GreaterOrEqual(t, store.calls, 2)
}
