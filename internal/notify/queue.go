package notify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/chronos-ua/chronos-backend/internal/models"
)

const sendTimeout = 30 * time.Second

type queueItem struct {
	EventID       string
	UserID        string
	EventTitle    string
	EventStart    time.Time
	Method        models.ReminderMethod
	MinutesBefore int
	NotifyAt      time.Time

	// timer is nil while the job sits beyond the scheduling window; the
	// reconciler arms it on a later pass.
	timer *time.Timer
}

// sender is what the queue needs from the dispatcher.
type sender interface {
	Send(ctx context.Context, userID string, payload Payload, skip SkipFlags) bool
}

// Queue owns every pending reminder job. Jobs are keyed by
// (event, user, minutesBefore, method); at most one live job exists per key.
// All mutations happen under one mutex so check-and-insert is atomic, and
// only the queue itself touches job timers.
type Queue struct {
	mu   sync.Mutex
	jobs map[string]*queueItem

	dispatcher sender
	users      UserStore
	email      EmailSender
	window     time.Duration

	now func() time.Time
}

func NewQueue(dispatcher sender, users UserStore, email EmailSender, window time.Duration) *Queue {
	if window <= 0 {
		window = time.Hour
	}
	return &Queue{
		jobs:       make(map[string]*queueItem),
		dispatcher: dispatcher,
		users:      users,
		email:      email,
		window:     window,
		now:        time.Now,
	}
}

func jobKey(eventID, userID string, minutesBefore int, method models.ReminderMethod) string {
	return fmt.Sprintf("%s-%s-%d-%s", eventID, userID, minutesBefore, method)
}

// ScheduleReminder registers one reminder job. Reminders whose notify time
// already passed are dropped silently. A job that already exists under the
// same key is left untouched, except that a job recorded beyond the
// scheduling window gets its timer armed once the window has caught up.
func (q *Queue) ScheduleReminder(eventID, userID, eventTitle string, eventStart time.Time, method models.ReminderMethod, minutesBefore int) error {
	if !method.Valid() {
		return fmt.Errorf("unsupported reminder method %q", method)
	}

	notifyAt := eventStart.Add(-time.Duration(minutesBefore) * time.Minute)
	now := q.now()
	if !notifyAt.After(now) {
		return nil
	}
	delay := notifyAt.Sub(now)

	q.mu.Lock()
	defer q.mu.Unlock()

	key := jobKey(eventID, userID, minutesBefore, method)
	if item, ok := q.jobs[key]; ok {
		if item.timer == nil && delay <= q.window {
			item.timer = time.AfterFunc(delay, func() { q.fire(key, item) })
		}
		return nil
	}

	item := &queueItem{
		EventID:       eventID,
		UserID:        userID,
		EventTitle:    eventTitle,
		EventStart:    eventStart,
		Method:        method,
		MinutesBefore: minutesBefore,
		NotifyAt:      notifyAt,
	}
	if delay <= q.window {
		item.timer = time.AfterFunc(delay, func() { q.fire(key, item) })
	}
	q.jobs[key] = item

	slog.Debug("scheduled reminder", "event", eventID, "user", userID, "notifyAt", notifyAt)
	return nil
}

// ScheduleEventReminders schedules every (reminder, recipient) pair of the
// event: the creator plus all accepted members.
func (q *Queue) ScheduleEventReminders(event *models.Event) error {
	if len(event.Reminders) == 0 {
		return nil
	}

	eventID := event.ID.Hex()
	for _, reminder := range event.Reminders {
		for _, userID := range event.ReminderRecipients() {
			if err := q.ScheduleReminder(eventID, userID, event.Title, event.Start, reminder.Method, reminder.MinutesBefore); err != nil {
				return err
			}
		}
	}
	return nil
}

// CancelEventReminders removes every pending job for the event, regardless
// of user and method, and returns how many were cancelled. A job whose send
// is already in flight is not aborted.
func (q *Queue) CancelEventReminders(eventID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancelled := 0
	for key, item := range q.jobs {
		if item.EventID != eventID {
			continue
		}
		if item.timer != nil {
			item.timer.Stop()
		}
		delete(q.jobs, key)
		cancelled++
	}

	if cancelled > 0 {
		slog.Info("cancelled reminders", "event", eventID, "count", cancelled)
	}
	return cancelled
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Shutdown stops every armed timer and clears the queue.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for key, item := range q.jobs {
		if item.timer != nil {
			item.timer.Stop()
		}
		delete(q.jobs, key)
	}
	slog.Info("reminder queue shut down")
}

// fire runs on the job's timer goroutine. The job is removed from the queue
// before the send starts, so a cancellation racing in afterwards is a no-op
// and the send itself is never retried.
func (q *Queue) fire(key string, item *queueItem) {
	q.mu.Lock()
	current, ok := q.jobs[key]
	if !ok || current != item {
		// Cancelled between the timer elapsing and us taking the lock.
		q.mu.Unlock()
		return
	}
	delete(q.jobs, key)
	q.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	q.sendReminder(ctx, item)
}

func (q *Queue) sendReminder(ctx context.Context, item *queueItem) {
	minutes := int(math.Round(item.EventStart.Sub(q.now()).Minutes()))
	var timeText string
	if minutes < 60 {
		timeText = fmt.Sprintf("in %d minutes", minutes)
	} else {
		timeText = fmt.Sprintf("in %d hours", int(math.Round(float64(minutes)/60)))
	}

	payload := Payload{
		Title:   "Reminder: " + item.EventTitle,
		Message: "Event starts " + timeText,
		URL:     "/events/" + item.EventID,
	}

	switch item.Method {
	case models.MethodEmail:
		// E-mail reminders bypass the cascade and respect the user's
		// e-mail notification preference.
		user, err := q.users.GetByID(ctx, item.UserID)
		if err != nil {
			slog.Error("reminder e-mail skipped, user lookup failed", "event", item.EventID, "user", item.UserID, "error", err)
			return
		}
		if user.Email == "" || !user.Preferences.EmailNotifications {
			return
		}
		if err := q.email.SendGenericNotification(user.Email, payload.Title, payload.Message, payload.URL); err != nil {
			slog.Error("failed to send reminder e-mail", "event", item.EventID, "user", item.UserID, "error", err)
			return
		}
	case models.MethodPush, models.MethodTelegram:
		q.dispatcher.Send(ctx, item.UserID, payload, SkipFlags{})
	}

	slog.Debug("reminder sent", "event", item.EventID, "user", item.UserID, "method", item.Method)
}
