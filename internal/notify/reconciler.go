package notify

import (
	"context"
	"log/slog"
	"time"
)

// Reconciler periodically re-reads upcoming events from the store and feeds
// them back into the queue, so the queue survives restarts and catches
// members who accepted an invite after the event was written. Double
// scheduling is prevented by the queue's own key dedup, not here.
type Reconciler struct {
	queue    *Queue
	events   EventStore
	interval time.Duration
	window   time.Duration

	now func() time.Time
}

func NewReconciler(queue *Queue, events EventStore, interval, window time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Reconciler{
		queue:    queue,
		events:   events,
		interval: interval,
		window:   window,
		now:      time.Now,
	}
}

// Run performs one pass immediately, then one per tick until ctx is
// cancelled. Blocks; run it on its own goroutine.
func (r *Reconciler) Run(ctx context.Context) {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("reminder reconciler stopped")
			return
		}
	}
}

// RunOnce reconciles the queue against the store. A failed pass is logged
// and retried on the next tick.
func (r *Reconciler) RunOnce(ctx context.Context) {
	events, err := r.events.FindUpcomingWithReminders(ctx)
	if err != nil {
		slog.Error("failed to load upcoming reminders", "error", err)
		return
	}

	now := r.now()
	windowEnd := now.Add(r.window)
	scheduled := 0

	for i := range events {
		event := &events[i]
		for _, reminder := range event.Reminders {
			notifyAt := event.Start.Add(-time.Duration(reminder.MinutesBefore) * time.Minute)
			if !notifyAt.After(now) || notifyAt.After(windowEnd) {
				continue
			}
			for _, userID := range event.ReminderRecipients() {
				if err := r.queue.ScheduleReminder(event.ID.Hex(), userID, event.Title, event.Start, reminder.Method, reminder.MinutesBefore); err != nil {
					slog.Warn("skipping reminder", "event", event.ID.Hex(), "error", err)
					continue
				}
				scheduled++
			}
		}
	}

	slog.Debug("reconciled reminder queue", "considered", scheduled, "pending", r.queue.Len())
}
