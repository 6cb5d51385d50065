package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"

	"armonia.dev/intercom/internal/service"
)

// NotificationExpireArgs is the periodic sweep that marks notifications left
// unanswered past the response timeout as EXPIRED.
type NotificationExpireArgs struct{}

// Kind returns the job kind identifier for the expiry sweep.
func (NotificationExpireArgs) Kind() string { return "notification_expire" }

// InsertOpts deduplicates overlapping sweeps.
func (NotificationExpireArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByQueue: true,
		},
	}
}

// NotificationExpireWorker runs the sweep.
type NotificationExpireWorker struct {
	river.WorkerDefaults[NotificationExpireArgs]
	notifications *service.NotificationService
}

// NewNotificationExpireWorker creates an expiry sweep worker.
func NewNotificationExpireWorker(notifications *service.NotificationService) *NotificationExpireWorker {
	return &NotificationExpireWorker{notifications: notifications}
}

// Work expires overdue notifications.
func (w *NotificationExpireWorker) Work(ctx context.Context, _ *river.Job[NotificationExpireArgs]) error {
	if w == nil || w.notifications == nil {
		return fmt.Errorf("notification expire worker is not initialized")
	}
	if _, err := w.notifications.ExpireOverdue(ctx); err != nil {
		return fmt.Errorf("expire sweep: %w", err)
	}
	return nil
}
