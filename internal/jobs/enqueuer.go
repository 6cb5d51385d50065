package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

// RiverEnqueuer inserts send jobs through the River client. It is the
// production implementation of the service layer's enqueuer seam.
type RiverEnqueuer struct {
	client *river.Client[pgx.Tx]
}

// NewRiverEnqueuer creates a RiverEnqueuer.
func NewRiverEnqueuer(client *river.Client[pgx.Tx]) *RiverEnqueuer {
	return &RiverEnqueuer{client: client}
}

// EnqueueNotificationSend inserts a durable send job for the notification.
func (e *RiverEnqueuer) EnqueueNotificationSend(ctx context.Context, notificationID string) error {
	if e == nil || e.client == nil {
		return fmt.Errorf("river enqueuer is not initialized")
	}
	_, err := e.client.Insert(ctx, NotificationSendArgs{NotificationID: notificationID}, nil)
	if err != nil {
		return fmt.Errorf("insert notification send job %s: %w", notificationID, err)
	}
	return nil
}
