package testutil

import (
	"context"
	"sync"
)

// FakeEnqueuer records notification IDs instead of inserting queue jobs. It
// satisfies the service layer's enqueuer seam.
type FakeEnqueuer struct {
	mu  sync.Mutex
	ids []string

	// Err, when set, is returned from every enqueue call.
	Err error
}

// EnqueueNotificationSend records the notification ID.
func (f *FakeEnqueuer) EnqueueNotificationSend(ctx context.Context, notificationID string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	f.ids = append(f.ids, notificationID)
	f.mu.Unlock()
	return nil
}

// Enqueued returns a copy of the recorded notification IDs.
func (f *FakeEnqueuer) Enqueued() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ids))
	copy(out, f.ids)
	return out
}
