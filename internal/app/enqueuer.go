package app

import (
	"context"
	"errors"
	"sync"

	"armonia.dev/intercom/internal/service"
)

// deferredEnqueuer lets services be constructed before the River client
// exists. bind is called exactly once during bootstrap; enqueue calls before
// that fail instead of panicking.
type deferredEnqueuer struct {
	mu    sync.RWMutex
	inner service.Enqueuer
}

func (d *deferredEnqueuer) bind(e service.Enqueuer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inner = e
}

func (d *deferredEnqueuer) EnqueueNotificationSend(ctx context.Context, notificationID string) error {
	d.mu.RLock()
	inner := d.inner
	d.mu.RUnlock()

	if inner == nil {
		return errors.New("job queue not initialized yet")
	}
	return inner.EnqueueNotificationSend(ctx, notificationID)
}
