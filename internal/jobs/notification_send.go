// Package jobs defines the River job types behind the notification queue.
//
// Send jobs follow the claim-check pattern: the job row carries only the
// notification id and workers reload the record before acting, so a retry
// after a crash always sees the current state.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"armonia.dev/intercom/internal/channel"
	"armonia.dev/intercom/internal/infrastructure"
	"armonia.dev/intercom/internal/models"
	"armonia.dev/intercom/internal/pkg/logger"
	"armonia.dev/intercom/internal/service"
)

// NotificationSendArgs carries only the notification id.
type NotificationSendArgs struct {
	NotificationID string `json:"notification_id"`
}

// Kind returns the job kind identifier for notification sends.
func (NotificationSendArgs) Kind() string { return "notification_send" }

// InsertOpts pins sends to the single-worker notifications queue so messages
// leave in enqueue order, one at a time.
func (NotificationSendArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       infrastructure.NotificationQueue,
		MaxAttempts: 3,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByQueue: true,
		},
	}
}

// NotificationSendWorker renders and delivers one queued notification.
//
// The send outcome is always persisted: SENT with the provider message id, or
// FAILED with the error text. Provider-level failures do not error the job —
// retrying a failed send would risk duplicate messages to the resident; the
// FAILED row is the observable outcome.
type NotificationSendWorker struct {
	river.WorkerDefaults[NotificationSendArgs]
	db              *gorm.DB
	registry        *channel.Registry
	providerTimeout time.Duration
}

// NewNotificationSendWorker creates a send worker.
func NewNotificationSendWorker(db *gorm.DB, registry *channel.Registry, providerTimeout time.Duration) *NotificationSendWorker {
	if providerTimeout <= 0 {
		providerTimeout = 15 * time.Second
	}
	return &NotificationSendWorker{db: db, registry: registry, providerTimeout: providerTimeout}
}

// Work delivers the notification.
func (w *NotificationSendWorker) Work(ctx context.Context, job *river.Job[NotificationSendArgs]) error {
	if w == nil || w.db == nil {
		return fmt.Errorf("notification send worker is not initialized")
	}
	notificationID := job.Args.NotificationID

	logger.Info("Processing notification send job",
		zap.String("notification_id", notificationID),
		zap.Int("attempt", job.Attempt),
	)

	var notification models.Notification
	err := w.db.WithContext(ctx).First(&notification, "id = ?", notificationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Send job for unknown notification, dropping",
				zap.String("notification_id", notificationID))
			return nil
		}
		return fmt.Errorf("fetch notification %s: %w", notificationID, err)
	}

	// Idempotency: a redelivered job for an already-handled row is a no-op.
	if notification.Status != models.NotificationStatusPending {
		logger.Info("Notification already handled, skipping duplicate send",
			zap.String("notification_id", notificationID),
			zap.String("status", string(notification.Status)),
		)
		return nil
	}

	text, opts, err := w.buildMessage(ctx, &notification)
	if err != nil {
		return w.markFailed(ctx, &notification, err.Error())
	}

	adapter, err := w.registry.Get(notification.Channel)
	if err != nil {
		return w.markFailed(ctx, &notification, err.Error())
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.providerTimeout)
	defer cancel()
	result := adapter.SendMessage(sendCtx, notification.Destination, text, opts)

	if !result.Success {
		return w.markFailed(ctx, &notification, result.Error)
	}

	now := time.Now().UTC()
	err = w.db.WithContext(ctx).Model(&notification).Updates(map[string]interface{}{
		"status":     models.NotificationStatusSent,
		"message_id": result.MessageID,
		"sent_at":    &now,
	}).Error
	if err != nil {
		return fmt.Errorf("mark notification %s sent: %w", notificationID, err)
	}

	logger.Info("Notification sent",
		zap.String("notification_id", notificationID),
		zap.String("channel", string(notification.Channel)),
		zap.String("provider_message_id", result.MessageID),
	)
	return nil
}

// buildMessage renders the notification text and, for button-capable
// channels, the approve/reject quick replies.
func (w *NotificationSendWorker) buildMessage(ctx context.Context, notification *models.Notification) (string, *channel.SendOptions, error) {
	var visit models.Visit
	err := w.db.WithContext(ctx).
		Preload("Visitor").
		Preload("Visitor.Type").
		First(&visit, "id = ?", notification.VisitID).Error
	if err != nil {
		return "", nil, fmt.Errorf("fetch visit %s: %w", notification.VisitID, err)
	}

	var unit models.Unit
	if err := w.db.WithContext(ctx).First(&unit, visit.UnitID).Error; err != nil {
		return "", nil, fmt.Errorf("fetch unit %d: %w", visit.UnitID, err)
	}

	var settings models.ChannelSettings
	if err := w.db.WithContext(ctx).First(&settings).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("fetch settings: %w", err)
	}

	template := service.LookupTemplate(&settings, notification.Channel, service.TemplateVisitorNotification)
	text := service.RenderTemplate(template, service.TemplateVars(&visit, &unit))

	opts := &channel.SendOptions{}
	if visit.Visitor.PhotoURL != "" {
		opts.MediaURL = visit.Visitor.PhotoURL
	}
	if adapter, err := w.registry.Get(notification.Channel); err == nil && adapter.SupportsButtons() {
		opts.Buttons = []channel.Button{
			{Text: "✅ Aprobar", Payload: "approve_" + notification.ID},
			{Text: "❌ Rechazar", Payload: "reject_" + notification.ID},
		}
	}
	return text, opts, nil
}

// markFailed records the failure on the row. Returns nil so River does not
// redeliver; the FAILED status is the terminal outcome.
func (w *NotificationSendWorker) markFailed(ctx context.Context, notification *models.Notification, errMsg string) error {
	logger.Error("Notification send failed",
		zap.String("notification_id", notification.ID),
		zap.String("channel", string(notification.Channel)),
		zap.String("error", errMsg),
	)

	err := w.db.WithContext(ctx).Model(notification).Updates(map[string]interface{}{
		"status":        models.NotificationStatusFailed,
		"error_message": errMsg,
	}).Error
	if err != nil {
		return fmt.Errorf("mark notification %s failed: %w", notification.ID, err)
	}
	return nil
}
