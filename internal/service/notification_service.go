package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"armonia.dev/intercom/internal/audit"
	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
	"armonia.dev/intercom/internal/pkg/logger"
)

// Enqueuer inserts a durable send job for a notification. The job carries
// only the notification id; workers reload the row before sending.
type Enqueuer interface {
	EnqueueNotificationSend(ctx context.Context, notificationID string) error
}

// NotificationService runs the per-resident fan-out when a visit is
// registered and owns notification row lifecycle outside the send worker.
type NotificationService struct {
	db       *gorm.DB
	enqueuer Enqueuer
	visits   *VisitService
	audit    *audit.Logger

	defaultResponseTimeout time.Duration

	// nowFunc is the quiet-hours clock, replaceable in tests.
	nowFunc func() time.Time
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(db *gorm.DB, enqueuer Enqueuer, visits *VisitService, auditLog *audit.Logger, defaultResponseTimeout time.Duration) *NotificationService {
	return &NotificationService{
		db:                     db,
		enqueuer:               enqueuer,
		visits:                 visits,
		audit:                  auditLog,
		defaultResponseTimeout: defaultResponseTimeout,
		nowFunc:                time.Now,
	}
}

// NotifyVisit runs the fan-out for a freshly registered visit: for each
// resident on the unit, in unit order, their preference decides whether to
// auto-approve, skip, or enqueue one notification per enabled channel. If at
// least one notification was enqueued the visit moves to NOTIFIED.
func (s *NotificationService) NotifyVisit(ctx context.Context, visitID string) error {
	visit, err := s.visits.GetVisit(ctx, visitID)
	if err != nil {
		return err
	}
	if visit.Status != models.VisitStatusPending {
		logger.Debug("Fan-out skipped, visit no longer pending",
			zap.String("visit_id", visitID),
			zap.String("status", string(visit.Status)),
		)
		return nil
	}

	var unit models.Unit
	if err := s.db.WithContext(ctx).First(&unit, visit.UnitID).Error; err != nil {
		return fmt.Errorf("load unit %d: %w", visit.UnitID, err)
	}

	enqueued := 0
	for _, residentID := range unit.Residents {
		n, err := s.notifyResident(ctx, visit, &unit, residentID)
		if err != nil {
			// One resident failing never aborts the fan-out for the rest.
			logger.Error("Fan-out failed for resident",
				zap.String("visit_id", visitID),
				zap.Int("resident_id", residentID),
				zap.Error(err),
			)
			continue
		}
		enqueued += n
	}

	if enqueued > 0 {
		if err := s.visits.MarkNotified(ctx, visitID); err != nil {
			return err
		}
	}

	logger.Info("Fan-out complete",
		zap.String("visit_id", visitID),
		zap.Int("notifications_enqueued", enqueued),
	)
	return nil
}

// notifyResident applies one resident's preference and returns how many
// notifications were enqueued for them.
func (s *NotificationService) notifyResident(ctx context.Context, visit *models.Visit, unit *models.Unit, residentID int) (int, error) {
	var pref models.ResidentPreference
	err := s.db.WithContext(ctx).Where("resident_id = ?", residentID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No preference row means the resident opted out.
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load preference: %w", err)
	}

	visitorType := visit.Visitor.TypeID

	if !pref.NotifyAllVisitors && pref.AllowedVisitorTypes.Contains(visitorType) {
		return 0, nil
	}

	// Quiet hours suppress everything for this resident, auto-approval
	// included.
	if inQuietHours(s.nowFunc(), pref.QuietHoursStart, pref.QuietHoursEnd) {
		logger.Debug("Resident in quiet hours, skipping",
			zap.String("visit_id", visit.ID),
			zap.Int("resident_id", residentID),
		)
		return 0, nil
	}

	if pref.AutoApproveTypes.Contains(visitorType) {
		if _, err := s.visits.ApproveVisit(ctx, visit.ID, residentID); err != nil {
			return 0, fmt.Errorf("auto-approve: %w", err)
		}
		logger.Info("Visit auto-approved",
			zap.String("visit_id", visit.ID),
			zap.Int("resident_id", residentID),
			zap.Int("visitor_type", visitorType),
		)
		return 0, nil
	}

	enqueued := 0
	for _, target := range enabledDestinations(&pref) {
		if err := s.enqueueNotification(ctx, visit, residentID, target.channel, target.destination); err != nil {
			logger.Error("Failed to enqueue notification",
				zap.String("visit_id", visit.ID),
				zap.Int("resident_id", residentID),
				zap.String("channel", string(target.channel)),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

type channelDestination struct {
	channel     models.NotificationChannel
	destination string
}

// enabledDestinations lists the channels a resident has enabled with a
// configured address, in stable channel order.
func enabledDestinations(pref *models.ResidentPreference) []channelDestination {
	var out []channelDestination
	if pref.WhatsappEnabled && pref.WhatsappNumber != "" {
		out = append(out, channelDestination{models.ChannelWhatsApp, pref.WhatsappNumber})
	}
	if pref.TelegramEnabled && pref.TelegramChatID != "" {
		out = append(out, channelDestination{models.ChannelTelegram, pref.TelegramChatID})
	}
	return out
}

// enqueueNotification creates the PENDING row, then inserts the durable send
// job carrying the row's id.
func (s *NotificationService) enqueueNotification(ctx context.Context, visit *models.Visit, residentID int, channel models.NotificationChannel, destination string) error {
	notification := models.Notification{
		ID:          newID(),
		VisitID:     visit.ID,
		ResidentID:  residentID,
		Channel:     channel,
		Destination: destination,
		Status:      models.NotificationStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if err := s.enqueuer.EnqueueNotificationSend(ctx, notification.ID); err != nil {
		return fmt.Errorf("enqueue send job: %w", err)
	}

	s.audit.LogAction(ctx, "notification_queued", notification.ID, map[string]interface{}{
		"visit_id":    visit.ID,
		"resident_id": residentID,
		"channel":     string(channel),
	})
	return nil
}

// GetNotification loads a notification by id.
func (s *NotificationService) GetNotification(ctx context.Context, notificationID string) (*models.Notification, error) {
	var notification models.Notification
	err := s.db.WithContext(ctx).First(&notification, "id = ?", notificationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFoundf(notificationID)
		}
		return nil, fmt.Errorf("load notification: %w", err)
	}
	return &notification, nil
}

// ResponseTimeout returns the tenant's configured response timeout, falling
// back to the service default.
func (s *NotificationService) ResponseTimeout(ctx context.Context) time.Duration {
	var settings models.ChannelSettings
	err := s.db.WithContext(ctx).First(&settings).Error
	if err == nil && settings.ResponseTimeoutSeconds > 0 {
		return time.Duration(settings.ResponseTimeoutSeconds) * time.Second
	}
	return s.defaultResponseTimeout
}

// ExpireOverdue marks notifications that stayed unanswered past the response
// timeout as EXPIRED. Returns the number of rows expired.
func (s *NotificationService) ExpireOverdue(ctx context.Context) (int64, error) {
	cutoff := s.nowFunc().UTC().Add(-s.ResponseTimeout(ctx))

	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("status IN ?", []models.NotificationStatus{
			models.NotificationStatusSent,
			models.NotificationStatusDelivered,
			models.NotificationStatusRead,
		}).
		Where("sent_at < ?", cutoff).
		Update("status", models.NotificationStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("expire overdue notifications: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		logger.Info("Expired overdue notifications", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// inQuietHours reports whether now's local wall-clock minute falls in the
// [start, end) window. A start after the end means the window wraps past
// midnight. Empty or malformed bounds disable the window.
func inQuietHours(now time.Time, start, end string) bool {
	startMin, okStart := parseClockMinutes(start)
	endMin, okEnd := parseClockMinutes(end)
	if !okStart || !okEnd || startMin == endMin {
		return false
	}

	nowMin := now.Hour()*60 + now.Minute()
	if startMin < endMin {
		return nowMin >= startMin && nowMin < endMin
	}
	return nowMin >= startMin || nowMin < endMin
}

// parseClockMinutes parses "HH:MM" into minutes since midnight.
func parseClockMinutes(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
