package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"armonia.dev/intercom/internal/audit"
	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
)

// PreferenceService manages per-resident notification preferences.
type PreferenceService struct {
	db    *gorm.DB
	audit *audit.Logger
}

// NewPreferenceService creates a PreferenceService.
func NewPreferenceService(db *gorm.DB, auditLog *audit.Logger) *PreferenceService {
	return &PreferenceService{db: db, audit: auditLog}
}

// GetPreferences returns a resident's preference row.
func (s *PreferenceService) GetPreferences(ctx context.Context, residentID int) (*models.ResidentPreference, error) {
	var pref models.ResidentPreference
	err := s.db.WithContext(ctx).Where("resident_id = ?", residentID).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodePreferenceNotFound, "resident has no preferences").
				WithParams(map[string]interface{}{"resident_id": residentID})
		}
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return &pref, nil
}

// UpdatePreferences upserts a resident's preference row. Quiet-hour bounds
// must be "HH:MM" or empty; a channel enabled without an address is rejected
// since such a preference could never produce a deliverable notification.
func (s *PreferenceService) UpdatePreferences(ctx context.Context, pref *models.ResidentPreference) (*models.ResidentPreference, error) {
	if pref.ResidentID <= 0 {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "resident_id is required")
	}
	if pref.WhatsappEnabled && pref.WhatsappNumber == "" {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "whatsapp requires a phone number")
	}
	if pref.TelegramEnabled && pref.TelegramChatID == "" {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "telegram requires a chat id")
	}
	for _, bound := range []string{pref.QuietHoursStart, pref.QuietHoursEnd} {
		if bound == "" {
			continue
		}
		if _, ok := parseClockMinutes(bound); !ok {
			return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "quiet hours must be HH:MM").
				WithParams(map[string]interface{}{"value": bound})
		}
	}
	if (pref.QuietHoursStart == "") != (pref.QuietHoursEnd == "") {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "quiet hours require both start and end")
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "resident_id"}},
			UpdateAll: true,
		}).
		Create(pref).Error
	if err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}

	s.audit.LogAction(ctx, "preferences_updated", fmt.Sprintf("resident-%d", pref.ResidentID), map[string]interface{}{
		"whatsapp_enabled": pref.WhatsappEnabled,
		"telegram_enabled": pref.TelegramEnabled,
	})

	return s.GetPreferences(ctx, pref.ResidentID)
}
