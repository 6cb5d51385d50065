package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"armonia.dev/intercom/internal/audit"
	"armonia.dev/intercom/internal/channel"
	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
)

// SettingsService manages the tenant-wide channel settings row and keeps the
// adapter registry in sync with it.
type SettingsService struct {
	db       *gorm.DB
	registry *channel.Registry
	audit    *audit.Logger
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(db *gorm.DB, registry *channel.Registry, auditLog *audit.Logger) *SettingsService {
	return &SettingsService{db: db, registry: registry, audit: auditLog}
}

// GetSettings returns the settings row, creating a default (all channels
// disabled) on first access.
func (s *SettingsService) GetSettings(ctx context.Context) (*models.ChannelSettings, error) {
	var settings models.ChannelSettings
	err := s.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.ChannelSettings{}
		if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, fmt.Errorf("create default settings: %w", err)
		}
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &settings, nil
}

// UpdateSettings persists new channel settings and reloads the adapter
// registry so the change takes effect without a restart.
func (s *SettingsService) UpdateSettings(ctx context.Context, update *models.ChannelSettings) (*models.ChannelSettings, error) {
	if update.WhatsappEnabled {
		sid, _ := update.WhatsappConfig["account_sid"].(string)
		token, _ := update.WhatsappConfig["auth_token"].(string)
		if sid == "" || token == "" {
			return nil, apperrors.BadRequest(apperrors.CodeValidationFailed,
				"whatsapp requires account_sid and auth_token")
		}
	}
	if update.TelegramEnabled && update.TelegramBotToken == "" {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "telegram requires a bot token")
	}
	if update.ResponseTimeoutSeconds < 0 {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "response timeout must not be negative")
	}

	current, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	update.ID = current.ID
	update.CreatedAt = current.CreatedAt
	if err := s.db.WithContext(ctx).Save(update).Error; err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.ReloadChannels(update)

	s.audit.LogAction(ctx, "settings_updated", "intercom-settings", map[string]interface{}{
		"whatsapp_enabled": update.WhatsappEnabled,
		"telegram_enabled": update.TelegramEnabled,
	})
	return update, nil
}

// ReloadChannels rebuilds the adapter registry from settings. Called on
// startup with the persisted row and after every settings update.
func (s *SettingsService) ReloadChannels(settings *models.ChannelSettings) {
	s.registry.Reload(settings)
}
