package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armonia.dev/intercom/internal/audit"
	"armonia.dev/intercom/internal/channel"
	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
	"armonia.dev/intercom/internal/testutil"
)

func newSettingsService(t *testing.T) (*SettingsService, *channel.Registry) {
	t.Helper()
	db := testutil.NewTestDB(t)
	registry := channel.NewRegistry(channel.RegistryConfig{
		ProviderTimeout:    time.Second,
		DefaultCountryCode: "+57",
	})
	return NewSettingsService(db, registry, audit.NewLogger(db, nil)), registry
}

func TestGetSettings_CreatesDefault(t *testing.T) {
	svc, _ := newSettingsService(t)

	settings, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	assert.False(t, settings.WhatsappEnabled)
	assert.False(t, settings.TelegramEnabled)
	assert.NotZero(t, settings.ID)

	// Second read returns the same row.
	again, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.ID, again.ID)
}

func TestUpdateSettings_ReloadsRegistry(t *testing.T) {
	svc, registry := newSettingsService(t)
	ctx := context.Background()

	_, err := registry.Get(models.ChannelTelegram)
	require.Error(t, err)

	updated, err := svc.UpdateSettings(ctx, &models.ChannelSettings{
		TelegramEnabled:        true,
		TelegramBotToken:       "bot-token",
		ResponseTimeoutSeconds: 300,
	})
	require.NoError(t, err)
	assert.True(t, updated.TelegramEnabled)

	adapter, err := registry.Get(models.ChannelTelegram)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelTelegram, adapter.Name())

	// Disabling removes the adapter again.
	_, err = svc.UpdateSettings(ctx, &models.ChannelSettings{})
	require.NoError(t, err)
	_, err = registry.Get(models.ChannelTelegram)
	require.Error(t, err)
}

func TestUpdateSettings_Validation(t *testing.T) {
	svc, _ := newSettingsService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		settings models.ChannelSettings
	}{
		{"whatsapp without credentials", models.ChannelSettings{WhatsappEnabled: true}},
		{"telegram without token", models.ChannelSettings{TelegramEnabled: true}},
		{"negative timeout", models.ChannelSettings{ResponseTimeoutSeconds: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateSettings(ctx, &tc.settings)
			require.Error(t, err)
			appErr, ok := apperrors.IsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
		})
	}
}
