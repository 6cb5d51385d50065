package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
)

func testRegistry() *Registry {
	return NewRegistry(RegistryConfig{
		ProviderTimeout:    5 * time.Second,
		DefaultCountryCode: "+57",
	})
}

func TestRegistry_Reload(t *testing.T) {
	registry := testRegistry()

	// Empty registry: nothing configured.
	_, err := registry.Get(models.ChannelWhatsApp)
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeChannelNotConfigured, appErr.Code)

	registry.Reload(&models.ChannelSettings{
		WhatsappEnabled: true,
		WhatsappConfig: models.JSON{
			"account_sid": "AC123",
			"auth_token":  "token",
			"from_number": "+14155238886",
		},
		TelegramEnabled:  true,
		TelegramBotToken: "bot-token",
	})

	whatsapp, err := registry.Get(models.ChannelWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelWhatsApp, whatsapp.Name())

	telegram, err := registry.Get(models.ChannelTelegram)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelTelegram, telegram.Name())

	assert.ElementsMatch(t,
		[]models.NotificationChannel{models.ChannelWhatsApp, models.ChannelTelegram},
		registry.Enabled())
}

func TestRegistry_Reload_DisablesChannels(t *testing.T) {
	registry := testRegistry()
	registry.Reload(&models.ChannelSettings{
		TelegramEnabled:  true,
		TelegramBotToken: "bot-token",
	})

	_, err := registry.Get(models.ChannelTelegram)
	require.NoError(t, err)

	// Reloading with the channel disabled drops the adapter even though the
	// token is still present.
	registry.Reload(&models.ChannelSettings{
		TelegramEnabled:  false,
		TelegramBotToken: "bot-token",
	})

	_, err = registry.Get(models.ChannelTelegram)
	require.Error(t, err)
	assert.Empty(t, registry.Enabled())
}

func TestRegistry_Reload_SkipsIncompleteCredentials(t *testing.T) {
	registry := testRegistry()

	// WhatsApp enabled but missing auth token: adapter not built.
	registry.Reload(&models.ChannelSettings{
		WhatsappEnabled: true,
		WhatsappConfig:  models.JSON{"account_sid": "AC123"},
		TelegramEnabled: true, // no bot token
	})

	_, err := registry.Get(models.ChannelWhatsApp)
	assert.Error(t, err)
	_, err = registry.Get(models.ChannelTelegram)
	assert.Error(t, err)
}

func TestRegistry_Register(t *testing.T) {
	registry := testRegistry()
	mock := NewMockAdapter(models.ChannelWhatsApp)
	registry.Register(mock)

	adapter, err := registry.Get(models.ChannelWhatsApp)
	require.NoError(t, err)
	assert.Same(t, Adapter(mock), adapter)
}
