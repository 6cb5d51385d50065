package channel

import (
	"sync"
	"time"

	"armonia.dev/intercom/internal/models"
	apperrors "armonia.dev/intercom/internal/pkg/errors"
)

// Registry holds the active channel adapters. Adapters are rebuilt from
// persisted settings via Reload; lookups never construct adapters on the
// fly, so a channel disabled in settings stays disabled until the next
// reload even if its credentials are still present.
type Registry struct {
	mu       sync.RWMutex
	adapters map[models.NotificationChannel]Adapter

	timeout     time.Duration
	countryCode string
	callbackURL string
	secretToken string
}

// RegistryConfig holds adapter construction defaults shared across channels.
type RegistryConfig struct {
	ProviderTimeout    time.Duration
	DefaultCountryCode string
	WhatsappWebhookURL string
	TelegramSecret     string
}

// NewRegistry creates an empty registry. Call Reload to populate it.
func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		adapters:    make(map[models.NotificationChannel]Adapter),
		timeout:     cfg.ProviderTimeout,
		countryCode: cfg.DefaultCountryCode,
		callbackURL: cfg.WhatsappWebhookURL,
		secretToken: cfg.TelegramSecret,
	}
}

// Reload rebuilds the adapter set from settings. The swap is atomic:
// concurrent Get calls see either the old set or the new one, never a
// partial mix.
func (r *Registry) Reload(settings *models.ChannelSettings) {
	adapters := make(map[models.NotificationChannel]Adapter)

	if settings != nil && settings.WhatsappEnabled {
		cfg := TwilioConfig{
			CountryCode: r.countryCode,
			CallbackURL: r.callbackURL,
			Timeout:     r.timeout,
		}
		if wc := settings.WhatsappConfig; wc != nil {
			cfg.AccountSid, _ = wc["account_sid"].(string)
			cfg.AuthToken, _ = wc["auth_token"].(string)
			cfg.FromNumber, _ = wc["from_number"].(string)
		}
		if cfg.AccountSid != "" && cfg.AuthToken != "" {
			adapters[models.ChannelWhatsApp] = NewTwilioAdapter(cfg)
		}
	}

	if settings != nil && settings.TelegramEnabled && settings.TelegramBotToken != "" {
		adapters[models.ChannelTelegram] = NewTelegramAdapter(TelegramConfig{
			BotToken:    settings.TelegramBotToken,
			SecretToken: r.secretToken,
			Timeout:     r.timeout,
		})
	}

	r.mu.Lock()
	r.adapters = adapters
	r.mu.Unlock()
}

// Get returns the adapter for a channel, or CHANNEL_NOT_CONFIGURED when the
// channel is disabled or missing credentials.
func (r *Registry) Get(ch models.NotificationChannel) (Adapter, error) {
	r.mu.RLock()
	adapter, ok := r.adapters[ch]
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.ErrChannelNotConfiguredf(string(ch))
	}
	return adapter, nil
}

// Register installs an adapter directly, replacing any existing adapter for
// the same channel. Used by tests and by custom adapter wiring.
func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	r.adapters[adapter.Name()] = adapter
	r.mu.Unlock()
}

// Enabled lists the channels with an active adapter.
func (r *Registry) Enabled() []models.NotificationChannel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]models.NotificationChannel, 0, len(r.adapters))
	for ch := range r.adapters {
		channels = append(channels, ch)
	}
	return channels
}
