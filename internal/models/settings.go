package models

import "time"

// ChannelSettings is the tenant-wide intercom configuration: which channels
// are enabled, provider credentials, the response timeout, and message
// templates keyed by channel and message kind. Single row per deployment.
type ChannelSettings struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	WhatsappEnabled bool `gorm:"default:false" json:"whatsapp_enabled"`
	// WhatsappConfig holds Twilio credentials:
	// {"account_sid": ..., "auth_token": ..., "from_number": ...}
	WhatsappConfig JSON `gorm:"type:text" json:"whatsapp_config,omitempty"`

	TelegramEnabled  bool   `gorm:"default:false" json:"telegram_enabled"`
	TelegramBotToken string `gorm:"size:128" json:"telegram_bot_token,omitempty"`

	// ResponseTimeoutSeconds overrides the service-level default when > 0.
	ResponseTimeoutSeconds int `gorm:"default:0" json:"response_timeout_seconds"`

	// MessageTemplates maps channel → message kind → template string,
	// e.g. {"TELEGRAM": {"visitor_notification": "..."}}.
	MessageTemplates JSON `gorm:"type:text" json:"message_templates,omitempty"`
}

// AuditLog is an append-only activity record. Writes are fire-and-forget;
// a failed write never fails the operation that produced it.
type AuditLog struct {
	ID        string    `gorm:"primaryKey;size:46" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Module   string `gorm:"size:32;not null;index" json:"module"`
	Action   string `gorm:"size:64;not null" json:"action"`
	EntityID string `gorm:"size:40;index" json:"entity_id"`
	Details  JSON   `gorm:"type:text" json:"details,omitempty"`
}
