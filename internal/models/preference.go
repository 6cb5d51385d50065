package models

import "time"

// ResidentPreference is per-resident notification configuration. One row per
// resident; absence means opt-out of intercom notifications entirely.
type ResidentPreference struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ResidentID int `gorm:"not null;uniqueIndex" json:"resident_id"`

	WhatsappEnabled bool   `gorm:"default:false" json:"whatsapp_enabled"`
	WhatsappNumber  string `gorm:"size:32;index" json:"whatsapp_number,omitempty"`
	TelegramEnabled bool   `gorm:"default:false" json:"telegram_enabled"`
	TelegramChatID  string `gorm:"size:64;index" json:"telegram_chat_id,omitempty"`

	// NotifyAllVisitors false means visitor types listed in
	// AllowedVisitorTypes pass without a notification. No gorm column
	// default: gorm drops zero-valued fields that carry one on insert,
	// which would silently flip a persisted false back to true.
	NotifyAllVisitors   bool    `json:"notify_all_visitors"`
	AllowedVisitorTypes IntList `gorm:"type:text" json:"allowed_visitor_types"`

	// AutoApproveTypes are visitor types this resident has pre-authorized.
	AutoApproveTypes IntList `gorm:"type:text" json:"auto_approve_types"`

	// Quiet hours in "HH:MM" local time. A start after the end means the
	// window wraps past midnight. Empty strings disable the window.
	QuietHoursStart string `gorm:"size:5" json:"quiet_hours_start,omitempty"`
	QuietHoursEnd   string `gorm:"size:5" json:"quiet_hours_end,omitempty"`
}
