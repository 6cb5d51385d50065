package models

import "time"

// NotificationChannel identifies a messaging provider integration.
type NotificationChannel string

const (
	ChannelWhatsApp NotificationChannel = "WHATSAPP"
	ChannelTelegram NotificationChannel = "TELEGRAM"
)

// NotificationStatus is the delivery lifecycle of one outbound message.
type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "PENDING"
	NotificationStatusSent      NotificationStatus = "SENT"
	NotificationStatusDelivered NotificationStatus = "DELIVERED"
	NotificationStatusRead      NotificationStatus = "READ"
	NotificationStatusFailed    NotificationStatus = "FAILED"
	NotificationStatusExpired   NotificationStatus = "EXPIRED"
	NotificationStatusResponded NotificationStatus = "RESPONDED"
)

// ResponseType classifies a resident's reply.
type ResponseType string

const (
	ResponseTypeApprove ResponseType = "APPROVE"
	ResponseTypeReject  ResponseType = "REJECT"
	ResponseTypeCustom  ResponseType = "CUSTOM"
)

// Notification is one outbound message attempt tied to exactly one
// (visit, resident, channel) triple. The dispatch worker sets the send
// outcome; the webhook processor sets the response fields.
type Notification struct {
	ID        string    `gorm:"primaryKey;size:40" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	VisitID    string              `gorm:"not null;index" json:"visit_id"`
	Visit      Visit               `gorm:"foreignKey:VisitID" json:"visit,omitempty"`
	ResidentID int                 `gorm:"not null;index" json:"resident_id"`
	Channel    NotificationChannel `gorm:"size:16;not null" json:"channel"`

	// Destination is the provider address the message was queued for
	// (phone number or chat id), captured at enqueue time so later
	// preference edits do not reroute an in-flight notification.
	Destination string `gorm:"size:64;not null" json:"destination"`

	Status       NotificationStatus `gorm:"size:16;not null;default:'PENDING';index" json:"status"`
	MessageID    string             `gorm:"size:128" json:"message_id,omitempty"`
	ErrorMessage string             `gorm:"size:1024" json:"error_message,omitempty"`
	SentAt       *time.Time         `gorm:"index" json:"sent_at,omitempty"`

	Response     string       `gorm:"size:1024" json:"response,omitempty"`
	ResponseType ResponseType `gorm:"size:16" json:"response_type,omitempty"`
	RespondedAt  *time.Time   `json:"responded_at,omitempty"`
}
