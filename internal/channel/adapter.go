// Package channel implements the messaging adapter contract: one adapter per
// provider integration, each able to send a message, authenticate an inbound
// webhook, and parse a provider payload into a normalized event.
package channel

import (
	"context"
	"time"

	"armonia.dev/intercom/internal/models"
)

// EventKind classifies a normalized inbound event.
type EventKind string

const (
	KindText     EventKind = "text"
	KindButton   EventKind = "button"
	KindMedia    EventKind = "media"
	KindLocation EventKind = "location"
)

// Event is the channel-agnostic shape of an inbound provider payload.
type Event struct {
	// From is the provider address of the sender (phone number, chat id).
	From      string
	Text      string
	Timestamp time.Time
	MessageID string
	Kind      EventKind

	// ButtonPayload carries the callback token of a button interaction,
	// "approve_<notificationID>" or "reject_<notificationID>".
	ButtonPayload string
}

// SendResult reports the outcome of an outbound send. Provider-level
// failures are results, not errors: the dispatch worker records them as
// FAILED notifications instead of retrying blindly.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// Button is one quick-reply option for button-capable channels.
type Button struct {
	Text    string
	Payload string
}

// SendOptions carries optional interactive elements and attachments.
type SendOptions struct {
	Buttons  []Button
	MediaURL string
}

// Adapter is the per-channel messaging contract.
type Adapter interface {
	// Name returns the channel this adapter serves.
	Name() models.NotificationChannel

	// SupportsButtons reports whether the channel can render quick-reply
	// buttons; non-capable channels get the numeric text protocol instead
	// (reply 1 to approve, 2 to reject).
	SupportsButtons() bool

	// SendMessage delivers text to the destination address. The context
	// bounds the provider HTTP call.
	SendMessage(ctx context.Context, to, text string, opts *SendOptions) SendResult

	// VerifyWebhook authenticates an inbound payload. Channels without
	// cryptographic signing only validate the payload structure, which is
	// a materially weaker guarantee; see each implementation.
	VerifyWebhook(payload []byte, signature string) bool

	// ParseResponse converts a provider payload into a normalized Event.
	// Unknown shapes fail closed with an UNRECOGNIZED_PAYLOAD error.
	ParseResponse(payload []byte) (*Event, error)
}
