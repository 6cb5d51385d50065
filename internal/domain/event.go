package domain

import (
	"encoding/json"
	"time"
)

// EventType defines the type of domain event.
type EventType string

const (
	// Visit lifecycle events.
	EventVisitRegistered    EventType = "VISIT_REGISTERED"
	EventVisitApproved      EventType = "VISIT_APPROVED"
	EventVisitRejected      EventType = "VISIT_REJECTED"
	EventVisitCancelled     EventType = "VISIT_CANCELLED"
	EventVisitEntryRecorded EventType = "VISIT_ENTRY_RECORDED"
	EventVisitExitRecorded  EventType = "VISIT_EXIT_RECORDED"

	// Notification events.
	EventNotificationQueued    EventType = "NOTIFICATION_QUEUED"
	EventNotificationResponded EventType = "NOTIFICATION_RESPONDED"
)

// Event is an immutable domain event. Events are dispatched after the
// durable write commits, so a failing handler can never roll back the
// operation that produced it.
type Event struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   string    `json:"aggregate_id"`
	Payload       []byte    `json:"payload"`
	CreatedAt     time.Time `json:"created_at"`
}

// VisitRegisteredPayload rides on EventVisitRegistered and carries what the
// notification fan-out needs.
type VisitRegisteredPayload struct {
	VisitID   string `json:"visit_id"`
	VisitorID uint   `json:"visitor_id"`
	UnitID    int    `json:"unit_id"`
	Purpose   string `json:"purpose"`
}

// ToJSON converts the payload to JSON bytes.
func (p VisitRegisteredPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// VisitDecisionPayload rides on approval/rejection events.
type VisitDecisionPayload struct {
	VisitID    string `json:"visit_id"`
	ResidentID int    `json:"resident_id"`
}

// ToJSON converts the payload to JSON bytes.
func (p VisitDecisionPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}
