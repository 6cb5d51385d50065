package models

import "time"

// VisitStatus is the visit lifecycle state.
type VisitStatus string

const (
	VisitStatusPending    VisitStatus = "PENDING"
	VisitStatusNotified   VisitStatus = "NOTIFIED"
	VisitStatusApproved   VisitStatus = "APPROVED"
	VisitStatusRejected   VisitStatus = "REJECTED"
	VisitStatusInProgress VisitStatus = "IN_PROGRESS"
	VisitStatusCompleted  VisitStatus = "COMPLETED"
	VisitStatusCancelled  VisitStatus = "CANCELLED"
)

// VisitorType categorizes visitors (delivery, family, service staff, ...).
// Residents reference these ids in their auto-approve and allow lists.
type VisitorType struct {
	ID   int    `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;not null;uniqueIndex" json:"name"`
}

// Visitor is the identity of a person requesting entry. Created on first
// visit and reused afterwards; Identification is the natural de-dup key.
type Visitor struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Name           string      `gorm:"size:128;not null" json:"name"`
	Identification string      `gorm:"size:32;not null;uniqueIndex" json:"identification"`
	Phone          string      `gorm:"size:32" json:"phone"`
	PhotoURL       string      `gorm:"size:512" json:"photo_url,omitempty"`
	TypeID         int         `gorm:"index" json:"type_id"`
	Type           VisitorType `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	IsFrequent     bool        `gorm:"default:false" json:"is_frequent"`
}

// Visit is one access request. Mutated only through the state machine;
// never deleted, only terminally closed.
type Visit struct {
	ID        string    `gorm:"primaryKey;size:40" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	VisitorID uint    `gorm:"not null;index" json:"visitor_id"`
	Visitor   Visitor `gorm:"foreignKey:VisitorID" json:"visitor,omitempty"`
	UnitID    int     `gorm:"not null;index" json:"unit_id"`
	Purpose   string  `gorm:"size:512" json:"purpose"`

	Status       VisitStatus `gorm:"size:16;not null;default:'PENDING';index" json:"status"`
	AuthorizedBy *int        `json:"authorized_by,omitempty"`
	EntryTime    *time.Time  `json:"entry_time,omitempty"`
	ExitTime     *time.Time  `json:"exit_time,omitempty"`

	Notifications []Notification `gorm:"foreignKey:VisitID" json:"notifications,omitempty"`
}

// Unit is a dwelling. Residents holds the user ids that may be notified and
// may authorize entry. Read-only from this service's perspective.
type Unit struct {
	ID        int     `gorm:"primaryKey" json:"id"`
	Number    string  `gorm:"size:16;not null" json:"number"`
	Tower     string  `gorm:"size:16" json:"tower,omitempty"`
	Residents IntList `gorm:"type:text" json:"residents"`
}
