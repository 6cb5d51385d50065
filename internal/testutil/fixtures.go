package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"armonia.dev/intercom/internal/models"
)

// SeedVisitorType inserts a visitor type.
func SeedVisitorType(t *testing.T, db *gorm.DB, id int, name string) models.VisitorType {
	t.Helper()
	vt := models.VisitorType{ID: id, Name: name}
	if err := db.Create(&vt).Error; err != nil {
		t.Fatalf("seed visitor type: %v", err)
	}
	return vt
}

// SeedVisitor inserts a visitor with the given identification.
func SeedVisitor(t *testing.T, db *gorm.DB, name, identification string, typeID int) models.Visitor {
	t.Helper()
	v := models.Visitor{
		Name:           name,
		Identification: identification,
		TypeID:         typeID,
	}
	if err := db.Create(&v).Error; err != nil {
		t.Fatalf("seed visitor: %v", err)
	}
	return v
}

// SeedUnit inserts a unit with the given residents.
func SeedUnit(t *testing.T, db *gorm.DB, id int, number string, residents ...int) models.Unit {
	t.Helper()
	u := models.Unit{ID: id, Number: number, Residents: residents}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed unit: %v", err)
	}
	return u
}

// SeedVisit inserts a visit in the given status.
func SeedVisit(t *testing.T, db *gorm.DB, visitorID uint, unitID int, status models.VisitStatus) models.Visit {
	t.Helper()
	v := models.Visit{
		ID:        uuid.NewString(),
		VisitorID: visitorID,
		UnitID:    unitID,
		Purpose:   "Entrega de paquete",
		Status:    status,
	}
	if err := db.Create(&v).Error; err != nil {
		t.Fatalf("seed visit: %v", err)
	}
	return v
}

// SeedPreference inserts a resident preference row.
func SeedPreference(t *testing.T, db *gorm.DB, pref models.ResidentPreference) models.ResidentPreference {
	t.Helper()
	if err := db.Create(&pref).Error; err != nil {
		t.Fatalf("seed preference: %v", err)
	}
	return pref
}

// SeedNotification inserts a notification; SentAt is set for statuses that
// imply the message left the service.
func SeedNotification(t *testing.T, db *gorm.DB, n models.Notification) models.Notification {
	t.Helper()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.SentAt == nil {
		switch n.Status {
		case models.NotificationStatusSent, models.NotificationStatusDelivered,
			models.NotificationStatusRead, models.NotificationStatusResponded:
			now := time.Now().UTC()
			n.SentAt = &now
		}
	}
	if err := db.Create(&n).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return n
}

// SeedSettings inserts channel settings with both channels enabled and test
// credentials.
func SeedSettings(t *testing.T, db *gorm.DB) models.ChannelSettings {
	t.Helper()
	s := models.ChannelSettings{
		WhatsappEnabled: true,
		WhatsappConfig: models.JSON{
			"account_sid": "AC-test",
			"auth_token":  "token-test",
			"from_number": "+14155238886",
		},
		TelegramEnabled:  true,
		TelegramBotToken: "bot-test-token",
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	return s
}
