package models

import (
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for all intercom entities.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&VisitorType{},
		&Visitor{},
		&Visit{},
		&Unit{},
		&ResidentPreference{},
		&Notification{},
		&ChannelSettings{},
		&AuditLog{},
	)
}
