package service

import "github.com/google/uuid"

// newID returns a K-sortable uuid v7 for visits, notifications, and domain
// events, falling back to v4 if the clock source fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
