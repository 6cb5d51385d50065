// Package handlers implements the HTTP surface of the intercom service.
package handlers

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"armonia.dev/intercom/internal/service"
)

// Server holds the services behind the HTTP handlers.
type Server struct {
	pool          *pgxpool.Pool
	visits        *service.VisitService
	notifications *service.NotificationService
	webhooks      *service.WebhookService
	preferences   *service.PreferenceService
	settings      *service.SettingsService
	stats         *service.StatsService
}

// ServerDeps holds all dependencies for creating a Server. Manual DI, no
// framework.
type ServerDeps struct {
	Pool          *pgxpool.Pool
	Visits        *service.VisitService
	Notifications *service.NotificationService
	Webhooks      *service.WebhookService
	Preferences   *service.PreferenceService
	Settings      *service.SettingsService
	Stats         *service.StatsService
}

// NewServer creates a Server.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		pool:          deps.Pool,
		visits:        deps.Visits,
		notifications: deps.Notifications,
		webhooks:      deps.Webhooks,
		preferences:   deps.Preferences,
		settings:      deps.Settings,
		stats:         deps.Stats,
	}
}
