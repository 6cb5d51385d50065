// Package app is the composition root. Bootstrap stays orchestration-only:
// it constructs dependencies and wires them, nothing else.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"armonia.dev/intercom/internal/api/handlers"
	"armonia.dev/intercom/internal/audit"
	"armonia.dev/intercom/internal/channel"
	"armonia.dev/intercom/internal/config"
	"armonia.dev/intercom/internal/domain"
	"armonia.dev/intercom/internal/infrastructure"
	"armonia.dev/intercom/internal/jobs"
	"armonia.dev/intercom/internal/pkg/logger"
	"armonia.dev/intercom/internal/pkg/worker"
	"armonia.dev/intercom/internal/service"
)

// Application holds composed application dependencies.
type Application struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *infrastructure.DatabaseClients
	Pools    *worker.Pools
	Registry *channel.Registry
	Settings *service.SettingsService
}

// Bootstrap initializes all dependencies using manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	auditLog := audit.NewLogger(db.Gorm, pools)

	registry := channel.NewRegistry(channel.RegistryConfig{
		ProviderTimeout:    cfg.Intercom.ProviderTimeout,
		DefaultCountryCode: cfg.Intercom.DefaultCountryCode,
		WhatsappWebhookURL: cfg.Intercom.WhatsappCallbackURL(),
		TelegramSecret:     cfg.Intercom.TelegramWebhookSecret,
	})

	dispatcher := domain.NewEventDispatcher()
	visits := service.NewVisitService(db.Gorm, dispatcher, auditLog)

	// The enqueuer is a late-bound seam: the River client does not exist
	// until workers are registered, and the send worker needs the registry
	// that notifications feed. Wire the enqueuer after InitRiverClient.
	enqueuer := &deferredEnqueuer{}
	notifications := service.NewNotificationService(db.Gorm, enqueuer, visits, auditLog, cfg.Intercom.ResponseTimeout)
	webhooks := service.NewWebhookService(db.Gorm, registry, visits, auditLog)
	preferences := service.NewPreferenceService(db.Gorm, auditLog)
	settings := service.NewSettingsService(db.Gorm, registry, auditLog)
	stats := service.NewStatsService(db.Gorm)

	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewNotificationSendWorker(db.Gorm, registry, cfg.Intercom.ProviderTimeout))
	river.AddWorker(workers, jobs.NewNotificationExpireWorker(notifications))
	river.AddWorker(workers, jobs.NewAuditCleanupWorker(db.Gorm, cfg.Intercom.AuditRetention))

	if err := db.InitRiverClient(workers, cfg.River); err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init river client: %w", err)
	}
	enqueuer.bind(jobs.NewRiverEnqueuer(db.RiverClient))

	registerPeriodicJobs(db.RiverClient, cfg.Intercom)

	// Visit registration fans out to resident notifications after commit.
	dispatcher.Register(domain.EventVisitRegistered, func(ctx context.Context, event *domain.Event) error {
		return notifications.NotifyVisit(ctx, event.AggregateID)
	})

	// Adapters come up from whatever settings the last deploy persisted.
	if persisted, err := settings.GetSettings(ctx); err != nil {
		logger.Warn("Could not load channel settings at startup, channels stay disabled until updated",
			zap.Error(err),
		)
	} else {
		registry.Reload(persisted)
	}

	server := handlers.NewServer(handlers.ServerDeps{
		Pool:          db.Pool,
		Visits:        visits,
		Notifications: notifications,
		Webhooks:      webhooks,
		Preferences:   preferences,
		Settings:      settings,
		Stats:         stats,
	})

	return &Application{
		Config:   cfg,
		Router:   newRouter(cfg.Server, server),
		DB:       db,
		Pools:    pools,
		Registry: registry,
		Settings: settings,
	}, nil
}

func registerPeriodicJobs(client *river.Client[pgx.Tx], cfg config.IntercomConfig) {
	sweep := cfg.ExpireSweepInterval
	if sweep <= 0 {
		sweep = time.Minute
	}

	client.PeriodicJobs().Add(
		river.NewPeriodicJob(
			river.PeriodicInterval(sweep),
			func() (river.JobArgs, *river.InsertOpts) {
				return jobs.NotificationExpireArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	)

	// Audit retention cleanup: daily, plus once on startup.
	client.PeriodicJobs().Add(
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return jobs.AuditCleanupArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	)
}
