package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"armonia.dev/intercom/internal/models"
	"armonia.dev/intercom/internal/pkg/logger"
)

// DefaultAuditRetention is how long audit rows are kept when no retention is
// configured.
const DefaultAuditRetention = 90 * 24 * time.Hour

// AuditCleanupArgs is a periodic maintenance job that prunes old audit rows.
type AuditCleanupArgs struct{}

// Kind returns the job kind identifier for audit cleanup.
func (AuditCleanupArgs) Kind() string { return "audit_cleanup" }

// InsertOpts ensures at most one cleanup job is enqueued within the same day.
func (AuditCleanupArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// AuditCleanupWorker deletes audit rows older than the retention duration.
type AuditCleanupWorker struct {
	river.WorkerDefaults[AuditCleanupArgs]
	db        *gorm.DB
	retention time.Duration
}

// NewAuditCleanupWorker creates a cleanup worker. Non-positive retention
// falls back to the 90-day default.
func NewAuditCleanupWorker(db *gorm.DB, retention time.Duration) *AuditCleanupWorker {
	if retention <= 0 {
		retention = DefaultAuditRetention
	}
	return &AuditCleanupWorker{db: db, retention: retention}
}

// Work removes expired audit rows.
func (w *AuditCleanupWorker) Work(ctx context.Context, _ *river.Job[AuditCleanupArgs]) error {
	if w == nil || w.db == nil {
		return fmt.Errorf("audit cleanup worker is not initialized")
	}

	cutoff := time.Now().UTC().Add(-w.retention)
	result := w.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	if result.Error != nil {
		return fmt.Errorf("delete audit rows before %s: %w", cutoff.Format(time.RFC3339), result.Error)
	}

	logger.Info("Audit cleanup completed",
		zap.Int64("deleted_rows", result.RowsAffected),
		zap.String("cutoff", cutoff.Format(time.RFC3339)),
		zap.Duration("retention", w.retention),
	)
	return nil
}
