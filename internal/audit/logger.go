// Package audit implements the activity audit sink.
//
// Audit rows are append-only records of meaningful actions (visit registered,
// approved, notification sent, ...). Writes are fire-and-forget: they run on
// the worker pool, and a failed write never fails the operation it records.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"armonia.dev/intercom/internal/models"
	"armonia.dev/intercom/internal/pkg/logger"
	"armonia.dev/intercom/internal/pkg/worker"
)

// ModuleIntercom tags every record produced by this service.
const ModuleIntercom = "intercom"

// Logger writes audit records to the database.
type Logger struct {
	db    *gorm.DB
	pools *worker.Pools
}

// NewLogger creates a new audit Logger. pools may be nil, in which case
// writes happen synchronously (tests).
func NewLogger(db *gorm.DB, pools *worker.Pools) *Logger {
	return &Logger{db: db, pools: pools}
}

// LogAction records an auditable action. The write is detached from the
// caller's request: it survives request cancellation but respects shutdown.
func (l *Logger) LogAction(ctx context.Context, action, entityID string, details map[string]interface{}) {
	if l == nil || l.db == nil {
		return
	}
	if l.pools == nil {
		l.write(ctx, action, entityID, details)
		return
	}
	if err := l.pools.SubmitDetached(func(taskCtx context.Context) {
		l.write(taskCtx, action, entityID, details)
	}); err != nil {
		logger.Warn("audit write not submitted",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

func (l *Logger) write(ctx context.Context, action, entityID string, details map[string]interface{}) {
	row := models.AuditLog{
		ID:       generateAuditID(),
		Module:   ModuleIntercom,
		Action:   action,
		EntityID: entityID,
		Details:  models.JSON(details),
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.Error("Failed to write audit log",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

func generateAuditID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("audit-%s", uuid.New().String())
	}
	return fmt.Sprintf("audit-%s", id.String())
}
