package jobs

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/riverqueue/river"

	"armonia.dev/intercom/internal/models"
	"armonia.dev/intercom/internal/testutil"
)

func TestAuditCleanupArgsKind(t *testing.T) {
	t.Parallel()

	if got := (AuditCleanupArgs{}).Kind(); got != "audit_cleanup" {
		t.Fatalf("Kind() = %q, want %q", got, "audit_cleanup")
	}
}

func TestAuditCleanupArgsInsertOpts(t *testing.T) {
	t.Parallel()

	opts := (AuditCleanupArgs{}).InsertOpts()
	if opts.Queue != river.QueueDefault {
		t.Fatalf("Queue = %q, want %q", opts.Queue, river.QueueDefault)
	}
	if opts.MaxAttempts != 1 {
		t.Fatalf("MaxAttempts = %d, want 1", opts.MaxAttempts)
	}
	if opts.UniqueOpts.ByPeriod != 24*time.Hour {
		t.Fatalf("UniqueOpts.ByPeriod = %s, want %s", opts.UniqueOpts.ByPeriod, 24*time.Hour)
	}
}

func TestNewAuditCleanupWorkerRetention(t *testing.T) {
	t.Parallel()

	if w := NewAuditCleanupWorker(nil, 0); w.retention != DefaultAuditRetention {
		t.Fatalf("retention = %s, want %s", w.retention, DefaultAuditRetention)
	}
	want := 7 * 24 * time.Hour
	if w := NewAuditCleanupWorker(nil, want); w.retention != want {
		t.Fatalf("retention = %s, want %s", w.retention, want)
	}
}

func TestAuditCleanupWorkerWork(t *testing.T) {
	db := testutil.NewTestDB(t)

	old := models.AuditLog{ID: "audit-old", Module: "intercom", Action: "visit_registered", EntityID: "v1"}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("seed old audit row: %v", err)
	}
	if err := db.Model(&old).Update("created_at", time.Now().UTC().Add(-48*time.Hour)).Error; err != nil {
		t.Fatalf("backdate audit row: %v", err)
	}
	recent := models.AuditLog{ID: "audit-recent", Module: "intercom", Action: "visit_approved", EntityID: "v2"}
	if err := db.Create(&recent).Error; err != nil {
		t.Fatalf("seed recent audit row: %v", err)
	}

	worker := NewAuditCleanupWorker(db, 24*time.Hour)
	if err := worker.Work(context.Background(), nil); err != nil {
		t.Fatalf("Work() error: %v", err)
	}

	var count int64
	if err := db.Model(&models.AuditLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count audit rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("audit rows = %d, want 1", count)
	}
}

func TestAuditCleanupWorkerWork_Uninitialized(t *testing.T) {
	t.Parallel()

	var w *AuditCleanupWorker
	if err := w.Work(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
	}
}
