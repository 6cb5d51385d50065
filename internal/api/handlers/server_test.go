package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"armonia.dev/intercom/internal/api/middleware"
	"armonia.dev/intercom/internal/channel"
	"armonia.dev/intercom/internal/domain"
	"armonia.dev/intercom/internal/pkg/logger"
	"armonia.dev/intercom/internal/service"
	"armonia.dev/intercom/internal/testutil"
)

func init() {
	_ = logger.Init("error", "json")
	gin.SetMode(gin.TestMode)
}

// testServer bundles the router with the collaborators tests poke at.
type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	registry *channel.Registry
	enqueuer *testutil.FakeEnqueuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewTestDB(t)
	registry := channel.NewRegistry(channel.RegistryConfig{})
	enqueuer := &testutil.FakeEnqueuer{}

	dispatcher := domain.NewEventDispatcher()
	visits := service.NewVisitService(db, dispatcher, nil)
	notifications := service.NewNotificationService(db, enqueuer, visits, nil, 5*time.Minute)
	webhooks := service.NewWebhookService(db, registry, visits, nil)
	preferences := service.NewPreferenceService(db, nil)
	settings := service.NewSettingsService(db, registry, nil)
	stats := service.NewStatsService(db)

	srv := NewServer(ServerDeps{
		Visits:        visits,
		Notifications: notifications,
		Webhooks:      webhooks,
		Preferences:   preferences,
		Settings:      settings,
		Stats:         stats,
	})

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	srv.RegisterRoutes(router)

	return &testServer{
		router:   router,
		db:       db,
		registry: registry,
		enqueuer: enqueuer,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestHealth_Liveness(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health/live", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
