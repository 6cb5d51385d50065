package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"armonia.dev/intercom/internal/models"
	"armonia.dev/intercom/internal/testutil"
)

func TestPreferenceHandler_GetNotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/residents/42/preferences", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d body=%s", w.Code, http.StatusNotFound, w.Body.String())
	}
}

func TestPreferenceHandler_UpdateAndGet(t *testing.T) {
	ts := newTestServer(t)

	body := []byte(`{
		"whatsapp_enabled": true,
		"whatsapp_number": "+573001234567",
		"notify_all_visitors": true,
		"quiet_hours_start": "22:00",
		"quiet_hours_end": "07:00"
	}`)

	w := ts.do(t, http.MethodPut, "/api/v1/residents/42/preferences", body)
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d, want %d body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	w = ts.do(t, http.MethodGet, "/api/v1/residents/42/preferences", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var pref models.ResidentPreference
	if err := json.Unmarshal(w.Body.Bytes(), &pref); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if pref.ResidentID != 42 {
		t.Fatalf("resident_id = %d, want 42", pref.ResidentID)
	}
	if !pref.WhatsappEnabled || pref.WhatsappNumber != "+573001234567" {
		t.Fatalf("unexpected channel config: %+v", pref)
	}
	if pref.QuietHoursStart != "22:00" || pref.QuietHoursEnd != "07:00" {
		t.Fatalf("unexpected quiet hours: %q-%q", pref.QuietHoursStart, pref.QuietHoursEnd)
	}
}

func TestPreferenceHandler_PathResidentWins(t *testing.T) {
	ts := newTestServer(t)
	testutil.SeedPreference(t, ts.db, models.ResidentPreference{ResidentID: 7})

	// Body claims resident 99; the path segment is authoritative.
	body := []byte(`{"resident_id": 99, "telegram_enabled": true, "telegram_chat_id": "555"}`)

	w := ts.do(t, http.MethodPut, "/api/v1/residents/7/preferences", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var pref models.ResidentPreference
	if err := json.Unmarshal(w.Body.Bytes(), &pref); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if pref.ResidentID != 7 {
		t.Fatalf("resident_id = %d, want 7", pref.ResidentID)
	}

	var count int64
	if err := ts.db.Model(&models.ResidentPreference{}).Count(&count).Error; err != nil {
		t.Fatalf("count preferences: %v", err)
	}
	if count != 1 {
		t.Fatalf("preference rows = %d, want 1 (upsert)", count)
	}
}

func TestPreferenceHandler_ValidationError(t *testing.T) {
	ts := newTestServer(t)

	// Channel enabled but no address.
	body := []byte(`{"whatsapp_enabled": true}`)

	w := ts.do(t, http.MethodPut, "/api/v1/residents/42/preferences", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}
}
