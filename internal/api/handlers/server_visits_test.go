package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"armonia.dev/intercom/internal/models"
	"armonia.dev/intercom/internal/testutil"
)

func TestVisitHandler_RegisterVisit(t *testing.T) {
	ts := newTestServer(t)
	testutil.SeedVisitorType(t, ts.db, 1, "Delivery")
	testutil.SeedUnit(t, ts.db, 101, "T1-101", 10)

	body := []byte(`{
		"visitor": {"name": "Juan Pérez", "identification": "CC-1234", "type_id": 1},
		"unit_id": 101,
		"purpose": "Entrega de paquete"
	}`)

	w := ts.do(t, http.MethodPost, "/api/v1/visits", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	var visit models.Visit
	if err := json.Unmarshal(w.Body.Bytes(), &visit); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if visit.ID == "" {
		t.Fatal("expected a visit id")
	}
	if visit.Status != models.VisitStatusPending {
		t.Fatalf("status = %q, want %q", visit.Status, models.VisitStatusPending)
	}
}

func TestVisitHandler_RegisterVisit_UnknownUnit(t *testing.T) {
	ts := newTestServer(t)
	testutil.SeedVisitorType(t, ts.db, 1, "Delivery")

	body := []byte(`{
		"visitor": {"name": "Juan Pérez", "identification": "CC-1234", "type_id": 1},
		"unit_id": 999
	}`)

	w := ts.do(t, http.MethodPost, "/api/v1/visits", body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d body=%s", w.Code, http.StatusNotFound, w.Body.String())
	}
}

func TestVisitHandler_RegisterVisit_MissingBody(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/visits", []byte(`{}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "VALIDATION_FAILED" {
		t.Fatalf("code = %q, want VALIDATION_FAILED", resp.Code)
	}
}

func TestVisitHandler_ApproveAndGet(t *testing.T) {
	ts := newTestServer(t)
	testutil.SeedVisitorType(t, ts.db, 1, "Delivery")
	visitor := testutil.SeedVisitor(t, ts.db, "Juan Pérez", "CC-1234", 1)
	testutil.SeedUnit(t, ts.db, 101, "T1-101", 10)
	visit := testutil.SeedVisit(t, ts.db, visitor.ID, 101, models.VisitStatusNotified)

	w := ts.do(t, http.MethodPost, "/api/v1/visits/"+visit.ID+"/approve", []byte(`{"resident_id": 10}`))
	if w.Code != http.StatusOK {
		t.Fatalf("approve status = %d, want %d body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	w = ts.do(t, http.MethodGet, "/api/v1/visits/"+visit.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var got models.Visit
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != models.VisitStatusApproved {
		t.Fatalf("status = %q, want %q", got.Status, models.VisitStatusApproved)
	}
	if got.AuthorizedBy == nil || *got.AuthorizedBy != 10 {
		t.Fatalf("authorized_by = %v, want 10", got.AuthorizedBy)
	}
}

func TestVisitHandler_RejectWithoutResident(t *testing.T) {
	ts := newTestServer(t)
	testutil.SeedVisitorType(t, ts.db, 1, "Delivery")
	visitor := testutil.SeedVisitor(t, ts.db, "Juan Pérez", "CC-1234", 1)
	testutil.SeedUnit(t, ts.db, 101, "T1-101", 10)
	visit := testutil.SeedVisit(t, ts.db, visitor.ID, 101, models.VisitStatusNotified)

	w := ts.do(t, http.MethodPost, "/api/v1/visits/"+visit.ID+"/reject", []byte(`{}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}
}

func TestVisitHandler_EntryGuardsStatus(t *testing.T) {
	ts := newTestServer(t)
	testutil.SeedVisitorType(t, ts.db, 1, "Delivery")
	visitor := testutil.SeedVisitor(t, ts.db, "Juan Pérez", "CC-1234", 1)
	testutil.SeedUnit(t, ts.db, 101, "T1-101", 10)
	visit := testutil.SeedVisit(t, ts.db, visitor.ID, 101, models.VisitStatusPending)

	w := ts.do(t, http.MethodPost, "/api/v1/visits/"+visit.ID+"/entry", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d body=%s", w.Code, http.StatusConflict, w.Body.String())
	}

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "INVALID_STATE_TRANSITION" {
		t.Fatalf("code = %q, want INVALID_STATE_TRANSITION", resp.Code)
	}
}

func TestVisitHandler_GetUnitVisits_Paginated(t *testing.T) {
	ts := newTestServer(t)
	testutil.SeedVisitorType(t, ts.db, 1, "Delivery")
	visitor := testutil.SeedVisitor(t, ts.db, "Juan Pérez", "CC-1234", 1)
	testutil.SeedUnit(t, ts.db, 101, "T1-101", 10)
	for i := 0; i < 3; i++ {
		testutil.SeedVisit(t, ts.db, visitor.ID, 101, models.VisitStatusCompleted)
	}
	testutil.SeedVisit(t, ts.db, visitor.ID, 101, models.VisitStatusPending)

	w := ts.do(t, http.MethodGet, "/api/v1/units/101/visits?page=1&page_size=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp models.PaginatedVisits
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("data len = %d, want 2", len(resp.Data))
	}
	if resp.Pagination.Total != 4 {
		t.Fatalf("total = %d, want 4", resp.Pagination.Total)
	}

	filtered := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/units/%d/visits?status=%s", 101, models.VisitStatusPending), nil)
	var filteredResp models.PaginatedVisits
	if err := json.Unmarshal(filtered.Body.Bytes(), &filteredResp); err != nil {
		t.Fatalf("decode filtered response: %v", err)
	}
	if len(filteredResp.Data) != 1 {
		t.Fatalf("filtered data len = %d, want 1", len(filteredResp.Data))
	}
}

func TestVisitHandler_GetUnitVisits_BadUnitID(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/units/abc/visits", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}
}
