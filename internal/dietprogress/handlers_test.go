package dietprogress

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleGetColdCacheComputes(t *testing.T) {
	svc, _, _, summaries, assignmentID := newDeciderFixture(5, []float64{100, 50, 0})
	handler := NewHandler(svc, summaries)

	req := httptest.NewRequest(http.MethodGet, "/v1/diet-progress?diet_plan_assignment_id="+assignmentID.String(), nil)
	rec := httptest.NewRecorder()
	handler.HandleGet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var dto ProgressSummaryDTO
	if err := json.NewDecoder(rec.Body).Decode(&dto); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dto.TotalDays != 3 || dto.CompletedDays != 2 {
		t.Errorf("dto = %+v, want 3 days / 2 completed", dto)
	}
	if summaries.upsertCalls != 1 {
		t.Errorf("upsert calls = %d, want 1 (cold cache fill)", summaries.upsertCalls)
	}

	// Warm cache: second read serves the stored summary.
	rec = httptest.NewRecorder()
	handler.HandleGet(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("second status = %d", rec.Code)
	}
	if summaries.upsertCalls != 1 {
		t.Errorf("upsert calls = %d, want still 1", summaries.upsertCalls)
	}
}

func TestHandleGetRequiresAssignmentID(t *testing.T) {
	svc, _, _, summaries, _ := newDeciderFixture(3, nil)
	handler := NewHandler(svc, summaries)

	rec := httptest.NewRecorder()
	handler.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/v1/diet-progress", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/v1/diet-progress?diet_plan_assignment_id=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
