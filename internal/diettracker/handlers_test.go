package diettracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/fitcoach/diet-hub/internal/userctx"
	"github.com/google/uuid"
)

func TestHandleGetSummary(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, testNow)
	handler := NewHandler(svc)
	plan := seedPlan(store, 3)
	assignment := seedAssignment(store, plan.ID, storage.AssignmentStatusAssigned)
	if _, err := svc.StartPlan(context.Background(), "default", assignment.ID); err != nil {
		t.Fatalf("StartPlan: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/diet-tracker?client_id="+assignment.ClientID.String(), nil)
	req = req.WithContext(userctx.WithUserID(req.Context(), "default"))
	rec := httptest.NewRecorder()
	handler.HandleGet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp TrackerSummaryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Assignment == nil || resp.Assignment.Status != storage.AssignmentStatusActive {
		t.Errorf("assignment = %+v, want active", resp.Assignment)
	}
	if len(resp.DailyLogs) != 3 {
		t.Errorf("daily_logs = %d, want 3", len(resp.DailyLogs))
	}
}

func TestHandleGetRequiresClientID(t *testing.T) {
	handler := NewHandler(newTestService(newMockStore(), testNow))

	req := httptest.NewRequest(http.MethodGet, "/v1/diet-tracker", nil)
	rec := httptest.NewRecorder()
	handler.HandleGet(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlePostCompleteMealPastDay(t *testing.T) {
	store := newMockStore()
	plan := seedPlan(store, 3)
	assignment := seedAssignment(store, plan.ID, storage.AssignmentStatusAssigned)

	startSvc := newTestService(store, testNow.AddDate(0, 0, -1))
	if _, err := startSvc.StartPlan(context.Background(), "default", assignment.ID); err != nil {
		t.Fatalf("StartPlan: %v", err)
	}
	handler := NewHandler(newTestService(store, testNow))

	yesterday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	dl, _, _ := store.GetDailyLogByDate(context.Background(), assignment.ID, yesterday)
	meals, _ := store.ListMealLogs(context.Background(), dl.ID)

	body := fmt.Sprintf(`{"action":"complete-meal","meal_log_id":%q}`, meals[0].ID)
	req := httptest.NewRequest(http.MethodPost, "/v1/diet-tracker", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	handler.HandlePost(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "day_not_editable" {
		t.Errorf("code = %s, want day_not_editable", resp.Error.Code)
	}
}

func TestHandlePostStartPlan(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, testNow)
	handler := NewHandler(svc)
	plan := seedPlan(store, 3)
	assignment := seedAssignment(store, plan.ID, storage.AssignmentStatusAssigned)

	body := fmt.Sprintf(`{"action":"start-plan","diet_plan_assignment_id":%q}`, assignment.ID)
	req := httptest.NewRequest(http.MethodPost, "/v1/diet-tracker", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	handler.HandlePost(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if store.assignments[assignment.ID].Status != storage.AssignmentStatusActive {
		t.Error("assignment not activated")
	}

	// Starting again must fail with 400, not silently re-materialize.
	req = httptest.NewRequest(http.MethodPost, "/v1/diet-tracker", bytes.NewReader([]byte(body)))
	rec = httptest.NewRecorder()
	handler.HandlePost(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second start status = %d, want 400", rec.Code)
	}
}

func TestHandlePostUnknownAction(t *testing.T) {
	handler := NewHandler(newTestService(newMockStore(), testNow))

	req := httptest.NewRequest(http.MethodPost, "/v1/diet-tracker", bytes.NewReader([]byte(`{"action":"reticulate"}`)))
	rec := httptest.NewRecorder()
	handler.HandlePost(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleGetMealsNotFound(t *testing.T) {
	handler := NewHandler(newTestService(newMockStore(), testNow))

	url := "/v1/diet-tracker/meals?diet_plan_assignment_id=" + uuid.NewString() + "&date=2025-06-10"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	handler.HandleGetMeals(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlePostMealsValidation(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, testNow)
	handler := NewHandler(svc)
	plan := seedPlan(store, 3)
	assignment := seedAssignment(store, plan.ID, storage.AssignmentStatusActive)

	// Calories out of range.
	body := fmt.Sprintf(`{"diet_plan_assignment_id":%q,"meal":{"name":"Mystery","calories":50000}}`, assignment.ID)
	req := httptest.NewRequest(http.MethodPost, "/v1/diet-tracker/meals", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	handler.HandlePostMeals(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// Valid snack for today.
	body = fmt.Sprintf(`{"diet_plan_assignment_id":%q,"meal":{"name":"Apple","calories":95,"protein":0.5,"carbs":25,"fat":0.3}}`, assignment.ID)
	req = httptest.NewRequest(http.MethodPost, "/v1/diet-tracker/meals", bytes.NewReader([]byte(body)))
	req = req.WithContext(userctx.WithUserID(req.Context(), "default"))
	rec = httptest.NewRecorder()
	handler.HandlePostMeals(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Snack SnackLogDTO `json:"snack"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Snack.Name != "Apple" || resp.Snack.LoggedTime != "12:30" {
		t.Errorf("snack = %+v, want Apple at 12:30", resp.Snack)
	}
}

func TestHandleDeleteMeals(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, testNow)
	handler := NewHandler(svc)
	plan := seedPlan(store, 3)
	assignment := seedAssignment(store, plan.ID, storage.AssignmentStatusActive)

	dl := storage.DailyLog{ID: uuid.New(), AssignmentID: assignment.ID, Date: DateOnly(testNow), DayNumber: 1}
	store.dailyLogs[dl.ID] = dl
	snack := storage.SnackLog{ID: uuid.New(), DailyLogID: dl.ID, Name: "Apple", Calories: 95}
	store.snackLogs[snack.ID] = snack

	req := httptest.NewRequest(http.MethodDelete, "/v1/diet-tracker/meals?snack_log_id="+snack.ID.String(), nil)
	rec := httptest.NewRecorder()
	handler.HandleDeleteMeals(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(store.snackLogs) != 0 {
		t.Error("snack still present")
	}

	// Deleting again is a 404.
	rec = httptest.NewRecorder()
	handler.HandleDeleteMeals(rec, httptest.NewRequest(http.MethodDelete, "/v1/diet-tracker/meals?snack_log_id="+snack.ID.String(), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleGetHistory(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, testNow)
	handler := NewHandler(svc)
	plan := seedPlan(store, 3)
	assignment := seedAssignment(store, plan.ID, storage.AssignmentStatusActive)

	_, _, err := svc.LogCustomMeal(context.Background(), "default", assignment.ID, "", CustomMealInput{
		Name: "Apple", Calories: 95, Protein: 0.5, Carbs: 25, Fat: 0.5,
	})
	if err != nil {
		t.Fatalf("LogCustomMeal: %v", err)
	}

	url := "/v1/diet-tracker/history?client_id=" + assignment.ClientID.String()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req = req.WithContext(userctx.WithUserID(req.Context(), "default"))
	rec := httptest.NewRecorder()
	handler.HandleGetHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		History []CustomMealHistoryDTO `json:"history"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.History) != 1 || resp.History[0].Name != "Apple" || resp.History[0].UsageCount != 1 {
		t.Errorf("history = %+v, want single Apple entry", resp.History)
	}

	// Another trainer's token sees an empty history for the same client.
	req = httptest.NewRequest(http.MethodGet, url, nil)
	req = req.WithContext(userctx.WithUserID(req.Context(), "other-trainer"))
	rec = httptest.NewRecorder()
	handler.HandleGetHistory(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp.History = nil
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.History) != 0 {
		t.Errorf("history = %+v, want empty for foreign owner", resp.History)
	}
}

func TestHandleGetHistoryRejectsBadLimit(t *testing.T) {
	handler := NewHandler(newTestService(newMockStore(), testNow))

	url := "/v1/diet-tracker/history?client_id=" + uuid.NewString() + "&limit=0"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	handler.HandleGetHistory(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
