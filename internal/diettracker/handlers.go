package diettracker

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/fitcoach/diet-hub/internal/userctx"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the diet tracker.
type Handler struct {
	service *Service
}

// NewHandler creates a new diet tracker handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGet handles GET /v1/diet-tracker?client_id=&action=
// action "" returns the tracker summary, "stats" the live plan statistics,
// "next-meal" the upcoming meal.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerUserID := userctx.OwnerID(ctx)

	clientID, err := uuid.Parse(r.URL.Query().Get("client_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "client_id must be a valid UUID")
		return
	}

	switch r.URL.Query().Get("action") {
	case "", "summary":
		summary, err := h.service.GetTrackerSummary(ctx, ownerUserID, clientID)
		if err != nil {
			h.serviceError(w, "get tracker summary", err)
			return
		}
		writeJSON(w, http.StatusOK, summary)

	case "stats":
		stats, err := h.service.GetStats(ctx, ownerUserID, clientID)
		if err != nil {
			h.serviceError(w, "get stats", err)
			return
		}
		writeJSON(w, http.StatusOK, stats)

	case "next-meal":
		meal, err := h.service.NextMeal(ctx, ownerUserID, clientID)
		if err != nil {
			h.serviceError(w, "get next meal", err)
			return
		}
		writeJSON(w, http.StatusOK, NextMealResponse{Meal: meal})

	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown action")
	}
}

// HandlePost handles POST /v1/diet-tracker. The action field dispatches to
// start-plan, complete-meal, uncomplete-meal, change-meal-option or log-meal.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerUserID := userctx.OwnerID(ctx)

	var req TrackerActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	switch req.Action {
	case "start-plan":
		assignmentID, ok := parseID(w, req.AssignmentID, "diet_plan_assignment_id")
		if !ok {
			return
		}
		assignment, err := h.service.StartPlan(ctx, ownerUserID, assignmentID)
		if err != nil {
			h.serviceError(w, "start plan", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"assignment": assignment})

	case "complete-meal", "uncomplete-meal":
		mealLogID, ok := parseID(w, req.MealLogID, "meal_log_id")
		if !ok {
			return
		}
		meal, check, err := h.service.SetMealCompletion(ctx, ownerUserID, mealLogID, req.Action == "complete-meal")
		if err != nil {
			h.serviceError(w, "set meal completion", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"meal": meal, "plan": check})

	case "change-meal-option":
		mealLogID, ok := parseID(w, req.MealLogID, "meal_log_id")
		if !ok {
			return
		}
		if req.Option == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "option is required")
			return
		}
		if err := req.Option.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		meal, check, err := h.service.ChangeMealOption(ctx, ownerUserID, mealLogID, *req.Option)
		if err != nil {
			h.serviceError(w, "change meal option", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"meal": meal, "plan": check})

	case "log-meal":
		assignmentID, ok := parseID(w, req.AssignmentID, "diet_plan_assignment_id")
		if !ok {
			return
		}
		if req.Meal == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "meal is required")
			return
		}
		if err := req.Meal.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		snack, check, err := h.service.LogCustomMeal(ctx, ownerUserID, assignmentID, req.Date, *req.Meal)
		if err != nil {
			h.serviceError(w, "log custom meal", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"snack": snack, "plan": check})

	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown action")
	}
}

// HandleGetMeals handles GET /v1/diet-tracker/meals?diet_plan_assignment_id=&date=
func (h *Handler) HandleGetMeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerUserID := userctx.OwnerID(ctx)

	assignmentID, ok := parseID(w, r.URL.Query().Get("diet_plan_assignment_id"), "diet_plan_assignment_id")
	if !ok {
		return
	}
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "date is required")
		return
	}

	day, err := h.service.GetDay(ctx, ownerUserID, assignmentID, dateStr)
	if err != nil {
		h.serviceError(w, "get day", err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// HandlePostMeals handles POST /v1/diet-tracker/meals (log a custom meal).
func (h *Handler) HandlePostMeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerUserID := userctx.OwnerID(ctx)

	var req LogMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	assignmentID, ok := parseID(w, req.AssignmentID, "diet_plan_assignment_id")
	if !ok {
		return
	}

	snack, check, err := h.service.LogCustomMeal(ctx, ownerUserID, assignmentID, req.Date, req.Meal)
	if err != nil {
		h.serviceError(w, "log custom meal", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"snack": snack, "plan": check})
}

// HandlePatchMeals handles PATCH /v1/diet-tracker/meals (completion toggles
// and option changes).
func (h *Handler) HandlePatchMeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerUserID := userctx.OwnerID(ctx)

	var req MealsPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}
	mealLogID, ok := parseID(w, req.MealLogID, "meal_log_id")
	if !ok {
		return
	}

	switch req.Action {
	case "complete", "uncomplete":
		meal, check, err := h.service.SetMealCompletion(ctx, ownerUserID, mealLogID, req.Action == "complete")
		if err != nil {
			h.serviceError(w, "set meal completion", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"meal": meal, "plan": check})

	case "change-option":
		if req.Option == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "option is required")
			return
		}
		if err := req.Option.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		meal, check, err := h.service.ChangeMealOption(ctx, ownerUserID, mealLogID, *req.Option)
		if err != nil {
			h.serviceError(w, "change meal option", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"meal": meal, "plan": check})

	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown action")
	}
}

// HandleGetHistory handles GET /v1/diet-tracker/history?client_id=&limit=
// (reuse suggestions from previously logged custom meals).
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerUserID := userctx.OwnerID(ctx)

	clientID, ok := parseID(w, r.URL.Query().Get("client_id"), "client_id")
	if !ok {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		if v > 100 {
			v = 100
		}
		limit = v
	}

	entries, err := h.service.ListMealHistory(ctx, ownerUserID, clientID, limit)
	if err != nil {
		h.serviceError(w, "list meal history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

// HandleDeleteMeals handles DELETE /v1/diet-tracker/meals?snack_log_id=
func (h *Handler) HandleDeleteMeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerUserID := userctx.OwnerID(ctx)

	snackLogID, ok := parseID(w, r.URL.Query().Get("snack_log_id"), "snack_log_id")
	if !ok {
		return
	}

	check, err := h.service.DeleteSnackLog(ctx, ownerUserID, snackLogID)
	if err != nil {
		h.serviceError(w, "delete snack log", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "plan": check})
}

// serviceError maps service failures to HTTP responses. Day-eligibility
// rejections are typed, never matched on message text.
func (h *Handler) serviceError(w http.ResponseWriter, operation string, err error) {
	var dayErr *DayNotEditableError
	if errors.As(err, &dayErr) {
		writeError(w, http.StatusForbidden, "day_not_editable", dayErr.Error())
		return
	}

	switch {
	case errors.Is(err, ErrAssignmentNotFound),
		errors.Is(err, ErrPlanNotFound),
		errors.Is(err, ErrDailyLogNotFound),
		errors.Is(err, ErrMealLogNotFound),
		errors.Is(err, ErrSnackLogNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrPlanAlreadyStarted),
		errors.Is(err, ErrPlanTemplateEmpty),
		errors.Is(err, ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		log.Printf("ERROR diettracker: %s: %v", operation, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to "+operation)
	}
}

func parseID(w http.ResponseWriter, raw, field string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", field+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
