package dietprogress

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for diet progress summaries.
type Handler struct {
	service   *Service
	summaries storage.ProgressSummariesStorage
}

// NewHandler creates a new diet progress handler.
func NewHandler(service *Service, summaries storage.ProgressSummariesStorage) *Handler {
	return &Handler{service: service, summaries: summaries}
}

// HandleGet handles GET /v1/diet-progress?diet_plan_assignment_id=
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	assignmentIDStr := r.URL.Query().Get("diet_plan_assignment_id")
	if assignmentIDStr == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "diet_plan_assignment_id is required")
		return
	}
	assignmentID, err := uuid.Parse(assignmentIDStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "diet_plan_assignment_id must be a valid UUID")
		return
	}

	summary, found, err := h.summaries.GetSummary(ctx, assignmentID)
	if err != nil {
		log.Printf("ERROR dietprogress: get summary: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get progress summary")
		return
	}

	if !found {
		// Cold cache: compute and persist on first read.
		summary, err = h.service.UpdateProgressSummary(ctx, assignmentID)
		if err != nil {
			log.Printf("ERROR dietprogress: compute summary: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to compute progress summary")
			return
		}
	}

	writeJSON(w, http.StatusOK, ToDTO(summary))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
