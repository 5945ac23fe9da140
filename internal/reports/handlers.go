package reports

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/fitcoach/diet-hub/internal/userctx"
	"github.com/google/uuid"
)

// Handlers exposes report endpoints.
type Handlers struct {
	service     *Service
	maxPageSize int
}

func NewHandlers(service *Service, maxPageSize int) *Handlers {
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &Handlers{service: service, maxPageSize: maxPageSize}
}

// HandleCreate handles POST /v1/reports.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
		return
	}
	if req.AssignmentID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "diet_plan_assignment_id is required")
		return
	}

	owner := userctx.OwnerID(r.Context())
	report, err := h.service.CreateReport(r.Context(), owner, req)
	if err != nil {
		switch err {
		case ErrInvalidFormat:
			writeError(w, http.StatusBadRequest, "invalid_format", "Format must be 'pdf' or 'csv'")
		case ErrAssignmentNotFound:
			writeError(w, http.StatusNotFound, "not_found", "Diet plan assignment not found")
		default:
			log.Printf("ERROR reports: create: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create report")
		}
		return
	}

	dto, err := h.toDTO(r, report)
	if err != nil {
		log.Printf("ERROR reports: download url: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create report")
		return
	}

	writeJSON(w, http.StatusCreated, dto)
}

// HandleList handles GET /v1/reports.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > h.maxPageSize {
		limit = h.maxPageSize
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if o, err := strconv.Atoi(s); err == nil && o >= 0 {
			offset = o
		}
	}

	owner := userctx.OwnerID(r.Context())
	metas, err := h.service.ListReports(r.Context(), owner, limit, offset)
	if err != nil {
		log.Printf("ERROR reports: list: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list reports")
		return
	}

	dtos := make([]ReportDTO, 0, len(metas))
	for i := range metas {
		dto, err := h.toDTO(r, &metas[i])
		if err != nil {
			log.Printf("WARN reports: download url for %s: %v", metas[i].ID, err)
			continue
		}
		dtos = append(dtos, dto)
	}

	writeJSON(w, http.StatusOK, ReportsResponse{Reports: dtos})
}

// HandleDownload handles GET /v1/reports/{id}/download.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid report ID")
		return
	}

	owner := userctx.OwnerID(r.Context())
	if !h.service.memoryMode {
		meta, err := h.service.GetReport(r.Context(), owner, id)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found", "Report not found")
			return
		}
		url, err := h.service.DownloadURL(r.Context(), meta, baseURL(r))
		if err != nil {
			log.Printf("ERROR reports: download url: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate download URL")
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	data, contentType, err := h.service.ReportData(r.Context(), owner, id)
	if err != nil {
		if err == ErrReportNotFound {
			writeError(w, http.StatusNotFound, "not_found", "Report not found")
			return
		}
		log.Printf("ERROR reports: download: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to download report")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report_%s", id))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// HandleDelete handles DELETE /v1/reports/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid report ID")
		return
	}

	owner := userctx.OwnerID(r.Context())
	if err := h.service.DeleteReport(r.Context(), owner, id); err != nil {
		if err == ErrReportNotFound {
			writeError(w, http.StatusNotFound, "not_found", "Report not found")
			return
		}
		log.Printf("ERROR reports: delete: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete report")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) toDTO(r *http.Request, meta *storage.ReportMeta) (ReportDTO, error) {
	url, err := h.service.DownloadURL(r.Context(), meta, baseURL(r))
	if err != nil {
		return ReportDTO{}, err
	}
	return ReportDTO{
		ID:           meta.ID,
		AssignmentID: meta.AssignmentID,
		Format:       meta.Format,
		DownloadURL:  url,
		SizeBytes:    meta.SizeBytes,
		Status:       meta.Status,
		CreatedAt:    meta.CreatedAt,
	}, nil
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

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
