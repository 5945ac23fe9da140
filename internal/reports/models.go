package reports

import (
	"time"

	"github.com/google/uuid"
)

// CreateReportRequest asks for a progress report over one plan assignment.
type CreateReportRequest struct {
	AssignmentID uuid.UUID `json:"diet_plan_assignment_id"`
	Format       string    `json:"format"` // "pdf" or "csv"
}

// ReportDTO is the response representation of a report.
type ReportDTO struct {
	ID           uuid.UUID `json:"id"`
	AssignmentID uuid.UUID `json:"diet_plan_assignment_id"`
	Format       string    `json:"format"`
	DownloadURL  string    `json:"download_url"`
	SizeBytes    int64     `json:"size_bytes"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReportsResponse is the list response.
type ReportsResponse struct {
	Reports []ReportDTO `json:"reports"`
}

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	StatusReady  = "ready"
	StatusFailed = "failed"
)
