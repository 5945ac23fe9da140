package reports

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/fitcoach/diet-hub/internal/blob"
	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrInvalidFormat      = fmt.Errorf("invalid format")
	ErrAssignmentNotFound = fmt.Errorf("diet plan assignment not found")
	ErrReportNotFound     = fmt.Errorf("report not found")
)

// Service owns report generation and lifecycle. With a nil blob store it
// runs in memory mode: report bytes live on the metadata record.
type Service struct {
	reports    storage.ReportsStorage
	generator  *Generator
	blobStore  blob.Store
	presignTTL int
	memoryMode bool
}

func NewService(reports storage.ReportsStorage, generator *Generator, blobStore blob.Store, presignTTL int) *Service {
	return &Service{
		reports:    reports,
		generator:  generator,
		blobStore:  blobStore,
		presignTTL: presignTTL,
		memoryMode: blobStore == nil,
	}
}

// CreateReport generates and stores a new report.
func (s *Service) CreateReport(ctx context.Context, ownerUserID string, req CreateReportRequest) (*storage.ReportMeta, error) {
	if req.Format != FormatPDF && req.Format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	data, err := s.generator.GenerateReport(ctx, req.AssignmentID, req.Format)
	if err != nil {
		if err == ErrAssignmentNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("generate report: %w", err)
	}

	report := &storage.ReportMeta{
		ID:           uuid.New(),
		OwnerUserID:  ownerUserID,
		AssignmentID: req.AssignmentID,
		Format:       req.Format,
		SizeBytes:    int64(len(data)),
		Status:       StatusReady,
	}

	if s.memoryMode {
		report.Data = data
	} else {
		objectKey := fmt.Sprintf("reports/%s/%s.%s", req.AssignmentID, report.ID, req.Format)
		if _, err := s.blobStore.PutObject(ctx, objectKey, data, contentTypeFor(req.Format)); err != nil {
			return nil, fmt.Errorf("upload report: %w", err)
		}
		report.ObjectKey = &objectKey
	}

	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("save report metadata: %w", err)
	}
	return report, nil
}

// GetReport returns report metadata scoped to the owner.
func (s *Service) GetReport(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.ReportMeta, error) {
	meta, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return nil, ErrReportNotFound
	}
	if meta.OwnerUserID != ownerUserID {
		return nil, ErrReportNotFound
	}
	return meta, nil
}

// ListReports returns the owner's reports, newest first.
func (s *Service) ListReports(ctx context.Context, ownerUserID string, limit, offset int) ([]storage.ReportMeta, error) {
	metas, err := s.reports.ListReports(ctx, ownerUserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return metas, nil
}

// DeleteReport removes metadata and, in S3 mode, the stored object.
// Object deletion is best effort; metadata removal wins.
func (s *Service) DeleteReport(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	meta, err := s.GetReport(ctx, ownerUserID, id)
	if err != nil {
		return err
	}

	if !s.memoryMode && meta.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); err != nil {
			log.Printf("WARN reports: delete blob object failed: %v", err)
		}
	}

	if err := s.reports.DeleteReport(ctx, id); err != nil {
		return fmt.Errorf("delete report metadata: %w", err)
	}
	return nil
}

// DownloadURL returns the URL clients fetch the report from. Memory mode
// points at the direct download endpoint; S3 mode returns a presigned URL.
func (s *Service) DownloadURL(ctx context.Context, meta *storage.ReportMeta, baseURL string) (string, error) {
	if s.memoryMode {
		return fmt.Sprintf("%s/v1/reports/%s/download", strings.TrimSuffix(baseURL, "/"), meta.ID), nil
	}
	if meta.ObjectKey == nil {
		return "", fmt.Errorf("report %s has no object key", meta.ID)
	}
	url, err := s.blobStore.PresignGet(ctx, *meta.ObjectKey, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign report download: %w", err)
	}
	return url, nil
}

// ReportData returns the raw bytes for direct download.
func (s *Service) ReportData(ctx context.Context, ownerUserID string, id uuid.UUID) ([]byte, string, error) {
	meta, err := s.GetReport(ctx, ownerUserID, id)
	if err != nil {
		return nil, "", err
	}

	if s.memoryMode {
		return meta.Data, contentTypeFor(meta.Format), nil
	}

	if meta.ObjectKey == nil {
		return nil, "", fmt.Errorf("report %s has no object key", meta.ID)
	}
	data, err := s.blobStore.GetObject(ctx, *meta.ObjectKey)
	if err != nil {
		return nil, "", fmt.Errorf("fetch report object: %w", err)
	}
	return data, contentTypeFor(meta.Format), nil
}

func contentTypeFor(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}
