package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
)

// ReportsMemoryStorage implements ReportsStorage. Report bytes live in the
// Data field here; the postgres backend keeps them in the blob store.
type ReportsMemoryStorage struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*storage.ReportMeta
}

func NewReportsMemoryStorage() *ReportsMemoryStorage {
	return &ReportsMemoryStorage{
		reports: make(map[uuid.UUID]*storage.ReportMeta),
	}
}

func (s *ReportsMemoryStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}

	now := time.Now()
	report.CreatedAt = now
	report.UpdatedAt = now

	stored := *report
	s.reports[report.ID] = &stored
	return nil
}

func (s *ReportsMemoryStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, exists := s.reports[id]
	if !exists {
		return nil, fmt.Errorf("report not found")
	}

	copied := *report
	return &copied, nil
}

func (s *ReportsMemoryStorage) ListReports(ctx context.Context, ownerUserID string, limit, offset int) ([]storage.ReportMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.ReportMeta
	for _, r := range s.reports {
		if r.OwnerUserID == ownerUserID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })

	if offset >= len(result) {
		return []storage.ReportMeta{}, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *ReportsMemoryStorage) DeleteReport(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[id]; !exists {
		return fmt.Errorf("report not found")
	}
	delete(s.reports, id)
	return nil
}
