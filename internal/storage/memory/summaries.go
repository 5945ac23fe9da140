package memory

import (
	"context"
	"sync"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
)

// SummariesMemoryStorage implements ProgressSummariesStorage.
type SummariesMemoryStorage struct {
	mu        sync.RWMutex
	summaries map[uuid.UUID]storage.ProgressSummary // key: assignment_id
}

func NewSummariesMemoryStorage() *SummariesMemoryStorage {
	return &SummariesMemoryStorage{
		summaries: make(map[uuid.UUID]storage.ProgressSummary),
	}
}

func (s *SummariesMemoryStorage) GetSummary(ctx context.Context, assignmentID uuid.UUID) (*storage.ProgressSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[assignmentID]
	if !ok {
		return nil, false, nil
	}
	return &summary, true, nil
}

func (s *SummariesMemoryStorage) UpsertSummary(ctx context.Context, summary *storage.ProgressSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Keep the original row identity and creation time on overwrite.
	if existing, ok := s.summaries[summary.AssignmentID]; ok {
		summary.ID = existing.ID
		summary.CreatedAt = existing.CreatedAt
	}
	s.summaries[summary.AssignmentID] = *summary
	return nil
}
