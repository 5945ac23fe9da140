package memory

import (
	"context"
	"sync"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
)

// PlansMemoryStorage implements NutritionPlansStorage.
type PlansMemoryStorage struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]storage.NutritionPlan
}

func NewPlansMemoryStorage() *PlansMemoryStorage {
	return &PlansMemoryStorage{
		plans: make(map[uuid.UUID]storage.NutritionPlan),
	}
}

func (s *PlansMemoryStorage) GetPlan(ctx context.Context, id uuid.UUID) (*storage.NutritionPlan, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (s *PlansMemoryStorage) CreatePlan(ctx context.Context, plan *storage.NutritionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans[plan.ID] = *plan
	return nil
}
