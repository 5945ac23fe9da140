package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
)

// HistoryMemoryStorage implements CustomMealHistoryStorage.
type HistoryMemoryStorage struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]storage.CustomMealHistoryEntry
}

func NewHistoryMemoryStorage() *HistoryMemoryStorage {
	return &HistoryMemoryStorage{
		entries: make(map[uuid.UUID]storage.CustomMealHistoryEntry),
	}
}

func (s *HistoryMemoryStorage) UpsertEntry(ctx context.Context, e *storage.CustomMealHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Dedup key: client + name + meal type + exact macro values.
	for id, existing := range s.entries {
		if existing.ClientID == e.ClientID &&
			existing.Name == e.Name &&
			existing.MealType == e.MealType &&
			existing.Calories == e.Calories &&
			existing.Protein == e.Protein &&
			existing.Carbs == e.Carbs &&
			existing.Fat == e.Fat {
			existing.UsageCount++
			existing.LastUsed = e.LastUsed
			s.entries[id] = existing
			*e = existing
			return nil
		}
	}

	s.entries[e.ID] = *e
	return nil
}

func (s *HistoryMemoryStorage) ListEntries(ctx context.Context, ownerUserID string, clientID uuid.UUID, limit int) ([]storage.CustomMealHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.CustomMealHistoryEntry
	for _, e := range s.entries {
		if e.OwnerUserID == ownerUserID && e.ClientID == clientID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LastUsed.After(result[j].LastUsed) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
