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

// TrackingMemoryStorage holds assignments, daily logs, meal logs and snack
// logs under one mutex so ActivatePlan applies as a single atomic step,
// mirroring the transactional write of the postgres backend.
type TrackingMemoryStorage struct {
	mu          sync.RWMutex
	assignments map[uuid.UUID]storage.PlanAssignment
	dailyLogs   map[uuid.UUID]storage.DailyLog
	mealLogs    map[uuid.UUID]storage.MealLog
	snackLogs   map[uuid.UUID]storage.SnackLog
}

func NewTrackingMemoryStorage() *TrackingMemoryStorage {
	return &TrackingMemoryStorage{
		assignments: make(map[uuid.UUID]storage.PlanAssignment),
		dailyLogs:   make(map[uuid.UUID]storage.DailyLog),
		mealLogs:    make(map[uuid.UUID]storage.MealLog),
		snackLogs:   make(map[uuid.UUID]storage.SnackLog),
	}
}

// ---------- PlanAssignmentsStorage ----------

func (s *TrackingMemoryStorage) GetAssignment(ctx context.Context, id uuid.UUID) (*storage.PlanAssignment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assignments[id]
	if !ok {
		return nil, false, nil
	}
	return &a, true, nil
}

func (s *TrackingMemoryStorage) GetActiveAssignment(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*storage.PlanAssignment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.assignments {
		if a.OwnerUserID == ownerUserID && a.ClientID == clientID && a.Status == storage.AssignmentStatusActive {
			found := a
			return &found, true, nil
		}
	}
	return nil, false, nil
}

func (s *TrackingMemoryStorage) CreateAssignment(ctx context.Context, a *storage.PlanAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignments[a.ID] = *a
	return nil
}

func (s *TrackingMemoryStorage) UpdateAssignment(ctx context.Context, a *storage.PlanAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assignments[a.ID]; !ok {
		return fmt.Errorf("assignment %s not found", a.ID)
	}
	s.assignments[a.ID] = *a
	return nil
}

func (s *TrackingMemoryStorage) ActivatePlan(ctx context.Context, assignmentID uuid.UUID, activation storage.PlanActivation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[assignmentID]
	if !ok {
		return fmt.Errorf("assignment %s not found", assignmentID)
	}

	now := time.Now().UTC()
	startDate := activation.StartDate
	endDate := activation.EndDate
	actualStart := activation.ActualStartDate

	a.Status = storage.AssignmentStatusActive
	a.StartDate = &startDate
	a.EndDate = &endDate
	a.ActualStartDate = &actualStart
	a.TotalDays = activation.TotalDays
	a.UpdatedAt = now
	s.assignments[assignmentID] = a

	for _, seed := range activation.Days {
		dl := storage.DailyLog{
			ID:             uuid.New(),
			AssignmentID:   assignmentID,
			Date:           seed.Date,
			DayNumber:      seed.DayNumber,
			TargetCalories: seed.TargetCalories,
			TargetProtein:  seed.TargetProtein,
			TargetCarbs:    seed.TargetCarbs,
			TargetFat:      seed.TargetFat,
			TotalMeals:     len(seed.Meals),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		s.dailyLogs[dl.ID] = dl

		for _, ms := range seed.Meals {
			ml := storage.MealLog{
				ID:             uuid.New(),
				DailyLogID:     dl.ID,
				MealName:       ms.MealName,
				MealTime:       ms.MealTime,
				SelectedOption: ms.SelectedOption,
				Calories:       ms.Calories,
				Protein:        ms.Protein,
				Carbs:          ms.Carbs,
				Fat:            ms.Fat,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			s.mealLogs[ml.ID] = ml
		}
	}
	return nil
}

// ---------- DailyLogsStorage ----------

func (s *TrackingMemoryStorage) GetDailyLog(ctx context.Context, id uuid.UUID) (*storage.DailyLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dl, ok := s.dailyLogs[id]
	if !ok {
		return nil, false, nil
	}
	return &dl, true, nil
}

func (s *TrackingMemoryStorage) GetDailyLogByDate(ctx context.Context, assignmentID uuid.UUID, date time.Time) (*storage.DailyLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, dl := range s.dailyLogs {
		if dl.AssignmentID == assignmentID && dl.Date.Equal(date) {
			found := dl
			return &found, true, nil
		}
	}
	return nil, false, nil
}

func (s *TrackingMemoryStorage) ListDailyLogs(ctx context.Context, assignmentID uuid.UUID) ([]storage.DailyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.DailyLog
	for _, dl := range s.dailyLogs {
		if dl.AssignmentID == assignmentID {
			result = append(result, dl)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (s *TrackingMemoryStorage) CountDailyLogs(ctx context.Context, assignmentID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, dl := range s.dailyLogs {
		if dl.AssignmentID == assignmentID {
			count++
		}
	}
	return count, nil
}

func (s *TrackingMemoryStorage) CreateDailyLog(ctx context.Context, dl *storage.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.dailyLogs {
		if existing.AssignmentID == dl.AssignmentID && existing.Date.Equal(dl.Date) {
			return fmt.Errorf("daily log already exists for %s", dl.Date.Format("2006-01-02"))
		}
	}
	s.dailyLogs[dl.ID] = *dl
	return nil
}

func (s *TrackingMemoryStorage) UpdateDailyLog(ctx context.Context, dl *storage.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dailyLogs[dl.ID]; !ok {
		return fmt.Errorf("daily log %s not found", dl.ID)
	}
	s.dailyLogs[dl.ID] = *dl
	return nil
}

// ---------- MealLogsStorage ----------

func (s *TrackingMemoryStorage) GetMealLog(ctx context.Context, id uuid.UUID) (*storage.MealLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ml, ok := s.mealLogs[id]
	if !ok {
		return nil, false, nil
	}
	return &ml, true, nil
}

func (s *TrackingMemoryStorage) ListMealLogs(ctx context.Context, dailyLogID uuid.UUID) ([]storage.MealLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.MealLog
	for _, ml := range s.mealLogs {
		if ml.DailyLogID == dailyLogID {
			result = append(result, ml)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].MealTime != result[j].MealTime {
			return result[i].MealTime < result[j].MealTime
		}
		return result[i].MealName < result[j].MealName
	})
	return result, nil
}

func (s *TrackingMemoryStorage) UpdateMealLog(ctx context.Context, ml *storage.MealLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mealLogs[ml.ID]; !ok {
		return fmt.Errorf("meal log %s not found", ml.ID)
	}
	s.mealLogs[ml.ID] = *ml
	return nil
}

// ---------- SnackLogsStorage ----------

func (s *TrackingMemoryStorage) GetSnackLog(ctx context.Context, id uuid.UUID) (*storage.SnackLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.snackLogs[id]
	if !ok {
		return nil, false, nil
	}
	return &sl, true, nil
}

func (s *TrackingMemoryStorage) ListSnackLogs(ctx context.Context, dailyLogID uuid.UUID) ([]storage.SnackLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.SnackLog
	for _, sl := range s.snackLogs {
		if sl.DailyLogID == dailyLogID {
			result = append(result, sl)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LoggedAt.Before(result[j].LoggedAt) })
	return result, nil
}

func (s *TrackingMemoryStorage) CreateSnackLog(ctx context.Context, sl *storage.SnackLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snackLogs[sl.ID] = *sl
	return nil
}

func (s *TrackingMemoryStorage) DeleteSnackLog(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snackLogs[id]; !ok {
		return fmt.Errorf("snack log %s not found", id)
	}
	delete(s.snackLogs, id)
	return nil
}
