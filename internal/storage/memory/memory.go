package memory

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("client not found")
)

// MemoryStorage is the in-memory implementation of Storage, used when no
// DATABASE_URL is configured.
type MemoryStorage struct {
	mu        sync.RWMutex
	clients   map[uuid.UUID]storage.Client
	plans     *PlansMemoryStorage
	tracking  *TrackingMemoryStorage
	history   *HistoryMemoryStorage
	summaries *SummariesMemoryStorage
	reports   *ReportsMemoryStorage
}

// New creates a MemoryStorage seeded with a default client, a demo plan and
// an assigned (not yet started) plan assignment so the API is usable out of
// the box. The seeded IDs are logged at startup.
func New() *MemoryStorage {
	clientID := uuid.New()
	client := storage.Client{
		ID:          clientID,
		OwnerUserID: "default",
		Name:        "Demo Client",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	m := &MemoryStorage{
		clients: map[uuid.UUID]storage.Client{
			clientID: client,
		},
		plans:     NewPlansMemoryStorage(),
		tracking:  NewTrackingMemoryStorage(),
		history:   NewHistoryMemoryStorage(),
		summaries: NewSummariesMemoryStorage(),
		reports:   NewReportsMemoryStorage(),
	}
	m.seedDemoPlan(clientID)
	return m
}

// seedDemoPlan stores a one-week demo plan and assigns it to the given
// client. The assignment stays in "assigned" status until a start-plan
// action activates it.
func (m *MemoryStorage) seedDemoPlan(clientID uuid.UUID) {
	ctx := context.Background()
	now := time.Now().UTC()

	mealNames := []struct {
		name string
		time string
	}{
		{"Breakfast", "08:00"},
		{"Lunch", "13:00"},
		{"Dinner", "19:00"},
	}

	days := make([]storage.PlanDay, 0, 7)
	for dayNum := 1; dayNum <= 7; dayNum++ {
		meals := make([]storage.PlanMeal, 0, len(mealNames))
		for _, mn := range mealNames {
			meals = append(meals, storage.PlanMeal{
				MealName: mn.name,
				MealTime: mn.time,
				Options: []storage.MealOption{
					{OptionName: "Standard", Calories: 650, Protein: 40, Carbs: 60, Fat: 22},
					{OptionName: "Light", Calories: 500, Protein: 35, Carbs: 45, Fat: 15},
				},
			})
		}
		days = append(days, storage.PlanDay{DayNumber: dayNum, Meals: meals})
	}

	plan := &storage.NutritionPlan{
		ID:          uuid.New(),
		OwnerUserID: "default",
		Title:       "Demo Week Plan",
		Description: "Seeded 7-day plan for local development",

		TargetCalories: 1950,
		TargetProtein:  120,
		TargetCarbs:    180,
		TargetFat:      66,

		Days: days,

		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.plans.CreatePlan(ctx, plan); err != nil {
		log.Printf("WARN storage: seed demo plan: %v", err)
		return
	}

	assignment := &storage.PlanAssignment{
		ID:          uuid.New(),
		OwnerUserID: "default",
		ClientID:    clientID,
		PlanID:      plan.ID,
		Status:      storage.AssignmentStatusAssigned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.tracking.CreateAssignment(ctx, assignment); err != nil {
		log.Printf("WARN storage: seed demo assignment: %v", err)
		return
	}

	log.Printf("INFO storage: seeded demo data client=%s plan=%s assignment=%s", clientID, plan.ID, assignment.ID)
}

func (m *MemoryStorage) ListClients(ctx context.Context, ownerUserID string) ([]storage.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]storage.Client, 0, len(m.clients))
	for _, c := range m.clients {
		if c.OwnerUserID == ownerUserID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *MemoryStorage) GetClient(ctx context.Context, id uuid.UUID) (*storage.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStorage) CreateClient(ctx context.Context, client *storage.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients[client.ID] = *client
	return nil
}

func (m *MemoryStorage) DeleteClient(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[id]; !ok {
		return ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) GetPlansStorage() *PlansMemoryStorage {
	return m.plans
}

func (m *MemoryStorage) GetTrackingStorage() *TrackingMemoryStorage {
	return m.tracking
}

func (m *MemoryStorage) GetHistoryStorage() *HistoryMemoryStorage {
	return m.history
}

func (m *MemoryStorage) GetSummariesStorage() *SummariesMemoryStorage {
	return m.summaries
}

func (m *MemoryStorage) GetReportsStorage() *ReportsMemoryStorage {
	return m.reports
}
