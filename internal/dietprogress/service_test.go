package dietprogress

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type mockAssignments struct {
	assignments map[uuid.UUID]storage.PlanAssignment
	updateCalls int
}

func newMockAssignments() *mockAssignments {
	return &mockAssignments{assignments: make(map[uuid.UUID]storage.PlanAssignment)}
}

func (m *mockAssignments) GetAssignment(ctx context.Context, id uuid.UUID) (*storage.PlanAssignment, bool, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, false, nil
	}
	return &a, true, nil
}

func (m *mockAssignments) GetActiveAssignment(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*storage.PlanAssignment, bool, error) {
	for _, a := range m.assignments {
		if a.OwnerUserID == ownerUserID && a.ClientID == clientID && a.Status == storage.AssignmentStatusActive {
			found := a
			return &found, true, nil
		}
	}
	return nil, false, nil
}

func (m *mockAssignments) CreateAssignment(ctx context.Context, a *storage.PlanAssignment) error {
	m.assignments[a.ID] = *a
	return nil
}

func (m *mockAssignments) UpdateAssignment(ctx context.Context, a *storage.PlanAssignment) error {
	m.updateCalls++
	m.assignments[a.ID] = *a
	return nil
}

func (m *mockAssignments) ActivatePlan(ctx context.Context, assignmentID uuid.UUID, activation storage.PlanActivation) error {
	return errors.New("not used")
}

type mockDailyLogs struct {
	logs map[uuid.UUID]storage.DailyLog
}

func newMockDailyLogs() *mockDailyLogs {
	return &mockDailyLogs{logs: make(map[uuid.UUID]storage.DailyLog)}
}

func (m *mockDailyLogs) GetDailyLog(ctx context.Context, id uuid.UUID) (*storage.DailyLog, bool, error) {
	dl, ok := m.logs[id]
	if !ok {
		return nil, false, nil
	}
	return &dl, true, nil
}

func (m *mockDailyLogs) GetDailyLogByDate(ctx context.Context, assignmentID uuid.UUID, date time.Time) (*storage.DailyLog, bool, error) {
	for _, dl := range m.logs {
		if dl.AssignmentID == assignmentID && dl.Date.Equal(date) {
			found := dl
			return &found, true, nil
		}
	}
	return nil, false, nil
}

func (m *mockDailyLogs) ListDailyLogs(ctx context.Context, assignmentID uuid.UUID) ([]storage.DailyLog, error) {
	var result []storage.DailyLog
	for _, dl := range m.logs {
		if dl.AssignmentID == assignmentID {
			result = append(result, dl)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockDailyLogs) CountDailyLogs(ctx context.Context, assignmentID uuid.UUID) (int, error) {
	count := 0
	for _, dl := range m.logs {
		if dl.AssignmentID == assignmentID {
			count++
		}
	}
	return count, nil
}

func (m *mockDailyLogs) CreateDailyLog(ctx context.Context, dl *storage.DailyLog) error {
	m.logs[dl.ID] = *dl
	return nil
}

func (m *mockDailyLogs) UpdateDailyLog(ctx context.Context, dl *storage.DailyLog) error {
	m.logs[dl.ID] = *dl
	return nil
}

type mockSummaries struct {
	summaries   map[uuid.UUID]storage.ProgressSummary
	upsertCalls int
}

func newMockSummaries() *mockSummaries {
	return &mockSummaries{summaries: make(map[uuid.UUID]storage.ProgressSummary)}
}

func (m *mockSummaries) GetSummary(ctx context.Context, assignmentID uuid.UUID) (*storage.ProgressSummary, bool, error) {
	s, ok := m.summaries[assignmentID]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (m *mockSummaries) UpsertSummary(ctx context.Context, s *storage.ProgressSummary) error {
	m.upsertCalls++
	m.summaries[s.AssignmentID] = *s
	return nil
}

var decideAt = time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)

func newDeciderFixture(totalDays int, rates []float64) (*Service, *mockAssignments, *mockDailyLogs, *mockSummaries, uuid.UUID) {
	assignments := newMockAssignments()
	dailyLogs := newMockDailyLogs()
	summaries := newMockSummaries()

	assignmentID := uuid.New()
	assignments.assignments[assignmentID] = storage.PlanAssignment{
		ID:          assignmentID,
		OwnerUserID: "default",
		ClientID:    uuid.New(),
		Status:      storage.AssignmentStatusActive,
		TotalDays:   totalDays,
	}
	for i, rate := range rates {
		dl := storage.DailyLog{
			ID:             uuid.New(),
			AssignmentID:   assignmentID,
			Date:           time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			DayNumber:      i + 1,
			CompletionRate: rate,
			IsCompleted:    rate >= CompletedDayThreshold,
		}
		dailyLogs.logs[dl.ID] = dl
	}

	svc := NewService(assignments, dailyLogs, summaries).WithClock(fixedClock{now: decideAt})
	return svc, assignments, dailyLogs, summaries, assignmentID
}

func TestCheckPlanCompletionInFlight(t *testing.T) {
	svc, assignments, _, summaries, assignmentID := newDeciderFixture(5, []float64{100, 100, 0})

	check, err := svc.CheckPlanCompletion(context.Background(), assignmentID)
	if err != nil {
		t.Fatalf("CheckPlanCompletion: %v", err)
	}
	if check.Completed || check.Status != storage.AssignmentStatusActive {
		t.Errorf("check = %+v, want active in-flight", check)
	}
	if check.CurrentDay != 3 || check.RemainingDays != 2 {
		t.Errorf("current/remaining = %d/%d, want 3/2", check.CurrentDay, check.RemainingDays)
	}
	if assignments.updateCalls != 0 {
		t.Error("assignment must not be touched while in flight")
	}
	// In-flight runs still refresh the summary cache.
	if summaries.upsertCalls != 1 {
		t.Errorf("upsert calls = %d, want 1", summaries.upsertCalls)
	}
}

func TestCheckPlanCompletionCompletes(t *testing.T) {
	svc, assignments, _, _, assignmentID := newDeciderFixture(3, []float64{100, 100, 100})

	check, err := svc.CheckPlanCompletion(context.Background(), assignmentID)
	if err != nil {
		t.Fatalf("CheckPlanCompletion: %v", err)
	}
	if !check.Completed || check.Status != storage.AssignmentStatusCompleted {
		t.Errorf("check = %+v, want completed", check)
	}
	if check.SuccessRate != 100 {
		t.Errorf("success_rate = %v, want 100", check.SuccessRate)
	}

	stored := assignments.assignments[assignmentID]
	if stored.Status != storage.AssignmentStatusCompleted {
		t.Errorf("stored status = %s, want completed", stored.Status)
	}
	if stored.ActualEndDate == nil || !stored.ActualEndDate.Equal(decideAt) {
		t.Errorf("actual_end_date = %v, want %v", stored.ActualEndDate, decideAt)
	}
	if stored.CompletedDays != 3 {
		t.Errorf("completed_days = %d, want 3", stored.CompletedDays)
	}
}

func TestCheckPlanCompletionAbandons(t *testing.T) {
	// Three days logged, only the first completed: 33.3% is below the
	// 70% bar, so the plan is abandoned.
	svc, assignments, _, _, assignmentID := newDeciderFixture(3, []float64{100, 0, 0})

	check, err := svc.CheckPlanCompletion(context.Background(), assignmentID)
	if err != nil {
		t.Fatalf("CheckPlanCompletion: %v", err)
	}
	if check.Completed || check.Status != storage.AssignmentStatusAbandoned {
		t.Errorf("check = %+v, want abandoned", check)
	}
	if check.SuccessRate < 33.3 || check.SuccessRate > 33.4 {
		t.Errorf("success_rate = %v, want ~33.3", check.SuccessRate)
	}
	if assignments.assignments[assignmentID].Status != storage.AssignmentStatusAbandoned {
		t.Error("stored status not abandoned")
	}
}

func TestCheckPlanCompletionThresholdBoundary(t *testing.T) {
	// 7 of 10 days is exactly the 0.7 threshold and counts as completed.
	rates := []float64{100, 100, 100, 100, 100, 100, 100, 0, 0, 0}
	svc, _, _, _, assignmentID := newDeciderFixture(10, rates)

	check, err := svc.CheckPlanCompletion(context.Background(), assignmentID)
	if err != nil {
		t.Fatalf("CheckPlanCompletion: %v", err)
	}
	if !check.Completed {
		t.Errorf("check = %+v, want completed at exact threshold", check)
	}
}

func TestCheckPlanCompletionIdempotentOnceTerminal(t *testing.T) {
	svc, assignments, _, _, assignmentID := newDeciderFixture(3, []float64{100, 100, 100})

	if _, err := svc.CheckPlanCompletion(context.Background(), assignmentID); err != nil {
		t.Fatalf("first check: %v", err)
	}
	callsAfterFirst := assignments.updateCalls

	check, err := svc.CheckPlanCompletion(context.Background(), assignmentID)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !check.Completed || check.Status != storage.AssignmentStatusCompleted {
		t.Errorf("second check = %+v, want terminal snapshot", check)
	}
	if assignments.updateCalls != callsAfterFirst {
		t.Error("terminal assignment mutated by a re-run")
	}
}

func TestCheckPlanCompletionUnknownAssignment(t *testing.T) {
	svc := NewService(newMockAssignments(), newMockDailyLogs(), newMockSummaries())

	_, err := svc.CheckPlanCompletion(context.Background(), uuid.New())
	if !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("err = %v, want ErrAssignmentNotFound", err)
	}
}

func TestUpdateProgressSummaryPersists(t *testing.T) {
	svc, _, _, summaries, assignmentID := newDeciderFixture(5, []float64{100, 50, 0})

	summary, err := svc.UpdateProgressSummary(context.Background(), assignmentID)
	if err != nil {
		t.Fatalf("UpdateProgressSummary: %v", err)
	}
	if summary.TotalDays != 3 || summary.CompletedDays != 2 {
		t.Errorf("summary = %+v, want 3 days / 2 completed", summary)
	}

	stored, found, _ := summaries.GetSummary(context.Background(), assignmentID)
	if !found {
		t.Fatal("summary not persisted")
	}
	if stored.AverageCompletionRate != summary.AverageCompletionRate {
		t.Error("stored summary diverges from returned one")
	}
}
