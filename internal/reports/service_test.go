package reports

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/fitcoach/diet-hub/internal/dietprogress"
	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
)

type mockStore struct {
	assignments map[uuid.UUID]*storage.PlanAssignment
	plans       map[uuid.UUID]*storage.NutritionPlan
	dailyLogs   map[uuid.UUID]*storage.DailyLog
	reports     map[uuid.UUID]*storage.ReportMeta
	summaries   map[uuid.UUID]*storage.ProgressSummary
}

func newMockStore() *mockStore {
	return &mockStore{
		assignments: make(map[uuid.UUID]*storage.PlanAssignment),
		plans:       make(map[uuid.UUID]*storage.NutritionPlan),
		dailyLogs:   make(map[uuid.UUID]*storage.DailyLog),
		reports:     make(map[uuid.UUID]*storage.ReportMeta),
		summaries:   make(map[uuid.UUID]*storage.ProgressSummary),
	}
}

func (m *mockStore) GetAssignment(ctx context.Context, id uuid.UUID) (*storage.PlanAssignment, bool, error) {
	a, ok := m.assignments[id]
	return a, ok, nil
}

func (m *mockStore) GetActiveAssignment(ctx context.Context, owner string, clientID uuid.UUID) (*storage.PlanAssignment, bool, error) {
	for _, a := range m.assignments {
		if a.OwnerUserID == owner && a.ClientID == clientID && a.Status == storage.AssignmentStatusActive {
			return a, true, nil
		}
	}
	return nil, false, nil
}

func (m *mockStore) CreateAssignment(ctx context.Context, a *storage.PlanAssignment) error {
	m.assignments[a.ID] = a
	return nil
}

func (m *mockStore) UpdateAssignment(ctx context.Context, a *storage.PlanAssignment) error {
	m.assignments[a.ID] = a
	return nil
}

func (m *mockStore) ActivatePlan(ctx context.Context, id uuid.UUID, activation storage.PlanActivation) error {
	return fmt.Errorf("not used")
}

func (m *mockStore) GetPlan(ctx context.Context, id uuid.UUID) (*storage.NutritionPlan, bool, error) {
	p, ok := m.plans[id]
	return p, ok, nil
}

func (m *mockStore) CreatePlan(ctx context.Context, p *storage.NutritionPlan) error {
	m.plans[p.ID] = p
	return nil
}

func (m *mockStore) GetDailyLog(ctx context.Context, id uuid.UUID) (*storage.DailyLog, bool, error) {
	dl, ok := m.dailyLogs[id]
	return dl, ok, nil
}

func (m *mockStore) GetDailyLogByDate(ctx context.Context, assignmentID uuid.UUID, date time.Time) (*storage.DailyLog, bool, error) {
	for _, dl := range m.dailyLogs {
		if dl.AssignmentID == assignmentID && dl.Date.Equal(date) {
			return dl, true, nil
		}
	}
	return nil, false, nil
}

func (m *mockStore) ListDailyLogs(ctx context.Context, assignmentID uuid.UUID) ([]storage.DailyLog, error) {
	var logs []storage.DailyLog
	for _, dl := range m.dailyLogs {
		if dl.AssignmentID == assignmentID {
			logs = append(logs, *dl)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Date.Before(logs[j].Date) })
	return logs, nil
}

func (m *mockStore) CountDailyLogs(ctx context.Context, assignmentID uuid.UUID) (int, error) {
	logs, _ := m.ListDailyLogs(ctx, assignmentID)
	return len(logs), nil
}

func (m *mockStore) CreateDailyLog(ctx context.Context, dl *storage.DailyLog) error {
	m.dailyLogs[dl.ID] = dl
	return nil
}

func (m *mockStore) UpdateDailyLog(ctx context.Context, dl *storage.DailyLog) error {
	m.dailyLogs[dl.ID] = dl
	return nil
}

func (m *mockStore) GetSummary(ctx context.Context, assignmentID uuid.UUID) (*storage.ProgressSummary, bool, error) {
	s, ok := m.summaries[assignmentID]
	return s, ok, nil
}

func (m *mockStore) UpsertSummary(ctx context.Context, s *storage.ProgressSummary) error {
	m.summaries[s.AssignmentID] = s
	return nil
}

func (m *mockStore) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.CreatedAt = time.Now().UTC()
	report.UpdatedAt = report.CreatedAt
	m.reports[report.ID] = report
	return nil
}

func (m *mockStore) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, fmt.Errorf("report not found")
	}
	return r, nil
}

func (m *mockStore) ListReports(ctx context.Context, owner string, limit, offset int) ([]storage.ReportMeta, error) {
	var out []storage.ReportMeta
	for _, r := range m.reports {
		if r.OwnerUserID == owner {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) DeleteReport(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.reports[id]; !ok {
		return fmt.Errorf("report not found")
	}
	delete(m.reports, id)
	return nil
}

// fakeBlob is an in-memory blob.Store for exercising the S3 path.
type fakeBlob struct {
	objects map[string][]byte
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: make(map[string][]byte)}
}

func (f *fakeBlob) PutObject(ctx context.Context, key string, data []byte, contentType string) (int64, error) {
	f.objects[key] = data
	return int64(len(data)), nil
}

func (f *fakeBlob) GetObject(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return data, nil
}

func (f *fakeBlob) PresignGet(ctx context.Context, key string, ttlSeconds int) (string, error) {
	return "https://blob.test/" + key + "?signed=1", nil
}

func (f *fakeBlob) DeleteObject(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func seedAssignment(store *mockStore, days int) *storage.PlanAssignment {
	plan := &storage.NutritionPlan{
		ID:          uuid.New(),
		OwnerUserID: "default",
		Title:       "Cut Phase 1",
	}
	store.plans[plan.ID] = plan

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, days-1)
	a := &storage.PlanAssignment{
		ID:          uuid.New(),
		OwnerUserID: "default",
		ClientID:    uuid.New(),
		PlanID:      plan.ID,
		Status:      storage.AssignmentStatusActive,
		StartDate:   &start,
		EndDate:     &end,
		TotalDays:   days,
	}
	store.assignments[a.ID] = a

	for i := 0; i < days; i++ {
		dl := &storage.DailyLog{
			ID:             uuid.New(),
			AssignmentID:   a.ID,
			Date:           start.AddDate(0, 0, i),
			DayNumber:      i + 1,
			TargetCalories: 2000,
			TotalCalories:  1800,
			CompletedMeals: 2,
			TotalMeals:     3,
			CompletionRate: 66.7,
		}
		store.dailyLogs[dl.ID] = dl
	}
	return a
}

func newTestService(store *mockStore, blobStore *fakeBlob) *Service {
	progress := dietprogress.NewService(store, store, store)
	gen := NewGenerator(store, store, store, progress)
	if blobStore == nil {
		return NewService(store, gen, nil, 600)
	}
	return NewService(store, gen, blobStore, 600)
}

func TestCreateReportCSV(t *testing.T) {
	store := newMockStore()
	a := seedAssignment(store, 3)
	svc := newTestService(store, nil)

	report, err := svc.CreateReport(context.Background(), "default", CreateReportRequest{
		AssignmentID: a.ID,
		Format:       FormatCSV,
	})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if report.Status != StatusReady {
		t.Errorf("status = %q, want ready", report.Status)
	}
	if report.SizeBytes != int64(len(report.Data)) {
		t.Errorf("size_bytes = %d, data len = %d", report.SizeBytes, len(report.Data))
	}

	body := string(report.Data)
	if !strings.HasPrefix(body, "date,day_number,") {
		t.Errorf("unexpected CSV header: %q", strings.SplitN(body, "\n", 2)[0])
	}
	if !strings.Contains(body, "2025-06-01,1,") {
		t.Errorf("missing day-1 row in CSV:\n%s", body)
	}
	lines := strings.Count(strings.TrimSpace(body), "\n")
	if lines != 3 {
		t.Errorf("expected header + 3 rows, got %d data lines", lines)
	}
}

func TestCreateReportPDF(t *testing.T) {
	store := newMockStore()
	a := seedAssignment(store, 2)
	svc := newTestService(store, nil)

	report, err := svc.CreateReport(context.Background(), "default", CreateReportRequest{
		AssignmentID: a.ID,
		Format:       FormatPDF,
	})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if !bytes.HasPrefix(report.Data, []byte("%PDF")) {
		t.Errorf("PDF output does not start with %%PDF header")
	}
}

func TestCreateReportInvalidFormat(t *testing.T) {
	store := newMockStore()
	a := seedAssignment(store, 1)
	svc := newTestService(store, nil)

	_, err := svc.CreateReport(context.Background(), "default", CreateReportRequest{
		AssignmentID: a.ID,
		Format:       "xlsx",
	})
	if err != ErrInvalidFormat {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestCreateReportUnknownAssignment(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, nil)

	_, err := svc.CreateReport(context.Background(), "default", CreateReportRequest{
		AssignmentID: uuid.New(),
		Format:       FormatCSV,
	})
	if err != ErrAssignmentNotFound {
		t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
	}
}

func TestReportRoundTripsThroughBlobStore(t *testing.T) {
	store := newMockStore()
	a := seedAssignment(store, 2)
	blobStore := newFakeBlob()
	svc := newTestService(store, blobStore)

	report, err := svc.CreateReport(context.Background(), "default", CreateReportRequest{
		AssignmentID: a.ID,
		Format:       FormatCSV,
	})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if report.ObjectKey == nil {
		t.Fatal("expected object key in blob mode")
	}
	if len(report.Data) != 0 {
		t.Error("expected no inline data in blob mode")
	}

	data, contentType, err := svc.ReportData(context.Background(), "default", report.ID)
	if err != nil {
		t.Fatalf("ReportData: %v", err)
	}
	if contentType != "text/csv" {
		t.Errorf("content type = %q, want text/csv", contentType)
	}
	if int64(len(data)) != report.SizeBytes {
		t.Errorf("fetched %d bytes, metadata says %d", len(data), report.SizeBytes)
	}

	if err := svc.DeleteReport(context.Background(), "default", report.ID); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if len(blobStore.objects) != 0 {
		t.Error("expected blob object removed on delete")
	}
}

func TestReportOwnerScoping(t *testing.T) {
	store := newMockStore()
	a := seedAssignment(store, 1)
	svc := newTestService(store, nil)

	report, err := svc.CreateReport(context.Background(), "default", CreateReportRequest{
		AssignmentID: a.ID,
		Format:       FormatCSV,
	})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}

	if _, err := svc.GetReport(context.Background(), "someone-else", report.ID); err != ErrReportNotFound {
		t.Fatalf("expected ErrReportNotFound for foreign owner, got %v", err)
	}
	if err := svc.DeleteReport(context.Background(), "someone-else", report.ID); err != ErrReportNotFound {
		t.Fatalf("expected ErrReportNotFound on foreign delete, got %v", err)
	}
	if _, err := svc.GetReport(context.Background(), "default", report.ID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
}
