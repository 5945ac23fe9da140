package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Plan assignment statuses.
const (
	AssignmentStatusAssigned  = "assigned"
	AssignmentStatusActive    = "active"
	AssignmentStatusCompleted = "completed"
	AssignmentStatusAbandoned = "abandoned"
)

// Client represents a coached client profile.
type Client struct {
	ID          uuid.UUID
	OwnerUserID string // "default" for single-trainer MVP
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Storage is the base interface for client records.
type Storage interface {
	// ListClients returns all clients for an owner
	ListClients(ctx context.Context, ownerUserID string) ([]Client, error)

	// GetClient returns a client by ID
	GetClient(ctx context.Context, id uuid.UUID) (*Client, error)

	// CreateClient creates a new client
	CreateClient(ctx context.Context, client *Client) error

	// DeleteClient deletes a client
	DeleteClient(ctx context.Context, id uuid.UUID) error

	// Close releases the underlying connection (Postgres)
	Close() error
}

// MealOption is one nutrition variant offered for a templated meal.
type MealOption struct {
	OptionName string  `json:"option_name"`
	Calories   float64 `json:"calories"`
	Protein    float64 `json:"protein"`
	Carbs      float64 `json:"carbs"`
	Fat        float64 `json:"fat"`
}

// PlanMeal is a templated meal within a plan day.
type PlanMeal struct {
	MealName string       `json:"meal_name"`
	MealTime string       `json:"meal_time"` // HH:MM, sort key
	Options  []MealOption `json:"options"`
}

// PlanDay is one day of a nutrition plan template.
type PlanDay struct {
	DayNumber int        `json:"day_number"`
	Meals     []PlanMeal `json:"meals"`
}

// NutritionPlan is a reusable plan template authored by a trainer.
// Template CRUD lives in the catalog service; this service reads templates
// (CreatePlan exists for seeding and tests).
type NutritionPlan struct {
	ID          uuid.UUID
	OwnerUserID string
	Title       string
	Description string

	// Plan-level daily targets. Zero means "unset".
	TargetCalories float64
	TargetProtein  float64
	TargetCarbs    float64
	TargetFat      float64

	Days []PlanDay

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NutritionPlansStorage reads plan templates.
type NutritionPlansStorage interface {
	// GetPlan returns a plan template with its full day/meal/option tree.
	GetPlan(ctx context.Context, id uuid.UUID) (*NutritionPlan, bool, error)

	// CreatePlan stores a plan template.
	CreatePlan(ctx context.Context, plan *NutritionPlan) error
}

// PlanAssignment is a client's instance of a nutrition plan.
// At most one assignment per client is active at a time (enforced by
// query filters, not a database constraint).
type PlanAssignment struct {
	ID          uuid.UUID
	OwnerUserID string
	ClientID    uuid.UUID
	PlanID      uuid.UUID
	Status      string // assigned | active | completed | abandoned

	StartDate       *time.Time
	EndDate         *time.Time
	ActualStartDate *time.Time
	ActualEndDate   *time.Time

	TotalDays     int
	CompletedDays int
	SuccessRate   float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MealLogSeed is a meal row materialized during plan start.
type MealLogSeed struct {
	MealName       string
	MealTime       string
	SelectedOption string
	Calories       float64
	Protein        float64
	Carbs          float64
	Fat            float64
}

// DailyLogSeed is a daily log row materialized during plan start.
type DailyLogSeed struct {
	Date           time.Time
	DayNumber      int
	TargetCalories float64
	TargetProtein  float64
	TargetCarbs    float64
	TargetFat      float64
	Meals          []MealLogSeed
}

// PlanActivation carries everything written when a plan starts.
type PlanActivation struct {
	StartDate       time.Time
	EndDate         time.Time
	ActualStartDate time.Time
	TotalDays       int
	Days            []DailyLogSeed
}

// PlanAssignmentsStorage manages plan assignments.
type PlanAssignmentsStorage interface {
	// GetAssignment returns an assignment by ID. bool=false means not found.
	GetAssignment(ctx context.Context, id uuid.UUID) (*PlanAssignment, bool, error)

	// GetActiveAssignment returns the single active assignment for a client.
	GetActiveAssignment(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*PlanAssignment, bool, error)

	// CreateAssignment creates an assignment in "assigned" status.
	CreateAssignment(ctx context.Context, a *PlanAssignment) error

	// UpdateAssignment persists mutable assignment fields
	// (status, dates, completed_days, success_rate).
	UpdateAssignment(ctx context.Context, a *PlanAssignment) error

	// ActivatePlan atomically marks the assignment active and creates all
	// daily logs and meal logs. Any failure leaves no rows behind.
	ActivatePlan(ctx context.Context, assignmentID uuid.UUID, activation PlanActivation) error
}

// DailyLog records one calendar day of a plan assignment.
type DailyLog struct {
	ID           uuid.UUID
	AssignmentID uuid.UUID
	Date         time.Time // midnight-normalized
	DayNumber    int       // 1-based from plan start

	TargetCalories float64
	TargetProtein  float64
	TargetCarbs    float64
	TargetFat      float64

	TotalCalories float64
	TotalProtein  float64
	TotalCarbs    float64
	TotalFat      float64

	CompletedMeals int
	TotalMeals     int
	CompletionRate float64 // 0-100
	IsCompleted    bool

	CalorieVariance float64 // actual - target
	ProteinVariance float64
	CarbsVariance   float64
	FatVariance     float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DailyLogsStorage manages daily logs.
type DailyLogsStorage interface {
	// GetDailyLog returns a daily log by ID.
	GetDailyLog(ctx context.Context, id uuid.UUID) (*DailyLog, bool, error)

	// GetDailyLogByDate returns the log for (assignment, calendar day).
	GetDailyLogByDate(ctx context.Context, assignmentID uuid.UUID, date time.Time) (*DailyLog, bool, error)

	// ListDailyLogs returns all logs for an assignment ordered by date.
	ListDailyLogs(ctx context.Context, assignmentID uuid.UUID) ([]DailyLog, error)

	// CountDailyLogs returns the number of materialized logs.
	CountDailyLogs(ctx context.Context, assignmentID uuid.UUID) (int, error)

	// CreateDailyLog creates a log (lazy creation for ad-hoc days).
	CreateDailyLog(ctx context.Context, dl *DailyLog) error

	// UpdateDailyLog persists recomputed totals and completion fields.
	UpdateDailyLog(ctx context.Context, dl *DailyLog) error
}

// MealLog is a planned, trackable meal instance within a daily log.
type MealLog struct {
	ID         uuid.UUID
	DailyLogID uuid.UUID
	MealName   string
	MealTime   string // HH:MM, sort key

	SelectedOption string
	Calories       float64
	Protein        float64
	Carbs          float64
	Fat            float64

	IsCompleted bool
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MealLogsStorage manages meal logs.
type MealLogsStorage interface {
	// GetMealLog returns a meal log by ID.
	GetMealLog(ctx context.Context, id uuid.UUID) (*MealLog, bool, error)

	// ListMealLogs returns all meals of a daily log ordered by meal_time.
	ListMealLogs(ctx context.Context, dailyLogID uuid.UUID) ([]MealLog, error)

	// UpdateMealLog persists completion and option fields.
	UpdateMealLog(ctx context.Context, ml *MealLog) error
}

// SnackLog is an unplanned nutrition entry logged ad hoc ("custom meal").
type SnackLog struct {
	ID          uuid.UUID
	DailyLogID  uuid.UUID
	Name        string
	Description string
	MealType    string // breakfast | lunch | dinner | snack

	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64

	Ingredients []string
	LoggedAt    time.Time
	LoggedTime  string // HH:MM, 24-hour

	CreatedAt time.Time
}

// SnackLogsStorage manages snack logs.
type SnackLogsStorage interface {
	// GetSnackLog returns a snack log by ID.
	GetSnackLog(ctx context.Context, id uuid.UUID) (*SnackLog, bool, error)

	// ListSnackLogs returns all snacks of a daily log ordered by logged_at.
	ListSnackLogs(ctx context.Context, dailyLogID uuid.UUID) ([]SnackLog, error)

	// CreateSnackLog creates a snack log.
	CreateSnackLog(ctx context.Context, sl *SnackLog) error

	// DeleteSnackLog deletes a snack log by ID.
	DeleteSnackLog(ctx context.Context, id uuid.UUID) error
}

// CustomMealHistoryEntry is a deduplicated record of previously logged
// custom meals, kept for reuse suggestions.
type CustomMealHistoryEntry struct {
	ID          uuid.UUID
	OwnerUserID string
	ClientID    uuid.UUID
	Name        string
	MealType    string

	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64

	UsageCount int
	LastUsed   time.Time
	CreatedAt  time.Time
}

// CustomMealHistoryStorage manages custom meal history.
type CustomMealHistoryStorage interface {
	// UpsertEntry creates the entry or increments usage_count on the
	// dedup key (client, name, meal_type, exact macros).
	UpsertEntry(ctx context.Context, e *CustomMealHistoryEntry) error

	// ListEntries returns a client's history, most recently used first.
	ListEntries(ctx context.Context, ownerUserID string, clientID uuid.UUID, limit int) ([]CustomMealHistoryEntry, error)
}

// ProgressSummary caches the latest plan-wide statistics for an assignment.
// Recomputed wholesale on every relevant mutation; never independently
// authoritative.
type ProgressSummary struct {
	ID           uuid.UUID
	AssignmentID uuid.UUID

	TotalDays     int
	CompletedDays int

	AverageCalories       float64
	AverageProtein        float64
	AverageCarbs          float64
	AverageFat            float64
	AverageCompletionRate float64

	ConsistencyScore float64
	AdherenceScore   float64
	SuccessRate      float64
	OverallSuccess   bool

	BestDay  *time.Time
	WorstDay *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProgressSummariesStorage manages progress summaries.
type ProgressSummariesStorage interface {
	// GetSummary returns the summary for an assignment.
	GetSummary(ctx context.Context, assignmentID uuid.UUID) (*ProgressSummary, bool, error)

	// UpsertSummary creates the summary or overwrites all fields.
	UpsertSummary(ctx context.Context, s *ProgressSummary) error
}

// ReportMeta describes a generated progress report.
type ReportMeta struct {
	ID           uuid.UUID
	OwnerUserID  string
	AssignmentID uuid.UUID
	Format       string  // "pdf" or "csv"
	ObjectKey    *string // blob key (NULL for memory mode)
	SizeBytes    int64
	Status       string // "ready" or "failed"
	Error        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Data         []byte // only used in memory mode (not stored in DB)
}

// ReportsStorage manages report metadata.
type ReportsStorage interface {
	// CreateReport stores report metadata (+ data in memory mode).
	CreateReport(ctx context.Context, report *ReportMeta) error

	// GetReport returns a report by ID.
	GetReport(ctx context.Context, id uuid.UUID) (*ReportMeta, error)

	// ListReports returns reports for an owner with pagination.
	ListReports(ctx context.Context, ownerUserID string, limit, offset int) ([]ReportMeta, error)

	// DeleteReport removes report metadata.
	DeleteReport(ctx context.Context, id uuid.UUID) error
}
