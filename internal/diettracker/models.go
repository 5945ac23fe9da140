package diettracker

import (
	"fmt"
	"math"
	"time"

	"github.com/fitcoach/diet-hub/internal/storage"
)

// Valid meal types for custom meals / snacks.
var validMealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}

type PlanAssignmentDTO struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	PlanID   string `json:"plan_id"`
	Status   string `json:"status"`

	StartDate       *string    `json:"start_date"`
	EndDate         *string    `json:"end_date"`
	ActualStartDate *time.Time `json:"actual_start_date"`
	ActualEndDate   *time.Time `json:"actual_end_date"`

	TotalDays     int     `json:"total_days"`
	CompletedDays int     `json:"completed_days"`
	SuccessRate   float64 `json:"success_rate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DailyLogDTO struct {
	ID           string `json:"id"`
	AssignmentID string `json:"diet_plan_assignment_id"`
	Date         string `json:"date"`
	DayNumber    int    `json:"day_number"`

	TargetCalories float64 `json:"target_calories"`
	TargetProtein  float64 `json:"target_protein"`
	TargetCarbs    float64 `json:"target_carbs"`
	TargetFat      float64 `json:"target_fat"`

	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	TotalCarbs    float64 `json:"total_carbs"`
	TotalFat      float64 `json:"total_fat"`

	CompletedMeals int     `json:"completed_meals"`
	TotalMeals     int     `json:"total_meals"`
	CompletionRate float64 `json:"completion_rate"`
	IsCompleted    bool    `json:"is_completed"`

	CalorieVariance float64 `json:"calorie_variance"`
	ProteinVariance float64 `json:"protein_variance"`
	CarbsVariance   float64 `json:"carbs_variance"`
	FatVariance     float64 `json:"fat_variance"`
}

type MealLogDTO struct {
	ID         string `json:"id"`
	DailyLogID string `json:"daily_log_id"`
	MealName   string `json:"meal_name"`
	MealTime   string `json:"meal_time"`

	SelectedOption string  `json:"selected_option"`
	Calories       float64 `json:"calories"`
	Protein        float64 `json:"protein"`
	Carbs          float64 `json:"carbs"`
	Fat            float64 `json:"fat"`

	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

type SnackLogDTO struct {
	ID          string `json:"id"`
	DailyLogID  string `json:"daily_log_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MealType    string `json:"meal_type"`

	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`

	Ingredients []string  `json:"ingredients"`
	LoggedAt    time.Time `json:"logged_at"`
	LoggedTime  string    `json:"logged_time"`
}

// DayDTO is one day's log with its meals and snacks. PlannedTotals sums
// every entry regardless of completion, so clients can show the day's full
// nutrition next to the completed-only totals on the log itself.
type DayDTO struct {
	Log           DailyLogDTO   `json:"log"`
	Meals         []MealLogDTO  `json:"meals"`
	Snacks        []SnackLogDTO `json:"snacks"`
	PlannedTotals MacrosDTO     `json:"planned_totals"`
}

// MacrosDTO is a presentation-rounded macro sum: whole calories, one
// decimal for protein, carbs and fat.
type MacrosDTO struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func toMacrosDTO(m Macros) MacrosDTO {
	return MacrosDTO{
		Calories: math.Round(m.Calories),
		Protein:  math.Round(m.Protein*10) / 10,
		Carbs:    math.Round(m.Carbs*10) / 10,
		Fat:      math.Round(m.Fat*10) / 10,
	}
}

// CustomMealHistoryDTO is one reuse suggestion from the custom meal history.
type CustomMealHistoryDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MealType string `json:"meal_type"`

	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`

	UsageCount int       `json:"usage_count"`
	LastUsed   time.Time `json:"last_used"`
}

func toCustomMealHistoryDTO(e storage.CustomMealHistoryEntry) CustomMealHistoryDTO {
	return CustomMealHistoryDTO{
		ID:         e.ID.String(),
		Name:       e.Name,
		MealType:   e.MealType,
		Calories:   e.Calories,
		Protein:    e.Protein,
		Carbs:      e.Carbs,
		Fat:        e.Fat,
		UsageCount: e.UsageCount,
		LastUsed:   e.LastUsed,
	}
}

type TrackerSummaryResponse struct {
	Assignment *PlanAssignmentDTO `json:"assignment"`
	DailyLogs  []DailyLogDTO      `json:"daily_logs"`
}

type NextMealResponse struct {
	Meal *MealLogDTO `json:"meal"`
}

// MealOptionInput is a nutrition variant supplied on option change.
type MealOptionInput struct {
	OptionName string  `json:"option_name"`
	Calories   float64 `json:"calories"`
	Protein    float64 `json:"protein"`
	Carbs      float64 `json:"carbs"`
	Fat        float64 `json:"fat"`
}

func (o *MealOptionInput) Validate() error {
	if o.OptionName == "" {
		return fmt.Errorf("option_name is required")
	}
	if o.Calories < 0 || o.Calories > 10000 {
		return fmt.Errorf("calories must be 0-10000")
	}
	if o.Protein < 0 || o.Protein > 1000 {
		return fmt.Errorf("protein must be 0-1000")
	}
	if o.Carbs < 0 || o.Carbs > 1000 {
		return fmt.Errorf("carbs must be 0-1000")
	}
	if o.Fat < 0 || o.Fat > 1000 {
		return fmt.Errorf("fat must be 0-1000")
	}
	return nil
}

// CustomMealInput is a free-form meal a client logs outside the plan.
type CustomMealInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MealType    string   `json:"meal_type"`
	Calories    float64  `json:"calories"`
	Protein     float64  `json:"protein"`
	Carbs       float64  `json:"carbs"`
	Fat         float64  `json:"fat"`
	Ingredients []string `json:"ingredients"`
}

func (m *CustomMealInput) Validate() error {
	if len(m.Name) < 1 || len(m.Name) > 200 {
		return fmt.Errorf("name must be between 1 and 200 characters")
	}
	if m.MealType == "" {
		m.MealType = "snack"
	}
	if !validMealTypes[m.MealType] {
		return fmt.Errorf("invalid meal_type")
	}
	if m.Calories < 0 || m.Calories > 10000 {
		return fmt.Errorf("calories must be 0-10000")
	}
	if m.Protein < 0 || m.Protein > 1000 {
		return fmt.Errorf("protein must be 0-1000")
	}
	if m.Carbs < 0 || m.Carbs > 1000 {
		return fmt.Errorf("carbs must be 0-1000")
	}
	if m.Fat < 0 || m.Fat > 1000 {
		return fmt.Errorf("fat must be 0-1000")
	}
	return nil
}

// TrackerActionRequest is the POST /v1/diet-tracker dispatch payload.
type TrackerActionRequest struct {
	Action       string           `json:"action"`
	AssignmentID string           `json:"diet_plan_assignment_id"`
	MealLogID    string           `json:"meal_log_id"`
	Option       *MealOptionInput `json:"option"`
	Date         string           `json:"date"`
	Meal         *CustomMealInput `json:"meal"`
}

// LogMealRequest is the POST /v1/diet-tracker/meals payload.
type LogMealRequest struct {
	AssignmentID string          `json:"diet_plan_assignment_id"`
	Date         string          `json:"date"`
	Meal         CustomMealInput `json:"meal"`
}

func (r *LogMealRequest) Validate() error {
	if r.AssignmentID == "" {
		return fmt.Errorf("diet_plan_assignment_id is required")
	}
	return r.Meal.Validate()
}

// MealsPatchRequest is the PATCH /v1/diet-tracker/meals payload.
type MealsPatchRequest struct {
	Action    string           `json:"action"` // complete | uncomplete | change-option
	MealLogID string           `json:"meal_log_id"`
	Option    *MealOptionInput `json:"option"`
}

func toAssignmentDTO(a *storage.PlanAssignment) *PlanAssignmentDTO {
	return &PlanAssignmentDTO{
		ID:       a.ID.String(),
		ClientID: a.ClientID.String(),
		PlanID:   a.PlanID.String(),
		Status:   a.Status,

		StartDate:       formatDate(a.StartDate),
		EndDate:         formatDate(a.EndDate),
		ActualStartDate: a.ActualStartDate,
		ActualEndDate:   a.ActualEndDate,

		TotalDays:     a.TotalDays,
		CompletedDays: a.CompletedDays,
		SuccessRate:   a.SuccessRate,

		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toDailyLogDTO(dl storage.DailyLog) DailyLogDTO {
	return DailyLogDTO{
		ID:           dl.ID.String(),
		AssignmentID: dl.AssignmentID.String(),
		Date:         dl.Date.Format("2006-01-02"),
		DayNumber:    dl.DayNumber,

		TargetCalories: dl.TargetCalories,
		TargetProtein:  dl.TargetProtein,
		TargetCarbs:    dl.TargetCarbs,
		TargetFat:      dl.TargetFat,

		TotalCalories: dl.TotalCalories,
		TotalProtein:  dl.TotalProtein,
		TotalCarbs:    dl.TotalCarbs,
		TotalFat:      dl.TotalFat,

		CompletedMeals: dl.CompletedMeals,
		TotalMeals:     dl.TotalMeals,
		CompletionRate: dl.CompletionRate,
		IsCompleted:    dl.IsCompleted,

		CalorieVariance: dl.CalorieVariance,
		ProteinVariance: dl.ProteinVariance,
		CarbsVariance:   dl.CarbsVariance,
		FatVariance:     dl.FatVariance,
	}
}

func toMealLogDTO(ml *storage.MealLog) MealLogDTO {
	return MealLogDTO{
		ID:         ml.ID.String(),
		DailyLogID: ml.DailyLogID.String(),
		MealName:   ml.MealName,
		MealTime:   ml.MealTime,

		SelectedOption: ml.SelectedOption,
		Calories:       ml.Calories,
		Protein:        ml.Protein,
		Carbs:          ml.Carbs,
		Fat:            ml.Fat,

		IsCompleted: ml.IsCompleted,
		CompletedAt: ml.CompletedAt,
	}
}

func toSnackLogDTO(sl *storage.SnackLog) SnackLogDTO {
	ingredients := sl.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	return SnackLogDTO{
		ID:          sl.ID.String(),
		DailyLogID:  sl.DailyLogID.String(),
		Name:        sl.Name,
		Description: sl.Description,
		MealType:    sl.MealType,

		Calories: sl.Calories,
		Protein:  sl.Protein,
		Carbs:    sl.Carbs,
		Fat:      sl.Fat,

		Ingredients: ingredients,
		LoggedAt:    sl.LoggedAt,
		LoggedTime:  sl.LoggedTime,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
