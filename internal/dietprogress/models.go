package dietprogress

import (
	"math"
	"time"

	"github.com/fitcoach/diet-hub/internal/storage"
)

// ProgressSummaryDTO is the stored summary shaped for responses.
// Averages are rounded for presentation only: whole calories, one decimal
// for protein/carbs/fat.
type ProgressSummaryDTO struct {
	AssignmentID string `json:"diet_plan_assignment_id"`

	TotalDays     int `json:"total_days"`
	CompletedDays int `json:"completed_days"`

	AverageCalories       float64 `json:"average_calories"`
	AverageProtein        float64 `json:"average_protein"`
	AverageCarbs          float64 `json:"average_carbs"`
	AverageFat            float64 `json:"average_fat"`
	AverageCompletionRate float64 `json:"average_completion_rate"`

	ConsistencyScore float64 `json:"consistency_score"`
	AdherenceScore   float64 `json:"adherence_score"`
	SuccessRate      float64 `json:"success_rate"`
	OverallSuccess   bool    `json:"overall_success"`

	BestDay  *string `json:"best_day"`
	WorstDay *string `json:"worst_day"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressStatsDTO is the live calculator output shaped for responses.
type ProgressStatsDTO struct {
	TotalDays     int `json:"total_days"`
	CompletedDays int `json:"completed_days"`

	AverageCalories       float64 `json:"average_calories"`
	AverageProtein        float64 `json:"average_protein"`
	AverageCarbs          float64 `json:"average_carbs"`
	AverageFat            float64 `json:"average_fat"`
	AverageCompletionRate float64 `json:"average_completion_rate"`

	ConsistencyScore float64 `json:"consistency_score"`
	AdherenceScore   float64 `json:"adherence_score"`
	SuccessRate      float64 `json:"success_rate"`
	OverallSuccess   bool    `json:"overall_success"`

	BestDay  *string `json:"best_day"`
	WorstDay *string `json:"worst_day"`
}

func roundCalories(v float64) float64 {
	return math.Round(v)
}

func roundMacro(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// ToDTO shapes a stored summary for responses.
func ToDTO(s *storage.ProgressSummary) ProgressSummaryDTO {
	return ProgressSummaryDTO{
		AssignmentID: s.AssignmentID.String(),

		TotalDays:     s.TotalDays,
		CompletedDays: s.CompletedDays,

		AverageCalories:       roundCalories(s.AverageCalories),
		AverageProtein:        roundMacro(s.AverageProtein),
		AverageCarbs:          roundMacro(s.AverageCarbs),
		AverageFat:            roundMacro(s.AverageFat),
		AverageCompletionRate: s.AverageCompletionRate,

		ConsistencyScore: s.ConsistencyScore,
		AdherenceScore:   s.AdherenceScore,
		SuccessRate:      s.SuccessRate,
		OverallSuccess:   s.OverallSuccess,

		BestDay:  formatDay(s.BestDay),
		WorstDay: formatDay(s.WorstDay),

		UpdatedAt: s.UpdatedAt,
	}
}

// StatsToDTO shapes live calculator output for responses.
func StatsToDTO(stats ProgressStats) ProgressStatsDTO {
	return ProgressStatsDTO{
		TotalDays:     stats.TotalDays,
		CompletedDays: stats.CompletedDays,

		AverageCalories:       roundCalories(stats.AverageCalories),
		AverageProtein:        roundMacro(stats.AverageProtein),
		AverageCarbs:          roundMacro(stats.AverageCarbs),
		AverageFat:            roundMacro(stats.AverageFat),
		AverageCompletionRate: stats.AverageCompletionRate,

		ConsistencyScore: stats.ConsistencyScore,
		AdherenceScore:   stats.AdherenceScore,
		SuccessRate:      stats.SuccessRate,
		OverallSuccess:   stats.OverallSuccess,

		BestDay:  formatDay(stats.BestDay),
		WorstDay: formatDay(stats.WorstDay),
	}
}
