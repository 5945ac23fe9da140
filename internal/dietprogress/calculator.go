package dietprogress

import (
	"math"
	"time"

	"github.com/fitcoach/diet-hub/internal/storage"
)

const (
	// CompletedDayThreshold is the completion rate at which a day counts
	// as completed for plan-level statistics.
	CompletedDayThreshold = 50.0

	// Accuracy fallbacks for plans whose nutrition targets are unset.
	DefaultCalorieTarget = 2000.0
	DefaultProteinTarget = 150.0

	overallCompletionThreshold = 70.0
	overallAdherenceThreshold  = 60.0
)

// ProgressStats is the plan-wide aggregate derived from daily logs.
type ProgressStats struct {
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
}

// CalculateProgress reduces an assignment's daily logs (ordered by date)
// into plan-wide statistics. An empty input yields a zeroed result.
func CalculateProgress(logs []storage.DailyLog) ProgressStats {
	if len(logs) == 0 {
		return ProgressStats{}
	}

	n := float64(len(logs))
	stats := ProgressStats{TotalDays: len(logs)}

	var sumCalories, sumProtein, sumCarbs, sumFat float64
	var sumRate, sumCalorieAcc, sumProteinAcc float64

	best := logs[0]
	worst := logs[0]

	for _, dl := range logs {
		if dl.CompletionRate >= CompletedDayThreshold {
			stats.CompletedDays++
		}

		sumCalories += dl.TotalCalories
		sumProtein += dl.TotalProtein
		sumCarbs += dl.TotalCarbs
		sumFat += dl.TotalFat
		sumRate += dl.CompletionRate

		sumCalorieAcc += accuracy(dl.TotalCalories, dl.TargetCalories, DefaultCalorieTarget)
		sumProteinAcc += accuracy(dl.TotalProtein, dl.TargetProtein, DefaultProteinTarget)

		// Strict comparisons keep the first extremum in date order.
		if dl.CompletionRate > best.CompletionRate {
			best = dl
		}
		if dl.CompletionRate < worst.CompletionRate {
			worst = dl
		}
	}

	stats.AverageCalories = sumCalories / n
	stats.AverageProtein = sumProtein / n
	stats.AverageCarbs = sumCarbs / n
	stats.AverageFat = sumFat / n
	stats.AverageCompletionRate = sumRate / n

	stats.ConsistencyScore = math.Max(0, 100-stdDev(logs))
	stats.AdherenceScore = (sumCalorieAcc/n + sumProteinAcc/n + stats.AverageCompletionRate) / 3
	stats.SuccessRate = float64(stats.CompletedDays) / n * 100
	stats.OverallSuccess = stats.AverageCompletionRate >= overallCompletionThreshold &&
		stats.AdherenceScore >= overallAdherenceThreshold

	bestDay := best.Date
	worstDay := worst.Date
	stats.BestDay = &bestDay
	stats.WorstDay = &worstDay

	return stats
}

// accuracy measures how close an actual macro landed to its target as a
// percentage, floored at 0. Zero targets fall back to the given default.
func accuracy(actual, target, fallback float64) float64 {
	if target == 0 {
		target = fallback
	}
	return math.Max(0, 100-math.Abs(actual-target)/target*100)
}

// stdDev is the population standard deviation of completion rates.
func stdDev(logs []storage.DailyLog) float64 {
	n := float64(len(logs))

	var mean float64
	for _, dl := range logs {
		mean += dl.CompletionRate
	}
	mean /= n

	var variance float64
	for _, dl := range logs {
		d := dl.CompletionRate - mean
		variance += d * d
	}
	variance /= n

	return math.Sqrt(variance)
}
