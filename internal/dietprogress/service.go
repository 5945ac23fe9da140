package dietprogress

import (
	"context"
	"errors"
	"time"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrAssignmentNotFound = errors.New("diet plan assignment not found")
)

// CompletionThreshold is the share of scheduled days that must be completed
// for a plan to finish as "completed" rather than "abandoned".
const CompletionThreshold = 0.7

// Clock abstracts "now" for the completion decider.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Service derives plan-wide progress and drives the completion state machine.
type Service struct {
	assignments storage.PlanAssignmentsStorage
	dailyLogs   storage.DailyLogsStorage
	summaries   storage.ProgressSummariesStorage
	clock       Clock
}

// NewService creates a diet progress service using the wall clock.
func NewService(assignments storage.PlanAssignmentsStorage, dailyLogs storage.DailyLogsStorage, summaries storage.ProgressSummariesStorage) *Service {
	return &Service{
		assignments: assignments,
		dailyLogs:   dailyLogs,
		summaries:   summaries,
		clock:       systemClock{},
	}
}

// WithClock overrides the clock (tests).
func (s *Service) WithClock(clock Clock) *Service {
	s.clock = clock
	return s
}

// ComputeStats calculates live statistics from the assignment's daily logs.
func (s *Service) ComputeStats(ctx context.Context, assignmentID uuid.UUID) (ProgressStats, error) {
	logs, err := s.dailyLogs.ListDailyLogs(ctx, assignmentID)
	if err != nil {
		return ProgressStats{}, err
	}
	return CalculateProgress(logs), nil
}

// UpdateProgressSummary recomputes the assignment's statistics and persists
// them wholesale into the progress summary cache.
func (s *Service) UpdateProgressSummary(ctx context.Context, assignmentID uuid.UUID) (*storage.ProgressSummary, error) {
	stats, err := s.ComputeStats(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	summary := &storage.ProgressSummary{
		ID:           uuid.New(),
		AssignmentID: assignmentID,

		TotalDays:     stats.TotalDays,
		CompletedDays: stats.CompletedDays,

		AverageCalories:       stats.AverageCalories,
		AverageProtein:        stats.AverageProtein,
		AverageCarbs:          stats.AverageCarbs,
		AverageFat:            stats.AverageFat,
		AverageCompletionRate: stats.AverageCompletionRate,

		ConsistencyScore: stats.ConsistencyScore,
		AdherenceScore:   stats.AdherenceScore,
		SuccessRate:      stats.SuccessRate,
		OverallSuccess:   stats.OverallSuccess,

		BestDay:  stats.BestDay,
		WorstDay: stats.WorstDay,

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.summaries.UpsertSummary(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// CompletionCheck is the decider's snapshot returned to mutation callers.
type CompletionCheck struct {
	Completed     bool    `json:"completed"`
	Status        string  `json:"status"`
	CurrentDay    int     `json:"current_day"`
	TotalDays     int     `json:"total_days"`
	RemainingDays int     `json:"remaining_days"`
	CompletedDays int     `json:"completed_days"`
	SuccessRate   float64 `json:"success_rate"`
}

// CheckPlanCompletion evaluates the active → completed|abandoned transition.
// The transition fires only at the exact currentDay == totalPlanDays
// boundary; the status guard makes re-runs no-ops once terminal.
func (s *Service) CheckPlanCompletion(ctx context.Context, assignmentID uuid.UUID) (*CompletionCheck, error) {
	assignment, found, err := s.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrAssignmentNotFound
	}

	if assignment.Status != storage.AssignmentStatusActive {
		return &CompletionCheck{
			Completed:     assignment.Status == storage.AssignmentStatusCompleted,
			Status:        assignment.Status,
			TotalDays:     assignment.TotalDays,
			CompletedDays: assignment.CompletedDays,
			SuccessRate:   assignment.SuccessRate,
		}, nil
	}

	currentDay, err := s.dailyLogs.CountDailyLogs(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	totalPlanDays := assignment.TotalDays
	if currentDay != totalPlanDays {
		// Still in flight: refresh the summary cache and report progress.
		if _, err := s.UpdateProgressSummary(ctx, assignmentID); err != nil {
			return nil, err
		}
		return &CompletionCheck{
			Completed:     false,
			Status:        assignment.Status,
			CurrentDay:    currentDay,
			TotalDays:     totalPlanDays,
			RemainingDays: totalPlanDays - currentDay,
		}, nil
	}

	logs, err := s.dailyLogs.ListDailyLogs(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	completedDays := 0
	for _, dl := range logs {
		if dl.IsCompleted {
			completedDays++
		}
	}

	status := storage.AssignmentStatusAbandoned
	if float64(completedDays) >= float64(totalPlanDays)*CompletionThreshold {
		status = storage.AssignmentStatusCompleted
	}

	now := s.clock.Now().UTC()
	assignment.Status = status
	assignment.ActualEndDate = &now
	assignment.CompletedDays = completedDays
	assignment.SuccessRate = float64(completedDays) / float64(totalPlanDays) * 100
	assignment.UpdatedAt = now

	if err := s.assignments.UpdateAssignment(ctx, assignment); err != nil {
		return nil, err
	}

	// Final recompute so the cached summary reflects the frozen plan.
	if _, err := s.UpdateProgressSummary(ctx, assignmentID); err != nil {
		return nil, err
	}

	return &CompletionCheck{
		Completed:     status == storage.AssignmentStatusCompleted,
		Status:        status,
		CurrentDay:    currentDay,
		TotalDays:     totalPlanDays,
		CompletedDays: completedDays,
		SuccessRate:   assignment.SuccessRate,
	}, nil
}
