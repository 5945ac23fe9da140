package diettracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fitcoach/diet-hub/internal/dietprogress"
	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrAssignmentNotFound = errors.New("diet plan assignment not found")
	ErrPlanNotFound       = errors.New("nutrition plan not found")
	ErrDailyLogNotFound   = errors.New("daily log not found")
	ErrMealLogNotFound    = errors.New("meal log not found")
	ErrSnackLogNotFound   = errors.New("snack log not found")
	ErrPlanAlreadyStarted = errors.New("diet plan assignment is not in assigned status")
	ErrPlanTemplateEmpty  = errors.New("nutrition plan has no scheduled days")
	ErrInvalidDate        = errors.New("invalid date format, expected YYYY-MM-DD")
)

// Service implements the diet-plan tracking engine: plan start, meal and
// snack mutations, and daily log recomputation.
type Service struct {
	assignments storage.PlanAssignmentsStorage
	plans       storage.NutritionPlansStorage
	dailyLogs   storage.DailyLogsStorage
	mealLogs    storage.MealLogsStorage
	snackLogs   storage.SnackLogsStorage
	history     storage.CustomMealHistoryStorage
	progress    *dietprogress.Service
	clock       Clock
}

// NewService creates a diet tracker service using the wall clock.
func NewService(
	assignments storage.PlanAssignmentsStorage,
	plans storage.NutritionPlansStorage,
	dailyLogs storage.DailyLogsStorage,
	mealLogs storage.MealLogsStorage,
	snackLogs storage.SnackLogsStorage,
	history storage.CustomMealHistoryStorage,
	progress *dietprogress.Service,
) *Service {
	return &Service{
		assignments: assignments,
		plans:       plans,
		dailyLogs:   dailyLogs,
		mealLogs:    mealLogs,
		snackLogs:   snackLogs,
		history:     history,
		progress:    progress,
		clock:       systemClock{},
	}
}

// WithClock overrides the clock (tests).
func (s *Service) WithClock(clock Clock) *Service {
	s.clock = clock
	return s
}

// getOwnedAssignment loads an assignment scoped to the authenticated owner.
// Another owner's assignment reads as not found so its existence never leaks.
func (s *Service) getOwnedAssignment(ctx context.Context, ownerUserID string, assignmentID uuid.UUID) (*storage.PlanAssignment, error) {
	assignment, found, err := s.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !found || assignment.OwnerUserID != ownerUserID {
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}

// checkDayOwned verifies a daily log's assignment belongs to the owner,
// reporting a mismatch as the caller's record-level not-found error.
func (s *Service) checkDayOwned(ctx context.Context, ownerUserID string, dl *storage.DailyLog, notFound error) error {
	_, err := s.getOwnedAssignment(ctx, ownerUserID, dl.AssignmentID)
	if errors.Is(err, ErrAssignmentNotFound) {
		return notFound
	}
	return err
}

// StartPlan materializes all daily logs and meal logs for an assigned plan
// and marks the assignment active. The whole write is one transaction:
// a partial failure leaves no logs behind.
func (s *Service) StartPlan(ctx context.Context, ownerUserID string, assignmentID uuid.UUID) (*PlanAssignmentDTO, error) {
	assignment, err := s.getOwnedAssignment(ctx, ownerUserID, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status != storage.AssignmentStatusAssigned {
		return nil, ErrPlanAlreadyStarted
	}

	plan, found, err := s.plans.GetPlan(ctx, assignment.PlanID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPlanNotFound
	}
	if len(plan.Days) == 0 {
		return nil, ErrPlanTemplateEmpty
	}

	now := s.clock.Now()
	startDate := DateOnly(now)
	endDate := startDate.AddDate(0, 0, len(plan.Days)-1)

	activation := storage.PlanActivation{
		StartDate:       startDate,
		EndDate:         endDate,
		ActualStartDate: now.UTC(),
		TotalDays:       len(plan.Days),
		Days:            make([]storage.DailyLogSeed, 0, len(plan.Days)),
	}

	for i, day := range plan.Days {
		seed := storage.DailyLogSeed{
			Date:           startDate.AddDate(0, 0, i),
			DayNumber:      i + 1,
			TargetCalories: plan.TargetCalories,
			TargetProtein:  plan.TargetProtein,
			TargetCarbs:    plan.TargetCarbs,
			TargetFat:      plan.TargetFat,
			Meals:          make([]storage.MealLogSeed, 0, len(day.Meals)),
		}
		for _, meal := range day.Meals {
			mealSeed := storage.MealLogSeed{
				MealName: meal.MealName,
				MealTime: meal.MealTime,
			}
			// First option is the default selection.
			if len(meal.Options) > 0 {
				opt := meal.Options[0]
				mealSeed.SelectedOption = opt.OptionName
				mealSeed.Calories = opt.Calories
				mealSeed.Protein = opt.Protein
				mealSeed.Carbs = opt.Carbs
				mealSeed.Fat = opt.Fat
			}
			seed.Meals = append(seed.Meals, mealSeed)
		}
		activation.Days = append(activation.Days, seed)
	}

	if err := s.assignments.ActivatePlan(ctx, assignmentID, activation); err != nil {
		return nil, fmt.Errorf("activate plan: %w", err)
	}

	assignment, err = s.getOwnedAssignment(ctx, ownerUserID, assignmentID)
	if err != nil {
		return nil, err
	}
	return toAssignmentDTO(assignment), nil
}

// GetTrackerSummary returns the client's active assignment with its logs.
func (s *Service) GetTrackerSummary(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*TrackerSummaryResponse, error) {
	assignment, found, err := s.assignments.GetActiveAssignment(ctx, ownerUserID, clientID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &TrackerSummaryResponse{Assignment: nil, DailyLogs: []DailyLogDTO{}}, nil
	}

	logs, err := s.dailyLogs.ListDailyLogs(ctx, assignment.ID)
	if err != nil {
		return nil, err
	}

	dtos := make([]DailyLogDTO, len(logs))
	for i, dl := range logs {
		dtos[i] = toDailyLogDTO(dl)
	}

	return &TrackerSummaryResponse{Assignment: toAssignmentDTO(assignment), DailyLogs: dtos}, nil
}

// GetStats computes live plan statistics for the client's active assignment.
func (s *Service) GetStats(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*dietprogress.ProgressStatsDTO, error) {
	assignment, found, err := s.assignments.GetActiveAssignment(ctx, ownerUserID, clientID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrAssignmentNotFound
	}

	stats, err := s.progress.ComputeStats(ctx, assignment.ID)
	if err != nil {
		return nil, err
	}
	dto := dietprogress.StatsToDTO(stats)
	return &dto, nil
}

// NextMeal returns the next upcoming uncompleted meal of today's log, or
// nil when everything is done (or no plan is active).
func (s *Service) NextMeal(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*MealLogDTO, error) {
	assignment, found, err := s.assignments.GetActiveAssignment(ctx, ownerUserID, clientID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	now := s.clock.Now()
	dl, found, err := s.dailyLogs.GetDailyLogByDate(ctx, assignment.ID, DateOnly(now))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	meals, err := s.mealLogs.ListMealLogs(ctx, dl.ID)
	if err != nil {
		return nil, err
	}

	// Meals come back ordered by meal_time; HH:MM compares lexically.
	nowHHMM := now.Format("15:04")
	var fallback *storage.MealLog
	for i := range meals {
		meal := &meals[i]
		if meal.IsCompleted {
			continue
		}
		if meal.MealTime >= nowHHMM {
			dto := toMealLogDTO(meal)
			return &dto, nil
		}
		if fallback == nil {
			fallback = meal
		}
	}
	if fallback != nil {
		dto := toMealLogDTO(fallback)
		return &dto, nil
	}
	return nil, nil
}

// GetDay returns one day's log with meals and snacks.
func (s *Service) GetDay(ctx context.Context, ownerUserID string, assignmentID uuid.UUID, dateStr string) (*DayDTO, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, ErrInvalidDate
	}

	if _, err := s.getOwnedAssignment(ctx, ownerUserID, assignmentID); err != nil {
		return nil, err
	}

	dl, found, err := s.dailyLogs.GetDailyLogByDate(ctx, assignmentID, DateOnly(date))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrDailyLogNotFound
	}

	return s.buildDayDTO(ctx, dl)
}

// ListMealHistory returns the client's deduplicated custom meal entries,
// most recently used first, for reuse suggestions when logging.
func (s *Service) ListMealHistory(ctx context.Context, ownerUserID string, clientID uuid.UUID, limit int) ([]CustomMealHistoryDTO, error) {
	entries, err := s.history.ListEntries(ctx, ownerUserID, clientID, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]CustomMealHistoryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toCustomMealHistoryDTO(e)
	}
	return dtos, nil
}

func (s *Service) buildDayDTO(ctx context.Context, dl *storage.DailyLog) (*DayDTO, error) {
	meals, err := s.mealLogs.ListMealLogs(ctx, dl.ID)
	if err != nil {
		return nil, err
	}
	snacks, err := s.snackLogs.ListSnackLogs(ctx, dl.ID)
	if err != nil {
		return nil, err
	}

	day := &DayDTO{
		Log:           toDailyLogDTO(*dl),
		Meals:         make([]MealLogDTO, len(meals)),
		Snacks:        make([]SnackLogDTO, len(snacks)),
		PlannedTotals: toMacrosDTO(SumAll(meals, snacks)),
	}
	for i := range meals {
		day.Meals[i] = toMealLogDTO(&meals[i])
	}
	for i := range snacks {
		day.Snacks[i] = toSnackLogDTO(&snacks[i])
	}
	return day, nil
}

// SetMealCompletion completes or uncompletes a planned meal. The parent
// day must be the current day and the plan must belong to the owner.
func (s *Service) SetMealCompletion(ctx context.Context, ownerUserID string, mealLogID uuid.UUID, completed bool) (*MealLogDTO, *dietprogress.CompletionCheck, error) {
	meal, found, err := s.mealLogs.GetMealLog(ctx, mealLogID)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, ErrMealLogNotFound
	}

	dl, found, err := s.dailyLogs.GetDailyLog(ctx, meal.DailyLogID)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, ErrDailyLogNotFound
	}

	// A foreign owner's meal reads as not found, never as forbidden.
	if err := s.checkDayOwned(ctx, ownerUserID, dl, ErrMealLogNotFound); err != nil {
		return nil, nil, err
	}

	operation := "complete"
	if !completed {
		operation = "uncomplete"
	}
	if err := ValidateDayEdit(dl.Date, s.clock.Now(), operation); err != nil {
		return nil, nil, err
	}

	now := s.clock.Now().UTC()
	meal.IsCompleted = completed
	if completed {
		meal.CompletedAt = &now
	} else {
		meal.CompletedAt = nil
	}
	meal.UpdatedAt = now

	if err := s.mealLogs.UpdateMealLog(ctx, meal); err != nil {
		return nil, nil, err
	}

	check, err := s.refreshDay(ctx, dl.ID, dl.AssignmentID)
	if err != nil {
		return nil, nil, err
	}

	dto := toMealLogDTO(meal)
	return &dto, check, nil
}

// ChangeMealOption swaps a meal's selected nutrition option and overwrites
// its macro snapshot. Totals recompute on the same pass; an uncompleted
// meal contributes nothing until completed.
func (s *Service) ChangeMealOption(ctx context.Context, ownerUserID string, mealLogID uuid.UUID, option MealOptionInput) (*MealLogDTO, *dietprogress.CompletionCheck, error) {
	meal, found, err := s.mealLogs.GetMealLog(ctx, mealLogID)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, ErrMealLogNotFound
	}

	dl, found, err := s.dailyLogs.GetDailyLog(ctx, meal.DailyLogID)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, ErrDailyLogNotFound
	}

	if err := s.checkDayOwned(ctx, ownerUserID, dl, ErrMealLogNotFound); err != nil {
		return nil, nil, err
	}

	if err := ValidateDayEdit(dl.Date, s.clock.Now(), "change"); err != nil {
		return nil, nil, err
	}

	meal.SelectedOption = option.OptionName
	meal.Calories = option.Calories
	meal.Protein = option.Protein
	meal.Carbs = option.Carbs
	meal.Fat = option.Fat
	meal.UpdatedAt = s.clock.Now().UTC()

	if err := s.mealLogs.UpdateMealLog(ctx, meal); err != nil {
		return nil, nil, err
	}

	check, err := s.refreshDay(ctx, dl.ID, dl.AssignmentID)
	if err != nil {
		return nil, nil, err
	}

	dto := toMealLogDTO(meal)
	return &dto, check, nil
}

// LogCustomMeal records a free-form snack for today. The target date must
// equal today; past and future days are rejected with distinct directions.
// The custom-meal history upsert is best-effort: failures are logged and
// never fail the operation.
func (s *Service) LogCustomMeal(ctx context.Context, ownerUserID string, assignmentID uuid.UUID, dateStr string, meal CustomMealInput) (*SnackLogDTO, *dietprogress.CompletionCheck, error) {
	assignment, err := s.getOwnedAssignment(ctx, ownerUserID, assignmentID)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	today := DateOnly(now)

	target := today
	if dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, nil, ErrInvalidDate
		}
		target = DateOnly(parsed)
	}

	// Today is re-derived here rather than via ValidateDayEdit so the
	// rejection carries the logging verb and exact direction.
	if target.Before(today) {
		return nil, nil, &DayNotEditableError{Operation: "log", Status: DayPast}
	}
	if target.After(today) {
		return nil, nil, &DayNotEditableError{Operation: "log", Status: DayFuture}
	}

	dl, err := s.getOrCreateDailyLog(ctx, assignment, target)
	if err != nil {
		return nil, nil, err
	}

	snack := &storage.SnackLog{
		ID:          uuid.New(),
		DailyLogID:  dl.ID,
		Name:        meal.Name,
		Description: meal.Description,
		MealType:    meal.MealType,
		Calories:    meal.Calories,
		Protein:     meal.Protein,
		Carbs:       meal.Carbs,
		Fat:         meal.Fat,
		Ingredients: meal.Ingredients,
		LoggedAt:    now.UTC(),
		LoggedTime:  now.Format("15:04"),
		CreatedAt:   now.UTC(),
	}
	if err := s.snackLogs.CreateSnackLog(ctx, snack); err != nil {
		return nil, nil, err
	}

	entry := &storage.CustomMealHistoryEntry{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		ClientID:    assignment.ClientID,
		Name:        meal.Name,
		MealType:    meal.MealType,
		Calories:    meal.Calories,
		Protein:     meal.Protein,
		Carbs:       meal.Carbs,
		Fat:         meal.Fat,
		UsageCount:  1,
		LastUsed:    now.UTC(),
		CreatedAt:   now.UTC(),
	}
	if err := s.history.UpsertEntry(ctx, entry); err != nil {
		log.Printf("WARN diettracker: custom meal history upsert failed: %v", err)
	}

	check, err := s.refreshDay(ctx, dl.ID, dl.AssignmentID)
	if err != nil {
		return nil, nil, err
	}

	dto := toSnackLogDTO(snack)
	return &dto, check, nil
}

// DeleteSnackLog removes a snack and recomputes its day. No day-eligibility
// check is applied here, asymmetric with creation; that matches the
// shipped behavior and must not be changed without product sign-off.
func (s *Service) DeleteSnackLog(ctx context.Context, ownerUserID string, snackLogID uuid.UUID) (*dietprogress.CompletionCheck, error) {
	snack, found, err := s.snackLogs.GetSnackLog(ctx, snackLogID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSnackLogNotFound
	}

	dl, found, err := s.dailyLogs.GetDailyLog(ctx, snack.DailyLogID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrDailyLogNotFound
	}

	if err := s.checkDayOwned(ctx, ownerUserID, dl, ErrSnackLogNotFound); err != nil {
		return nil, err
	}

	if err := s.snackLogs.DeleteSnackLog(ctx, snackLogID); err != nil {
		return nil, err
	}

	return s.refreshDay(ctx, dl.ID, dl.AssignmentID)
}

// refreshDay reruns the two-stage daily recompute and the completion check.
func (s *Service) refreshDay(ctx context.Context, dailyLogID, assignmentID uuid.UUID) (*dietprogress.CompletionCheck, error) {
	if err := s.UpdateDailyTotals(ctx, dailyLogID); err != nil {
		return nil, err
	}
	if err := s.UpdateDailyLogProgress(ctx, dailyLogID); err != nil {
		return nil, err
	}
	return s.progress.CheckPlanCompletion(ctx, assignmentID)
}

// UpdateDailyTotals recomputes totals from completed meals only (snacks are
// folded in by UpdateDailyLogProgress). It writes the legacy all-meals
// completion flag, which the progress pass immediately supersedes.
func (s *Service) UpdateDailyTotals(ctx context.Context, dailyLogID uuid.UUID) error {
	dl, found, err := s.dailyLogs.GetDailyLog(ctx, dailyLogID)
	if err != nil {
		return err
	}
	if !found {
		return ErrDailyLogNotFound
	}

	meals, err := s.mealLogs.ListMealLogs(ctx, dailyLogID)
	if err != nil {
		return err
	}

	completed := 0
	for _, meal := range meals {
		if meal.IsCompleted {
			completed++
		}
	}

	totals := SumCompleted(meals, nil)
	dl.TotalCalories = totals.Calories
	dl.TotalProtein = totals.Protein
	dl.TotalCarbs = totals.Carbs
	dl.TotalFat = totals.Fat
	dl.CompletedMeals = completed
	dl.TotalMeals = len(meals)
	dl.IsCompleted = completed == len(meals)
	dl.UpdatedAt = s.clock.Now().UTC()

	return s.dailyLogs.UpdateDailyLog(ctx, dl)
}

// UpdateDailyLogProgress is the authoritative daily recompute: totals from
// completed meals plus all snacks, variance against targets, completion
// rate, and the ≥50% completion flag consumed by plan statistics. Calling
// it twice without an intervening mutation persists identical values.
func (s *Service) UpdateDailyLogProgress(ctx context.Context, dailyLogID uuid.UUID) error {
	dl, found, err := s.dailyLogs.GetDailyLog(ctx, dailyLogID)
	if err != nil {
		return err
	}
	if !found {
		return ErrDailyLogNotFound
	}

	meals, err := s.mealLogs.ListMealLogs(ctx, dailyLogID)
	if err != nil {
		return err
	}
	snacks, err := s.snackLogs.ListSnackLogs(ctx, dailyLogID)
	if err != nil {
		return err
	}

	completed := 0
	for _, meal := range meals {
		if meal.IsCompleted {
			completed++
		}
	}

	totals := SumCompleted(meals, snacks)
	dl.TotalCalories = totals.Calories
	dl.TotalProtein = totals.Protein
	dl.TotalCarbs = totals.Carbs
	dl.TotalFat = totals.Fat
	dl.CompletedMeals = completed
	dl.TotalMeals = len(meals)

	if len(meals) > 0 {
		dl.CompletionRate = float64(completed) / float64(len(meals)) * 100
	} else {
		dl.CompletionRate = 0
	}
	dl.IsCompleted = dl.CompletionRate >= dietprogress.CompletedDayThreshold

	dl.CalorieVariance = dl.TotalCalories - dl.TargetCalories
	dl.ProteinVariance = dl.TotalProtein - dl.TargetProtein
	dl.CarbsVariance = dl.TotalCarbs - dl.TargetCarbs
	dl.FatVariance = dl.TotalFat - dl.TargetFat
	dl.UpdatedAt = s.clock.Now().UTC()

	return s.dailyLogs.UpdateDailyLog(ctx, dl)
}

// getOrCreateDailyLog lazily materializes a log for an ad-hoc day, deriving
// day_number from the offset to the assignment's start date.
func (s *Service) getOrCreateDailyLog(ctx context.Context, assignment *storage.PlanAssignment, date time.Time) (*storage.DailyLog, error) {
	dl, found, err := s.dailyLogs.GetDailyLogByDate(ctx, assignment.ID, date)
	if err != nil {
		return nil, err
	}
	if found {
		return dl, nil
	}

	start := date
	if assignment.StartDate != nil {
		start = DateOnly(*assignment.StartDate)
	} else if assignment.ActualStartDate != nil {
		start = DateOnly(*assignment.ActualStartDate)
	}
	dayNumber := int(date.Sub(start).Hours()/24) + 1

	var targetCalories, targetProtein, targetCarbs, targetFat float64
	if plan, found, err := s.plans.GetPlan(ctx, assignment.PlanID); err == nil && found {
		targetCalories = plan.TargetCalories
		targetProtein = plan.TargetProtein
		targetCarbs = plan.TargetCarbs
		targetFat = plan.TargetFat
	}

	now := s.clock.Now().UTC()
	dl = &storage.DailyLog{
		ID:           uuid.New(),
		AssignmentID: assignment.ID,
		Date:         date,
		DayNumber:    dayNumber,

		TargetCalories: targetCalories,
		TargetProtein:  targetProtein,
		TargetCarbs:    targetCarbs,
		TargetFat:      targetFat,

		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.dailyLogs.CreateDailyLog(ctx, dl); err != nil {
		return nil, err
	}
	return dl, nil
}
