package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTrackingStorage implements PlanAssignmentsStorage,
// DailyLogsStorage, MealLogsStorage and SnackLogsStorage.
type PostgresTrackingStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresTrackingStorage(pool *pgxpool.Pool) *PostgresTrackingStorage {
	return &PostgresTrackingStorage{pool: pool}
}

// ---------- PlanAssignmentsStorage ----------

const assignmentColumns = `
	id, owner_user_id, client_id, plan_id, status,
	start_date, end_date, actual_start_date, actual_end_date,
	total_days, completed_days, success_rate, created_at, updated_at
`

func scanAssignment(row pgx.Row) (*storage.PlanAssignment, error) {
	var a storage.PlanAssignment
	err := row.Scan(
		&a.ID,
		&a.OwnerUserID,
		&a.ClientID,
		&a.PlanID,
		&a.Status,
		&a.StartDate,
		&a.EndDate,
		&a.ActualStartDate,
		&a.ActualEndDate,
		&a.TotalDays,
		&a.CompletedDays,
		&a.SuccessRate,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresTrackingStorage) GetAssignment(ctx context.Context, id uuid.UUID) (*storage.PlanAssignment, bool, error) {
	query := `SELECT ` + assignmentColumns + ` FROM plan_assignments WHERE id = $1`

	a, err := scanAssignment(s.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get assignment: %w", err)
	}
	return a, true, nil
}

func (s *PostgresTrackingStorage) GetActiveAssignment(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*storage.PlanAssignment, bool, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM plan_assignments
		WHERE owner_user_id = $1 AND client_id = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	a, err := scanAssignment(s.pool.QueryRow(ctx, query, ownerUserID, clientID, storage.AssignmentStatusActive))
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get active assignment: %w", err)
	}
	return a, true, nil
}

func (s *PostgresTrackingStorage) CreateAssignment(ctx context.Context, a *storage.PlanAssignment) error {
	query := `
		INSERT INTO plan_assignments (id, owner_user_id, client_id, plan_id, status,
		                              start_date, end_date, actual_start_date, actual_end_date,
		                              total_days, completed_days, success_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.pool.Exec(ctx, query,
		a.ID, a.OwnerUserID, a.ClientID, a.PlanID, a.Status,
		a.StartDate, a.EndDate, a.ActualStartDate, a.ActualEndDate,
		a.TotalDays, a.CompletedDays, a.SuccessRate, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

func (s *PostgresTrackingStorage) UpdateAssignment(ctx context.Context, a *storage.PlanAssignment) error {
	query := `
		UPDATE plan_assignments
		SET status = $2, start_date = $3, end_date = $4,
		    actual_start_date = $5, actual_end_date = $6,
		    total_days = $7, completed_days = $8, success_rate = $9,
		    updated_at = $10
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		a.ID, a.Status, a.StartDate, a.EndDate,
		a.ActualStartDate, a.ActualEndDate,
		a.TotalDays, a.CompletedDays, a.SuccessRate,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assignment %s not found", a.ID)
	}
	return nil
}

// ActivatePlan marks the assignment active and materializes all daily and
// meal logs in one transaction. A failure partway leaves nothing behind.
func (s *PostgresTrackingStorage) ActivatePlan(ctx context.Context, assignmentID uuid.UUID, activation storage.PlanActivation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin activate plan: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	updateQuery := `
		UPDATE plan_assignments
		SET status = $2, start_date = $3, end_date = $4, actual_start_date = $5,
		    total_days = $6, updated_at = $7
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, updateQuery,
		assignmentID, storage.AssignmentStatusActive,
		activation.StartDate, activation.EndDate, activation.ActualStartDate,
		activation.TotalDays, now,
	)
	if err != nil {
		return fmt.Errorf("activate assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assignment %s not found", assignmentID)
	}

	dailyQuery := `
		INSERT INTO daily_logs (id, assignment_id, date, day_number,
		                        target_calories, target_protein, target_carbs, target_fat,
		                        total_meals, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	mealQuery := `
		INSERT INTO meal_logs (id, daily_log_id, meal_name, meal_time, selected_option,
		                       calories, protein, carbs, fat, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, seed := range activation.Days {
		dailyLogID := uuid.New()
		_, err := tx.Exec(ctx, dailyQuery,
			dailyLogID, assignmentID, seed.Date, seed.DayNumber,
			seed.TargetCalories, seed.TargetProtein, seed.TargetCarbs, seed.TargetFat,
			len(seed.Meals), now, now,
		)
		if err != nil {
			return fmt.Errorf("create daily log (day %d): %w", seed.DayNumber, err)
		}

		for _, ms := range seed.Meals {
			_, err := tx.Exec(ctx, mealQuery,
				uuid.New(), dailyLogID, ms.MealName, ms.MealTime, ms.SelectedOption,
				ms.Calories, ms.Protein, ms.Carbs, ms.Fat, now, now,
			)
			if err != nil {
				return fmt.Errorf("create meal log (day %d, %s): %w", seed.DayNumber, ms.MealName, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit activate plan: %w", err)
	}
	return nil
}

// ---------- DailyLogsStorage ----------

const dailyLogColumns = `
	id, assignment_id, date, day_number,
	target_calories, target_protein, target_carbs, target_fat,
	total_calories, total_protein, total_carbs, total_fat,
	completed_meals, total_meals, completion_rate, is_completed,
	calorie_variance, protein_variance, carbs_variance, fat_variance,
	created_at, updated_at
`

func scanDailyLog(row pgx.Row) (*storage.DailyLog, error) {
	var dl storage.DailyLog
	err := row.Scan(
		&dl.ID,
		&dl.AssignmentID,
		&dl.Date,
		&dl.DayNumber,
		&dl.TargetCalories,
		&dl.TargetProtein,
		&dl.TargetCarbs,
		&dl.TargetFat,
		&dl.TotalCalories,
		&dl.TotalProtein,
		&dl.TotalCarbs,
		&dl.TotalFat,
		&dl.CompletedMeals,
		&dl.TotalMeals,
		&dl.CompletionRate,
		&dl.IsCompleted,
		&dl.CalorieVariance,
		&dl.ProteinVariance,
		&dl.CarbsVariance,
		&dl.FatVariance,
		&dl.CreatedAt,
		&dl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// DATE columns come back at midnight in the session timezone; pin UTC.
	dl.Date = time.Date(dl.Date.Year(), dl.Date.Month(), dl.Date.Day(), 0, 0, 0, 0, time.UTC)
	return &dl, nil
}

func (s *PostgresTrackingStorage) GetDailyLog(ctx context.Context, id uuid.UUID) (*storage.DailyLog, bool, error) {
	query := `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE id = $1`

	dl, err := scanDailyLog(s.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get daily log: %w", err)
	}
	return dl, true, nil
}

func (s *PostgresTrackingStorage) GetDailyLogByDate(ctx context.Context, assignmentID uuid.UUID, date time.Time) (*storage.DailyLog, bool, error) {
	query := `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE assignment_id = $1 AND date = $2`

	dl, err := scanDailyLog(s.pool.QueryRow(ctx, query, assignmentID, date))
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get daily log by date: %w", err)
	}
	return dl, true, nil
}

func (s *PostgresTrackingStorage) ListDailyLogs(ctx context.Context, assignmentID uuid.UUID) ([]storage.DailyLog, error) {
	query := `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE assignment_id = $1 ORDER BY date`

	rows, err := s.pool.Query(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list daily logs: %w", err)
	}
	defer rows.Close()

	var logs []storage.DailyLog
	for rows.Next() {
		dl, err := scanDailyLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily log: %w", err)
		}
		logs = append(logs, *dl)
	}
	return logs, rows.Err()
}

func (s *PostgresTrackingStorage) CountDailyLogs(ctx context.Context, assignmentID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM daily_logs WHERE assignment_id = $1`, assignmentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count daily logs: %w", err)
	}
	return count, nil
}

func (s *PostgresTrackingStorage) CreateDailyLog(ctx context.Context, dl *storage.DailyLog) error {
	query := `
		INSERT INTO daily_logs (id, assignment_id, date, day_number,
		                        target_calories, target_protein, target_carbs, target_fat,
		                        total_calories, total_protein, total_carbs, total_fat,
		                        completed_meals, total_meals, completion_rate, is_completed,
		                        calorie_variance, protein_variance, carbs_variance, fat_variance,
		                        created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err := s.pool.Exec(ctx, query,
		dl.ID, dl.AssignmentID, dl.Date, dl.DayNumber,
		dl.TargetCalories, dl.TargetProtein, dl.TargetCarbs, dl.TargetFat,
		dl.TotalCalories, dl.TotalProtein, dl.TotalCarbs, dl.TotalFat,
		dl.CompletedMeals, dl.TotalMeals, dl.CompletionRate, dl.IsCompleted,
		dl.CalorieVariance, dl.ProteinVariance, dl.CarbsVariance, dl.FatVariance,
		dl.CreatedAt, dl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create daily log: %w", err)
	}
	return nil
}

func (s *PostgresTrackingStorage) UpdateDailyLog(ctx context.Context, dl *storage.DailyLog) error {
	query := `
		UPDATE daily_logs
		SET total_calories = $2, total_protein = $3, total_carbs = $4, total_fat = $5,
		    completed_meals = $6, total_meals = $7, completion_rate = $8, is_completed = $9,
		    calorie_variance = $10, protein_variance = $11, carbs_variance = $12, fat_variance = $13,
		    updated_at = $14
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		dl.ID,
		dl.TotalCalories, dl.TotalProtein, dl.TotalCarbs, dl.TotalFat,
		dl.CompletedMeals, dl.TotalMeals, dl.CompletionRate, dl.IsCompleted,
		dl.CalorieVariance, dl.ProteinVariance, dl.CarbsVariance, dl.FatVariance,
		dl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update daily log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("daily log %s not found", dl.ID)
	}
	return nil
}

// ---------- MealLogsStorage ----------

const mealLogColumns = `
	id, daily_log_id, meal_name, meal_time, selected_option,
	calories, protein, carbs, fat, is_completed, completed_at,
	created_at, updated_at
`

func scanMealLog(row pgx.Row) (*storage.MealLog, error) {
	var ml storage.MealLog
	err := row.Scan(
		&ml.ID,
		&ml.DailyLogID,
		&ml.MealName,
		&ml.MealTime,
		&ml.SelectedOption,
		&ml.Calories,
		&ml.Protein,
		&ml.Carbs,
		&ml.Fat,
		&ml.IsCompleted,
		&ml.CompletedAt,
		&ml.CreatedAt,
		&ml.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ml, nil
}

func (s *PostgresTrackingStorage) GetMealLog(ctx context.Context, id uuid.UUID) (*storage.MealLog, bool, error) {
	query := `SELECT ` + mealLogColumns + ` FROM meal_logs WHERE id = $1`

	ml, err := scanMealLog(s.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get meal log: %w", err)
	}
	return ml, true, nil
}

func (s *PostgresTrackingStorage) ListMealLogs(ctx context.Context, dailyLogID uuid.UUID) ([]storage.MealLog, error) {
	query := `SELECT ` + mealLogColumns + ` FROM meal_logs WHERE daily_log_id = $1 ORDER BY meal_time, meal_name`

	rows, err := s.pool.Query(ctx, query, dailyLogID)
	if err != nil {
		return nil, fmt.Errorf("list meal logs: %w", err)
	}
	defer rows.Close()

	var meals []storage.MealLog
	for rows.Next() {
		ml, err := scanMealLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meal log: %w", err)
		}
		meals = append(meals, *ml)
	}
	return meals, rows.Err()
}

func (s *PostgresTrackingStorage) UpdateMealLog(ctx context.Context, ml *storage.MealLog) error {
	query := `
		UPDATE meal_logs
		SET selected_option = $2, calories = $3, protein = $4, carbs = $5, fat = $6,
		    is_completed = $7, completed_at = $8, updated_at = $9
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		ml.ID, ml.SelectedOption, ml.Calories, ml.Protein, ml.Carbs, ml.Fat,
		ml.IsCompleted, ml.CompletedAt, ml.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update meal log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("meal log %s not found", ml.ID)
	}
	return nil
}

// ---------- SnackLogsStorage ----------

func (s *PostgresTrackingStorage) GetSnackLog(ctx context.Context, id uuid.UUID) (*storage.SnackLog, bool, error) {
	query := `
		SELECT id, daily_log_id, name, description, meal_type,
		       calories, protein, carbs, fat, ingredients, logged_at, logged_time, created_at
		FROM snack_logs
		WHERE id = $1
	`

	var sl storage.SnackLog
	var ingredientsJSON []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&sl.ID, &sl.DailyLogID, &sl.Name, &sl.Description, &sl.MealType,
		&sl.Calories, &sl.Protein, &sl.Carbs, &sl.Fat,
		&ingredientsJSON, &sl.LoggedAt, &sl.LoggedTime, &sl.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get snack log: %w", err)
	}

	if err := json.Unmarshal(ingredientsJSON, &sl.Ingredients); err != nil {
		return nil, false, fmt.Errorf("decode snack ingredients: %w", err)
	}
	return &sl, true, nil
}

func (s *PostgresTrackingStorage) ListSnackLogs(ctx context.Context, dailyLogID uuid.UUID) ([]storage.SnackLog, error) {
	query := `
		SELECT id, daily_log_id, name, description, meal_type,
		       calories, protein, carbs, fat, ingredients, logged_at, logged_time, created_at
		FROM snack_logs
		WHERE daily_log_id = $1
		ORDER BY logged_at
	`

	rows, err := s.pool.Query(ctx, query, dailyLogID)
	if err != nil {
		return nil, fmt.Errorf("list snack logs: %w", err)
	}
	defer rows.Close()

	var snacks []storage.SnackLog
	for rows.Next() {
		var sl storage.SnackLog
		var ingredientsJSON []byte
		err := rows.Scan(
			&sl.ID, &sl.DailyLogID, &sl.Name, &sl.Description, &sl.MealType,
			&sl.Calories, &sl.Protein, &sl.Carbs, &sl.Fat,
			&ingredientsJSON, &sl.LoggedAt, &sl.LoggedTime, &sl.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snack log: %w", err)
		}
		if err := json.Unmarshal(ingredientsJSON, &sl.Ingredients); err != nil {
			return nil, fmt.Errorf("decode snack ingredients: %w", err)
		}
		snacks = append(snacks, sl)
	}
	return snacks, rows.Err()
}

func (s *PostgresTrackingStorage) CreateSnackLog(ctx context.Context, sl *storage.SnackLog) error {
	ingredientsJSON, err := json.Marshal(sl.Ingredients)
	if err != nil {
		return fmt.Errorf("encode snack ingredients: %w", err)
	}
	if sl.Ingredients == nil {
		ingredientsJSON = []byte("[]")
	}

	query := `
		INSERT INTO snack_logs (id, daily_log_id, name, description, meal_type,
		                        calories, protein, carbs, fat, ingredients,
		                        logged_at, logged_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.pool.Exec(ctx, query,
		sl.ID, sl.DailyLogID, sl.Name, sl.Description, sl.MealType,
		sl.Calories, sl.Protein, sl.Carbs, sl.Fat, ingredientsJSON,
		sl.LoggedAt, sl.LoggedTime, sl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create snack log: %w", err)
	}
	return nil
}

func (s *PostgresTrackingStorage) DeleteSnackLog(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM snack_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete snack log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("snack log %s not found", id)
	}
	return nil
}
