package postgres

import (
	"context"
	"fmt"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSummariesStorage implements ProgressSummariesStorage.
type PostgresSummariesStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresSummariesStorage(pool *pgxpool.Pool) *PostgresSummariesStorage {
	return &PostgresSummariesStorage{pool: pool}
}

func (s *PostgresSummariesStorage) GetSummary(ctx context.Context, assignmentID uuid.UUID) (*storage.ProgressSummary, bool, error) {
	query := `
		SELECT id, assignment_id, total_days, completed_days,
		       average_calories, average_protein, average_carbs, average_fat,
		       average_completion_rate, consistency_score, adherence_score,
		       success_rate, overall_success, best_day, worst_day,
		       created_at, updated_at
		FROM progress_summaries
		WHERE assignment_id = $1
	`

	var ps storage.ProgressSummary
	err := s.pool.QueryRow(ctx, query, assignmentID).Scan(
		&ps.ID, &ps.AssignmentID, &ps.TotalDays, &ps.CompletedDays,
		&ps.AverageCalories, &ps.AverageProtein, &ps.AverageCarbs, &ps.AverageFat,
		&ps.AverageCompletionRate, &ps.ConsistencyScore, &ps.AdherenceScore,
		&ps.SuccessRate, &ps.OverallSuccess, &ps.BestDay, &ps.WorstDay,
		&ps.CreatedAt, &ps.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get progress summary: %w", err)
	}
	return &ps, true, nil
}

func (s *PostgresSummariesStorage) UpsertSummary(ctx context.Context, ps *storage.ProgressSummary) error {
	query := `
		INSERT INTO progress_summaries (id, assignment_id, total_days, completed_days,
		                                average_calories, average_protein, average_carbs, average_fat,
		                                average_completion_rate, consistency_score, adherence_score,
		                                success_rate, overall_success, best_day, worst_day,
		                                created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (assignment_id)
		DO UPDATE SET total_days = EXCLUDED.total_days,
		              completed_days = EXCLUDED.completed_days,
		              average_calories = EXCLUDED.average_calories,
		              average_protein = EXCLUDED.average_protein,
		              average_carbs = EXCLUDED.average_carbs,
		              average_fat = EXCLUDED.average_fat,
		              average_completion_rate = EXCLUDED.average_completion_rate,
		              consistency_score = EXCLUDED.consistency_score,
		              adherence_score = EXCLUDED.adherence_score,
		              success_rate = EXCLUDED.success_rate,
		              overall_success = EXCLUDED.overall_success,
		              best_day = EXCLUDED.best_day,
		              worst_day = EXCLUDED.worst_day,
		              updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	err := s.pool.QueryRow(ctx, query,
		ps.ID, ps.AssignmentID, ps.TotalDays, ps.CompletedDays,
		ps.AverageCalories, ps.AverageProtein, ps.AverageCarbs, ps.AverageFat,
		ps.AverageCompletionRate, ps.ConsistencyScore, ps.AdherenceScore,
		ps.SuccessRate, ps.OverallSuccess, ps.BestDay, ps.WorstDay,
		ps.CreatedAt, ps.UpdatedAt,
	).Scan(&ps.ID, &ps.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert progress summary: %w", err)
	}
	return nil
}
