package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPlansStorage implements NutritionPlansStorage. The day/meal/option
// tree is stored as a JSONB document; the tracker only ever reads it whole.
type PostgresPlansStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresPlansStorage(pool *pgxpool.Pool) *PostgresPlansStorage {
	return &PostgresPlansStorage{pool: pool}
}

func (s *PostgresPlansStorage) GetPlan(ctx context.Context, id uuid.UUID) (*storage.NutritionPlan, bool, error) {
	query := `
		SELECT id, owner_user_id, title, description,
		       target_calories, target_protein, target_carbs, target_fat,
		       days, created_at, updated_at
		FROM nutrition_plans
		WHERE id = $1
	`

	var plan storage.NutritionPlan
	var daysJSON []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&plan.ID,
		&plan.OwnerUserID,
		&plan.Title,
		&plan.Description,
		&plan.TargetCalories,
		&plan.TargetProtein,
		&plan.TargetCarbs,
		&plan.TargetFat,
		&daysJSON,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get nutrition plan: %w", err)
	}

	if err := json.Unmarshal(daysJSON, &plan.Days); err != nil {
		return nil, false, fmt.Errorf("decode plan days: %w", err)
	}
	return &plan, true, nil
}

func (s *PostgresPlansStorage) CreatePlan(ctx context.Context, plan *storage.NutritionPlan) error {
	daysJSON, err := json.Marshal(plan.Days)
	if err != nil {
		return fmt.Errorf("encode plan days: %w", err)
	}

	query := `
		INSERT INTO nutrition_plans (id, owner_user_id, title, description,
		                             target_calories, target_protein, target_carbs, target_fat,
		                             days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.pool.Exec(ctx, query,
		plan.ID,
		plan.OwnerUserID,
		plan.Title,
		plan.Description,
		plan.TargetCalories,
		plan.TargetProtein,
		plan.TargetCarbs,
		plan.TargetFat,
		daysJSON,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create nutrition plan: %w", err)
	}
	return nil
}
