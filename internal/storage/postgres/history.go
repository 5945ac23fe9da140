package postgres

import (
	"context"
	"fmt"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresHistoryStorage implements CustomMealHistoryStorage.
type PostgresHistoryStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresHistoryStorage(pool *pgxpool.Pool) *PostgresHistoryStorage {
	return &PostgresHistoryStorage{pool: pool}
}

func (s *PostgresHistoryStorage) UpsertEntry(ctx context.Context, e *storage.CustomMealHistoryEntry) error {
	query := `
		INSERT INTO custom_meal_history (id, owner_user_id, client_id, name, meal_type,
		                                 calories, protein, carbs, fat,
		                                 usage_count, last_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (client_id, name, meal_type, calories, protein, carbs, fat)
		DO UPDATE SET usage_count = custom_meal_history.usage_count + 1,
		              last_used = EXCLUDED.last_used
		RETURNING id, usage_count, created_at
	`
	err := s.pool.QueryRow(ctx, query,
		e.ID, e.OwnerUserID, e.ClientID, e.Name, e.MealType,
		e.Calories, e.Protein, e.Carbs, e.Fat,
		e.UsageCount, e.LastUsed, e.CreatedAt,
	).Scan(&e.ID, &e.UsageCount, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert custom meal history: %w", err)
	}
	return nil
}

func (s *PostgresHistoryStorage) ListEntries(ctx context.Context, ownerUserID string, clientID uuid.UUID, limit int) ([]storage.CustomMealHistoryEntry, error) {
	query := `
		SELECT id, owner_user_id, client_id, name, meal_type,
		       calories, protein, carbs, fat, usage_count, last_used, created_at
		FROM custom_meal_history
		WHERE owner_user_id = $1 AND client_id = $2
		ORDER BY last_used DESC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, ownerUserID, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list custom meal history: %w", err)
	}
	defer rows.Close()

	var entries []storage.CustomMealHistoryEntry
	for rows.Next() {
		var e storage.CustomMealHistoryEntry
		err := rows.Scan(
			&e.ID, &e.OwnerUserID, &e.ClientID, &e.Name, &e.MealType,
			&e.Calories, &e.Protein, &e.Carbs, &e.Fat,
			&e.UsageCount, &e.LastUsed, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan custom meal history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
