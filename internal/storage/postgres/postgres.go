package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("client not found")
)

// PostgresStorage is the Postgres implementation of Storage, backed by a
// pgx connection pool shared across substorages.
type PostgresStorage struct {
	pool      *pgxpool.Pool
	plans     *PostgresPlansStorage
	tracking  *PostgresTrackingStorage
	history   *PostgresHistoryStorage
	summaries *PostgresSummariesStorage
	reports   *PostgresReportsStorage
}

// New creates PostgresStorage and ensures a default client exists.
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	ps := &PostgresStorage{
		pool:      pool,
		plans:     NewPostgresPlansStorage(pool),
		tracking:  NewPostgresTrackingStorage(pool),
		history:   NewPostgresHistoryStorage(pool),
		summaries: NewPostgresSummariesStorage(pool),
		reports:   NewPostgresReportsStorage(pool),
	}

	if err := ps.ensureDefaultClient(ctx); err != nil {
		return nil, err
	}

	return ps, nil
}

// ensureDefaultClient creates the default client if none exist yet.
func (p *PostgresStorage) ensureDefaultClient(ctx context.Context) error {
	var count int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE owner_user_id = $1`, "default").Scan(&count); err != nil {
		return fmt.Errorf("count clients: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO clients (id, owner_user_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`, uuid.New(), "default", "Demo Client", now, now)
	if err != nil {
		return fmt.Errorf("create default client: %w", err)
	}
	return nil
}

func (p *PostgresStorage) ListClients(ctx context.Context, ownerUserID string) ([]storage.Client, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, owner_user_id, name, created_at, updated_at
		FROM clients
		WHERE owner_user_id = $1
		ORDER BY created_at
	`, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []storage.Client
	for rows.Next() {
		var c storage.Client
		if err := rows.Scan(&c.ID, &c.OwnerUserID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (p *PostgresStorage) GetClient(ctx context.Context, id uuid.UUID) (*storage.Client, error) {
	var c storage.Client
	err := p.pool.QueryRow(ctx, `
		SELECT id, owner_user_id, name, created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id).Scan(&c.ID, &c.OwnerUserID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

func (p *PostgresStorage) CreateClient(ctx context.Context, client *storage.Client) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO clients (id, owner_user_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, client.ID, client.OwnerUserID, client.Name, client.CreatedAt, client.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (p *PostgresStorage) DeleteClient(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresStorage) GetPlansStorage() *PostgresPlansStorage {
	return p.plans
}

func (p *PostgresStorage) GetTrackingStorage() *PostgresTrackingStorage {
	return p.tracking
}

func (p *PostgresStorage) GetHistoryStorage() *PostgresHistoryStorage {
	return p.history
}

func (p *PostgresStorage) GetSummariesStorage() *PostgresSummariesStorage {
	return p.summaries
}

func (p *PostgresStorage) GetReportsStorage() *PostgresReportsStorage {
	return p.reports
}
