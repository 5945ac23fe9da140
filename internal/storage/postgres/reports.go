package postgres

import (
	"context"
	"fmt"

	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresReportsStorage implements ReportsStorage. Report payloads live in
// blob storage; only metadata is persisted here.
type PostgresReportsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresReportsStorage(pool *pgxpool.Pool) *PostgresReportsStorage {
	return &PostgresReportsStorage{pool: pool}
}

func (s *PostgresReportsStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	query := `
		INSERT INTO reports (id, owner_user_id, assignment_id, format, object_key,
		                     size_bytes, status, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING created_at, updated_at
	`
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx, query,
		report.ID, report.OwnerUserID, report.AssignmentID, report.Format,
		report.ObjectKey, report.SizeBytes, report.Status, report.Error,
	).Scan(&report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *PostgresReportsStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	query := `
		SELECT id, owner_user_id, assignment_id, format, object_key,
		       size_bytes, status, error, created_at, updated_at
		FROM reports
		WHERE id = $1
	`

	var r storage.ReportMeta
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.OwnerUserID, &r.AssignmentID, &r.Format, &r.ObjectKey,
		&r.SizeBytes, &r.Status, &r.Error, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("report not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &r, nil
}

func (s *PostgresReportsStorage) ListReports(ctx context.Context, ownerUserID string, limit, offset int) ([]storage.ReportMeta, error) {
	query := `
		SELECT id, owner_user_id, assignment_id, format, object_key,
		       size_bytes, status, error, created_at, updated_at
		FROM reports
		WHERE owner_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, query, ownerUserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []storage.ReportMeta
	for rows.Next() {
		var r storage.ReportMeta
		err := rows.Scan(
			&r.ID, &r.OwnerUserID, &r.AssignmentID, &r.Format, &r.ObjectKey,
			&r.SizeBytes, &r.Status, &r.Error, &r.CreatedAt, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *PostgresReportsStorage) DeleteReport(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report not found")
	}
	return nil
}
