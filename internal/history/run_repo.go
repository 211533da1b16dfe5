package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunRecord — строка истории одного run.
type RunRecord struct {
	ID         uuid.UUID  `json:"id"`
	Flow       string     `json:"flow"`
	Outcome    string     `json:"outcome,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunRepo — репозиторий runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create записывает стартовавший run. Итог на этот момент неизвестен.
func (r *RunRepo) Create(ctx context.Context, rec RunRecord) error {
	query := `
		INSERT INTO runs (id, flow, outcome, started_at)
		VALUES ($1, $2, NULL, $3)
	`
	if _, err := r.pool.Exec(ctx, query, rec.ID, rec.Flow, rec.StartedAt); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish фиксирует итог завершившегося run.
func (r *RunRepo) Finish(ctx context.Context, id uuid.UUID, outcome string, finishedAt time.Time) error {
	query := `
		UPDATE runs
		SET outcome = $2, finished_at = $3
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, outcome, finishedAt)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	query := `
		SELECT id, flow, outcome, started_at, finished_at
		FROM runs
		WHERE id = $1
	`
	rec, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List возвращает последние runs, новые первыми.
func (r *RunRepo) List(ctx context.Context, limit, offset int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, flow, outcome, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// scanRun сканирует одну строку в RunRecord.
func scanRun(row pgx.Row) (*RunRecord, error) {
	var rec RunRecord
	var outcome *string

	err := row.Scan(&rec.ID, &rec.Flow, &outcome, &rec.StartedAt, &rec.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if outcome != nil {
		rec.Outcome = *outcome
	}
	return &rec, nil
}
