package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StageRow — строка журнала стадий.
type StageRow struct {
	RunID      uuid.UUID  `json:"run_id"`
	StageID    string     `json:"stage_id"`
	Status     string     `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// StageRepo — append-only журнал стадий.
type StageRepo struct {
	pool *pgxpool.Pool
}

// NewStageRepo создаёт новый StageRepo.
func NewStageRepo(pool *pgxpool.Pool) *StageRepo {
	return &StageRepo{pool: pool}
}

// Append добавляет терминальную запись стадии.
// Порядок завершения сохраняется серийной колонкой position.
func (r *StageRepo) Append(ctx context.Context, row StageRow) error {
	query := `
		INSERT INTO run_stages (run_id, stage_id, status, started_at, finished_at, error)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		row.RunID,
		row.StageID,
		row.Status,
		row.StartedAt,
		row.FinishedAt,
		nullString(row.Error),
	)
	if err != nil {
		return fmt.Errorf("insert stage record: %w", err)
	}
	return nil
}

// ListByRun возвращает журнал стадий run в порядке завершения.
func (r *StageRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]StageRow, error) {
	query := `
		SELECT run_id, stage_id, status, started_at, finished_at, error
		FROM run_stages
		WHERE run_id = $1
		ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list stage records: %w", err)
	}
	defer rows.Close()

	var out []StageRow
	for rows.Next() {
		var row StageRow
		var stageErr *string
		if err := rows.Scan(&row.RunID, &row.StageID, &row.Status,
			&row.StartedAt, &row.FinishedAt, &stageErr); err != nil {
			return nil, fmt.Errorf("scan stage record: %w", err)
		}
		if stageErr != nil {
			row.Error = *stageErr
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
