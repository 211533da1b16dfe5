package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/nkarpov/celesta/internal/history"
)

// KickoffRequest — запрос на запуск run.
//
// TransitMoment переопределяет момент транзита для этого run
// (RFC3339). Пустое значение — момент запуска.
type KickoffRequest struct {
	TransitMoment string `json:"transit_moment,omitempty"`
}

// KickoffResponse — ответ на принятый запуск.
type KickoffResponse struct {
	RunID     uuid.UUID `json:"run_id"`
	Flow      string    `json:"flow"`
	StartedAt time.Time `json:"started_at"`
}

// RunResponse — ответ с run из истории.
type RunResponse struct {
	ID         uuid.UUID  `json:"id"`
	Flow       string     `json:"flow"`
	Outcome    string     `json:"outcome,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunFromRecord конвертирует history.RunRecord в RunResponse.
func RunFromRecord(rec history.RunRecord) RunResponse {
	return RunResponse{
		ID:         rec.ID,
		Flow:       rec.Flow,
		Outcome:    rec.Outcome,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
	}
}

// StageResponse — запись журнала стадий run.
type StageResponse struct {
	StageID    string     `json:"stage_id"`
	Status     string     `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// StageFromRow конвертирует history.StageRow в StageResponse.
func StageFromRow(row history.StageRow) StageResponse {
	return StageResponse{
		StageID:    row.StageID,
		Status:     row.Status,
		StartedAt:  row.StartedAt,
		FinishedAt: row.FinishedAt,
		Error:      row.Error,
	}
}
