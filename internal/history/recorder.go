package history

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkarpov/celesta/internal/flow"
)

// Recorder адаптирует репозитории истории к flow.RunSink.
//
// Ошибки записи возвращаются движку, который логирует их
// предупреждениями: сбой истории не влияет на выполнение.
type Recorder struct {
	runs   *RunRepo
	stages *StageRepo
}

// NewRecorder создаёт Recorder поверх пула соединений.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{
		runs:   NewRunRepo(pool),
		stages: NewStageRepo(pool),
	}
}

// RunStarted записывает стартовавший run.
func (r *Recorder) RunStarted(ctx context.Context, run *flow.Run) error {
	return r.runs.Create(ctx, RunRecord{
		ID:        run.ID(),
		Flow:      run.FlowName(),
		StartedAt: run.StartedAt(),
	})
}

// StageFinished добавляет терминальную запись стадии в журнал.
func (r *Recorder) StageFinished(ctx context.Context, run *flow.Run, rec flow.StageRecord) error {
	return r.stages.Append(ctx, StageRow{
		RunID:      run.ID(),
		StageID:    rec.StageID,
		Status:     string(rec.Status),
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		Error:      rec.Error,
	})
}

// RunFinished фиксирует итог run.
func (r *Recorder) RunFinished(ctx context.Context, run *flow.Run) error {
	finishedAt := run.FinishedAt()
	return r.runs.Finish(ctx, run.ID(), string(run.Outcome()), finishedAt)
}
