package events

import (
	"context"

	"github.com/nkarpov/celesta/internal/flow"
)

// Notifier адаптирует Publisher к flow.RunSink.
//
// Публикуются только события уровня run: журнал стадий пишет
// history.Recorder, а для внешних потребителей интерес представляют
// старт и итог. Ошибки публикации движок логирует предупреждениями.
type Notifier struct {
	pub *Publisher
}

// NewNotifier создаёт Notifier поверх публикатора.
func NewNotifier(pub *Publisher) *Notifier {
	return &Notifier{pub: pub}
}

// RunStarted публикует событие run.started.
func (n *Notifier) RunStarted(ctx context.Context, run *flow.Run) error {
	return n.pub.Publish(ctx, RunStartedKey, "run.started", RunStartedPayload{
		RunID:     run.ID(),
		Flow:      run.FlowName(),
		StartedAt: run.StartedAt(),
	})
}

// StageFinished не публикуется: события стадий остаются в истории.
func (n *Notifier) StageFinished(ctx context.Context, run *flow.Run, rec flow.StageRecord) error {
	return nil
}

// RunFinished публикует событие run.finished с итогом и длительностью.
func (n *Notifier) RunFinished(ctx context.Context, run *flow.Run) error {
	started := run.StartedAt()
	finished := run.FinishedAt()
	return n.pub.Publish(ctx, RunFinishedKey, "run.finished", RunFinishedPayload{
		RunID:      run.ID(),
		Flow:       run.FlowName(),
		Outcome:    string(run.Outcome()),
		StartedAt:  started,
		FinishedAt: finished,
		DurationMS: finished.Sub(started).Milliseconds(),
	})
}
