package flow

import "context"

// RunSink — наблюдатель жизненного цикла run.
//
// Через него журнал выполнения попадает в долговременное хранилище
// и внешние системы получают события. Ошибки sink логируются движком
// как предупреждения и никогда не влияют на корректность выполнения.
type RunSink interface {
	// RunStarted вызывается один раз после создания run, до диспетчеризации.
	RunStarted(ctx context.Context, run *Run) error

	// StageFinished вызывается на каждую терминальную запись журнала,
	// в порядке завершения стадий.
	StageFinished(ctx context.Context, run *Run, rec StageRecord) error

	// RunFinished вызывается один раз после фиксации итога run.
	RunFinished(ctx context.Context, run *Run) error
}

// multiSink рассылает события нескольким sink.
type multiSink []RunSink

// CombineSinks объединяет несколько sink в один. Nil-элементы отбрасываются;
// при пустом списке возвращается nil.
func CombineSinks(sinks ...RunSink) RunSink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multiSink) RunStarted(ctx context.Context, run *Run) error {
	var first error
	for _, s := range m {
		if err := s.RunStarted(ctx, run); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m multiSink) StageFinished(ctx context.Context, run *Run, rec StageRecord) error {
	var first error
	for _, s := range m {
		if err := s.StageFinished(ctx, run, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m multiSink) RunFinished(ctx context.Context, run *Run) error {
	var first error
	for _, s := range m {
		if err := s.RunFinished(ctx, run); err != nil && first == nil {
			first = err
		}
	}
	return first
}
