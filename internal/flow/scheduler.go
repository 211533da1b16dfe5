package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nkarpov/celesta/internal/telemetry"
)

// FailurePolicy — политика обработки падения стадии.
type FailurePolicy int

const (
	// FailFast — падение любой стадии прерывает run: всё, что ещё
	// не диспетчеризовано, переходит в SKIPPED, итог — FAILED.
	FailFast FailurePolicy = iota

	// Isolate — пропускаются только транзитивные потомки упавшей стадии,
	// независимые ветки продолжаются, итог — PARTIAL_SUCCESS.
	Isolate
)

// String возвращает строковое представление политики.
func (p FailurePolicy) String() string {
	if p == Isolate {
		return "isolate"
	}
	return "fail_fast"
}

// Scheduler превращает готовые стадии в выполняющиеся.
//
// Scheduler — чистый обходчик графа: он не знает семантики стадий,
// только их триггеры и объявленные множества полей. Каждая диспетчеризация —
// отдельная горутина; завершения собираются через канал, поэтому сам цикл
// планирования однопоточен и никогда не блокируется телом стадии.
type Scheduler struct {
	registry       *Registry
	policy         FailurePolicy
	maxConcurrent  int
	stallWarnAfter time.Duration
	logger         *slog.Logger
	sink           RunSink
}

// SchedulerConfig — конфигурация Scheduler.
type SchedulerConfig struct {
	// Registry — валидированный реестр стадий.
	Registry *Registry

	// Policy — политика обработки падений (default: FailFast).
	Policy FailurePolicy

	// MaxConcurrent — максимум одновременно выполняющихся стадий.
	// 0 — без ограничения: параллелизм ограничен только формой графа.
	MaxConcurrent int

	// StallWarnAfter — порог, после которого долго выполняющаяся стадия
	// попадает в лог предупреждением. 0 — отключено. Порог не прерывает
	// выполнение: таймауты — забота самих стадий.
	StallWarnAfter time.Duration

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// Sink — наблюдатель жизненного цикла (опционально).
	Sink RunSink
}

// NewScheduler создаёт новый Scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		registry:       cfg.Registry,
		policy:         cfg.Policy,
		maxConcurrent:  cfg.MaxConcurrent,
		stallWarnAfter: cfg.StallWarnAfter,
		logger:         logger,
		sink:           cfg.Sink,
	}
}

// stageResult — результат выполнения тела стадии, приходящий из горутины.
type stageResult struct {
	stageID    string
	outputs    Outputs
	err        error
	startedAt  time.Time
	finishedAt time.Time
}

// Execute выполняет run до терминального состояния и фиксирует итог.
//
// Блокирует вызывающего; внутри стадии выполняются параллельно.
// Возвращает ошибку только при некорректной настройке — падения стадий
// выражаются итогом run и журналом, не ошибкой Execute.
func (s *Scheduler) Execute(ctx context.Context, run *Run) error {
	if s.registry == nil || !s.registry.Validated() {
		return ErrNotValidated
	}

	results := make(chan stageResult)

	var (
		queue       []string // READY-стадии, ждущие слот
		inFlight    int
		halted      bool // новых диспетчеризаций не будет (fail-fast или отмена)
		cancelled   bool
		failed      bool
		startTimes  = make(map[string]time.Time)
		stallWarned = make(map[string]bool)
	)

	markReady := func(id string) {
		// markReady атомарен: стадия покидает PENDING ровно один раз,
		// поэтому двойная диспетчеризация невозможна даже при почти
		// одновременном завершении нескольких предков барьера.
		if run.markReady(id) {
			queue = append(queue, id)
		}
	}

	finishStage := func(rec StageRecord) {
		run.finish(rec)
		telemetry.ObserveStage(run.FlowName(), rec.StageID, string(rec.Status), rec.Duration())
		if s.sink != nil {
			if err := s.sink.StageFinished(ctx, run, rec); err != nil {
				s.logger.Warn("stage sink failed",
					"run_id", run.ID(),
					"stage_id", rec.StageID,
					"error", err,
				)
			}
		}
	}

	dispatch := func() {
		for len(queue) > 0 && !halted && (s.maxConcurrent <= 0 || inFlight < s.maxConcurrent) {
			id := queue[0]
			queue = queue[1:]
			st := s.registry.Stage(id)

			run.markRunning(id)
			startTimes[id] = time.Now()
			inFlight++

			in := run.store.snapshot(st.Reads)

			s.logger.Debug("stage dispatched",
				"run_id", run.ID(),
				"stage_id", id,
			)

			go s.invoke(ctx, st, in, results)
		}
	}

	// skipStages переводит невыполнявшиеся стадии из ids в SKIPPED
	// и вычищает их из очереди.
	skipStages := func(ids []string) {
		for _, id := range ids {
			status := run.Status(id)
			if status == StatusPending || status == StatusReady {
				finishStage(StageRecord{StageID: id, Status: StatusSkipped})
			}
		}
		kept := queue[:0]
		for _, id := range queue {
			if run.Status(id) == StatusReady {
				kept = append(kept, id)
			}
		}
		queue = kept
	}

	// cancelPending переводит все невыполнявшиеся стадии в CANCELLED.
	cancelPending := func() {
		for _, st := range s.registry.Stages() {
			status := run.Status(st.ID)
			if status == StatusPending || status == StatusReady {
				finishStage(StageRecord{
					StageID: st.ID,
					Status:  StatusCancelled,
					Error:   ErrRunCancelled.Error(),
				})
			}
		}
		queue = nil
	}

	// onCompleted переоценивает все стадии, чьи триггеры ссылаются
	// на завершившуюся. Вызывается ровно один раз на каждое завершение.
	onCompleted := func(id string) {
		for _, depID := range s.registry.Dependents(id) {
			if run.Status(depID) != StatusPending {
				continue
			}
			if s.registry.Stage(depID).Trigger.satisfied(run.isCompleted) {
				markReady(depID)
			}
		}
	}

	handleResult := func(res stageResult) {
		inFlight--
		delete(startTimes, res.stageID)
		st := s.registry.Stage(res.stageID)

		if cancelled {
			// Результаты, пришедшие после отмены, не применяются.
			finishStage(StageRecord{
				StageID:    res.stageID,
				Status:     StatusCancelled,
				StartedAt:  &res.startedAt,
				FinishedAt: &res.finishedAt,
				Error:      ErrRunCancelled.Error(),
			})
			return
		}

		err := res.err
		if err == nil {
			// Динамический контроль множества записи: выходы применяются
			// атомарно и только при точном покрытии объявленных полей.
			err = run.store.apply(st, res.outputs)
		}

		if err == nil {
			finishStage(StageRecord{
				StageID:    res.stageID,
				Status:     StatusCompleted,
				StartedAt:  &res.startedAt,
				FinishedAt: &res.finishedAt,
			})
			s.logger.Debug("stage completed",
				"run_id", run.ID(),
				"stage_id", res.stageID,
				"duration", res.finishedAt.Sub(res.startedAt),
			)
			onCompleted(res.stageID)
			return
		}

		finishStage(StageRecord{
			StageID:    res.stageID,
			Status:     StatusFailed,
			StartedAt:  &res.startedAt,
			FinishedAt: &res.finishedAt,
			Error:      err.Error(),
		})
		s.logger.Warn("stage failed",
			"run_id", run.ID(),
			"stage_id", res.stageID,
			"policy", s.policy.String(),
			"error", err,
		)

		failed = true
		switch s.policy {
		case Isolate:
			skipStages(s.registry.Descendants(res.stageID))
		default:
			halted = true
			all := make([]string, 0, s.registry.Size())
			for _, stage := range s.registry.Stages() {
				all = append(all, stage.ID)
			}
			skipStages(all)
		}
	}

	// Стартовые стадии готовы сразу при kickoff, независимо от размера графа.
	for _, st := range s.registry.Stages() {
		if st.Trigger.IsStart() {
			markReady(st.ID)
		}
	}
	dispatch()

	var stallCh <-chan time.Time
	if s.stallWarnAfter > 0 {
		ticker := time.NewTicker(s.stallWarnAfter)
		defer ticker.Stop()
		stallCh = ticker.C
	}

	for inFlight > 0 {
		select {
		case res := <-results:
			handleResult(res)
			dispatch()

		case <-ctx.Done():
			if !cancelled {
				cancelled = true
				halted = true
				s.logger.Info("run cancelled, draining running stages",
					"run_id", run.ID(),
					"in_flight", inFlight,
				)
				cancelPending()
			}

		case now := <-stallCh:
			for id, started := range startTimes {
				elapsed := now.Sub(started)
				if elapsed >= s.stallWarnAfter && !stallWarned[id] {
					stallWarned[id] = true
					telemetry.StageStalled(run.FlowName(), id)
					s.logger.Warn("stage running beyond stall threshold",
						"run_id", run.ID(),
						"stage_id", id,
						"elapsed", elapsed,
					)
				}
			}
		}
	}

	switch {
	case cancelled:
		run.complete(OutcomeCancelled)
	case failed && s.policy == Isolate:
		run.complete(OutcomePartialSuccess)
	case failed:
		run.complete(OutcomeFailed)
	default:
		run.complete(OutcomeSuccess)
	}
	return nil
}

// invoke выполняет тело стадии в отдельной горутине
// и отправляет результат в канал. Паника тела — ошибка стадии, не процесса.
func (s *Scheduler) invoke(ctx context.Context, st *Stage, in Inputs, results chan<- stageResult) {
	res := stageResult{stageID: st.ID, startedAt: time.Now()}

	defer func() {
		if p := recover(); p != nil {
			res.err = fmt.Errorf("%w: %v", ErrStagePanicked, p)
			res.finishedAt = time.Now()
		}
		results <- res
	}()

	res.outputs, res.err = st.Exec(ctx, in)
	res.finishedAt = time.Now()
}
