package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkarpov/celesta/internal/telemetry"
)

// Flow — точка входа для приложения: валидированный граф плюс настройки
// выполнения. Один Flow обслуживает сколько угодно параллельных runs —
// каждый Kickoff получает собственные StateStore и таблицу статусов.
type Flow struct {
	name      string
	registry  *Registry
	scheduler *Scheduler
	logger    *slog.Logger
	sink      RunSink
}

// Config — конфигурация Flow.
type Config struct {
	// Name — имя графа (попадает в журнал, метрики и события).
	Name string

	// Registry — реестр стадий. Если он ещё не валидирован,
	// New выполнит Validate и откажет на некорректном графе.
	Registry *Registry

	// Policy — политика обработки падений (default: FailFast).
	Policy FailurePolicy

	// MaxConcurrent — ограничение одновременных стадий (0 — нет).
	MaxConcurrent int

	// StallWarnAfter — порог предупреждения о зависшей стадии (0 — нет).
	StallWarnAfter time.Duration

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// Sink — наблюдатель жизненного цикла runs (опционально).
	Sink RunSink
}

// New создаёт Flow. Некорректный граф никогда не начнёт выполняться:
// ошибки валидации возвращаются отсюда, до первого Kickoff.
func New(cfg Config) (*Flow, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("flow %q: registry is required", cfg.Name)
	}
	if err := cfg.Registry.Validate(); err != nil {
		return nil, fmt.Errorf("flow %q: %w", cfg.Name, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "flow"
	}

	return &Flow{
		name:     name,
		registry: cfg.Registry,
		logger:   logger,
		sink:     cfg.Sink,
		scheduler: NewScheduler(SchedulerConfig{
			Registry:       cfg.Registry,
			Policy:         cfg.Policy,
			MaxConcurrent:  cfg.MaxConcurrent,
			StallWarnAfter: cfg.StallWarnAfter,
			Logger:         logger,
			Sink:           cfg.Sink,
		}),
	}, nil
}

// Result — итог одного run, возвращаемый Kickoff.
type Result struct {
	// RunID — идентификатор run.
	RunID uuid.UUID `json:"run_id"`

	// Outcome — терминальный итог.
	Outcome Outcome `json:"outcome"`

	// State — финальное разделяемое состояние.
	State map[string]any `json:"state"`

	// Log — журнал выполнения в порядке завершения стадий.
	Log []StageRecord `json:"log"`

	// Statuses — финальная таблица статусов.
	Statuses map[string]Status `json:"statuses"`

	// StartedAt / FinishedAt — границы run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Name возвращает имя графа.
func (f *Flow) Name() string {
	return f.name
}

// Registry возвращает реестр стадий (только чтение).
func (f *Flow) Registry() *Registry {
	return f.registry
}

// NewRun создаёт run с начальным состоянием, не запуская его.
// Для вызывающих, которым нужен доступ к статусам во время выполнения.
func (f *Flow) NewRun(initial map[string]any) (*Run, error) {
	return newRun(f.registry, f.name, initial)
}

// Execute выполняет подготовленный run до терминального состояния.
func (f *Flow) Execute(ctx context.Context, run *Run) (*Result, error) {
	telemetry.RunStarted(f.name)
	defer telemetry.RunDone(f.name)

	f.logger.Info("run started",
		"flow", f.name,
		"run_id", run.ID(),
		"stages", f.registry.Size(),
	)

	if f.sink != nil {
		if err := f.sink.RunStarted(ctx, run); err != nil {
			f.logger.Warn("run sink failed on start", "run_id", run.ID(), "error", err)
		}
	}

	if err := f.scheduler.Execute(ctx, run); err != nil {
		return nil, err
	}

	telemetry.RunFinished(f.name, string(run.Outcome()), run.Duration())
	f.logger.Info("run finished",
		"flow", f.name,
		"run_id", run.ID(),
		"outcome", run.Outcome(),
		"duration", run.Duration(),
		"stats", run.Stats(),
	)

	if f.sink != nil {
		if err := f.sink.RunFinished(ctx, run); err != nil {
			f.logger.Warn("run sink failed on finish", "run_id", run.ID(), "error", err)
		}
	}

	return &Result{
		RunID:      run.ID(),
		Outcome:    run.Outcome(),
		State:      run.State().Values(),
		Log:        run.ExecutionLog(),
		Statuses:   run.Statuses(),
		StartedAt:  run.StartedAt(),
		FinishedAt: run.FinishedAt(),
	}, nil
}

// Kickoff создаёт run, засеивает состояние initial и блокирует
// вызывающего до терминального итога. Итог и журнал возвращаются всегда,
// включая падения стадий; ошибка — только при некорректном initial.
func (f *Flow) Kickoff(ctx context.Context, initial map[string]any) (*Result, error) {
	run, err := f.NewRun(initial)
	if err != nil {
		return nil, err
	}
	return f.Execute(ctx, run)
}

// Plot возвращает статический граф зависимостей в формате Graphviz DOT.
// Ничего не выполняет и не мутирует: чистая интроспекция реестра.
func (f *Flow) Plot() string {
	var b strings.Builder

	fmt.Fprintf(&b, "digraph %q {\n", f.name)
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	for _, st := range f.registry.Stages() {
		if st.Trigger.IsStart() {
			fmt.Fprintf(&b, "  %q [style=bold];\n", st.ID)
			continue
		}
		for _, dep := range st.Trigger.Dependencies() {
			fmt.Fprintf(&b, "  %q -> %q;\n", dep, st.ID)
		}
	}

	b.WriteString("}\n")
	return b.String()
}
