package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrNoKickoff возвращается, если Runner создан без функции запуска.
var ErrNoKickoff = errors.New("schedule: kickoff function is required")

// KickoffFunc запускает один run. Ошибка логируется, цикл продолжается.
type KickoffFunc func(ctx context.Context) error

// Config — конфигурация Runner.
type Config struct {
	CronExpr string
	Timezone string

	// Schedule переопределяет CronExpr/Timezone (используется в тестах).
	Schedule cron.Schedule

	Kickoff KickoffFunc
	Logger  *slog.Logger

	// Now переопределяет источник времени (используется в тестах).
	Now func() time.Time
}

// Runner выполняет kickoff в моменты, заданные расписанием.
type Runner struct {
	sched   cron.Schedule
	kickoff KickoffFunc
	logger  *slog.Logger
	now     func() time.Time
}

// New создаёт Runner. Cron-выражение валидируется здесь.
func New(cfg Config) (*Runner, error) {
	if cfg.Kickoff == nil {
		return nil, ErrNoKickoff
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	sched := cfg.Schedule
	if sched == nil {
		var err error
		sched, err = ParseSchedule(cfg.CronExpr, cfg.Timezone)
		if err != nil {
			return nil, err
		}
	}

	return &Runner{
		sched:   sched,
		kickoff: cfg.Kickoff,
		logger:  logger,
		now:     now,
	}, nil
}

// Run выполняет цикл планировщика до отмены контекста.
//
// Запуски последовательны: следующий момент вычисляется после
// завершения предыдущего kickoff, так что затянувшийся run сдвигает
// расписание вместо наложения.
func (r *Runner) Run(ctx context.Context) error {
	for {
		next := r.sched.Next(r.now())
		wait := next.Sub(r.now())
		if wait < 0 {
			wait = 0
		}

		r.logger.Info("next scheduled run", "at", next.Format(time.RFC3339), "in", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		started := r.now()
		if err := r.kickoff(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			r.logger.Error("scheduled run failed", "error", err)
			continue
		}

		r.logger.Info("scheduled run completed", "duration", r.now().Sub(started).Round(time.Millisecond))
	}
}

// NextAfter возвращает следующий момент запуска после from.
// Удобно для команды validate: показать, когда сработает выражение.
func NextAfter(cronExpr, timezone string, from time.Time) (time.Time, error) {
	sched, err := ParseSchedule(cronExpr, timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("next after: %w", err)
	}
	return sched.Next(from), nil
}
