package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestValidateCronExpr(t *testing.T) {
	valid := []string{
		"0 9 * * *",
		"*/5 * * * *",
		"30 18 * * 1-5",
	}
	for _, expr := range valid {
		if err := ValidateCronExpr(expr); err != nil {
			t.Errorf("ValidateCronExpr(%q): unexpected error: %v", expr, err)
		}
	}

	invalid := []string{
		"",
		"not a cron",
		"0 9 * *",        // четыре поля
		"61 * * * *",     // минута вне диапазона
		"0 0 * * * * *",  // семь полей
	}
	for _, expr := range invalid {
		if err := ValidateCronExpr(expr); err == nil {
			t.Errorf("ValidateCronExpr(%q): expected error", expr)
		}
	}
}

func TestParseSchedule_Timezone(t *testing.T) {
	// 09:00 в Берлине летом — 07:00 UTC.
	sched, err := ParseSchedule("0 9 * * *", "Europe/Berlin")
	if err != nil {
		t.Fatalf("ParseSchedule: %v", err)
	}

	from := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	next := sched.Next(from)

	want := time.Date(2026, 7, 15, 7, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next: got %s, want %s", next, want)
	}
	if next.Location() != time.UTC {
		t.Errorf("next not in UTC: %s", next.Location())
	}
}

func TestParseSchedule_InvalidTimezone(t *testing.T) {
	if _, err := ParseSchedule("0 9 * * *", "Mars/Olympus"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestNextAfter(t *testing.T) {
	from := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	next, err := NextAfter("0 12 * * *", "", from)
	if err != nil {
		t.Fatalf("NextAfter: %v", err)
	}
	want := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next: got %s, want %s", next, want)
	}
}

// tickSchedule срабатывает через фиксированный интервал.
type tickSchedule struct {
	every time.Duration
}

func (s tickSchedule) Next(t time.Time) time.Time {
	return t.Add(s.every)
}

func TestRunner_FiresKickoff(t *testing.T) {
	var calls atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := New(Config{
		Schedule: tickSchedule{every: 5 * time.Millisecond},
		Kickoff: func(ctx context.Context) error {
			if calls.Add(1) >= 3 {
				cancel()
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: got %v, want context.Canceled", err)
	}
	if got := calls.Load(); got < 3 {
		t.Errorf("kickoff calls: got %d, want >= 3", got)
	}
}

func TestRunner_KickoffErrorDoesNotStopLoop(t *testing.T) {
	var calls atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := New(Config{
		Schedule: tickSchedule{every: 5 * time.Millisecond},
		Kickoff: func(ctx context.Context) error {
			if calls.Add(1) >= 2 {
				cancel()
				return nil
			}
			return errors.New("transient failure")
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: got %v, want context.Canceled", err)
	}
	if got := calls.Load(); got < 2 {
		t.Errorf("kickoff calls: got %d, want >= 2", got)
	}
}

func TestRunner_RequiresKickoff(t *testing.T) {
	if _, err := New(Config{CronExpr: "0 9 * * *"}); !errors.Is(err, ErrNoKickoff) {
		t.Fatalf("got %v, want ErrNoKickoff", err)
	}
}

func TestRunner_InvalidExprRejected(t *testing.T) {
	_, err := New(Config{
		CronExpr: "bogus",
		Kickoff:  func(ctx context.Context) error { return nil },
	})
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}
