package flow

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// sleepExec возвращает тело стадии, которое спит d и отдаёт outs.
func sleepExec(d time.Duration, outs Outputs) ExecFunc {
	return func(ctx context.Context, in Inputs) (Outputs, error) {
		select {
		case <-time.After(d):
			return outs, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// failExec возвращает тело стадии, которое всегда падает.
func failExec(msg string) ExecFunc {
	return func(ctx context.Context, in Inputs) (Outputs, error) {
		return nil, errors.New(msg)
	}
}

func buildFlow(t *testing.T, cfg Config) *Flow {
	t.Helper()
	f, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestScheduler_BarrierWaitsForAllAncestors(t *testing.T) {
	// A спит 10мс, B — 50мс, C — 5мс; D требует всех троих.
	// D должна стартовать ровно один раз и строго после завершения B.
	var mu sync.Mutex
	finished := map[string]time.Time{}
	record := func(id string, d time.Duration) ExecFunc {
		return func(ctx context.Context, in Inputs) (Outputs, error) {
			time.Sleep(d)
			mu.Lock()
			finished[id] = time.Now()
			mu.Unlock()
			return nil, nil
		}
	}

	var dCalls int32
	var dStarted time.Time

	reg := NewRegistry(Schema{})
	reg.MustRegister(Stage{ID: "a", Trigger: Start(), Exec: record("a", 10*time.Millisecond)})
	reg.MustRegister(Stage{ID: "b", Trigger: Start(), Exec: record("b", 50*time.Millisecond)})
	reg.MustRegister(Stage{ID: "c", Trigger: Start(), Exec: record("c", 5*time.Millisecond)})
	reg.MustRegister(Stage{ID: "d", Trigger: AllOf("a", "b", "c"),
		Exec: func(ctx context.Context, in Inputs) (Outputs, error) {
			atomic.AddInt32(&dCalls, 1)
			mu.Lock()
			dStarted = time.Now()
			mu.Unlock()
			return nil, nil
		}})

	f := buildFlow(t, Config{Name: "barrier", Registry: reg})

	res, err := f.Kickoff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}

	if res.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %s, want SUCCESS", res.Outcome)
	}
	if n := atomic.LoadInt32(&dCalls); n != 1 {
		t.Fatalf("d invoked %d times, want exactly 1", n)
	}
	for _, id := range []string{"a", "b", "c"} {
		if dStarted.Before(finished[id]) {
			t.Errorf("d started before %s finished", id)
		}
	}

	// В журнале ровно одна запись про d.
	count := 0
	for _, rec := range res.Log {
		if rec.StageID == "d" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("execution log has %d records for d, want 1", count)
	}
}

func TestScheduler_FailFast_SkipsRemaining(t *testing.T) {
	// Цепочка a → b → c, b падает: c пропускается, итог FAILED.
	reg := NewRegistry(Schema{})
	reg.MustRegister(Stage{ID: "a", Trigger: Start(), Exec: noop})
	reg.MustRegister(Stage{ID: "b", Trigger: After("a"), Exec: failExec("boom")})
	reg.MustRegister(Stage{ID: "c", Trigger: After("b"), Exec: noop})

	f := buildFlow(t, Config{Name: "chain", Registry: reg, Policy: FailFast})

	res, err := f.Kickoff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}

	if res.Outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want FAILED", res.Outcome)
	}
	if res.Statuses["a"] != StatusCompleted {
		t.Errorf("a = %s, want COMPLETED", res.Statuses["a"])
	}
	if res.Statuses["b"] != StatusFailed {
		t.Errorf("b = %s, want FAILED", res.Statuses["b"])
	}
	if res.Statuses["c"] != StatusSkipped {
		t.Errorf("c = %s, want SKIPPED", res.Statuses["c"])
	}

	for _, rec := range res.Log {
		if rec.StageID == "b" && !strings.Contains(rec.Error, "boom") {
			t.Errorf("b record error = %q, want boom", rec.Error)
		}
	}
}

func TestScheduler_Isolate_OtherBranchesContinue(t *testing.T) {
	// Две независимые ветки; падение в одной не трогает другую.
	reg := NewRegistry(Schema{"ok": ""})
	reg.MustRegister(Stage{ID: "bad", Trigger: Start(), Exec: failExec("boom")})
	reg.MustRegister(Stage{ID: "bad_child", Trigger: After("bad"), Exec: noop})
	reg.MustRegister(Stage{ID: "good", Trigger: Start(), Writes: []string{"ok"},
		Exec: sleepExec(5*time.Millisecond, Outputs{"ok": "yes"})})
	reg.MustRegister(Stage{ID: "good_child", Trigger: After("good"), Reads: []string{"ok"}, Exec: noop})

	f := buildFlow(t, Config{Name: "isolate", Registry: reg, Policy: Isolate})

	res, err := f.Kickoff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}

	if res.Outcome != OutcomePartialSuccess {
		t.Errorf("outcome = %s, want PARTIAL_SUCCESS", res.Outcome)
	}
	if res.Statuses["bad_child"] != StatusSkipped {
		t.Errorf("bad_child = %s, want SKIPPED", res.Statuses["bad_child"])
	}
	if res.Statuses["good"] != StatusCompleted || res.Statuses["good_child"] != StatusCompleted {
		t.Errorf("good branch statuses = %s / %s, want COMPLETED",
			res.Statuses["good"], res.Statuses["good_child"])
	}
	if res.State["ok"] != "yes" {
		t.Errorf("state[ok] = %v, want yes", res.State["ok"])
	}
}

func TestScheduler_Isolate_SkipsTransitiveDescendants(t *testing.T) {
	reg := NewRegistry(Schema{})
	reg.MustRegister(Stage{ID: "bad", Trigger: Start(), Exec: failExec("boom")})
	reg.MustRegister(Stage{ID: "child", Trigger: After("bad"), Exec: noop})
	reg.MustRegister(Stage{ID: "grandchild", Trigger: After("child"), Exec: noop})

	f := buildFlow(t, Config{Registry: reg, Policy: Isolate})

	res, err := f.Kickoff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}

	if res.Statuses["grandchild"] != StatusSkipped {
		t.Errorf("grandchild = %s, want SKIPPED", res.Statuses["grandchild"])
	}
}

func TestScheduler_FinalStateIndependentOfTiming(t *testing.T) {
	// Две непересекающиеся цепочки с разными задержками: финальное
	// состояние не зависит от того, какая ветка быстрее.
	build := func(slowLeft bool) map[string]any {
		left, right := 2*time.Millisecond, 20*time.Millisecond
		if slowLeft {
			left, right = 20*time.Millisecond, 2*time.Millisecond
		}

		reg := NewRegistry(Schema{"a": "", "b": "", "x": "", "y": ""})
		reg.MustRegister(Stage{ID: "a", Trigger: Start(), Writes: []string{"a"},
			Exec: sleepExec(left, Outputs{"a": "A"})})
		reg.MustRegister(Stage{ID: "b", Trigger: After("a"),
			Reads: []string{"a"}, Writes: []string{"b"},
			Exec: func(ctx context.Context, in Inputs) (Outputs, error) {
				return Outputs{"b": in.String("a") + "B"}, nil
			}})
		reg.MustRegister(Stage{ID: "x", Trigger: Start(), Writes: []string{"x"},
			Exec: sleepExec(right, Outputs{"x": "X"})})
		reg.MustRegister(Stage{ID: "y", Trigger: After("x"),
			Reads: []string{"x"}, Writes: []string{"y"},
			Exec: func(ctx context.Context, in Inputs) (Outputs, error) {
				return Outputs{"y": in.String("x") + "Y"}, nil
			}})

		f := buildFlow(t, Config{Registry: reg})
		res, err := f.Kickoff(context.Background(), nil)
		if err != nil {
			t.Fatalf("Kickoff: %v", err)
		}
		if res.Outcome != OutcomeSuccess {
			t.Fatalf("outcome = %s, want SUCCESS", res.Outcome)
		}
		return res.State
	}

	first := build(true)
	second := build(false)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("final state depends on timing:\n%v\n%v", first, second)
	}
}

func TestScheduler_UndeclaredWriteFailsStage(t *testing.T) {
	// Стадия объявила запись report, но вернула summary:
	// стадия падает, состояние нетронуто.
	reg := NewRegistry(Schema{"report": "", "summary": ""})
	reg.MustRegister(Stage{ID: "writer", Trigger: Start(), Writes: []string{"report"},
		Exec: func(ctx context.Context, in Inputs) (Outputs, error) {
			return Outputs{"summary": "sneaky"}, nil
		}})

	f := buildFlow(t, Config{Registry: reg})

	res, err := f.Kickoff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}

	if res.Outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want FAILED", res.Outcome)
	}
	if res.Statuses["writer"] != StatusFailed {
		t.Errorf("writer = %s, want FAILED", res.Statuses["writer"])
	}
	if res.State["summary"] != "" {
		t.Errorf("undeclared write leaked into state: %v", res.State["summary"])
	}
}

func TestScheduler_PanicBecomesStageFailure(t *testing.T) {
	reg := NewRegistry(Schema{})
	reg.MustRegister(Stage{ID: "boom", Trigger: Start(),
		Exec: func(ctx context.Context, in Inputs) (Outputs, error) {
			panic("unexpected nil")
		}})

	f := buildFlow(t, Config{Registry: reg})

	res, err := f.Kickoff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}

	if res.Statuses["boom"] != StatusFailed {
		t.Errorf("boom = %s, want FAILED", res.Statuses["boom"])
	}
	if len(res.Log) != 1 || !strings.Contains(res.Log[0].Error, "unexpected nil") {
		t.Errorf("panic message missing from record: %+v", res.Log)
	}
}

func TestScheduler_Cancellation(t *testing.T) {
	// Отмена контекста: работающая стадия дренируется, её записи
	// отбрасываются, невыполнявшиеся переходят в CANCELLED.
	reg := NewRegistry(Schema{"out": ""})
	reg.MustRegister(Stage{ID: "slow", Trigger: Start(), Writes: []string{"out"},
		Exec: func(ctx context.Context, in Inputs) (Outputs, error) {
			time.Sleep(30 * time.Millisecond)
			return Outputs{"out": "late"}, nil
		}})
	reg.MustRegister(Stage{ID: "after", Trigger: After("slow"), Reads: []string{"out"}, Exec: noop})

	f := buildFlow(t, Config{Registry: reg})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	res, err := f.Kickoff(ctx, nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}

	if res.Outcome != OutcomeCancelled {
		t.Errorf("outcome = %s, want CANCELLED", res.Outcome)
	}
	if res.Statuses["slow"] != StatusCancelled {
		t.Errorf("slow = %s, want CANCELLED", res.Statuses["slow"])
	}
	if res.Statuses["after"] != StatusCancelled {
		t.Errorf("after = %s, want CANCELLED", res.Statuses["after"])
	}
	if res.State["out"] != "" {
		t.Errorf("write applied after cancellation: %v", res.State["out"])
	}

	// Каждая отменённая запись журнала несёт причину отмены.
	for _, rec := range res.Log {
		if rec.Status == StatusCancelled && rec.Error != ErrRunCancelled.Error() {
			t.Errorf("record %s error = %q, want %q", rec.StageID, rec.Error, ErrRunCancelled)
		}
	}
}

func TestScheduler_MaxConcurrentCapsParallelism(t *testing.T) {
	var cur, max int32
	body := func(ctx context.Context, in Inputs) (Outputs, error) {
		n := atomic.AddInt32(&cur, 1)
		for {
			m := atomic.LoadInt32(&max)
			if n <= m || atomic.CompareAndSwapInt32(&max, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&cur, -1)
		return nil, nil
	}

	reg := NewRegistry(Schema{})
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		reg.MustRegister(Stage{ID: id, Trigger: Start(), Exec: body})
	}

	f := buildFlow(t, Config{Registry: reg, MaxConcurrent: 2})

	res, err := f.Kickoff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %s, want SUCCESS", res.Outcome)
	}
	if m := atomic.LoadInt32(&max); m > 2 {
		t.Errorf("observed %d concurrent stages, cap is 2", m)
	}
}

func TestScheduler_EmptyBarrierStageRuns(t *testing.T) {
	// Стадия с пустым барьером должна выполниться при kickoff,
	// а не остаться PENDING в успешно завершившемся run.
	var calls int32
	reg := NewRegistry(Schema{})
	reg.MustRegister(Stage{ID: "lone", Trigger: AllOf(),
		Exec: func(ctx context.Context, in Inputs) (Outputs, error) {
			atomic.AddInt32(&calls, 1)
			return nil, nil
		}})

	f := buildFlow(t, Config{Registry: reg})

	res, err := f.Kickoff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("lone invoked %d times, want 1", n)
	}
	if res.Statuses["lone"] != StatusCompleted {
		t.Errorf("lone = %s, want COMPLETED", res.Statuses["lone"])
	}
	if res.Outcome != OutcomeSuccess {
		t.Errorf("outcome = %s, want SUCCESS", res.Outcome)
	}
}

func TestScheduler_StallWarningFiresOncePerStage(t *testing.T) {
	// Стадия работает заметно дольше порога: run завершается успешно,
	// предупреждение в логе ровно одно несмотря на несколько тиков.
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	reg := NewRegistry(Schema{})
	reg.MustRegister(Stage{ID: "slow", Trigger: Start(),
		Exec: sleepExec(60*time.Millisecond, nil)})
	reg.MustRegister(Stage{ID: "quick", Trigger: Start(),
		Exec: sleepExec(time.Millisecond, nil)})

	f := buildFlow(t, Config{
		Registry:       reg,
		Logger:         logger,
		StallWarnAfter: 10 * time.Millisecond,
	})

	res, err := f.Kickoff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %s, want SUCCESS", res.Outcome)
	}
	if res.Statuses["slow"] != StatusCompleted {
		t.Fatalf("slow = %s, want COMPLETED", res.Statuses["slow"])
	}

	logs := buf.String()
	if n := strings.Count(logs, "stall threshold"); n != 1 {
		t.Errorf("stall warning logged %d times, want exactly 1:\n%s", n, logs)
	}
	if !strings.Contains(logs, "stage_id=slow") {
		t.Errorf("stall warning does not name the slow stage:\n%s", logs)
	}
}

func TestScheduler_AllStartStagesRun(t *testing.T) {
	// Несколько стартовых стадий без зависимостей: все должны выполниться.
	var calls int32
	body := func(ctx context.Context, in Inputs) (Outputs, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}

	reg := NewRegistry(Schema{})
	for _, id := range []string{"s1", "s2", "s3", "s4"} {
		reg.MustRegister(Stage{ID: id, Trigger: Start(), Exec: body})
	}

	f := buildFlow(t, Config{Registry: reg})

	res, err := f.Kickoff(context.Background(), nil)
	if err != nil {
		t.Fatalf("Kickoff: %v", err)
	}
	if res.Outcome != OutcomeSuccess {
		t.Errorf("outcome = %s, want SUCCESS", res.Outcome)
	}
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Errorf("%d start stages ran, want 4", n)
	}
}
