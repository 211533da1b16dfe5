package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nkarpov/celesta/internal/flow"
)

// buildTestFlow собирает минимальный граф из двух стадий.
func buildTestFlow(t *testing.T, execCount *atomic.Int32) *flow.Flow {
	t.Helper()

	reg := flow.NewRegistry(flow.Schema{"transit_moment": "", "greeting": ""})
	reg.MustRegister(flow.Stage{
		ID:      "prepare",
		Trigger: flow.Start(),
		Reads:   []string{"transit_moment"},
		Writes:  []string{"greeting"},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			if execCount != nil {
				execCount.Add(1)
			}
			return flow.Outputs{"greeting": "hello at " + in.String("transit_moment")}, nil
		},
	})
	reg.MustRegister(flow.Stage{
		ID:      "deliver",
		Trigger: flow.After("prepare"),
		Reads:   []string{"greeting"},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			return nil, nil
		},
	})

	f, err := flow.New(flow.Config{
		Name:     "test_flow",
		Registry: reg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("flow.New: %v", err)
	}
	return f
}

func newTestServer(t *testing.T, execCount *atomic.Int32) *httptest.Server {
	t.Helper()

	h := NewHandler(Config{
		Flow:   buildTestFlow(t, execCount),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestKickoffRun_Accepted(t *testing.T) {
	var execs atomic.Int32
	srv := newTestServer(t, &execs)

	resp, err := http.Post(srv.URL+"/api/v1/runs", "application/json",
		strings.NewReader(`{"transit_moment":"2026-08-28T12:00:00Z"}`))
	if err != nil {
		t.Fatalf("POST /runs: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", resp.StatusCode)
	}

	var body struct {
		Data KickoffResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Flow != "test_flow" {
		t.Errorf("flow: got %q", body.Data.Flow)
	}
	if body.Data.RunID == uuid.Nil {
		t.Error("run_id is zero")
	}

	// Фоновое выполнение успевает завершиться.
	deadline := time.Now().Add(2 * time.Second)
	for execs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if execs.Load() == 0 {
		t.Error("background run never executed")
	}
}

func TestKickoffRun_EmptyBodyAllowed(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/v1/runs", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /runs: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", resp.StatusCode)
	}
}

func TestKickoffRun_BadTransitMoment(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/v1/runs", "application/json",
		strings.NewReader(`{"transit_moment":"yesterday"}`))
	if err != nil {
		t.Fatalf("POST /runs: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if body.Error.Code != ErrCodeBadRequest {
		t.Errorf("error code: got %q", body.Error.Code)
	}
}

func TestListRuns_UnavailableWithoutHistory(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/v1/runs")
	if err != nil {
		t.Fatalf("GET /runs: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", resp.StatusCode)
	}
}

func TestGetRunStages_UnavailableWithoutHistory(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/v1/runs/6f1e8a52-7c1d-4e0a-9f33-0d8b1a2c3d4e/stages")
	if err != nil {
		t.Fatalf("GET /runs/{id}/stages: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", resp.StatusCode)
	}
}

func TestGetGraph(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/v1/graph")
	if err != nil {
		t.Fatalf("GET /graph: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("content type: got %q", ct)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	dot := string(raw)
	if !strings.Contains(dot, `digraph "test_flow"`) {
		t.Errorf("DOT header missing: %q", dot)
	}
	if !strings.Contains(dot, `"prepare" -> "deliver";`) {
		t.Errorf("edge missing: %q", dot)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q", body["status"])
	}
}

func TestParseIntParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=10&offset=bad", nil)
	if got := parseIntParam(req, "limit", 50); got != 10 {
		t.Errorf("limit: got %d", got)
	}
	if got := parseIntParam(req, "offset", 0); got != 0 {
		t.Errorf("offset: got %d", got)
	}
	if got := parseIntParam(req, "missing", 7); got != 7 {
		t.Errorf("missing: got %d", got)
	}
}
