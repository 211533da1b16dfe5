package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nkarpov/celesta/internal/pipeline"
)

// KickoffRun запускает run асинхронно.
// POST /api/v1/runs
//
// Выполнение идёт в фоне; статус и журнал доступны через историю.
func (h *Handler) KickoffRun(w http.ResponseWriter, r *http.Request) {
	var req KickoffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	initial := map[string]any{}
	if req.TransitMoment != "" {
		if _, err := time.Parse(time.RFC3339, req.TransitMoment); err != nil {
			BadRequest(w, "transit_moment must be RFC3339")
			return
		}
		initial[pipeline.FieldTransitMoment] = req.TransitMoment
	}

	run, err := h.flow.NewRun(initial)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	// Run переживает HTTP запрос: отвязываем от его контекста.
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if _, err := h.flow.Execute(ctx, run); err != nil {
			h.logger.Error("background run failed", "run_id", run.ID(), "error", err)
		}
	}()

	Accepted(w, KickoffResponse{
		RunID:     run.ID(),
		Flow:      h.flow.Name(),
		StartedAt: run.StartedAt(),
	})
}

// ListRuns возвращает историю runs, новые первыми.
// GET /api/v1/runs?limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		Unavailable(w, "run history is not configured")
		return
	}

	limit := parseIntParam(r, "limit", 50)
	offset := parseIntParam(r, "offset", 0)

	runs, err := h.runs.List(r.Context(), limit, offset)
	if HandleHistoryError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, rec := range runs {
		result[i] = RunFromRecord(rec)
	}

	List(w, result, len(result))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		Unavailable(w, "run history is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	rec, err := h.runs.GetByID(r.Context(), id)
	if HandleHistoryError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromRecord(*rec))
}

// ListRunStages возвращает журнал стадий run в порядке завершения.
// GET /api/v1/runs/{id}/stages
func (h *Handler) ListRunStages(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil || h.stages == nil {
		Unavailable(w, "run history is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	// Проверяем, что run существует
	if _, err := h.runs.GetByID(r.Context(), id); HandleHistoryError(w, h.logger, err, "run not found") {
		return
	}

	rows, err := h.stages.ListByRun(r.Context(), id)
	if HandleHistoryError(w, h.logger, err, "") {
		return
	}

	result := make([]StageResponse, len(rows))
	for i, row := range rows {
		result[i] = StageFromRow(row)
	}

	List(w, result, len(result))
}

// GetGraph возвращает статический граф стадий в формате Graphviz DOT.
// GET /api/v1/graph
func (h *Handler) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	io.WriteString(w, h.flow.Plot())
}

// Healthz — проверка живости.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseIntParam парсит числовой query-параметр с дефолтным значением.
func parseIntParam(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
