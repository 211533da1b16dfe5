package flow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status — статус выполнения стадии в рамках одного run.
//
// Жизненный цикл:
//
//	PENDING → READY → RUNNING → COMPLETED
//	                          ↘ FAILED
//	PENDING → SKIPPED   (предок упал)
//	PENDING/READY/RUNNING → CANCELLED (run отменён)
//
// Переход PENDING → READY происходит не более одного раза:
// стадия никогда не диспетчеризуется повторно.
type Status string

const (
	// StatusPending — триггер ещё не удовлетворён.
	StatusPending Status = "PENDING"

	// StatusReady — триггер удовлетворён, стадия ждёт слот выполнения.
	StatusReady Status = "READY"

	// StatusRunning — тело стадии выполняется.
	StatusRunning Status = "RUNNING"

	// StatusCompleted — стадия успешно завершена, записи применены.
	StatusCompleted Status = "COMPLETED"

	// StatusFailed — тело стадии вернуло ошибку; записи не применены.
	StatusFailed Status = "FAILED"

	// StatusSkipped — стадия не выполнялась из-за падения предка.
	StatusSkipped Status = "SKIPPED"

	// StatusCancelled — run отменён до или во время выполнения стадии.
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped, StatusCancelled:
		return true
	default:
		return false
	}
}

// Outcome — итог одного run.
type Outcome string

const (
	// OutcomeSuccess — все стадии завершены успешно.
	OutcomeSuccess Outcome = "SUCCESS"

	// OutcomeFailed — run прерван политикой fail-fast.
	OutcomeFailed Outcome = "FAILED"

	// OutcomePartialSuccess — часть стадий пропущена политикой isolate,
	// независимые ветки завершились.
	OutcomePartialSuccess Outcome = "PARTIAL_SUCCESS"

	// OutcomeCancelled — run отменён через контекст.
	OutcomeCancelled Outcome = "CANCELLED"
)

// StageRecord — запись журнала выполнения одной стадии.
type StageRecord struct {
	// StageID — идентификатор стадии.
	StageID string `json:"stage_id"`

	// Status — финальный статус стадии.
	Status Status `json:"status"`

	// StartedAt — время начала выполнения.
	// Nil для SKIPPED и для CANCELLED до диспетчеризации.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения выполнения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки для FAILED; для CANCELLED — причина отмены.
	Error string `json:"error,omitempty"`
}

// Duration возвращает продолжительность выполнения стадии.
func (rec StageRecord) Duration() time.Duration {
	if rec.StartedAt == nil || rec.FinishedAt == nil {
		return 0
	}
	return rec.FinishedAt.Sub(*rec.StartedAt)
}

// Run — один запуск графа стадий.
//
// Владеет своим StateStore, таблицей статусов и журналом выполнения.
// Создаётся на каждый Kickoff и никогда не переиспользуется: параллельные
// runs полностью изолированы друг от друга.
type Run struct {
	id       uuid.UUID
	flowName string
	store    *StateStore

	mu       sync.RWMutex
	statuses map[string]Status
	log      []StageRecord // append-only, в порядке завершения
	outcome  Outcome

	startedAt  time.Time
	finishedAt time.Time
}

// newRun создаёт run с состоянием, засеянным из схемы и initial.
func newRun(reg *Registry, flowName string, initial map[string]any) (*Run, error) {
	store, err := newStateStore(reg.Schema(), initial)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]Status, reg.Size())
	for _, st := range reg.Stages() {
		statuses[st.ID] = StatusPending
	}

	return &Run{
		id:        uuid.New(),
		flowName:  flowName,
		store:     store,
		statuses:  statuses,
		startedAt: time.Now(),
	}, nil
}

// ID возвращает идентификатор run.
func (r *Run) ID() uuid.UUID {
	return r.id
}

// FlowName возвращает имя графа, к которому относится run.
func (r *Run) FlowName() string {
	return r.flowName
}

// State возвращает хранилище состояния run.
func (r *Run) State() *StateStore {
	return r.store
}

// Status возвращает текущий статус стадии.
func (r *Run) Status(stageID string) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statuses[stageID]
}

// Statuses возвращает копию таблицы статусов.
func (r *Run) Statuses() map[string]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Status, len(r.statuses))
	for k, v := range r.statuses {
		out[k] = v
	}
	return out
}

// ExecutionLog возвращает копию журнала выполнения
// (append-only, упорядочен по времени завершения).
func (r *Run) ExecutionLog() []StageRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]StageRecord, len(r.log))
	copy(out, r.log)
	return out
}

// Outcome возвращает итог run ("" до завершения).
func (r *Run) Outcome() Outcome {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.outcome
}

// StartedAt возвращает время начала run.
func (r *Run) StartedAt() time.Time {
	return r.startedAt
}

// FinishedAt возвращает время завершения run (нулевое до завершения).
func (r *Run) FinishedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finishedAt
}

// Duration возвращает продолжительность run.
func (r *Run) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.finishedAt.IsZero() {
		return 0
	}
	return r.finishedAt.Sub(r.startedAt)
}

// markReady переводит стадию PENDING → READY.
// Возвращает false, если стадия уже покинула PENDING: это и есть
// гарантия at-most-once при конкурирующих событиях завершения.
func (r *Run) markReady(stageID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.statuses[stageID] != StatusPending {
		return false
	}
	r.statuses[stageID] = StatusReady
	return true
}

// markRunning переводит стадию READY → RUNNING.
func (r *Run) markRunning(stageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[stageID] = StatusRunning
}

// isCompleted проверяет, завершена ли стадия успешно.
func (r *Run) isCompleted(stageID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statuses[stageID] == StatusCompleted
}

// finish фиксирует терминальный статус стадии и добавляет запись в журнал.
func (r *Run) finish(rec StageRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statuses[rec.StageID] = rec.Status
	r.log = append(r.log, rec)
}

// complete фиксирует итог run.
func (r *Run) complete(outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcome = outcome
	r.finishedAt = time.Now()
}

// Stats возвращает сводку статусов для логов и API.
func (r *Run) Stats() RunStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var s RunStats
	s.Total = len(r.statuses)
	for _, st := range r.statuses {
		switch st {
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
		case StatusCancelled:
			s.Cancelled++
		default:
			s.Pending++
		}
	}
	return s
}

// RunStats — сводка выполнения run.
type RunStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Cancelled int `json:"cancelled"`
}
