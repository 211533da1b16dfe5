package flow

import (
	"sort"
	"strings"
)

// triggerKind — вид триггера.
type triggerKind int

const (
	triggerStart triggerKind = iota
	triggerAfter
	triggerAllOf
)

// Trigger — условие, при котором стадия становится готовой к выполнению.
//
// Три варианта:
//   - Start()        — нет предшественников, стадия готова сразу при kickoff
//   - After(id)      — один предшественник
//   - AllOf(ids...)  — барьер: готова только когда завершились все перечисленные
//
// Trigger — значение, создаётся один раз при определении стадии
// и дальше не изменяется.
type Trigger struct {
	kind triggerKind
	deps []string
}

// Start создаёт триггер без предшественников.
func Start() Trigger {
	return Trigger{kind: triggerStart}
}

// After создаёт триггер с одним предшественником.
func After(stageID string) Trigger {
	return Trigger{kind: triggerAfter, deps: []string{stageID}}
}

// AllOf создаёт барьер: стадия готова, когда завершились все stageIDs.
// Дубликаты в списке схлопываются. Барьер без предшественников
// удовлетворён тривиально и нормализуется в Start: иначе стадию
// некому было бы переоценить, и она осталась бы PENDING навсегда.
func AllOf(stageIDs ...string) Trigger {
	seen := make(map[string]bool, len(stageIDs))
	deps := make([]string, 0, len(stageIDs))
	for _, id := range stageIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		deps = append(deps, id)
	}
	if len(deps) == 0 {
		return Trigger{kind: triggerStart}
	}
	return Trigger{kind: triggerAllOf, deps: deps}
}

// IsStart возвращает true, если у триггера нет предшественников.
func (t Trigger) IsStart() bool {
	return t.kind == triggerStart
}

// Dependencies возвращает копию списка предшественников.
func (t Trigger) Dependencies() []string {
	out := make([]string, len(t.deps))
	copy(out, t.deps)
	return out
}

// satisfied проверяет, удовлетворён ли триггер множеством завершённых стадий.
// Вызов идемпотентен: функция не хранит состояние, поэтому повторные
// проверки до полного удовлетворения барьера безопасны.
func (t Trigger) satisfied(completed func(stageID string) bool) bool {
	for _, dep := range t.deps {
		if !completed(dep) {
			return false
		}
	}
	return true
}

// String возвращает читаемое представление триггера для логов и Plot.
func (t Trigger) String() string {
	switch t.kind {
	case triggerStart:
		return "start"
	case triggerAfter:
		return "after(" + t.deps[0] + ")"
	default:
		sorted := make([]string, len(t.deps))
		copy(sorted, t.deps)
		sort.Strings(sorted)
		return "all_of(" + strings.Join(sorted, ", ") + ")"
	}
}
