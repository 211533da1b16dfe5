package flow

import (
	"fmt"
	"sort"
)

// Schema — объявленное множество полей разделяемого состояния
// со значениями по умолчанию. Все поля присутствуют в состоянии
// с самого старта run, поэтому стадия никогда не читает
// несуществующее поле.
type Schema map[string]any

// Registry — реестр определений стадий и граф их зависимостей.
//
// Жизненный цикл: Register* → Validate → (только чтение).
// После успешного Validate реестр неизменяем и безопасно разделяется
// между параллельными runs.
type Registry struct {
	schema Schema
	stages map[string]*Stage
	order  []string // порядок регистрации, для детерминированного обхода

	// Заполняются в Validate.
	topo       []string                   // топологический порядок
	dependents map[string][]string        // stageID → стадии, чьи триггеры на него ссылаются
	ancestors  map[string]map[string]bool // stageID → множество транзитивных предков
	validated  bool
}

// NewRegistry создаёт пустой реестр со схемой состояния.
func NewRegistry(schema Schema) *Registry {
	s := make(Schema, len(schema))
	for k, v := range schema {
		s[k] = v
	}
	return &Registry{
		schema: s,
		stages: make(map[string]*Stage),
	}
}

// Register добавляет стадию в реестр.
//
// Проверки на этом этапе локальны: пустой/дублирующийся ID, отсутствие
// тела, self-dependency, поля чтения/записи вне схемы. Межстадийные
// свойства графа проверяет Validate.
func (r *Registry) Register(st Stage) error {
	if r.validated {
		return ErrValidated
	}

	if st.ID == "" {
		return NewValidationError("", "id", "stage has empty ID", ErrEmptyStageID)
	}
	if _, exists := r.stages[st.ID]; exists {
		return NewValidationError(st.ID, "id",
			fmt.Sprintf("duplicate stage ID: %s", st.ID), ErrDuplicateStageID)
	}
	if st.Exec == nil {
		return NewValidationError(st.ID, "exec", "stage has no exec func", ErrNilExec)
	}

	for _, dep := range st.Trigger.Dependencies() {
		if dep == st.ID {
			return NewValidationError(st.ID, "trigger",
				"stage depends on itself", ErrSelfDependency)
		}
	}

	for _, f := range st.Reads {
		if _, ok := r.schema[f]; !ok {
			return NewValidationError(st.ID, f,
				fmt.Sprintf("read field %q not declared in schema", f), ErrUnknownField)
		}
	}
	for _, f := range st.Writes {
		if _, ok := r.schema[f]; !ok {
			return NewValidationError(st.ID, f,
				fmt.Sprintf("write field %q not declared in schema", f), ErrUnknownField)
		}
	}

	stage := st
	r.stages[st.ID] = &stage
	r.order = append(r.order, st.ID)
	return nil
}

// MustRegister — Register с паникой при ошибке.
// Для статической сборки графа при старте процесса, где ошибка
// определения — ошибка программиста.
func (r *Registry) MustRegister(st Stage) {
	if err := r.Register(st); err != nil {
		panic(err)
	}
}

// Validate проверяет граф целиком. Выполняется один раз, до первого run:
// некорректный граф никогда не начинает выполняться.
//
// Проверяет:
//   - все ссылки триггеров ведут на зарегистрированные стадии
//   - граф ацикличен (алгоритм Кана)
//   - никакие две неупорядоченные стадии не пишут одно поле
//   - каждый чужой писатель читаемого поля упорядочен с читателем
func (r *Registry) Validate() error {
	if r.validated {
		return nil
	}

	if len(r.stages) == 0 {
		return ErrNoStages
	}

	if err := r.checkReferences(); err != nil {
		return err
	}

	topo, err := r.topologicalSort()
	if err != nil {
		return err
	}
	r.topo = topo

	r.buildDependents()
	r.buildAncestors()

	if err := r.checkWriteConflicts(); err != nil {
		return err
	}
	if err := r.checkReadOrdering(); err != nil {
		return err
	}

	r.validated = true
	return nil
}

// Validated возвращает true, если граф прошёл Validate.
func (r *Registry) Validated() bool {
	return r.validated
}

// Stage возвращает определение стадии по ID (nil, если нет).
func (r *Registry) Stage(id string) *Stage {
	return r.stages[id]
}

// Stages возвращает стадии в порядке регистрации.
func (r *Registry) Stages() []*Stage {
	out := make([]*Stage, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.stages[id])
	}
	return out
}

// Size возвращает количество стадий.
func (r *Registry) Size() int {
	return len(r.stages)
}

// Dependents возвращает стадии, чьи триггеры ссылаются на id.
func (r *Registry) Dependents(id string) []string {
	out := make([]string, len(r.dependents[id]))
	copy(out, r.dependents[id])
	return out
}

// Descendants возвращает транзитивных потомков стадии id
// (все стадии, которые прямо или косвенно зависят от неё).
func (r *Registry) Descendants(id string) []string {
	var out []string
	for _, other := range r.order {
		if r.ancestors[other][id] {
			out = append(out, other)
		}
	}
	return out
}

// Schema возвращает копию схемы состояния.
func (r *Registry) Schema() Schema {
	out := make(Schema, len(r.schema))
	for k, v := range r.schema {
		out[k] = v
	}
	return out
}

// checkReferences проверяет, что все триггеры ссылаются на существующие стадии.
func (r *Registry) checkReferences() error {
	for _, id := range r.order {
		st := r.stages[id]
		for _, dep := range st.Trigger.Dependencies() {
			if _, ok := r.stages[dep]; !ok {
				return NewValidationError(id, "trigger",
					fmt.Sprintf("trigger references unknown stage: %s", dep), ErrDanglingReference)
			}
		}
	}
	return nil
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
// Возвращает ошибку, если обнаружен цикл.
func (r *Registry) topologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(r.stages))
	for _, id := range r.order {
		inDegree[id] = len(r.stages[id].Trigger.Dependencies())
	}

	// Очередь стадий с inDegree = 0, в порядке регистрации.
	var queue []string
	for _, id := range r.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(r.stages))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, dep := range r.dependentsOf(id) {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	// Если не все стадии обработаны — есть цикл.
	if len(order) != len(r.stages) {
		return nil, ErrCyclicDependency
	}
	return order, nil
}

// dependentsOf перечисляет зависимые стадии обходом (до buildDependents).
func (r *Registry) dependentsOf(id string) []string {
	var out []string
	for _, other := range r.order {
		for _, dep := range r.stages[other].Trigger.Dependencies() {
			if dep == id {
				out = append(out, other)
				break
			}
		}
	}
	return out
}

// buildDependents строит обратный индекс рёбер.
func (r *Registry) buildDependents() {
	r.dependents = make(map[string][]string, len(r.stages))
	for _, id := range r.order {
		for _, dep := range r.stages[id].Trigger.Dependencies() {
			r.dependents[dep] = append(r.dependents[dep], id)
		}
	}
}

// buildAncestors строит множества транзитивных предков
// проходом по топологическому порядку.
func (r *Registry) buildAncestors() {
	r.ancestors = make(map[string]map[string]bool, len(r.stages))
	for _, id := range r.topo {
		anc := make(map[string]bool)
		for _, dep := range r.stages[id].Trigger.Dependencies() {
			anc[dep] = true
			for a := range r.ancestors[dep] {
				anc[a] = true
			}
		}
		r.ancestors[id] = anc
	}
}

// ordered проверяет, упорядочены ли две стадии графом
// (одна — транзитивный предок другой).
func (r *Registry) ordered(a, b string) bool {
	return r.ancestors[a][b] || r.ancestors[b][a]
}

// checkWriteConflicts требует, чтобы любые две стадии, пишущие одно поле,
// были упорядочены графом. Неупорядоченные писатели могут выполняться
// одновременно, и итоговое значение поля зависело бы от порядка завершения.
func (r *Registry) checkWriteConflicts() error {
	writers := make(map[string][]string) // field → stage IDs
	for _, id := range r.order {
		for _, f := range r.stages[id].Writes {
			writers[f] = append(writers[f], id)
		}
	}

	fields := make([]string, 0, len(writers))
	for f := range writers {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, f := range fields {
		ids := writers[f]
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if !r.ordered(ids[i], ids[j]) {
					return NewValidationError(ids[j], f,
						fmt.Sprintf("stages %s and %s both write field %q but are not ordered",
							ids[i], ids[j], f), ErrStateConflict)
				}
			}
		}
	}
	return nil
}

// checkReadOrdering требует, чтобы каждый чужой писатель читаемого поля
// был упорядочен с читателем. Писатель-предок гарантированно завершился
// до снимка; писатель-потомок применит запись уже после снимка; значение
// в обоих случаях детерминировано. Неупорядоченный писатель — гонка.
func (r *Registry) checkReadOrdering() error {
	writers := make(map[string][]string)
	for _, id := range r.order {
		for _, f := range r.stages[id].Writes {
			writers[f] = append(writers[f], id)
		}
	}

	for _, id := range r.order {
		for _, f := range r.stages[id].Reads {
			for _, w := range writers[f] {
				if w == id {
					continue
				}
				if !r.ordered(id, w) {
					return NewValidationError(id, f,
						fmt.Sprintf("stage %s reads field %q written by unordered stage %s",
							id, f, w), ErrUnorderedRead)
				}
			}
		}
	}
	return nil
}
