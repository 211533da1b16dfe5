package flow

import (
	"fmt"
	"sync"
)

// StateStore — разделяемое состояние одного run.
//
// Единственный разделяемый мутируемый ресурс движка. Дисциплина доступа:
//   - стадия получает снимок только объявленных полей чтения
//   - записи применяются атомарно по завершении стадии, всё или ничего
//   - упавшая стадия не применяет частичных записей
//
// Мьютекс здесь — страховка нижнего уровня; отсутствие логических гонок
// гарантирует валидация графа (checkWriteConflicts / checkReadOrdering).
type StateStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// newStateStore создаёт состояние из схемы и начальных значений.
// Каждое поле схемы присутствует сразу; initial может переопределить
// значения по умолчанию, но не добавить поля вне схемы.
func newStateStore(schema Schema, initial map[string]any) (*StateStore, error) {
	values := make(map[string]any, len(schema))
	for k, v := range schema {
		values[k] = v
	}
	for k, v := range initial {
		if _, ok := schema[k]; !ok {
			return nil, NewValidationError("", k,
				fmt.Sprintf("initial state field %q not declared in schema", k), ErrUnknownField)
		}
		values[k] = v
	}
	return &StateStore{values: values}, nil
}

// snapshot возвращает копию объявленных полей чтения стадии.
func (s *StateStore) snapshot(fields []string) Inputs {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in := make(Inputs, len(fields))
	for _, f := range fields {
		in[f] = s.values[f]
	}
	return in
}

// apply атомарно применяет выходы стадии.
//
// Выходы обязаны в точности покрывать объявленное множество записи:
// необъявленное или пропущенное поле — ошибка, и ни одна запись
// не применяется.
func (s *StateStore) apply(st *Stage, outs Outputs) error {
	declared := make(map[string]bool, len(st.Writes))
	for _, f := range st.Writes {
		declared[f] = true
	}

	for f := range outs {
		if !declared[f] {
			return NewValidationError(st.ID, f,
				fmt.Sprintf("stage wrote undeclared field %q", f), ErrStateConflict)
		}
	}
	for _, f := range st.Writes {
		if _, ok := outs[f]; !ok {
			return NewValidationError(st.ID, f,
				fmt.Sprintf("stage did not produce declared field %q", f), ErrStateConflict)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for f, v := range outs {
		s.values[f] = v
	}
	return nil
}

// Values возвращает полную копию состояния.
func (s *StateStore) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Get возвращает значение одного поля.
func (s *StateStore) Get(field string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[field]
	return v, ok
}
