package flow

import "errors"

// Ошибки определения графа. Возникают при регистрации и валидации,
// до запуска первого run.
var (
	// ErrNoStages — реестр не содержит ни одной стадии.
	ErrNoStages = errors.New("registry has no stages")

	// ErrEmptyStageID — стадия не имеет ID.
	ErrEmptyStageID = errors.New("stage has empty ID")

	// ErrDuplicateStageID — несколько стадий с одинаковым ID.
	ErrDuplicateStageID = errors.New("duplicate stage ID")

	// ErrNilExec — стадия не имеет исполняемого тела.
	ErrNilExec = errors.New("stage has no exec func")

	// ErrSelfDependency — стадия зависит от самой себя.
	ErrSelfDependency = errors.New("stage depends on itself")

	// ErrUnknownField — стадия объявляет поле, отсутствующее в схеме.
	ErrUnknownField = errors.New("field not declared in schema")

	// ErrDanglingReference — триггер ссылается на незарегистрированную стадию.
	ErrDanglingReference = errors.New("trigger references unknown stage")

	// ErrCyclicDependency — обнаружен цикл в графе зависимостей.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrStateConflict — пересечение множеств записи у неупорядоченных стадий
	// либо запись вне объявленного множества полей.
	ErrStateConflict = errors.New("state write conflict")

	// ErrUnorderedRead — стадия читает поле, один из писателей которого
	// не упорядочен с ней графом зависимостей.
	ErrUnorderedRead = errors.New("read of unordered field")

	// ErrNotValidated — граф не прошёл Validate перед запуском.
	ErrNotValidated = errors.New("registry not validated")

	// ErrValidated — попытка изменить граф после Validate.
	ErrValidated = errors.New("registry already validated")
)

// Ошибки выполнения.
var (
	// ErrRunCancelled — run отменён через контекст. Записывается
	// как причина в журнальные записи отменённых стадий.
	ErrRunCancelled = errors.New("run cancelled")

	// ErrStagePanicked — тело стадии завершилось паникой.
	ErrStagePanicked = errors.New("stage panicked")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	StageID string // ID стадии, где произошла ошибка
	Field   string // поле состояния, вызвавшее ошибку (если применимо)
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.StageID != "" {
		return "stage " + e.StageID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(stageID, field, message string, err error) *ValidationError {
	return &ValidationError{
		StageID: stageID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
