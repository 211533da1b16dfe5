package history

import "errors"

// Общие ошибки хранилища истории.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")
)
