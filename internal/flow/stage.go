package flow

import (
	"context"
	"time"
)

// Inputs — снимок объявленных полей чтения стадии.
//
// Снимок делается в момент диспетчеризации и не отражает записи,
// применённые позже другими стадиями. Мутировать его бессмысленно —
// изменения никуда не попадут.
type Inputs map[string]any

// String возвращает строковое значение поля (или "" при другом типе).
func (in Inputs) String(field string) string {
	v, _ := in[field].(string)
	return v
}

// Bool возвращает булево значение поля.
func (in Inputs) Bool(field string) bool {
	v, _ := in[field].(bool)
	return v
}

// Float возвращает числовое значение поля.
func (in Inputs) Float(field string) float64 {
	v, _ := in[field].(float64)
	return v
}

// Time возвращает значение поля типа time.Time.
func (in Inputs) Time(field string) time.Time {
	v, _ := in[field].(time.Time)
	return v
}

// Outputs — значения, которые стадия записывает по завершении.
// Ключи обязаны в точности совпадать с объявленным множеством записи:
// пропущенное или необъявленное поле — ошибка выполнения стадии.
type Outputs map[string]any

// ExecFunc — исполняемое тело стадии.
//
// Движок рассматривает вызов как потенциально долгую блокирующую операцию
// и не накладывает таймаут сам. Политика retry, если нужна, — забота
// реализации стадии, не движка.
type ExecFunc func(ctx context.Context, in Inputs) (Outputs, error)

// Stage — определение одной стадии графа.
//
// Определение статично: строится один раз при старте процесса,
// валидируется реестром и разделяется (только на чтение) между runs.
// Статус выполнения стадии принадлежит конкретному Run, не определению.
type Stage struct {
	// ID — уникальный идентификатор стадии в рамках реестра.
	ID string

	// Trigger — условие готовности.
	Trigger Trigger

	// Reads — поля состояния, которые стадия читает.
	Reads []string

	// Writes — поля состояния, которые стадия записывает.
	Writes []string

	// Exec — исполняемое тело.
	Exec ExecFunc
}
