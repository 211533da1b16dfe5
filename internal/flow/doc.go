// Package flow содержит движок оркестрации стадий.
//
// Включает:
//   - trigger.go   — триггеры готовности (Start / After / AllOf)
//   - registry.go  — реестр стадий и валидация графа зависимостей
//   - state.go     — разделяемое состояние run с дисциплиной доступа
//   - run.go       — состояние одного запуска (статусы, журнал выполнения)
//   - scheduler.go — диспетчеризация готовых стадий на горутины
//   - driver.go    — Kickoff/Plot, точка входа для приложения
//
// Движок не знает, что именно вычисляют стадии. Он отвечает только за то,
// когда стадия может выполняться и какие поля состояния она трогает.
package flow
