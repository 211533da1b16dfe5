// Package schedule запускает pipeline по расписанию.
//
// Runner парсит cron-выражение с учётом timezone и выполняет kickoff
// в вычисленные моменты. Запуски последовательны: следующий момент
// вычисляется после завершения предыдущего run, наложения исключены.
//
// Структура:
//   - cron.go   — парсинг cron-выражений и вычисление следующего времени
//   - runner.go — цикл ожидания и запуска
package schedule
