// Package cli реализует инструмент командной строки Celesta.
//
// # Обзор
//
// CLI выполняет pipeline в том же процессе: граф transit_report
// собирается из профиля и запускается без демона. Только команда
// history ходит во внешнюю систему (Postgres).
//
// # Ключевые компоненты
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.Encoder с отступами) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: celesta history list --json | jq .
//
// ## Commands
//
//   - run      — выполнить pipeline по профилю
//   - plot     — вывести граф стадий в формате Graphviz DOT
//   - validate — проверить профиль и cron-выражение
//   - history  — история runs из Postgres (list, show, stages)
//
// Каждая команда создаётся фабричной функцией, принимающей rootOpts —
// общие флаги, распарсенные до выполнения команды.
package cli
