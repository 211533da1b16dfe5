// Package api реализует HTTP API демона.
//
// Граф transit_report скомпилирован в бинарь, поэтому API управляет
// только runs: асинхронный запуск, история из Postgres, интроспекция
// графа. История опциональна — без БД соответствующие эндпоинты
// отвечают 503, запуск работает.
//
// Структура:
//   - handler.go     — Handler с зависимостями
//   - routes.go      — регистрация маршрутов
//   - run_handler.go — обработчики runs и графа
//   - dto.go         — структуры запросов/ответов
//   - response.go    — унифицированные JSON-ответы
//   - middleware.go  — middleware (logging, recovery)
package api
