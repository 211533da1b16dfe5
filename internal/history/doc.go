// Package history — долговременное хранилище журналов выполнения.
//
// Каждый run записывается при старте и дополняется итогом при завершении;
// журнал стадий — append-only, в порядке завершения. Хранилище
// опционально: без БД движок работает, история просто не ведётся.
//
// Состав:
//   - db.go — пул соединений pgxpool
//   - run_repo.go, stage_repo.go — репозитории
//   - recorder.go — адаптер репозиториев к flow.RunSink
package history
