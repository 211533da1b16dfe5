// Celesta CLI — инструмент командной строки для запуска pipeline
// и просмотра истории runs.
//
// Использование:
//
//	celesta [--profile PATH] [--json] [--verbose] <command> [flags]
//
// Команды:
//
//	run       Выполнить pipeline по профилю
//	plot      Вывести граф стадий в формате Graphviz DOT
//	validate  Проверить профиль и cron-выражение
//	history   История runs из Postgres
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nkarpov/celesta/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := cli.NewRootCmd()
	rootCmd.Version = version

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
