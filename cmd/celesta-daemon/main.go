// Celesta daemon — долгоживущий сервис: HTTP API, запуск по расписанию,
// история в Postgres и события в RabbitMQ.
//
// Конфигурация через окружение:
//
//	PROFILE    путь к профилю (default: profile.yaml)
//	API_PORT   порт HTTP API (default: 8080)
//	DB_URL     Postgres (опционально: без БД нет истории)
//	MQ_URL     RabbitMQ (опционально: без брокера нет событий)
//	CRON_EXPR  расписание запусков (опционально)
//	CRON_TZ    timezone расписания (default: UTC)
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nkarpov/celesta/internal/api"
	"github.com/nkarpov/celesta/internal/config"
	"github.com/nkarpov/celesta/internal/events"
	"github.com/nkarpov/celesta/internal/flow"
	"github.com/nkarpov/celesta/internal/history"
	"github.com/nkarpov/celesta/internal/pipeline"
	"github.com/nkarpov/celesta/internal/schedule"
	"github.com/nkarpov/celesta/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting celesta-daemon")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	profilePath := "profile.yaml"
	if v := os.Getenv("PROFILE"); v != "" {
		profilePath = v
	}
	prof, err := config.Load(profilePath)
	if err != nil {
		logger.Error("failed to load profile", "path", profilePath, "error", err)
		os.Exit(1)
	}
	logger.Info("profile loaded", "subject", prof.Name)

	// История в Postgres: опциональна, без БД демон продолжает работать.
	var runs *history.RunRepo
	var stages *history.StageRepo
	var sinks []flow.RunSink

	pool, err := history.NewPool(ctx)
	if err != nil {
		logger.Warn("run history disabled", "error", err)
	} else {
		defer pool.Close()
		runs = history.NewRunRepo(pool)
		stages = history.NewStageRepo(pool)
		sinks = append(sinks, history.NewRecorder(pool))
		logger.Info("connected to database")
	}

	// События в RabbitMQ: тоже опциональны.
	conn, err := events.NewConnection(events.URL(), logger)
	if err != nil {
		logger.Warn("run events disabled", "error", err)
	} else {
		defer conn.Close()
		if err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
			return events.SetupTopology(ch)
		}); err != nil {
			logger.Error("failed to set up topology", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, events.NewNotifier(events.NewPublisher(conn)))
	}

	f, err := pipeline.Build(pipeline.Config{
		Profile: prof,
		Logger:  logger,
		Sink:    flow.CombineSinks(sinks...),
	})
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	// Запуск по расписанию, если задан CRON_EXPR.
	if expr := os.Getenv("CRON_EXPR"); expr != "" {
		runner, err := schedule.New(schedule.Config{
			CronExpr: expr,
			Timezone: os.Getenv("CRON_TZ"),
			Logger:   logger,
			Kickoff: func(ctx context.Context) error {
				_, err := f.Kickoff(ctx, nil)
				return err
			},
		})
		if err != nil {
			logger.Error("invalid schedule", "cron", expr, "error", err)
			os.Exit(1)
		}
		go func() {
			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("schedule runner stopped", "error", err)
			}
		}()
		logger.Info("schedule enabled", "cron", expr, "timezone", os.Getenv("CRON_TZ"))
	}

	handler := api.NewHandler(api.Config{
		Flow:   f,
		Runs:   runs,
		Stages: stages,
		Logger: logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
