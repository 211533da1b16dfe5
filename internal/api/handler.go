package api

import (
	"log/slog"

	"github.com/nkarpov/celesta/internal/flow"
	"github.com/nkarpov/celesta/internal/history"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	flow   *flow.Flow
	runs   *history.RunRepo
	stages *history.StageRepo
	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	// Flow — скомпилированный граф transit_report.
	Flow *flow.Flow

	// Runs и Stages — репозитории истории (nil — история недоступна).
	Runs   *history.RunRepo
	Stages *history.StageRepo

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		flow:   cfg.Flow,
		runs:   cfg.Runs,
		stages: cfg.Stages,
		logger: logger,
	}
}
