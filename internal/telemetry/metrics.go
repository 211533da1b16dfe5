package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики движка. Экспортируются на /metrics endpoint демона.
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celesta_runs_total",
		Help: "Количество завершённых runs по итогу.",
	}, []string{"flow", "outcome"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "celesta_run_duration_seconds",
		Help:    "Продолжительность run от kickoff до терминального итога.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
	}, []string{"flow"})

	activeRuns = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "celesta_active_runs",
		Help: "Количество выполняющихся runs.",
	}, []string{"flow"})

	stagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celesta_stages_total",
		Help: "Количество терминальных статусов стадий.",
	}, []string{"flow", "stage", "status"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "celesta_stage_duration_seconds",
		Help:    "Продолжительность выполнения тела стадии.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
	}, []string{"flow", "stage"})

	stageStalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celesta_stage_stalls_total",
		Help: "Количество стадий, превысивших порог stall-предупреждения.",
	}, []string{"flow", "stage"})
)

// RunStarted учитывает начало run.
func RunStarted(flow string) {
	activeRuns.WithLabelValues(flow).Inc()
}

// RunDone учитывает завершение run (в паре с RunStarted).
func RunDone(flow string) {
	activeRuns.WithLabelValues(flow).Dec()
}

// RunFinished учитывает терминальный итог run.
func RunFinished(flow, outcome string, d time.Duration) {
	runsTotal.WithLabelValues(flow, outcome).Inc()
	runDuration.WithLabelValues(flow).Observe(d.Seconds())
}

// ObserveStage учитывает терминальный статус стадии.
// Продолжительность наблюдается только для реально выполнявшихся стадий.
func ObserveStage(flow, stage, status string, d time.Duration) {
	stagesTotal.WithLabelValues(flow, stage, status).Inc()
	if d > 0 {
		stageDuration.WithLabelValues(flow, stage).Observe(d.Seconds())
	}
}

// StageStalled учитывает stall-предупреждение.
func StageStalled(flow, stage string) {
	stageStalls.WithLabelValues(flow, stage).Inc()
}
