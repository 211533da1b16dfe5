// Package pipeline объявляет конвейер транзитного отчёта:
// схему состояния и шестнадцать стадий от индексации заметок
// до черновика письма.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nkarpov/celesta/internal/analysis"
	"github.com/nkarpov/celesta/internal/astro"
	"github.com/nkarpov/celesta/internal/config"
	"github.com/nkarpov/celesta/internal/docs"
	"github.com/nkarpov/celesta/internal/flow"
	"github.com/nkarpov/celesta/internal/report"
)

// FlowName — имя конвейера в логах, метриках и событиях.
const FlowName = "transit_report"

// Config — конфигурация конвейера.
type Config struct {
	// Profile — профиль субъекта (обязательно).
	Profile *config.Profile

	// Analyzer — интерпретатор карт. Default: analysis.FromEnv().
	Analyzer analysis.Analyzer

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// Sink — наблюдатель жизненного цикла runs (опционально).
	Sink flow.RunSink

	// MaxConcurrent — ограничение одновременных стадий (0 — нет).
	MaxConcurrent int

	// StallWarnAfter — порог предупреждения о зависшей стадии (0 — нет).
	StallWarnAfter time.Duration

	// Now — источник времени (для тестов). Default: time.Now.
	Now func() time.Time
}

// builder держит связанные коллаборатором стадии во время сборки.
type builder struct {
	profile  *config.Profile
	analyzer analysis.Analyzer
	indexer  *docs.Indexer
	renderer *report.Renderer
	logger   *slog.Logger
}

// Build собирает и валидирует конвейер транзитного отчёта.
func Build(cfg Config) (*flow.Flow, error) {
	if cfg.Profile == nil {
		return nil, fmt.Errorf("pipeline: profile is required")
	}

	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = analysis.FromEnv()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	transitMoment, err := cfg.Profile.TransitTime(now)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	birthTime, err := cfg.Profile.Birth.Time()
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	b := &builder{
		profile:  cfg.Profile,
		analyzer: analyzer,
		indexer:  docs.NewIndexer(cfg.Profile.Report.NotesDir),
		renderer: report.NewRenderer(cfg.Profile.Report.OutputDir),
		logger:   logger,
	}

	reg := flow.NewRegistry(b.schema(transitMoment))
	b.registerStages(reg, birthTime)

	policy := flow.FailFast
	if cfg.Profile.Report.FailurePolicy == "isolate" {
		policy = flow.Isolate
	}

	return flow.New(flow.Config{
		Name:           FlowName,
		Registry:       reg,
		Policy:         policy,
		MaxConcurrent:  cfg.MaxConcurrent,
		StallWarnAfter: cfg.StallWarnAfter,
		Logger:         logger,
		Sink:           cfg.Sink,
	})
}

// schema возвращает схему состояния: значения субъекта засеяны
// из профиля, рабочие поля пустые. Момент транзита лежит в состоянии,
// поэтому отдельный запуск может переопределить его через initial.
func (b *builder) schema(transitMoment time.Time) flow.Schema {
	p := b.profile
	return flow.Schema{
		FieldSubjectName:     p.Name,
		FieldSubjectEmail:    p.Email,
		FieldBirthDate:       p.Birth.Date,
		FieldBirthPlace:      p.Birth.Place.Label(),
		FieldCurrentLocation: p.CurrentLocation.Label(),
		FieldTransitMoment:   transitMoment.Format(time.RFC3339),

		FieldBiographicalContext: "",
		FieldCurrentTransits:     "",
		FieldNatalChart:          "",
		FieldTransitToNatal:      "",

		FieldTransitAnalysis:        "",
		FieldNatalAnalysis:          "",
		FieldTransitToNatalAnalysis: "",

		FieldChartAppendices: "",
		FieldReportMarkdown:  "",

		FieldChartSVGPath:   "",
		FieldReportPath:     "",
		FieldReportHTMLPath: "",
		FieldEmailDraftPath: "",
	}
}

// transitChart строит транзитную карту на момент из состояния.
func (b *builder) transitChart(in flow.Inputs) (*astro.Chart, error) {
	moment, err := time.Parse(time.RFC3339, in.String(FieldTransitMoment))
	if err != nil {
		return nil, fmt.Errorf("parse transit moment: %w", err)
	}
	loc := b.profile.CurrentLocation
	return astro.Compute("Current Transits", moment, loc.Label(), loc.Latitude, loc.Longitude), nil
}

// registerStages объявляет все шестнадцать стадий конвейера.
func (b *builder) registerStages(reg *flow.Registry, birthTime time.Time) {
	natalChart := func() *astro.Chart {
		pl := b.profile.Birth.Place
		return astro.Compute("Natal Chart", birthTime, pl.Label(), pl.Latitude, pl.Longitude)
	}

	reg.MustRegister(flow.Stage{
		ID:      StageIndexDocuments,
		Trigger: flow.Start(),
		Writes:  []string{FieldBiographicalContext},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			contextDoc, err := b.indexer.Index(ctx)
			if err != nil {
				return nil, err
			}
			return flow.Outputs{FieldBiographicalContext: contextDoc}, nil
		},
	})

	reg.MustRegister(flow.Stage{
		ID:      StageComputeTransitChart,
		Trigger: flow.After(StageIndexDocuments),
		Reads:   []string{FieldTransitMoment},
		Writes:  []string{FieldCurrentTransits},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			chart, err := b.transitChart(in)
			if err != nil {
				return nil, err
			}
			return flow.Outputs{FieldCurrentTransits: chart.Markdown()}, nil
		},
	})

	reg.MustRegister(flow.Stage{
		ID:      StageComputeNatalChart,
		Trigger: flow.After(StageIndexDocuments),
		Writes:  []string{FieldNatalChart},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			return flow.Outputs{FieldNatalChart: natalChart().Markdown()}, nil
		},
	})

	reg.MustRegister(flow.Stage{
		ID:      StageComputeTransitNatal,
		Trigger: flow.After(StageIndexDocuments),
		Reads:   []string{FieldTransitMoment},
		Writes:  []string{FieldTransitToNatal},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			transit, err := b.transitChart(in)
			if err != nil {
				return nil, err
			}
			aspects := transit.CrossAspects(natalChart())
			md := "## Transits to Natal Chart\n\n" + astro.FormatAspects(aspects, "transit", "natal")
			return flow.Outputs{FieldTransitToNatal: md}, nil
		},
	})

	// Барьер: интерпретации стартуют после всех трёх карт,
	// как бы быстро ни посчиталась каждая из них.
	chartsReady := flow.AllOf(StageComputeTransitChart, StageComputeNatalChart, StageComputeTransitNatal)

	b.analysisStage(reg, StageAnalyzeTransits, chartsReady,
		analysis.KindTransitAnalysis, FieldCurrentTransits, FieldTransitAnalysis)
	b.analysisStage(reg, StageAnalyzeNatal, chartsReady,
		analysis.KindNatalAnalysis, FieldNatalChart, FieldNatalAnalysis)
	b.analysisStage(reg, StageAnalyzeTransitNatal, chartsReady,
		analysis.KindTransitToNatalAnalysis, FieldTransitToNatal, FieldTransitToNatalAnalysis)

	b.reviewStage(reg, StageReviewTransits, StageAnalyzeTransits, FieldTransitAnalysis, FieldCurrentTransits)
	b.reviewStage(reg, StageReviewNatal, StageAnalyzeNatal, FieldNatalAnalysis, FieldNatalChart)
	b.reviewStage(reg, StageReviewTransitNatal, StageAnalyzeTransitNatal, FieldTransitToNatalAnalysis, FieldTransitToNatal)

	reg.MustRegister(flow.Stage{
		ID:      StageComposeAppendices,
		Trigger: flow.AllOf(StageReviewTransits, StageReviewNatal, StageReviewTransitNatal),
		Reads:   []string{FieldCurrentTransits, FieldNatalChart, FieldTransitToNatal},
		Writes:  []string{FieldChartAppendices},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			if !b.profile.Report.IncludeAppendices {
				return flow.Outputs{FieldChartAppendices: ""}, nil
			}
			var sb strings.Builder
			sb.WriteString("# Appendices\n\n")
			sb.WriteString(in.String(FieldCurrentTransits))
			sb.WriteString("\n\n")
			sb.WriteString(in.String(FieldNatalChart))
			sb.WriteString("\n\n")
			sb.WriteString(in.String(FieldTransitToNatal))
			return flow.Outputs{FieldChartAppendices: sb.String()}, nil
		},
	})

	reg.MustRegister(flow.Stage{
		ID:      StageDraftReport,
		Trigger: flow.After(StageComposeAppendices),
		Reads: []string{
			FieldSubjectName, FieldBiographicalContext,
			FieldTransitAnalysis, FieldNatalAnalysis, FieldTransitToNatalAnalysis,
		},
		Writes: []string{FieldReportMarkdown},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			material := strings.Join([]string{
				in.String(FieldTransitAnalysis),
				in.String(FieldNatalAnalysis),
				in.String(FieldTransitToNatalAnalysis),
			}, "\n\n")
			draft, err := b.analyzer.Analyze(ctx, analysis.Request{
				Kind:     analysis.KindReportDraft,
				Subject:  in.String(FieldSubjectName),
				Context:  in.String(FieldBiographicalContext),
				Material: material,
			})
			if err != nil {
				return nil, err
			}
			return flow.Outputs{FieldReportMarkdown: draft}, nil
		},
	})

	reg.MustRegister(flow.Stage{
		ID:      StageInterrogateReport,
		Trigger: flow.After(StageDraftReport),
		Reads:   []string{FieldSubjectName, FieldReportMarkdown},
		Writes:  []string{FieldReportMarkdown},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			reviewed, err := b.analyzer.Analyze(ctx, analysis.Request{
				Kind:     analysis.KindReportReview,
				Subject:  in.String(FieldSubjectName),
				Material: in.String(FieldReportMarkdown),
			})
			if err != nil {
				return nil, err
			}
			return flow.Outputs{FieldReportMarkdown: reviewed}, nil
		},
	})

	reg.MustRegister(flow.Stage{
		ID:      StageRenderChartWheel,
		Trigger: flow.After(StageInterrogateReport),
		Reads:   []string{FieldSubjectName, FieldTransitMoment},
		Writes:  []string{FieldChartSVGPath},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			chart, err := b.transitChart(in)
			if err != nil {
				return nil, err
			}
			path, err := b.renderer.SaveChart(in.String(FieldSubjectName),
				astro.WheelSVG(chart), chart.Moment)
			if err != nil {
				return nil, err
			}
			return flow.Outputs{FieldChartSVGPath: path}, nil
		},
	})

	reg.MustRegister(flow.Stage{
		ID:      StagePublishReport,
		Trigger: flow.After(StageRenderChartWheel),
		Reads: []string{
			FieldSubjectName, FieldTransitMoment,
			FieldReportMarkdown, FieldChartAppendices, FieldChartSVGPath,
		},
		Writes: []string{FieldReportMarkdown, FieldReportPath, FieldReportHTMLPath},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			moment, err := time.Parse(time.RFC3339, in.String(FieldTransitMoment))
			if err != nil {
				return nil, fmt.Errorf("parse transit moment: %w", err)
			}
			res, err := b.renderer.Publish(report.PublishInput{
				Subject:      in.String(FieldSubjectName),
				Markdown:     in.String(FieldReportMarkdown),
				Appendices:   in.String(FieldChartAppendices),
				ChartSVGPath: in.String(FieldChartSVGPath),
				GeneratedAt:  moment,
			})
			if err != nil {
				return nil, err
			}
			return flow.Outputs{
				FieldReportMarkdown: res.Markdown,
				FieldReportPath:     res.MarkdownPath,
				FieldReportHTMLPath: res.HTMLPath,
			}, nil
		},
	})

	reg.MustRegister(flow.Stage{
		ID:      StageDraftEmail,
		Trigger: flow.After(StagePublishReport),
		Reads: []string{
			FieldSubjectName, FieldSubjectEmail, FieldTransitMoment, FieldReportHTMLPath,
		},
		Writes: []string{FieldEmailDraftPath},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			email := in.String(FieldSubjectEmail)
			if email == "" {
				b.logger.Info("no subject email, skipping email draft")
				return flow.Outputs{FieldEmailDraftPath: ""}, nil
			}

			draft, err := b.analyzer.Analyze(ctx, analysis.Request{
				Kind:    analysis.KindEmailDraft,
				Subject: in.String(FieldSubjectName),
				Material: fmt.Sprintf("The report file is at %s.",
					in.String(FieldReportHTMLPath)),
			})
			if err != nil {
				return nil, err
			}

			moment, err := time.Parse(time.RFC3339, in.String(FieldTransitMoment))
			if err != nil {
				return nil, fmt.Errorf("parse transit moment: %w", err)
			}
			path, err := report.DraftEmail(b.profile.Report.OutputDir, report.EmailInput{
				To:          email,
				Subject:     in.String(FieldSubjectName),
				Draft:       draft,
				ReportPath:  in.String(FieldReportHTMLPath),
				GeneratedAt: moment,
			})
			if err != nil {
				return nil, err
			}
			return flow.Outputs{FieldEmailDraftPath: path}, nil
		},
	})
}

// analysisStage регистрирует стадию интерпретации одной карты.
func (b *builder) analysisStage(reg *flow.Registry, id string, trigger flow.Trigger,
	kind analysis.Kind, chartField, analysisField string) {

	reg.MustRegister(flow.Stage{
		ID:      id,
		Trigger: trigger,
		Reads:   []string{FieldSubjectName, FieldBiographicalContext, chartField},
		Writes:  []string{analysisField},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			out, err := b.analyzer.Analyze(ctx, analysis.Request{
				Kind:     kind,
				Subject:  in.String(FieldSubjectName),
				Context:  in.String(FieldBiographicalContext),
				Material: in.String(chartField),
			})
			if err != nil {
				return nil, err
			}
			return flow.Outputs{analysisField: out}, nil
		},
	})
}

// reviewStage регистрирует вычитку интерпретации: анализ переписывается
// на месте, материал карты прилагается для сверки утверждений.
func (b *builder) reviewStage(reg *flow.Registry, id, after, analysisField, chartField string) {
	reg.MustRegister(flow.Stage{
		ID:      id,
		Trigger: flow.After(after),
		Reads:   []string{FieldSubjectName, analysisField, chartField},
		Writes:  []string{analysisField},
		Exec: func(ctx context.Context, in flow.Inputs) (flow.Outputs, error) {
			reviewed, err := b.analyzer.Analyze(ctx, analysis.Request{
				Kind:    analysis.KindAnalysisReview,
				Subject: in.String(FieldSubjectName),
				Material: in.String(analysisField) +
					"\n\nChart material for verification:\n\n" + in.String(chartField),
			})
			if err != nil {
				return nil, err
			}
			return flow.Outputs{analysisField: reviewed}, nil
		},
	})
}
