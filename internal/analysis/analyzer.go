package analysis

import (
	"context"
	"errors"
	"os"
	"time"
)

// Ошибки аналитика.
var (
	// ErrUnknownKind — запрос с неизвестным видом анализа.
	ErrUnknownKind = errors.New("unknown analysis kind")

	// ErrRequest — сбой обращения к внешнему аналитику.
	ErrRequest = errors.New("analysis request failed")

	// ErrEmptyResponse — аналитик вернул пустой ответ.
	ErrEmptyResponse = errors.New("empty analysis response")
)

// Kind — вид анализа; определяет системный промпт.
type Kind string

const (
	// KindTransitAnalysis — интерпретация текущих транзитов.
	KindTransitAnalysis Kind = "transit_analysis"

	// KindNatalAnalysis — интерпретация натальной карты.
	KindNatalAnalysis Kind = "natal_analysis"

	// KindTransitToNatalAnalysis — интерпретация транзитов к наталу.
	KindTransitToNatalAnalysis Kind = "transit_to_natal_analysis"

	// KindAnalysisReview — редакторская вычитка готового анализа.
	KindAnalysisReview Kind = "analysis_review"

	// KindReportDraft — сборка черновика отчёта из трёх анализов.
	KindReportDraft Kind = "report_draft"

	// KindReportReview — финальная вычитка отчёта.
	KindReportReview Kind = "report_review"

	// KindEmailDraft — сопроводительное письмо к отчёту.
	KindEmailDraft Kind = "email_draft"
)

// Request — запрос на анализ.
type Request struct {
	// Kind — вид анализа.
	Kind Kind

	// Subject — имя субъекта отчёта.
	Subject string

	// Material — основной материал: данные карт или текст для вычитки.
	Material string

	// Context — биографический контекст субъекта (может быть пустым).
	Context string
}

// Analyzer превращает материал запроса в текст.
//
// Реализации обязаны уважать отмену контекста и возвращать
// ErrEmptyResponse вместо пустой строки.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

// FromEnv выбирает аналитика по окружению: OpenAIClient при наличии
// OPENAI_API_KEY, иначе LocalAnalyzer.
func FromEnv() Analyzer {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return NewLocalAnalyzer()
	}

	cfg := OpenAIConfig{
		APIKey:  key,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
	}
	if v := os.Getenv("OPENAI_TIMEOUT_SEC"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return NewOpenAIClient(cfg)
}
