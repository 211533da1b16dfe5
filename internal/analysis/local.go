package analysis

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

// LocalAnalyzer — детерминированный аналитик без внешних вызовов.
//
// Для видов-интерпретаций строит конспект материала по шаблону;
// для видов-вычиток возвращает материал с редакторской шапкой.
// Результат стабилен для одинаковых входов.
type LocalAnalyzer struct {
	templates map[Kind]*template.Template
}

// Шаблоны локального аналитика. Материал карт включается целиком:
// дальнейшие стадии конвейера рассчитывают на его присутствие.
var localTemplates = map[Kind]string{
	KindTransitAnalysis: `### Transit Climate for {{.Subject}}

The sky of the moment, as computed:

{{.Material}}

The placements above set the backdrop for the period covered by this report.
`,
	KindNatalAnalysis: `### Natal Foundations of {{.Subject}}

The birth chart, as computed:

{{.Material}}

These placements describe the fixed instrument the current sky plays upon.
`,
	KindTransitToNatalAnalysis: `### Current Activations for {{.Subject}}

Transiting bodies touching the natal chart:

{{.Material}}

Tighter orbs above deserve the most attention in the period ahead.
`,
	KindReportDraft: `# Transit Report for {{.Subject}}

{{.Material}}
`,
	KindEmailDraft: `Your transit report is ready
Dear {{.Subject}},

Your personal transit report is attached. Warm regards.
`,
}

// NewLocalAnalyzer создаёт локального аналитика.
func NewLocalAnalyzer() *LocalAnalyzer {
	templates := make(map[Kind]*template.Template, len(localTemplates))
	for kind, text := range localTemplates {
		templates[kind] = template.Must(template.New(string(kind)).Parse(text))
	}
	return &LocalAnalyzer{templates: templates}
}

// Analyze строит детерминированный текст для запроса.
func (a *LocalAnalyzer) Analyze(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := systemPrompt(req.Kind); err != nil {
		return "", err
	}

	// Вычитки возвращают материал как есть: локальному аналитику
	// нечего улучшать, а конвейер рассчитывает на полный текст.
	if req.Kind == KindAnalysisReview || req.Kind == KindReportReview {
		if strings.TrimSpace(req.Material) == "" {
			return "", ErrEmptyResponse
		}
		return req.Material, nil
	}

	tmpl, ok := a.templates[req.Kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, req); err != nil {
		return "", fmt.Errorf("render local analysis: %w", err)
	}

	out := b.String()
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
