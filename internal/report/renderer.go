package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ChartPlaceholder — место вставки колеса карты в тексте отчёта.
const ChartPlaceholder = "[[CHART_WHEEL]]"

// ErrEmptyReport — попытка опубликовать пустой отчёт.
var ErrEmptyReport = errors.New("report is empty")

// Renderer публикует отчёт: финальный markdown и HTML-файл
// в каталоге outputDir/YYYY-MM-DD.
type Renderer struct {
	outputDir string
}

// NewRenderer создаёт Renderer с корневым каталогом артефактов.
func NewRenderer(outputDir string) *Renderer {
	return &Renderer{outputDir: outputDir}
}

// PublishInput — материал публикации.
type PublishInput struct {
	// Subject — имя субъекта (попадает в имена файлов).
	Subject string

	// Markdown — текст отчёта после финальной вычитки.
	Markdown string

	// Appendices — приложения с сырыми данными карт; пусто — не добавляются.
	Appendices string

	// ChartSVGPath — путь к SVG-колесу для подстановки плейсхолдера.
	ChartSVGPath string

	// GeneratedAt — момент формирования (определяет подкаталог).
	GeneratedAt time.Time
}

// PublishResult — итог публикации.
type PublishResult struct {
	// Markdown — финальный текст после подстановок и сшивки.
	Markdown string

	// MarkdownPath, HTMLPath — пути записанных файлов.
	MarkdownPath string
	HTMLPath     string
}

// Publish выполняет подстановку плейсхолдеров, пришивает приложения
// и записывает markdown + HTML артефакты.
func (r *Renderer) Publish(in PublishInput) (*PublishResult, error) {
	if strings.TrimSpace(in.Markdown) == "" {
		return nil, ErrEmptyReport
	}

	md := in.Markdown

	// Колесо карты: подставляется в плейсхолдер, при его отсутствии
	// добавляется отдельным разделом перед приложениями.
	if in.ChartSVGPath != "" {
		img := fmt.Sprintf("![Chart wheel](%s)", filepath.ToSlash(in.ChartSVGPath))
		if strings.Contains(md, ChartPlaceholder) {
			md = strings.ReplaceAll(md, ChartPlaceholder, img)
		} else {
			md = strings.TrimRight(md, "\n") + "\n\n## Chart Wheel\n\n" + img + "\n"
		}
	} else {
		md = strings.ReplaceAll(md, ChartPlaceholder, "")
	}

	if strings.TrimSpace(in.Appendices) != "" {
		md = strings.TrimRight(md, "\n") + "\n\n---\n\n" + strings.TrimRight(in.Appendices, "\n") + "\n"
	}

	dir := filepath.Join(r.outputDir, in.GeneratedAt.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	base := fileStem(in.Subject) + "_transit_report"
	mdPath := filepath.Join(dir, base+".md")
	htmlPath := filepath.Join(dir, base+".html")

	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return nil, fmt.Errorf("write markdown: %w", err)
	}

	title := fmt.Sprintf("Transit Report — %s", in.Subject)
	if err := os.WriteFile(htmlPath, []byte(RenderHTML(title, md)), 0o644); err != nil {
		return nil, fmt.Errorf("write html: %w", err)
	}

	return &PublishResult{Markdown: md, MarkdownPath: mdPath, HTMLPath: htmlPath}, nil
}

// SaveChart записывает SVG-колесо в подкаталог charts каталога дня
// и возвращает путь записанного файла.
func (r *Renderer) SaveChart(subject, svg string, at time.Time) (string, error) {
	dir := filepath.Join(r.outputDir, at.Format("2006-01-02"), "charts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create charts dir: %w", err)
	}

	path := filepath.Join(dir, fileStem(subject)+"_wheel.svg")
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return "", fmt.Errorf("write chart: %w", err)
	}
	return path, nil
}

// fileStem превращает имя субъекта в основу имени файла.
func fileStem(name string) string {
	stem := strings.ToLower(strings.TrimSpace(name))
	stem = strings.ReplaceAll(stem, " ", "_")
	if stem == "" {
		stem = "subject"
	}
	return stem
}
