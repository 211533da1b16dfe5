package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testMoment = time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

func TestRenderer_Publish(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir)

	res, err := r.Publish(PublishInput{
		Subject:      "Vera Almeida",
		Markdown:     "# Report\n\nIntro.\n\n" + ChartPlaceholder + "\n",
		Appendices:   "## Appendix A\n\nRaw chart data.",
		ChartSVGPath: "charts/wheel.svg",
		GeneratedAt:  testMoment,
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// Плейсхолдер заменён ссылкой на колесо.
	if strings.Contains(res.Markdown, ChartPlaceholder) {
		t.Error("placeholder not substituted")
	}
	if !strings.Contains(res.Markdown, "![Chart wheel](charts/wheel.svg)") {
		t.Error("chart image link missing")
	}
	// Приложения пришиты в конец.
	if !strings.Contains(res.Markdown, "## Appendix A") {
		t.Error("appendices missing")
	}

	wantDir := filepath.Join(dir, "2026-08-28")
	if filepath.Dir(res.MarkdownPath) != wantDir {
		t.Errorf("markdown path = %s, want under %s", res.MarkdownPath, wantDir)
	}
	if filepath.Base(res.MarkdownPath) != "vera_almeida_transit_report.md" {
		t.Errorf("markdown file name = %s", filepath.Base(res.MarkdownPath))
	}

	written, err := os.ReadFile(res.MarkdownPath)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	if string(written) != res.Markdown {
		t.Error("written markdown differs from returned")
	}

	htmlBody, err := os.ReadFile(res.HTMLPath)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if !strings.Contains(string(htmlBody), "<h1>Report</h1>") {
		t.Error("html missing report heading")
	}
}

func TestRenderer_Publish_NoPlaceholderAppendsWheelSection(t *testing.T) {
	r := NewRenderer(t.TempDir())

	res, err := r.Publish(PublishInput{
		Subject:      "X",
		Markdown:     "# Report\n\nBody.",
		ChartSVGPath: "wheel.svg",
		GeneratedAt:  testMoment,
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !strings.Contains(res.Markdown, "## Chart Wheel") {
		t.Error("wheel section not appended")
	}
}

func TestRenderer_Publish_EmptyAppendicesNotStitched(t *testing.T) {
	r := NewRenderer(t.TempDir())

	res, err := r.Publish(PublishInput{
		Subject:     "X",
		Markdown:    "# Report\n",
		Appendices:  "  \n",
		GeneratedAt: testMoment,
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if strings.Contains(res.Markdown, "---") {
		t.Error("empty appendices were stitched")
	}
}

func TestRenderer_Publish_EmptyReport(t *testing.T) {
	r := NewRenderer(t.TempDir())

	_, err := r.Publish(PublishInput{Subject: "X", Markdown: "  ", GeneratedAt: testMoment})
	if !errors.Is(err, ErrEmptyReport) {
		t.Errorf("expected ErrEmptyReport, got %v", err)
	}
}

func TestRenderHTML(t *testing.T) {
	md := "# Title\n\nFirst paragraph\nsecond line.\n\n- one\n- two\n\n| A | B |\n|---|---|\n| 1 | 2 |\n\n---\n\n![w](x.svg)\n\n<script>alert(1)</script>\n"

	out := RenderHTML("Page", md)

	for _, want := range []string{
		"<h1>Title</h1>",
		"<p>First paragraph second line.</p>",
		"<ul>\n<li>one</li>\n<li>two</li>\n</ul>",
		"<table>",
		"<td>1</td><td>2</td>",
		"<hr>",
		`<img src="x.svg" alt="w">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q:\n%s", want, out)
		}
	}
	// Строка-разделитель таблицы не превращается в ячейки.
	if strings.Contains(out, "<td>---</td>") {
		t.Error("table separator rendered as cells")
	}
	// Сырой HTML экранируется.
	if strings.Contains(out, "<script>") {
		t.Error("raw html not escaped")
	}
}

func TestDraftEmail(t *testing.T) {
	dir := t.TempDir()

	path, err := DraftEmail(dir, EmailInput{
		To:          "vera@example.com",
		Subject:     "Vera Almeida",
		Draft:       "Your stars this week\nDear Vera,\n\nThe report is ready.",
		ReportPath:  "/reports/vera.html",
		GeneratedAt: testMoment,
	})
	if err != nil {
		t.Fatalf("DraftEmail: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read draft: %v", err)
	}
	eml := string(raw)

	for _, want := range []string{
		"To: vera@example.com\r\n",
		"Subject: Your stars this week\r\n",
		"X-Report-Attachment: /reports/vera.html\r\n",
		"Dear Vera,",
	} {
		if !strings.Contains(eml, want) {
			t.Errorf("eml missing %q", want)
		}
	}
	if filepath.Base(path) != "vera_almeida_email_draft.eml" {
		t.Errorf("file name = %s", filepath.Base(path))
	}
}

func TestDraftEmail_NoRecipient(t *testing.T) {
	_, err := DraftEmail(t.TempDir(), EmailInput{Subject: "X", GeneratedAt: testMoment})
	if !errors.Is(err, ErrNoRecipient) {
		t.Errorf("expected ErrNoRecipient, got %v", err)
	}
}
