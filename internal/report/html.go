package report

import (
	"fmt"
	"html"
	"strings"
)

// pageTemplate — каркас HTML-страницы отчёта.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: Georgia, serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; color: #2b2b2b; }
h1, h2, h3 { font-family: "Palatino Linotype", Palatino, serif; color: #413a5c; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #cbc4de; padding: 0.3rem 0.7rem; }
img { max-width: 100%%; }
hr { border: none; border-top: 1px solid #cbc4de; margin: 2rem 0; }
</style>
</head>
<body>
%s</body>
</html>
`

// RenderHTML превращает markdown отчёта в самодостаточную HTML-страницу.
//
// Конвертер строчный и покрывает ровно то подмножество markdown,
// которое порождает конвейер: заголовки, абзацы, списки, таблицы,
// изображения и горизонтальные линии.
func RenderHTML(title, markdown string) string {
	var b strings.Builder

	lines := strings.Split(markdown, "\n")
	var para []string
	inList := false
	inTable := false

	flushPara := func() {
		if len(para) == 0 {
			return
		}
		fmt.Fprintf(&b, "<p>%s</p>\n", inline(strings.Join(para, " ")))
		para = para[:0]
	}
	closeList := func() {
		if inList {
			b.WriteString("</ul>\n")
			inList = false
		}
	}
	closeTable := func() {
		if inTable {
			b.WriteString("</table>\n")
			inTable = false
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushPara()
			closeList()
			closeTable()

		case strings.HasPrefix(trimmed, "### "):
			flushPara()
			closeList()
			closeTable()
			fmt.Fprintf(&b, "<h3>%s</h3>\n", inline(trimmed[4:]))

		case strings.HasPrefix(trimmed, "## "):
			flushPara()
			closeList()
			closeTable()
			fmt.Fprintf(&b, "<h2>%s</h2>\n", inline(trimmed[3:]))

		case strings.HasPrefix(trimmed, "# "):
			flushPara()
			closeList()
			closeTable()
			fmt.Fprintf(&b, "<h1>%s</h1>\n", inline(trimmed[2:]))

		case trimmed == "---":
			flushPara()
			closeList()
			closeTable()
			b.WriteString("<hr>\n")

		case strings.HasPrefix(trimmed, "- "):
			flushPara()
			closeTable()
			if !inList {
				b.WriteString("<ul>\n")
				inList = true
			}
			fmt.Fprintf(&b, "<li>%s</li>\n", inline(trimmed[2:]))

		case strings.HasPrefix(trimmed, "|"):
			flushPara()
			closeList()
			if isTableSeparator(trimmed) {
				continue
			}
			if !inTable {
				b.WriteString("<table>\n")
				inTable = true
			}
			b.WriteString("<tr>")
			for _, cell := range splitTableRow(trimmed) {
				fmt.Fprintf(&b, "<td>%s</td>", inline(cell))
			}
			b.WriteString("</tr>\n")

		default:
			closeList()
			closeTable()
			para = append(para, trimmed)
		}
	}

	flushPara()
	closeList()
	closeTable()

	return fmt.Sprintf(pageTemplate, html.EscapeString(title), b.String())
}

// inline экранирует HTML и обрабатывает изображения ![alt](src).
func inline(s string) string {
	// Изображение занимает всю строку; смешанный случай не порождается.
	if strings.HasPrefix(s, "![") {
		if end := strings.Index(s, "]("); end > 0 && strings.HasSuffix(s, ")") {
			alt := s[2:end]
			src := s[end+2 : len(s)-1]
			return fmt.Sprintf(`<img src=%q alt=%q>`, src, alt)
		}
	}
	return html.EscapeString(s)
}

// isTableSeparator распознаёт строку-разделитель |---|---|.
func isTableSeparator(line string) bool {
	inner := strings.Trim(line, "| ")
	if inner == "" {
		return false
	}
	for _, r := range inner {
		if r != '-' && r != ':' && r != '|' && r != ' ' {
			return false
		}
	}
	return true
}

// splitTableRow разбирает |a|b|c| на ячейки.
func splitTableRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}
