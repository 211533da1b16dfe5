package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoRecipient — в профиле не указан адрес получателя.
var ErrNoRecipient = errors.New("no recipient email configured")

// EmailInput — материал черновика письма.
type EmailInput struct {
	// To — адрес получателя.
	To string

	// Subject — имя субъекта (для имени файла и обращения).
	Subject string

	// Draft — текст от аналитика: первая строка — тема, остальное — тело.
	Draft string

	// ReportPath — путь к опубликованному отчёту, упоминается в письме.
	ReportPath string

	// GeneratedAt — момент формирования.
	GeneratedAt time.Time
}

// DraftEmail записывает черновик сопроводительного письма в .eml файл
// рядом с отчётом. Отчёт прикладывается ссылкой на файл, не вложением.
func DraftEmail(outputDir string, in EmailInput) (string, error) {
	if strings.TrimSpace(in.To) == "" {
		return "", ErrNoRecipient
	}

	subject, body := splitDraft(in.Draft)
	if subject == "" {
		subject = "Your transit report"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: Celesta <celesta@localhost>\r\n")
	fmt.Fprintf(&b, "To: %s\r\n", in.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", in.GeneratedAt.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	if in.ReportPath != "" {
		fmt.Fprintf(&b, "X-Report-Attachment: %s\r\n", in.ReportPath)
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	if in.ReportPath != "" {
		fmt.Fprintf(&b, "\r\n\r\nReport file: %s\r\n", in.ReportPath)
	}

	dir := filepath.Join(outputDir, in.GeneratedAt.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, fileStem(in.Subject)+"_email_draft.eml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write email draft: %w", err)
	}
	return path, nil
}

// splitDraft отделяет тему (первая непустая строка) от тела.
func splitDraft(draft string) (subject, body string) {
	lines := strings.Split(strings.TrimSpace(draft), "\n")
	if len(lines) == 0 {
		return "", ""
	}
	subject = strings.TrimSpace(lines[0])
	body = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	return subject, body
}
