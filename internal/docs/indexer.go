// Package docs индексирует биографические заметки субъекта.
//
// Заметки — markdown-файлы в каталоге профиля: биография, анкета,
// дневниковые записи. Индексатор собирает их в один контекстный
// документ для аналитика.
package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Indexer собирает markdown-заметки каталога в контекстный документ.
type Indexer struct {
	dir string
}

// NewIndexer создаёт индексатор для каталога заметок.
func NewIndexer(dir string) *Indexer {
	return &Indexer{dir: dir}
}

// Index читает все *.md файлы каталога в алфавитном порядке
// и объединяет их содержимое с заголовками-источниками.
//
// Отсутствующий каталог и каталог без заметок — не ошибка:
// возвращается пустая строка, отчёт строится без биографического контекста.
func (ix *Indexer) Index(ctx context.Context) (string, error) {
	entries, err := os.ReadDir(ix.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read notes dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		data, err := os.ReadFile(filepath.Join(ix.dir, name))
		if err != nil {
			return "", fmt.Errorf("read note %s: %w", name, err)
		}
		body := strings.TrimSpace(string(data))
		if body == "" {
			continue
		}

		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "<!-- source: %s -->\n%s", name, body)
	}
	return b.String(), nil
}
