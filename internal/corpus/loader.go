package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadFiles reads the given paths into Documents. Files that cannot be read
// or contain only whitespace are skipped with a warning; they are absent from
// the corpus, not an error. The returned slice preserves the input order.
func LoadFiles(paths []string) []Document {
	log := slog.Default().With("component", "corpus-loader")
	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping unreadable document", "path", path, "error", err)
			continue
		}
		text := string(data)
		if strings.TrimSpace(text) == "" {
			log.Warn("skipping blank document", "path", path)
			continue
		}
		docs = append(docs, Document{
			Name: filepath.Base(path),
			Text: text,
		})
	}
	return Assign(docs)
}

// LoadDir reads every .txt file in dir, sorted by filename so document IDs
// are deterministic across runs.
func LoadDir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory %s: %w", dir, err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return LoadFiles(paths), nil
}
