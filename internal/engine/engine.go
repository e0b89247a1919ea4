// Package engine owns the retrieval model lifecycle. LoadCorpus fits a new
// model off to the side and publishes it with an atomic pointer swap, so
// Search and Preview never observe a half-built vocabulary.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/simplerag/simplerag/internal/corpus"
	"github.com/simplerag/simplerag/internal/ranker"
	"github.com/simplerag/simplerag/internal/vectorizer"
	"github.com/simplerag/simplerag/pkg/errors"
)

// model is one immutable corpus snapshot: the fitted vocabulary plus the
// document matrix it produced.
type model struct {
	vec    *vectorizer.Vectorizer
	docs   []corpus.Document
	matrix []vectorizer.Vector
}

// Engine exposes the load/query entry points of the retrieval core.
type Engine struct {
	current atomic.Pointer[model]
	loadMu  sync.Mutex
	logger  *slog.Logger
}

// RankedDoc is one row of a search result, ready for display.
type RankedDoc struct {
	DocID int     `json:"doc_id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// SearchResult holds the full ranking for one query. Best duplicates the
// top row because the single most relevant document is the primary answer.
type SearchResult struct {
	Query     string      `json:"query"`
	Best      RankedDoc   `json:"best"`
	Results   []RankedDoc `json:"results"`
	VocabSize int         `json:"vocab_size"`
}

func New() *Engine {
	return &Engine{
		logger: slog.Default().With("component", "engine"),
	}
}

// LoadCorpus fits a fresh model on the given documents and swaps it in
// atomically. On ErrEmptyCorpus the previous model (if any) stays live.
// Concurrent loads are serialized; readers are never blocked.
func (e *Engine) LoadCorpus(docs []corpus.Document) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	start := time.Now()
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	vec := vectorizer.New()
	if err := vec.Fit(texts); err != nil {
		return err
	}
	matrix, err := vec.TransformCorpus()
	if err != nil {
		return err
	}

	e.current.Store(&model{
		vec:    vec,
		docs:   docs,
		matrix: matrix,
	})
	e.logger.Info("corpus loaded",
		"documents", len(docs),
		"vocabulary", vec.VocabularySize(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// Search transforms the query through the fitted model and ranks every
// document against it. A blank query is rejected before any ranking runs.
func (e *Engine) Search(ctx context.Context, query string) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.ErrEmptyQuery
	}
	m := e.current.Load()
	if m == nil {
		return nil, errors.ErrNotFitted
	}

	queryVec, err := m.vec.Transform(query)
	if err != nil {
		return nil, err
	}
	result, err := ranker.Rank(queryVec, m.matrix)
	if err != nil {
		return nil, err
	}

	rows := make([]RankedDoc, len(result.Ranked))
	for i, scored := range result.Ranked {
		rows[i] = RankedDoc{
			DocID: scored.DocID,
			Name:  m.docs[scored.DocID].Name,
			Score: scored.Score,
		}
	}
	return &SearchResult{
		Query:     query,
		Best:      rows[0],
		Results:   rows,
		VocabSize: m.vec.VocabularySize(),
	}, nil
}

// Preview returns up to maxChars characters of the document's text, with an
// ellipsis when truncated. Pure string slicing; not part of ranking.
func (e *Engine) Preview(docID int, maxChars int) (string, error) {
	m := e.current.Load()
	if m == nil {
		return "", errors.ErrNotFitted
	}
	if docID < 0 || docID >= len(m.docs) {
		return "", errors.ErrDocumentNotFound
	}
	text := m.docs[docID].Text
	if maxChars <= 0 {
		return text, nil
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text, nil
	}
	return string(runes[:maxChars]) + "...", nil
}

// Fitted reports whether a corpus has been loaded.
func (e *Engine) Fitted() bool {
	return e.current.Load() != nil
}

// Stats returns the current document count and vocabulary size, or zeros
// when no corpus is loaded.
func (e *Engine) Stats() (documents int, vocabulary int) {
	m := e.current.Load()
	if m == nil {
		return 0, 0
	}
	return len(m.docs), m.vec.VocabularySize()
}

// Documents returns the documents of the current snapshot, for collaborators
// that render names alongside results.
func (e *Engine) Documents() []corpus.Document {
	m := e.current.Load()
	if m == nil {
		return nil
	}
	return m.docs
}
