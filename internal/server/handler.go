// Package server exposes the retrieval engine over HTTP: corpus loading,
// search, document preview, and cache administration.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/simplerag/simplerag/internal/analytics"
	"github.com/simplerag/simplerag/internal/cache"
	"github.com/simplerag/simplerag/internal/corpus"
	"github.com/simplerag/simplerag/internal/engine"
	"github.com/simplerag/simplerag/pkg/config"
	pkgerrors "github.com/simplerag/simplerag/pkg/errors"
	"github.com/simplerag/simplerag/pkg/logger"
	"github.com/simplerag/simplerag/pkg/metrics"
	"github.com/simplerag/simplerag/pkg/middleware"
)

type Handler struct {
	engine    *engine.Engine
	cache     *cache.QueryCache
	collector *analytics.Collector
	store     *corpus.Store
	metrics   *metrics.Metrics
	searchCfg config.SearchConfig
	corpusCfg config.CorpusConfig
	maxUpload int64
	logger    *slog.Logger
}

func New(
	eng *engine.Engine,
	queryCache *cache.QueryCache,
	collector *analytics.Collector,
	store *corpus.Store,
	m *metrics.Metrics,
	cfg *config.Config,
) *Handler {
	return &Handler{
		engine:    eng,
		cache:     queryCache,
		collector: collector,
		store:     store,
		metrics:   m,
		searchCfg: cfg.Search,
		corpusCfg: cfg.Corpus,
		maxUpload: cfg.Server.MaxUploadBytes,
		logger:    slog.Default().With("component", "http-handler"),
	}
}

type documentPayload struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type loadResponse struct {
	Documents  int `json:"documents"`
	Vocabulary int `json:"vocabulary"`
}

// LoadCorpus accepts either a JSON array of {name, text} objects or a
// multipart form with text files, replaces the fitted model, persists the
// raw documents when a store is configured, and invalidates cached results.
func (h *Handler) LoadCorpus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	docs, err := h.readDocuments(r)
	if err != nil {
		h.metrics.CorpusLoadsTotal.WithLabelValues("invalid").Inc()
		h.writeAppError(w, err)
		return
	}

	if err := h.engine.LoadCorpus(docs); err != nil {
		log.Error("corpus load failed", "documents", len(docs), "error", err)
		h.metrics.CorpusLoadsTotal.WithLabelValues("error").Inc()
		h.writeAppError(w, err)
		return
	}

	if h.store != nil {
		if err := h.store.Replace(ctx, docs); err != nil {
			// The in-memory model is already live; persistence failure only
			// affects recovery after a restart.
			log.Error("corpus persistence failed", "error", err)
		}
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			log.Error("cache invalidation after load failed", "error", err)
		}
	}

	docCount, vocabSize := h.engine.Stats()
	latencyMs := time.Since(start).Milliseconds()
	h.metrics.CorpusLoadsTotal.WithLabelValues("ok").Inc()
	h.metrics.CorpusDocuments.Set(float64(docCount))
	h.metrics.VocabularySize.Set(float64(vocabSize))
	h.metrics.FitDuration.Observe(time.Since(start).Seconds())

	if h.collector != nil {
		h.collector.Track(analytics.CorpusEvent{
			Type:       analytics.EventCorpusLoad,
			Documents:  docCount,
			Vocabulary: vocabSize,
			LatencyMs:  latencyMs,
			Timestamp:  time.Now().UTC(),
			RequestID:  middleware.GetRequestID(ctx),
		})
	}

	log.Info("corpus loaded",
		"documents", docCount,
		"vocabulary", vocabSize,
		"latency_ms", latencyMs,
	)
	h.writeJSON(w, http.StatusCreated, loadResponse{
		Documents:  docCount,
		Vocabulary: vocabSize,
	})
}

// Search ranks the corpus against the q parameter. Results are capped at
// limit (default and maximum from config) and cached per (query, limit).
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		h.metrics.SearchQueriesTotal.WithLabelValues("empty_query").Inc()
		h.writeAppError(w, pkgerrors.ErrEmptyQuery)
		return
	}

	limit := h.searchCfg.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.searchCfg.MaxResults {
			parsed = h.searchCfg.MaxResults
		}
		limit = parsed
	}

	compute := func() (*engine.SearchResult, error) {
		result, err := h.engine.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		if len(result.Results) > limit {
			result.Results = result.Results[:limit]
		}
		return result, nil
	}

	var result *engine.SearchResult
	var err error
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, query, limit, compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(searchOutcome(err)).Inc()
		log.Error("search failed", "query", query, "error", err)
		h.writeAppError(w, err)
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	cacheStatus := "miss"
	outcome := "ok"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else if h.cache != nil {
		h.metrics.CacheMissesTotal.Inc()
	}
	if result.Best.Score == 0 {
		outcome = "zero_result"
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchBestScore.Observe(result.Best.Score)

	log.Info("search completed",
		"query", query,
		"best_doc", result.Best.Name,
		"best_score", result.Best.Score,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	if h.collector != nil {
		eventType := analytics.EventCacheMiss
		if cacheHit {
			eventType = analytics.EventCacheHit
		}
		if result.Best.Score == 0 {
			eventType = analytics.EventZeroScore
		}
		h.collector.Track(analytics.SearchEvent{
			Type:      eventType,
			Query:     query,
			BestDocID: result.Best.DocID,
			BestScore: result.Best.Score,
			Returned:  len(result.Results),
			LatencyMs: latencyMs,
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

// Preview returns a truncated slice of one document's text.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	docID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "document id must be an integer")
		return
	}
	chars := h.corpusCfg.PreviewChars
	if charsStr := r.URL.Query().Get("chars"); charsStr != "" {
		parsed, err := strconv.Atoi(charsStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "chars must be a positive integer")
			return
		}
		chars = parsed
	}

	preview, err := h.engine.Preview(docID, chars)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":  docID,
		"preview": preview,
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// readDocuments extracts documents from a JSON array body or a multipart
// form with one part per text file.
func (h *Handler) readDocuments(r *http.Request) ([]corpus.Document, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.ErrInvalidInput, http.StatusBadRequest, "missing or malformed Content-Type")
	}

	var docs []corpus.Document
	switch {
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			return nil, pkgerrors.Newf(pkgerrors.ErrInvalidInput, http.StatusBadRequest, "parsing multipart form: %v", err)
		}
		if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
			return nil, pkgerrors.New(pkgerrors.ErrInvalidInput, http.StatusBadRequest, "no files uploaded under field 'files'")
		}
		for _, header := range r.MultipartForm.File["files"] {
			file, err := header.Open()
			if err != nil {
				h.logger.Warn("skipping unreadable upload", "name", header.Filename, "error", err)
				continue
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				h.logger.Warn("skipping unreadable upload", "name", header.Filename, "error", err)
				continue
			}
			text := string(data)
			if strings.TrimSpace(text) == "" {
				h.logger.Warn("skipping blank upload", "name", header.Filename)
				continue
			}
			docs = append(docs, corpus.Document{Name: header.Filename, Text: text})
		}
	case mediaType == "application/json":
		var payload []documentPayload
		if err := json.NewDecoder(io.LimitReader(r.Body, h.maxUpload)).Decode(&payload); err != nil {
			return nil, pkgerrors.Newf(pkgerrors.ErrInvalidInput, http.StatusBadRequest, "decoding request body: %v", err)
		}
		for i, item := range payload {
			name := item.Name
			if name == "" {
				name = "document-" + strconv.Itoa(i)
			}
			docs = append(docs, corpus.Document{Name: name, Text: item.Text})
		}
	default:
		return nil, pkgerrors.Newf(pkgerrors.ErrInvalidInput, http.StatusUnsupportedMediaType, "unsupported content type %q", mediaType)
	}

	return corpus.Assign(docs), nil
}

func searchOutcome(err error) string {
	switch {
	case errors.Is(err, pkgerrors.ErrEmptyQuery):
		return "empty_query"
	case errors.Is(err, pkgerrors.ErrNotFitted):
		return "not_fitted"
	default:
		return "error"
	}
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	h.writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
