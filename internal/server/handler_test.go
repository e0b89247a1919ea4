package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/simplerag/simplerag/internal/corpus"
	"github.com/simplerag/simplerag/internal/engine"
	"github.com/simplerag/simplerag/pkg/config"
	"github.com/simplerag/simplerag/pkg/metrics"
)

// Prometheus collectors register globally, so the package shares one set.
var testMetrics = metrics.New()

func newTestMux(t *testing.T, preload bool) *http.ServeMux {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	eng := engine.New()
	if preload {
		docs := corpus.Assign([]corpus.Document{
			{Name: "apples.txt", Text: "apples are red fruit"},
			{Name: "oranges.txt", Text: "oranges are citrus fruit"},
		})
		if err := eng.LoadCorpus(docs); err != nil {
			t.Fatalf("LoadCorpus: %v", err)
		}
	}

	h := New(eng, nil, nil, nil, testMetrics, cfg)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/corpus", h.LoadCorpus)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/documents/{id}/preview", h.Preview)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	return mux
}

func TestSearchHandler(t *testing.T) {
	mux := newTestMux(t, true)

	t.Run("ranks matching document first", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=tell+me+about+apples", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var result engine.SearchResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if result.Best.Name != "apples.txt" {
			t.Errorf("best = %s, want apples.txt", result.Best.Name)
		}
		if len(result.Results) != 2 {
			t.Errorf("results = %d, want 2", len(result.Results))
		}
	})

	t.Run("blank query rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=++", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("limit caps results", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=fruit&limit=1", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		var result engine.SearchResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if len(result.Results) != 1 {
			t.Errorf("results = %d, want 1", len(result.Results))
		}
	})

	t.Run("invalid limit rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=fruit&limit=zero", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestSearchHandlerNotFitted(t *testing.T) {
	mux := newTestMux(t, false)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=apples", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestLoadCorpusHandler(t *testing.T) {
	mux := newTestMux(t, false)

	t.Run("json body", func(t *testing.T) {
		body := `[{"name":"a.txt","text":"apples are red"},{"name":"b.txt","text":"oranges are orange"}]`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/corpus", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		var resp loadResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Documents != 2 {
			t.Errorf("documents = %d, want 2", resp.Documents)
		}
		if resp.Vocabulary == 0 {
			t.Error("vocabulary = 0, want > 0")
		}
	})

	t.Run("empty corpus rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/corpus", strings.NewReader(`[]`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unsupported content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/corpus", strings.NewReader("plain text"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnsupportedMediaType {
			t.Errorf("status = %d, want 415", rec.Code)
		}
	})
}

func TestPreviewHandler(t *testing.T) {
	mux := newTestMux(t, true)

	t.Run("returns preview", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/0/preview?chars=10", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			DocID   int    `json:"doc_id"`
			Preview string `json:"preview"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Preview != "apples are..." {
			t.Errorf("preview = %q, want %q", resp.Preview, "apples are...")
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/99/preview", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("non-numeric id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/abc/preview", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestCacheStatsDisabled(t *testing.T) {
	mux := newTestMux(t, false)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["status"] != "disabled" {
		t.Errorf("status = %q, want disabled", resp["status"])
	}
}
