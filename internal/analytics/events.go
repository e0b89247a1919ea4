package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventCacheHit   EventType = "cache_hit"
	EventCacheMiss  EventType = "cache_miss"
	EventZeroScore  EventType = "zero_score"
	EventCorpusLoad EventType = "corpus_load"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	BestDocID int       `json:"best_doc_id"`
	BestScore float64   `json:"best_score"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

type CorpusEvent struct {
	Type       EventType `json:"type"`
	Documents  int       `json:"documents"`
	Vocabulary int       `json:"vocabulary"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
}
