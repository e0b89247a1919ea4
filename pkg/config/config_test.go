package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Corpus.PreviewChars != 500 {
		t.Errorf("Corpus.PreviewChars = %d, want 500", cfg.Corpus.PreviewChars)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("Search.DefaultLimit = %d, want 10", cfg.Search.DefaultLimit)
	}
	if cfg.Redis.CacheTTL != 60*time.Second {
		t.Errorf("Redis.CacheTTL = %v, want 60s", cfg.Redis.CacheTTL)
	}
	if cfg.Kafka.Enabled {
		t.Error("Kafka.Enabled default = true, want false")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
corpus:
  dataDir: /var/corpus
  previewChars: 200
search:
  defaultLimit: 5
  maxResults: 50
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Corpus.DataDir != "/var/corpus" {
		t.Errorf("Corpus.DataDir = %s, want /var/corpus", cfg.Corpus.DataDir)
	}
	if cfg.Corpus.PreviewChars != 200 {
		t.Errorf("Corpus.PreviewChars = %d, want 200", cfg.Corpus.PreviewChars)
	}
	if cfg.Search.DefaultLimit != 5 {
		t.Errorf("Search.DefaultLimit = %d, want 5", cfg.Search.DefaultLimit)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %s, want default", cfg.Redis.Addr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load on missing file returned nil error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SR_SERVER_PORT", "7070")
	t.Setenv("SR_CORPUS_DATA_DIR", "/tmp/docs")
	t.Setenv("SR_LOGGING_LEVEL", "error")
	t.Setenv("SR_KAFKA_BROKERS", "broker1:9092,broker2:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Corpus.DataDir != "/tmp/docs" {
		t.Errorf("Corpus.DataDir = %s, want /tmp/docs", cfg.Corpus.DataDir)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error", cfg.Logging.Level)
	}
	if len(cfg.Kafka.Brokers) != 2 || !cfg.Kafka.Enabled {
		t.Errorf("Kafka override not applied: %+v", cfg.Kafka)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "db", Port: 5433, User: "u", Password: "p",
		Database: "d", SSLMode: "require",
	}
	want := "host=db port=5433 user=u password=p dbname=d sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
