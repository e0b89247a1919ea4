package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/simplerag/simplerag/internal/analytics"
	"github.com/simplerag/simplerag/internal/cache"
	"github.com/simplerag/simplerag/internal/corpus"
	"github.com/simplerag/simplerag/internal/engine"
	"github.com/simplerag/simplerag/internal/server"
	"github.com/simplerag/simplerag/pkg/config"
	"github.com/simplerag/simplerag/pkg/health"
	"github.com/simplerag/simplerag/pkg/kafka"
	"github.com/simplerag/simplerag/pkg/logger"
	"github.com/simplerag/simplerag/pkg/metrics"
	"github.com/simplerag/simplerag/pkg/middleware"
	"github.com/simplerag/simplerag/pkg/postgres"
	pkgredis "github.com/simplerag/simplerag/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting retrieval service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New()

	var store *corpus.Store
	var pgClient *postgres.Client
	if cfg.Corpus.PersistDocuments {
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, document persistence disabled", "error", err)
		} else {
			defer pgClient.Close()
			store = corpus.NewStore(pgClient)
			if err := store.EnsureSchema(ctx); err != nil {
				slog.Error("failed to ensure corpus schema", "error", err)
				os.Exit(1)
			}
		}
	}

	// Seed the model: prefer the persisted corpus, fall back to the data
	// directory. The service also starts empty and accepts uploads.
	if store != nil {
		if docs, err := store.LoadAll(ctx); err != nil {
			slog.Warn("failed to load persisted corpus", "error", err)
		} else if len(docs) > 0 {
			if err := eng.LoadCorpus(docs); err != nil {
				slog.Warn("persisted corpus unusable", "error", err)
			}
		}
	}
	if !eng.Fitted() && cfg.Corpus.DataDir != "" {
		if docs, err := corpus.LoadDir(cfg.Corpus.DataDir); err != nil {
			slog.Warn("corpus directory not loaded", "dir", cfg.Corpus.DataDir, "error", err)
		} else if len(docs) > 0 {
			if err := eng.LoadCorpus(docs); err != nil {
				slog.Warn("corpus directory unusable", "dir", cfg.Corpus.DataDir, "error", err)
			} else {
				docCount, vocabSize := eng.Stats()
				slog.Info("corpus directory loaded", "documents", docCount, "vocabulary", vocabSize)
			}
		}
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 10000)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.SearchEvents)
	}

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	checker := health.NewChecker()
	checker.Register("model", func(ctx context.Context) health.ComponentHealth {
		docCount, vocabSize := eng.Stats()
		if !eng.Fitted() {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no corpus loaded"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", docCount, vocabSize),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.DB.PingContext(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	h := server.New(eng, queryCache, collector, store, m, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/corpus", h.LoadCorpus)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/documents/{id}/preview", h.Preview)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("retrieval service listening", "addr", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("retrieval service stopped")
}
