// Package main implements the talentgrid API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/talentgrid/talentgrid/engine/embed"
	"github.com/talentgrid/talentgrid/engine/extract"
	"github.com/talentgrid/talentgrid/engine/generate"
	"github.com/talentgrid/talentgrid/engine/ingest"
	"github.com/talentgrid/talentgrid/engine/match"
	"github.com/talentgrid/talentgrid/engine/semantic"
	"github.com/talentgrid/talentgrid/engine/skillgraph"
	"github.com/talentgrid/talentgrid/engine/store"
	"github.com/talentgrid/talentgrid/engine/taxonomy"
	"github.com/talentgrid/talentgrid/pkg/metrics"
	"github.com/talentgrid/talentgrid/pkg/mid"
	"github.com/talentgrid/talentgrid/pkg/resilience"
)

// Config holds all environment-based configuration.
type Config struct {
	Port           string
	PostgresURL    string
	RedisAddr      string
	OllamaURL      string
	EmbedModel     string
	EmbedDims      int
	QdrantURL      string
	JobsCollection string
	DocsCollection string
	Neo4jURL       string
	Neo4jUser      string
	Neo4jPass      string
	NATSURL        string
	TaxonomyURL    string
	TaxonomyKey    string
	GeminiKey      string
	GeminiModel    string
	CORSOrigin     string
}

func loadConfig() Config {
	return Config{
		Port:           envOr("PORT", "8080"),
		PostgresURL:    envOr("POSTGRES_URL", ""),
		RedisAddr:      envOr("REDIS_ADDR", ""),
		OllamaURL:      envOr("OLLAMA_URL", ""),
		EmbedModel:     envOr("EMBED_MODEL", "nomic-embed-text"),
		EmbedDims:      envIntOr("EMBED_DIMS", 768),
		QdrantURL:      envOr("QDRANT_URL", ""),
		JobsCollection: envOr("QDRANT_JOBS_COLLECTION", "talentgrid_jobs"),
		DocsCollection: envOr("QDRANT_DOCS_COLLECTION", "talentgrid_documents"),
		Neo4jURL:       envOr("NEO4J_URL", ""),
		Neo4jUser:      envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:      envOr("NEO4J_PASS", "password"),
		NATSURL:        envOr("NATS_URL", ""),
		TaxonomyURL:    envOr("TAXONOMY_URL", ""),
		TaxonomyKey:    envOr("TAXONOMY_API_KEY", ""),
		GeminiKey:      envOr("GEMINI_API_KEY", ""),
		GeminiModel:    envOr("GEMINI_MODEL", ""),
		CORSOrigin:     envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metrics.New()

	// --- Record store ---
	var jobs store.JobStore
	var docs store.DocumentStore
	if cfg.PostgresURL != "" {
		pool, err := store.NewPostgresPool(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer pool.Close()
		pg := store.NewPostgres(pool)
		jobs, docs = pg, pg
	} else {
		logger.Warn("POSTGRES_URL not set, using in-memory store")
		mem := store.NewMemory()
		jobs, docs = mem, mem
	}

	// --- Embedding service ---
	var embedder *embed.Service
	if cfg.OllamaURL != "" {
		opts := []embed.Option{
			embed.WithLimiter(resilience.NewLimiter(resilience.LimiterOpts{Rate: 20, Burst: 5})),
		}
		if cfg.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			defer rdb.Close()
			opts = append(opts, embed.WithCache(embed.NewRedisCache(rdb, 24*time.Hour)))
		}
		embedder = embed.NewService(embed.NewOllamaClient(cfg.OllamaURL, cfg.EmbedModel), logger, opts...)
	} else {
		logger.Warn("OLLAMA_URL not set, semantic tier disabled")
	}

	// --- Vector index ---
	var jobIndex, docIndex *semantic.Store
	if cfg.QdrantURL != "" {
		var err error
		jobIndex, err = semantic.New(cfg.QdrantURL, cfg.JobsCollection)
		if err != nil {
			return fmt.Errorf("qdrant connect: %w", err)
		}
		defer jobIndex.Close()
		if err := jobIndex.EnsureCollection(ctx, cfg.EmbedDims); err != nil {
			logger.Warn("ensure jobs collection failed", "error", err)
		}

		docIndex, err = semantic.New(cfg.QdrantURL, cfg.DocsCollection)
		if err != nil {
			return fmt.Errorf("qdrant connect: %w", err)
		}
		defer docIndex.Close()
		if err := docIndex.EnsureCollection(ctx, cfg.EmbedDims); err != nil {
			logger.Warn("ensure documents collection failed", "error", err)
		}
	} else {
		logger.Warn("QDRANT_URL not set, vector index disabled")
	}

	// --- Skill graph ---
	var graph *skillgraph.Graph
	if cfg.Neo4jURL != "" {
		var err error
		graph, err = skillgraph.Connect(ctx, cfg.Neo4jURL, cfg.Neo4jUser, cfg.Neo4jPass)
		if err != nil {
			logger.Warn("neo4j unavailable, skill graph disabled", "error", err)
			graph = nil
		} else {
			defer graph.Close(ctx)
		}
	}

	// --- Taxonomy tier ---
	taxSvc := taxonomy.New(taxonomy.Config{
		ServiceURL: cfg.TaxonomyURL,
		APIKey:     cfg.TaxonomyKey,
	}, jobs, logger)

	// --- Matching engine ---
	engineOpts := []match.Option{match.WithMetrics(registry)}
	if taxSvc.Available() {
		engineOpts = append(engineOpts, match.WithTaxonomy(taxSvc))
	}
	if embedder != nil && jobIndex != nil {
		engineOpts = append(engineOpts, match.WithSemantic(embedder, jobIndex))
	}
	if graph != nil {
		engineOpts = append(engineOpts, match.WithSkillGraph(graph))
	}
	engine := match.New(jobs, logger, engineOpts...)

	// --- Ingestion pipeline ---
	ingestDeps := ingest.Deps{
		Documents: docs,
		Extractor: extract.Default(logger),
		Registry:  registry,
		Logger:    logger,
	}
	if embedder != nil {
		ingestDeps.Embedder = embedder
	}
	if docIndex != nil {
		ingestDeps.Index = docIndex
	}
	ingestSvc := ingest.NewService(ingestDeps)

	// --- NATS consumer ---
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1))
		if err != nil {
			logger.Warn("nats unavailable, async ingestion disabled", "error", err)
		} else {
			defer nc.Drain()
			sub, err := ingest.StartConsumer(nc, ingestSvc)
			if err != nil {
				return fmt.Errorf("start ingest consumer: %w", err)
			}
			defer sub.Unsubscribe()
			logger.Info("ingest consumer started", "subject", ingest.ProcessSubject)
		}
	}

	// --- Generation ---
	var llm generate.LLM
	if cfg.GeminiKey != "" {
		g, err := generate.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini unavailable, falling back to templates", "error", err)
		} else {
			llm = g
		}
	}
	genSvc := generate.New(llm, logger,
		generate.WithLimiter(resilience.NewLimiter(resilience.LimiterOpts{Rate: 2, Burst: 2})))

	// --- HTTP server ---
	api := &apiServer{
		engine:   engine,
		ingest:   ingestSvc,
		generate: genSvc,
		taxonomy: taxSvc,
		graph:    graph,
		docs:     docs,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", api.handleHealth)
	mux.Handle("GET /metrics", registry.Handler())
	mux.HandleFunc("POST /api/match", api.handleMatch)
	mux.HandleFunc("POST /api/search", api.handleSearch)
	mux.HandleFunc("POST /api/jobs/{id}/index", api.handleIndexJob)
	mux.HandleFunc("DELETE /api/jobs/{id}/index", api.handleRemoveJob)
	mux.HandleFunc("POST /api/jobs/{id}/enrich", api.handleEnrichJob)
	mux.HandleFunc("POST /api/jobs/{id}/answer", api.handleAnswer)
	mux.HandleFunc("POST /api/generate/description", api.handleDescribe)
	mux.HandleFunc("POST /api/documents/{id}/process", api.handleProcessDocument)
	mux.HandleFunc("POST /api/documents/process", api.handleProcessAll)
	mux.HandleFunc("GET /api/skills/{skill}/jobs", api.handleJobsWithSkill)
	mux.HandleFunc("GET /api/skills/{skill}/related", api.handleRelatedSkills)

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("talentgrid-api"),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
