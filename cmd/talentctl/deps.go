package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/talentgrid/talentgrid/engine/embed"
	"github.com/talentgrid/talentgrid/engine/extract"
	"github.com/talentgrid/talentgrid/engine/ingest"
	"github.com/talentgrid/talentgrid/engine/match"
	"github.com/talentgrid/talentgrid/engine/semantic"
	"github.com/talentgrid/talentgrid/engine/skillgraph"
	"github.com/talentgrid/talentgrid/engine/store"
	"github.com/talentgrid/talentgrid/pkg/metrics"
	"github.com/talentgrid/talentgrid/pkg/resilience"
)

// deps holds the backends a batch command needs. Close releases them in
// reverse construction order.
type deps struct {
	jobs     store.JobStore
	docs     store.DocumentStore
	embedder *embed.Service
	jobIndex *semantic.Store
	docIndex *semantic.Store
	graph    *skillgraph.Graph
	registry *metrics.Registry
	logger   *slog.Logger

	closers []func()
}

func (d *deps) Close(ctx context.Context) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	if d.graph != nil {
		d.graph.Close(ctx)
	}
}

func envStr(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

func buildDeps(ctx context.Context, logger *slog.Logger) (*deps, error) {
	d := &deps{registry: metrics.New(), logger: logger}

	pgURL := viper.GetString("POSTGRES_URL")
	if pgURL == "" {
		return nil, fmt.Errorf("POSTGRES_URL is required for batch commands")
	}
	pool, err := store.NewPostgresPool(ctx, pgURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	d.closers = append(d.closers, pool.Close)
	pg := store.NewPostgres(pool)
	d.jobs, d.docs = pg, pg

	ollamaURL := viper.GetString("OLLAMA_URL")
	if ollamaURL != "" {
		opts := []embed.Option{
			embed.WithLimiter(resilience.NewLimiter(resilience.LimiterOpts{Rate: 20, Burst: 5})),
		}
		if addr := viper.GetString("REDIS_ADDR"); addr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: addr})
			d.closers = append(d.closers, func() { rdb.Close() })
			opts = append(opts, embed.WithCache(embed.NewRedisCache(rdb, 24*time.Hour)))
		}
		model := envStr("EMBED_MODEL", "nomic-embed-text")
		d.embedder = embed.NewService(embed.NewOllamaClient(ollamaURL, model), logger, opts...)
	}

	qdrantURL := viper.GetString("QDRANT_URL")
	if qdrantURL != "" {
		dims := viper.GetInt("EMBED_DIMS")
		if dims <= 0 {
			dims = 768
		}
		d.jobIndex, err = semantic.New(qdrantURL, envStr("QDRANT_JOBS_COLLECTION", "talentgrid_jobs"))
		if err != nil {
			d.Close(ctx)
			return nil, fmt.Errorf("qdrant connect: %w", err)
		}
		d.closers = append(d.closers, func() { d.jobIndex.Close() })
		if err := d.jobIndex.EnsureCollection(ctx, dims); err != nil {
			logger.Warn("ensure jobs collection failed", "error", err)
		}

		d.docIndex, err = semantic.New(qdrantURL, envStr("QDRANT_DOCS_COLLECTION", "talentgrid_documents"))
		if err != nil {
			d.Close(ctx)
			return nil, fmt.Errorf("qdrant connect: %w", err)
		}
		d.closers = append(d.closers, func() { d.docIndex.Close() })
		if err := d.docIndex.EnsureCollection(ctx, dims); err != nil {
			logger.Warn("ensure documents collection failed", "error", err)
		}
	}

	if uri := viper.GetString("NEO4J_URL"); uri != "" {
		g, err := skillgraph.Connect(ctx, uri,
			envStr("NEO4J_USER", "neo4j"), envStr("NEO4J_PASS", "password"))
		if err != nil {
			logger.Warn("neo4j unavailable, skill graph disabled", "error", err)
		} else {
			d.graph = g
		}
	}

	return d, nil
}

func (d *deps) matchEngine() (*match.Engine, error) {
	if d.embedder == nil || d.jobIndex == nil {
		return nil, fmt.Errorf("OLLAMA_URL and QDRANT_URL are required for indexing")
	}
	opts := []match.Option{
		match.WithMetrics(d.registry),
		match.WithSemantic(d.embedder, d.jobIndex),
	}
	if d.graph != nil {
		opts = append(opts, match.WithSkillGraph(d.graph))
	}
	return match.New(d.jobs, d.logger, opts...), nil
}

func (d *deps) ingestService() *ingest.Service {
	id := ingest.Deps{
		Documents: d.docs,
		Extractor: extract.Default(d.logger),
		Registry:  d.registry,
		Logger:    d.logger,
	}
	if d.embedder != nil {
		id.Embedder = d.embedder
	}
	if d.docIndex != nil {
		id.Index = d.docIndex
	}
	return ingest.NewService(id)
}
