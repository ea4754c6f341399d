// Package embed wraps a text-embedding model behind a small client interface.
// Failures never escape as panics: empty input and an unavailable model both
// collapse to a typed unavailability error with the cause logged, so callers
// can treat a missing vector as "fewer results", not a fault.
package embed

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/talentgrid/talentgrid/engine/domain"
	"github.com/talentgrid/talentgrid/pkg/resilience"
)

// Client is the raw model contract. Implementations must be deterministic:
// the same model and input text always produce the same vector.
type Client interface {
	// Model names the embedding model, recorded on processed documents.
	Model() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Cache stores vectors keyed by model+text digest. Misses return ok=false.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Put(ctx context.Context, key string, vec []float32)
}

// Service is the embedding adapter used by the matching engine and the
// ingestion pipeline. A Service constructed without a client is valid and
// reports unavailability on every call.
type Service struct {
	client  Client
	cache   Cache
	limiter *resilience.Limiter
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache attaches a vector cache. Caching is sound because inference is
// deterministic for a fixed model and input.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLimiter rate-limits calls to the underlying model.
func WithLimiter(l *resilience.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// NewService creates the embedding adapter. client may be nil.
func NewService(client Client, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{client: client, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether a model is configured.
func (s *Service) Available() bool { return s != nil && s.client != nil }

// Model returns the configured model name, or "" when unavailable.
func (s *Service) Model() string {
	if !s.Available() {
		return ""
	}
	return s.client.Model()
}

// Generate embeds text into an L2-normalized vector. Empty input and model
// failures return domain.ErrEmbeddingUnavailable wrapped with the cause.
func (s *Service) Generate(ctx context.Context, text string) ([]float32, error) {
	if !s.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrEmbeddingUnavailable)
	}

	key := cacheKey(s.client.Model(), text)
	if s.cache != nil {
		if vec, ok := s.cache.Get(ctx, key); ok {
			return vec, nil
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Warn("embed: rate limiter wait failed", "error", err)
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}
	}

	vec, err := s.client.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embed: model call failed", "model", s.client.Model(), "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vec) == 0 {
		s.logger.Warn("embed: model returned empty vector", "model", s.client.Model())
		return nil, fmt.Errorf("%w: empty vector", domain.ErrEmbeddingUnavailable)
	}

	normalize(vec)
	if s.cache != nil {
		s.cache.Put(ctx, key, vec)
	}
	return vec, nil
}

// normalize scales vec to unit L2 norm in place. Zero vectors are left as-is.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}
