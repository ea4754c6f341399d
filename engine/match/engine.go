// Package match implements the tiered candidate-to-job matching engine.
// Tier order is fixed: taxonomy matching beats semantic similarity beats
// the deterministic heuristic, because each later tier carries less domain
// knowledge. A tier that produces a non-empty result short-circuits the
// chain; unavailable or empty tiers fall through silently.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/talentgrid/talentgrid/engine/domain"
	"github.com/talentgrid/talentgrid/engine/semantic"
	"github.com/talentgrid/talentgrid/engine/store"
	"github.com/talentgrid/talentgrid/engine/taxonomy"
	"github.com/talentgrid/talentgrid/pkg/metrics"
)

// Tier names reported on MatchResult.
const (
	TierTaxonomy  = "taxonomy"
	TierSemantic  = "semantic"
	TierHeuristic = "heuristic"
)

// TaxonomyTier is the first matching tier.
type TaxonomyTier interface {
	Available() bool
	Match(ctx context.Context, c domain.Candidate, jobs []domain.Job, topN int) ([]taxonomy.Match, error)
}

// Embedder turns text into vectors for the semantic tier.
type Embedder interface {
	Available() bool
	Model() string
	Generate(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the similarity index backing the semantic tier.
type VectorIndex interface {
	Upsert(ctx context.Context, rec semantic.Record) error
	Delete(ctx context.Context, key string) error
	Query(ctx context.Context, embedding []float32, k int, filters map[string]string) ([]semantic.Hit, error)
}

// SkillGraph receives job/skill edges as an indexing side effect.
type SkillGraph interface {
	Available() bool
	SaveJobSkills(ctx context.Context, job domain.Job) error
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Engine is the matching core. Construct once at process start; every
// collaborator except the job store is optional and its absence degrades
// the corresponding tier instead of failing requests.
type Engine struct {
	jobs     store.JobStore
	taxonomy TaxonomyTier
	embedder Embedder
	index    VectorIndex
	graph    SkillGraph
	registry *metrics.Registry
	logger   *slog.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithTaxonomy enables the taxonomy tier.
func WithTaxonomy(t TaxonomyTier) Option {
	return func(e *Engine) { e.taxonomy = t }
}

// WithSemantic enables the semantic tier.
func WithSemantic(emb Embedder, index VectorIndex) Option {
	return func(e *Engine) {
		e.embedder = emb
		e.index = index
	}
}

// WithSkillGraph enables graph enrichment during indexing.
func WithSkillGraph(g SkillGraph) Option {
	return func(e *Engine) { e.graph = g }
}

// WithMetrics attaches a metrics registry.
func WithMetrics(r *metrics.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// New creates a matching engine over the given job store.
func New(jobs store.JobStore, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{jobs: jobs, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Options controls a single matching request.
type Options struct {
	// JobIDs restricts matching to the given jobs. Unknown ids simply
	// yield no rows.
	JobIDs []string
	// Jobs supplies an explicit job set, bypassing the record store.
	Jobs []domain.Job
	// Limit caps the ranked result list. Zero means the default.
	Limit int
	// DisableTaxonomy skips the taxonomy tier for this request.
	DisableTaxonomy bool
}

// MatchCandidate runs the tier chain and returns a ranked result list. The
// only error it returns is candidate validation; degraded collaborators
// produce shorter (possibly empty) lists, never failures.
func (e *Engine) MatchCandidate(ctx context.Context, c domain.Candidate, opts Options) ([]domain.MatchResult, error) {
	if err := domain.ValidateCandidate(c); err != nil {
		return nil, err
	}
	limit := normalizeLimit(opts.Limit)

	jobs := e.loadJobs(ctx, opts)
	scope := requestScope(opts, jobs)

	if !opts.DisableTaxonomy && len(jobs) > 0 {
		if results := e.taxonomyTier(ctx, c, jobs, limit); len(results) > 0 {
			e.count("matches_total", "tier", TierTaxonomy)
			return results, nil
		}
	}

	if results := e.semanticTier(ctx, c, scope, limit); len(results) > 0 {
		e.count("matches_total", "tier", TierSemantic)
		return results, nil
	}

	e.count("matches_total", "tier", TierHeuristic)
	return heuristicTier(c, jobs, limit), nil
}

// loadJobs resolves the job set for a request. An explicit job list wins;
// otherwise published jobs are read from the store, optionally restricted
// by id. Store failures degrade to an empty set.
func (e *Engine) loadJobs(ctx context.Context, opts Options) []domain.Job {
	if len(opts.Jobs) > 0 {
		return filterPublished(opts.Jobs, opts.JobIDs)
	}
	if e.jobs == nil {
		return nil
	}

	jobs, err := e.jobs.ListJobs(ctx, store.JobFilter{
		Status: domain.StatusPublished,
		IDs:    opts.JobIDs,
	})
	if err != nil {
		e.logger.Warn("job store unavailable for matching", "error", err)
		return nil
	}
	return jobs
}

// requestScope is the set of job ids a request may return, nil when
// unrestricted. An explicit job set restricts every tier to the (already
// filtered) jobs it resolved to, so a restricted request that collapses to
// nothing yields an empty, not unbounded, scope.
func requestScope(opts Options, jobs []domain.Job) map[string]bool {
	if len(opts.Jobs) == 0 && len(opts.JobIDs) == 0 {
		return nil
	}
	scope := make(map[string]bool)
	if len(opts.Jobs) > 0 {
		for _, j := range jobs {
			scope[j.ID] = true
		}
		return scope
	}
	for _, id := range opts.JobIDs {
		scope[id] = true
	}
	return scope
}

func filterPublished(jobs []domain.Job, ids []string) []domain.Job {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	var out []domain.Job
	for _, j := range jobs {
		if j.Status != domain.StatusPublished {
			continue
		}
		if len(idSet) > 0 && !idSet[j.ID] {
			continue
		}
		out = append(out, j)
	}
	return out
}

// taxonomyTier delegates to the taxonomy matcher and converts its matches.
// Any failure or empty result falls through to the next tier.
func (e *Engine) taxonomyTier(ctx context.Context, c domain.Candidate, jobs []domain.Job, limit int) []domain.MatchResult {
	if e.taxonomy == nil || !e.taxonomy.Available() {
		return nil
	}

	matches, err := e.taxonomy.Match(ctx, c, jobs, limit)
	if err != nil {
		e.logger.Warn("taxonomy tier failed, falling through", "error", err)
		return nil
	}

	results := make([]domain.MatchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, domain.MatchResult{
			JobID:         m.JobID,
			JobTitle:      m.JobTitle,
			Score:         m.Score,
			Tier:          TierTaxonomy,
			Reasons:       taxonomyReasons(m),
			MatchedSkills: sortedKeys(m.CompetencyScores),
			MissingSkills: m.SkillGaps,
		})
	}

	rankResults(results)
	return capResults(results, limit)
}

// taxonomyReasons surfaces the raw score, the competency count, and up to
// three match-detail pairs.
func taxonomyReasons(m taxonomy.Match) []string {
	reasons := []string{
		fmt.Sprintf("Match score: %.2f", m.Score),
		fmt.Sprintf("Competencies evaluated: %d", len(m.CompetencyScores)),
	}
	for i, key := range sortedKeys(m.Details) {
		if i >= 3 {
			break
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", key, m.Details[key]))
	}
	return reasons
}

// semanticTier embeds the candidate query and ranks jobs by vector
// similarity. Missing embedder, missing index, empty query, and backend
// failures all fall through to the heuristic.
func (e *Engine) semanticTier(ctx context.Context, c domain.Candidate, scope map[string]bool, limit int) []domain.MatchResult {
	if e.embedder == nil || !e.embedder.Available() || e.index == nil {
		return nil
	}

	query := domain.CandidateQuery(c)
	if query == "" {
		return nil
	}

	vec, err := e.embedder.Generate(ctx, query)
	if err != nil {
		e.logger.Warn("semantic tier embedding failed, falling through", "error", err)
		return nil
	}

	hits, err := e.index.Query(ctx, vec, limit*2, map[string]string{"status": string(domain.StatusPublished)})
	if err != nil {
		e.logger.Warn("semantic tier query failed, falling through", "error", err)
		return nil
	}

	candSkills := domain.SkillSet(c.Skills)
	results := make([]domain.MatchResult, 0, len(hits))
	for _, hit := range hits {
		if scope != nil && !scope[hit.Key] {
			continue
		}

		var matched, missing []string
		for _, sk := range splitSkills(hit.Payload["skills"]) {
			if candSkills[sk] {
				matched = append(matched, sk)
			} else {
				missing = append(missing, sk)
			}
		}

		results = append(results, domain.MatchResult{
			JobID:         hit.Key,
			JobTitle:      hit.Payload["title"],
			Score:         round3(float64(hit.Score)),
			Tier:          TierSemantic,
			Reasons:       semanticReasons(float64(hit.Score), len(matched), hit.Payload["level"]),
			MatchedSkills: matched,
			MissingSkills: missing,
		})
	}

	rankResults(results)
	return capResults(results, limit)
}

// semanticReasons bands the similarity score and notes skill and level
// signals when present.
func semanticReasons(score float64, matchedCount int, level string) []string {
	var reasons []string
	switch {
	case score > 0.8:
		reasons = append(reasons, "Excellent semantic match")
	case score > 0.6:
		reasons = append(reasons, "Strong semantic match")
	}
	if matchedCount > 0 {
		reasons = append(reasons, fmt.Sprintf("Matches %d required skills", matchedCount))
	}
	if level != "" {
		reasons = append(reasons, "Level: "+level)
	}
	return reasons
}

func (e *Engine) count(name string, labels ...string) {
	if e.registry == nil {
		return
	}
	e.registry.Counter(metrics.WithLabels(name, labels...), "").Inc()
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}

func splitSkills(csv string) []string {
	if csv == "" {
		return nil
	}
	return domain.NormalizeSkills(strings.Split(csv, ","))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
