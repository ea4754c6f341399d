package taxonomy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talentgrid/talentgrid/engine/domain"
	"github.com/talentgrid/talentgrid/engine/store"
)

// Config selects which matcher backs the service.
type Config struct {
	// ServiceURL points at the external taxonomy service. Empty means the
	// service is not configured.
	ServiceURL string
	// APIKey authenticates against the external service.
	APIKey string
	// DisableStub turns off the fallback matcher, leaving the taxonomy
	// tier unconfigured when no external service is reachable.
	DisableStub bool
}

// Service is the taxonomy tier. It delegates to the external service when
// configured and falls back to the deterministic stub otherwise.
type Service struct {
	matcher Matcher
	jobs    store.JobStore
	logger  *slog.Logger
}

// New wires a taxonomy service from config. Returns nil when neither the
// external service nor the stub is enabled; callers treat a nil service as
// an unavailable tier.
func New(cfg Config, jobs store.JobStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	var m Matcher
	switch {
	case cfg.ServiceURL != "":
		m = NewHTTPMatcher(cfg.ServiceURL, cfg.APIKey)
	case !cfg.DisableStub:
		m = NewStub()
	default:
		return nil
	}
	logger.Info("taxonomy matcher configured", "matcher", m.Name())
	return &Service{matcher: m, jobs: jobs, logger: logger}
}

// NewWithMatcher wires a service around an explicit matcher, used in tests.
func NewWithMatcher(m Matcher, jobs store.JobStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{matcher: m, jobs: jobs, logger: logger}
}

// Available reports whether the tier can serve requests.
func (s *Service) Available() bool {
	return s != nil && s.matcher != nil
}

// MatcherName identifies the active backend.
func (s *Service) MatcherName() string {
	if !s.Available() {
		return "none"
	}
	return s.matcher.Name()
}

// Match ranks the given jobs for a candidate.
func (s *Service) Match(ctx context.Context, c domain.Candidate, jobs []domain.Job, topN int) ([]Match, error) {
	if !s.Available() {
		return nil, domain.ErrTaxonomyUnavailable
	}
	matches, err := s.matcher.Match(ctx, c, jobs, topN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTaxonomyUnavailable, err)
	}
	return matches, nil
}

// EnrichJob classifies a job and builds its competency model, then writes
// both annotations back onto the job record.
func (s *Service) EnrichJob(ctx context.Context, jobID string) (domain.Job, error) {
	if !s.Available() {
		return domain.Job{}, domain.ErrTaxonomyUnavailable
	}

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return domain.Job{}, err
	}

	cls, err := s.matcher.ClassifyJob(ctx, job)
	if err != nil {
		return domain.Job{}, fmt.Errorf("classify job %s: %w", jobID, err)
	}
	model, err := s.matcher.CompetencyModel(ctx, job)
	if err != nil {
		return domain.Job{}, fmt.Errorf("competency model for job %s: %w", jobID, err)
	}

	taxonomy := cls.toMap()
	competencies := model.toMap()
	if err := s.jobs.Annotate(ctx, jobID, taxonomy, competencies); err != nil {
		return domain.Job{}, fmt.Errorf("annotate job %s: %w", jobID, err)
	}

	s.logger.Info("job enriched",
		"job_id", jobID,
		"job_family", cls.JobFamily,
		"competencies", len(model.Technical))

	job.Taxonomy = taxonomy
	job.Competencies = competencies
	return job, nil
}
