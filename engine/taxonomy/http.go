package taxonomy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/talentgrid/talentgrid/engine/domain"
	"github.com/talentgrid/talentgrid/pkg/resilience"
)

// HTTPMatcher talks to the external taxonomy service over HTTP. Calls run
// through a circuit breaker so a dead service degrades to the next tier
// quickly instead of timing out on every request.
type HTTPMatcher struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	breaker *resilience.Breaker
}

// NewHTTPMatcher creates a matcher for the service at baseURL.
func NewHTTPMatcher(baseURL, apiKey string) *HTTPMatcher {
	return &HTTPMatcher{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
	}
}

func (m *HTTPMatcher) Name() string { return "external" }

func (m *HTTPMatcher) ClassifyJob(ctx context.Context, job domain.Job) (Classification, error) {
	var out Classification
	err := m.post(ctx, "/v1/classify", map[string]any{"job": job}, &out)
	return out, err
}

func (m *HTTPMatcher) CompetencyModel(ctx context.Context, job domain.Job) (CompetencyModel, error) {
	var out CompetencyModel
	err := m.post(ctx, "/v1/competencies", map[string]any{"job": job}, &out)
	return out, err
}

func (m *HTTPMatcher) Match(ctx context.Context, c domain.Candidate, jobs []domain.Job, topN int) ([]Match, error) {
	var out struct {
		Matches []Match `json:"matches"`
	}
	req := map[string]any{"candidate": c, "jobs": jobs, "top_n": topN}
	if err := m.post(ctx, "/v1/match", req, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

func (m *HTTPMatcher) post(ctx context.Context, path string, payload, out any) error {
	return m.breaker.Call(ctx, func(ctx context.Context) error {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if m.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+m.apiKey)
		}

		resp, err := m.httpc.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTaxonomyUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: taxonomy service returned %d", domain.ErrTaxonomyUnavailable, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}
