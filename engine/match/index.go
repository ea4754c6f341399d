package match

import (
	"context"
	"strings"

	"github.com/talentgrid/talentgrid/engine/domain"
	"github.com/talentgrid/talentgrid/engine/semantic"
)

// SearchResult is one semantic search hit prepared for display.
type SearchResult struct {
	JobID      string  `json:"job_id"`
	Title      string  `json:"title"`
	Similarity float32 `json:"similarity"`
	Level      string  `json:"level,omitempty"`
	Department string  `json:"department,omitempty"`
	Snippet    string  `json:"snippet,omitempty"`
}

const snippetLen = 200

// IndexJob embeds the job's searchable text and upserts it into the vector
// index. Returns false when embedding or the index is unavailable; indexing
// the same job id again replaces the previous entry. Skill-graph writes are
// a soft side effect.
func (e *Engine) IndexJob(ctx context.Context, job domain.Job) bool {
	if err := domain.ValidateJob(job); err != nil {
		e.logger.Warn("refusing to index invalid job", "error", err)
		return false
	}
	if e.embedder == nil || !e.embedder.Available() || e.index == nil {
		e.count("index_failures_total", "cause", "unconfigured")
		return false
	}

	text := domain.SearchableText(job)
	vec, err := e.embedder.Generate(ctx, text)
	if err != nil {
		e.logger.Warn("embedding failed, job not indexed", "job_id", job.ID, "error", err)
		e.count("index_failures_total", "cause", "embedding")
		return false
	}

	rec := semantic.Record{
		Key:       job.ID,
		Embedding: vec,
		Text:      text,
		Payload: map[string]any{
			"title":      job.Title,
			"status":     string(job.Status),
			"level":      string(job.Level),
			"department": job.Department,
			"skills":     strings.Join(domain.NormalizeSkills(job.RequiredSkills), ","),
		},
	}
	if err := e.index.Upsert(ctx, rec); err != nil {
		e.logger.Warn("vector upsert failed", "job_id", job.ID, "error", err)
		e.count("index_failures_total", "cause", "index")
		return false
	}

	if e.graph != nil && e.graph.Available() {
		if err := e.graph.SaveJobSkills(ctx, job); err != nil {
			e.logger.Warn("skill graph write failed", "job_id", job.ID, "error", err)
		}
	}

	e.count("jobs_indexed_total")
	return true
}

// RemoveJob deletes the job's vector entry. Best effort.
func (e *Engine) RemoveJob(ctx context.Context, jobID string) bool {
	if e.index == nil {
		return false
	}
	if err := e.index.Delete(ctx, jobID); err != nil {
		e.logger.Warn("vector delete failed", "job_id", jobID, "error", err)
		return false
	}
	return true
}

// SearchJobs runs a semantic query over indexed jobs. Unless the caller
// filters on status explicitly, only published jobs are returned. A
// degraded embedder or index yields an empty list, not an error.
func (e *Engine) SearchJobs(ctx context.Context, query string, limit int, filters map[string]string) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyInput
	}
	limit = normalizeLimit(limit)
	e.count("search_requests_total")

	if e.embedder == nil || !e.embedder.Available() || e.index == nil {
		return []SearchResult{}, nil
	}

	vec, err := e.embedder.Generate(ctx, query)
	if err != nil {
		e.logger.Warn("search embedding failed", "error", err)
		return []SearchResult{}, nil
	}

	merged := map[string]string{"status": string(domain.StatusPublished)}
	for k, v := range filters {
		merged[k] = v
	}

	hits, err := e.index.Query(ctx, vec, limit, merged)
	if err != nil {
		e.logger.Warn("search query failed", "error", err)
		return []SearchResult{}, nil
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		snippet := hit.Text
		if len(snippet) > snippetLen {
			snippet = snippet[:snippetLen]
		}
		results = append(results, SearchResult{
			JobID:      hit.Key,
			Title:      hit.Payload["title"],
			Similarity: semantic.Clamp01(hit.Score),
			Level:      hit.Payload["level"],
			Department: hit.Payload["department"],
			Snippet:    snippet,
		})
	}
	return results, nil
}
