package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/talentgrid/talentgrid/engine/domain"
	"github.com/talentgrid/talentgrid/engine/generate"
	"github.com/talentgrid/talentgrid/engine/ingest"
	"github.com/talentgrid/talentgrid/engine/match"
	"github.com/talentgrid/talentgrid/engine/skillgraph"
	"github.com/talentgrid/talentgrid/engine/store"
	"github.com/talentgrid/talentgrid/engine/taxonomy"
)

type apiServer struct {
	engine   *match.Engine
	ingest   *ingest.Service
	generate *generate.Service
	taxonomy *taxonomy.Service
	graph    *skillgraph.Graph
	docs     store.DocumentStore
	logger   *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"taxonomy":    s.taxonomy.Available(),
		"skill_graph": s.graph.Available(),
		"generation":  s.generate.Available(),
	})
}

type matchRequest struct {
	Candidate domain.Candidate `json:"candidate"`
	JobIDs    []string         `json:"job_ids,omitempty"`
	Limit     int              `json:"limit,omitempty"`
	// UseExternalMatcher defaults to true; false skips the taxonomy tier.
	UseExternalMatcher *bool `json:"use_external_matcher,omitempty"`
}

func (s *apiServer) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results, err := s.engine.MatchCandidate(r.Context(), req.Candidate, match.Options{
		JobIDs:          req.JobIDs,
		Limit:           req.Limit,
		DisableTaxonomy: req.UseExternalMatcher != nil && !*req.UseExternalMatcher,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": results,
		"count":   len(results),
	})
}

type searchRequest struct {
	Query   string            `json:"query"`
	Limit   int               `json:"limit,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results, err := s.engine.SearchJobs(r.Context(), req.Query, req.Limit, req.Filters)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

type indexRequest struct {
	Job domain.Job `json:"job"`
}

func (s *apiServer) handleIndexJob(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Job.ID = r.PathValue("id")
	if err := domain.ValidateJob(req.Job); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	indexed := s.engine.IndexJob(r.Context(), req.Job)
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":  req.Job.ID,
		"indexed": indexed,
	})
}

func (s *apiServer) handleRemoveJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	removed := s.engine.RemoveJob(r.Context(), jobID)
	if s.graph.Available() {
		if err := s.graph.RemoveJob(r.Context(), jobID); err != nil {
			s.logger.Warn("skill graph removal failed", "job_id", jobID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":  jobID,
		"removed": removed,
	})
}

func (s *apiServer) handleEnrichJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if !s.taxonomy.Available() {
		writeError(w, http.StatusServiceUnavailable, "taxonomy service unavailable")
		return
	}
	job, err := s.taxonomy.EnrichJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if domain.Unavailable(err) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type describeRequest struct {
	generate.Requirements
	UseLLM bool `json:"use_llm"`
}

func (s *apiServer) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var req describeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	description, usedLLM := s.generate.Describe(r.Context(), req.Requirements, req.UseLLM)
	writeJSON(w, http.StatusOK, map[string]any{
		"description": description,
		"generated":   usedLLM,
	})
}

type answerRequest struct {
	Question string `json:"question"`
}

func (s *apiServer) handleAnswer(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	docs, err := s.docs.ProcessedForJob(r.Context(), jobID)
	if err != nil {
		s.logger.Warn("processed document lookup failed", "job_id", jobID, "error", err)
		docs = nil
	}
	answer, err := s.generate.Answer(r.Context(), req.Question, jobID, docs)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if domain.Unavailable(err) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id": jobID,
		"answer": answer,
	})
}

type processRequest struct {
	GenerateEmbeddings bool   `json:"generate_embeddings"`
	JobID              string `json:"job_id,omitempty"`
}

func (s *apiServer) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")
	var req processRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	result := s.ingest.ProcessDocument(r.Context(), docID, req.GenerateEmbeddings)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
		if result.Error == "" {
			result.Error = "processing failed"
		}
	}
	writeJSON(w, status, result)
}

func (s *apiServer) handleProcessAll(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	summary, err := s.ingest.ProcessAll(r.Context(), req.JobID, req.GenerateEmbeddings)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *apiServer) handleJobsWithSkill(w http.ResponseWriter, r *http.Request) {
	if !s.graph.Available() {
		writeError(w, http.StatusServiceUnavailable, "skill graph unavailable")
		return
	}
	skill := r.PathValue("skill")
	refs, err := s.graph.JobsWithSkill(r.Context(), skill)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"skill": skill,
		"jobs":  refs,
		"count": len(refs),
	})
}

func (s *apiServer) handleRelatedSkills(w http.ResponseWriter, r *http.Request) {
	if !s.graph.Available() {
		writeError(w, http.StatusServiceUnavailable, "skill graph unavailable")
		return
	}
	skill := r.PathValue("skill")
	related, err := s.graph.RelatedSkills(r.Context(), skill, 10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"skill":   skill,
		"related": related,
	})
}
