// Package ingest runs PDF attachments through extraction, embedding, and
// persistence. Extraction failures are hard per-document failures;
// embedding failures are soft — the ProcessedDocument is still written,
// just without a vector.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talentgrid/talentgrid/engine/domain"
	"github.com/talentgrid/talentgrid/engine/extract"
	"github.com/talentgrid/talentgrid/engine/semantic"
	"github.com/talentgrid/talentgrid/engine/store"
	"github.com/talentgrid/talentgrid/pkg/fn"
	"github.com/talentgrid/talentgrid/pkg/metrics"
	"github.com/talentgrid/talentgrid/pkg/skillnlp"
)

// Deps holds the external collaborators of the ingestion pipeline.
type Deps struct {
	Documents store.DocumentStore
	Extractor *extract.Chain
	Embedder  Embedder    // optional
	Index     VectorIndex // optional, receives document vectors
	Registry  *metrics.Registry
	Logger    *slog.Logger
}

// Service is the document ingestion pipeline.
type Service struct {
	deps   Deps
	logger *slog.Logger
}

// NewService creates an ingestion service. Documents and Extractor are
// required; the rest degrade.
func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps, logger: deps.Logger}
}

// pipeline composes the per-document stages:
// fetch → extract → embed (soft) → build → persist.
func (s *Service) pipeline(genEmbeddings bool) fn.Stage[string, docState] {
	fetch := fn.Named("ingest.fetch", s.fetchStage())
	extracted := fn.Then(fetch, fn.Named("ingest.extract", s.extractStage()))
	embedded := fn.Then(extracted, fn.Named("ingest.embed", s.embedStage(genEmbeddings)))
	built := fn.Then(embedded, fn.Named("ingest.build", buildStage()))
	return fn.Then(built, fn.Named("ingest.persist", s.persistStage()))
}

// fetchStage loads the source document and rejects ones without content.
func (s *Service) fetchStage() fn.Stage[string, docState] {
	return func(ctx context.Context, docID string) fn.Result[docState] {
		doc, err := s.deps.Documents.GetDocument(ctx, docID)
		if err != nil {
			return fn.Err[docState](err)
		}
		if len(doc.Content) == 0 {
			return fn.Errf[docState]("document %s: %w", docID, domain.ErrEmptyInput)
		}
		return fn.Ok(docState{doc: doc})
	}
}

// extractStage runs the extraction chain and fails fast when no text came
// out.
func (s *Service) extractStage() fn.Stage[docState, docState] {
	return func(ctx context.Context, st docState) fn.Result[docState] {
		res, err := s.deps.Extractor.Extract(ctx, st.doc.Content)
		if err != nil {
			return fn.Err[docState](err)
		}
		if strings.TrimSpace(res.Text) == "" {
			return fn.Errf[docState]("document %s: extraction produced no text", st.doc.ID)
		}
		st.extraction = res
		return fn.Ok(st)
	}
}

// embedStage attaches a vector when possible. Never fails the pipeline.
func (s *Service) embedStage(genEmbeddings bool) fn.Stage[docState, docState] {
	return func(ctx context.Context, st docState) fn.Result[docState] {
		if !genEmbeddings || s.deps.Embedder == nil || !s.deps.Embedder.Available() {
			return fn.Ok(st)
		}
		vec, err := s.deps.Embedder.Generate(ctx, st.extraction.Text)
		if err != nil {
			s.logger.Warn("ingest: embedding failed, continuing without vector",
				"document_id", st.doc.ID, "error", err)
			return fn.Ok(st)
		}
		st.embedding = vec
		st.model = s.deps.Embedder.Model()
		return fn.Ok(st)
	}
}

// buildStage constructs the ProcessedDocument record.
func buildStage() fn.Stage[docState, docState] {
	return func(_ context.Context, st docState) fn.Result[docState] {
		title := st.doc.Title
		if title == "" {
			title = st.extraction.Meta.Title
		}

		st.record = domain.ProcessedDocument{
			ID:             uuid.NewString(),
			SourceID:       st.doc.ID,
			JobID:          st.doc.JobID,
			ProjectID:      st.doc.ProjectID,
			Title:          title,
			Text:           st.extraction.Text,
			Extraction:     st.extraction.Meta,
			Embedding:      st.embedding,
			EmbeddingModel: st.model,
			ContentLength:  st.extraction.ContentLength(),
			WordCount:      st.extraction.WordCount(),
			Status:         "processed",
			ProcessedAt:    time.Now().UTC(),
		}
		return fn.Ok(st)
	}
}

// persistStage writes the record, marks the source processed, and soft-
// upserts the document vector. Skill mentions extracted from the text ride
// along in the payload so document searches can filter on them.
func (s *Service) persistStage() fn.Stage[docState, docState] {
	return func(ctx context.Context, st docState) fn.Result[docState] {
		if err := s.deps.Documents.InsertProcessed(ctx, st.record); err != nil {
			return fn.Err[docState](fmt.Errorf("persist processed document: %w", err))
		}
		if err := s.deps.Documents.MarkProcessed(ctx, st.doc.ID, st.record.ID, st.record.ProcessedAt); err != nil {
			return fn.Err[docState](fmt.Errorf("mark document processed: %w", err))
		}

		if s.deps.Index != nil && len(st.record.Embedding) > 0 {
			rec := semantic.Record{
				Key:       "doc:" + st.record.ID,
				Embedding: st.record.Embedding,
				Text:      st.record.Text,
				Payload: map[string]any{
					"source_document_id": st.doc.ID,
					"job_id":             st.doc.JobID,
					"title":              st.record.Title,
				},
			}
			if skills := skillnlp.Skills(st.record.Text); len(skills) > 0 {
				rec.Payload["skills"] = strings.Join(skills, ",")
			}
			if err := s.deps.Index.Upsert(ctx, rec); err != nil {
				s.logger.Warn("ingest: document vector upsert failed",
					"document_id", st.doc.ID, "error", err)
			}
		}
		return fn.Ok(st)
	}
}

// ProcessDocument runs one document through the pipeline. The result is
// structured; errors are reported in it, not returned.
func (s *Service) ProcessDocument(ctx context.Context, docID string, genEmbeddings bool) ProcessResult {
	start := time.Now()
	st, err := s.pipeline(genEmbeddings)(ctx, docID).Unwrap()
	s.observe(start)

	if err != nil {
		s.count("documents_processed_total", "outcome", "failed")
		s.logger.Error("ingest: document failed", "document_id", docID, "error", err)
		return ProcessResult{DocumentID: docID, Error: err.Error()}
	}

	s.count("documents_processed_total", "outcome", "processed")
	s.logger.Info("ingest: document processed",
		"document_id", docID,
		"processed_id", st.record.ID,
		"pages", st.record.Extraction.PageCount,
		"words", st.record.WordCount,
		"embedded", len(st.record.Embedding) > 0)

	return ProcessResult{
		DocumentID:   docID,
		ProcessedID:  st.record.ID,
		Success:      true,
		HasEmbedding: len(st.record.Embedding) > 0,
	}
}

// ProcessAll processes every unprocessed document, optionally restricted to
// one job. Documents are processed independently; a per-document failure is
// recorded and the batch continues. Only a failure to list the candidates
// returns an error, so callers can tell "store down" from "nothing to do".
func (s *Service) ProcessAll(ctx context.Context, jobID string, genEmbeddings bool) (BatchSummary, error) {
	docs, err := s.deps.Documents.ListUnprocessed(ctx, jobID)
	if err != nil {
		s.logger.Error("ingest: listing unprocessed documents failed", "error", err)
		return BatchSummary{}, fmt.Errorf("list unprocessed documents: %w", err)
	}

	summary := BatchSummary{Total: len(docs), Results: make([]ProcessResult, 0, len(docs))}
	for _, doc := range docs {
		res := s.ProcessDocument(ctx, doc.ID, genEmbeddings)
		if res.Success {
			summary.Processed++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, res)
	}

	s.logger.Info("ingest: batch complete",
		"total", summary.Total,
		"processed", summary.Processed,
		"failed", summary.Failed,
		"job_id", jobID)
	return summary, nil
}

func (s *Service) count(name string, labels ...string) {
	if s.deps.Registry == nil {
		return
	}
	s.deps.Registry.Counter(metrics.WithLabels(name, labels...), "").Inc()
}

func (s *Service) observe(start time.Time) {
	if s.deps.Registry == nil {
		return
	}
	s.deps.Registry.Histogram("document_process_seconds", "Per-document processing latency.", nil).Since(start)
}
