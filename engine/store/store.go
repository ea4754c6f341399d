// Package store defines the record-store contracts the matching core
// consumes: job metadata and raw/processed documents. The core reads jobs,
// writes only enrichment annotations, and owns the processed-document
// lifecycle produced by ingestion.
package store

import (
	"context"
	"time"

	"github.com/talentgrid/talentgrid/engine/domain"
)

// JobFilter narrows ListJobs. Zero values mean "no constraint".
type JobFilter struct {
	Status    domain.JobStatus
	ProjectID string
	IDs       []string
	Limit     int
	Offset    int
}

// JobStore is the job-record collaborator.
type JobStore interface {
	GetJob(ctx context.Context, id string) (domain.Job, error)
	ListJobs(ctx context.Context, f JobFilter) ([]domain.Job, error)
	// Annotate writes taxonomy/competency enrichment onto a job. This is
	// the matching core's only write to job records.
	Annotate(ctx context.Context, id string, taxonomy, competencies map[string]any) error
}

// DocumentStore is the raw- and processed-document collaborator.
type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (domain.Document, error)
	// ListUnprocessed returns documents whose processed flag is unset,
	// optionally filtered by job id.
	ListUnprocessed(ctx context.Context, jobID string) ([]domain.Document, error)
	InsertProcessed(ctx context.Context, doc domain.ProcessedDocument) error
	// MarkProcessed flips the source document's flag and moves its pointer
	// to the newest successful processed record. Prior records stay put.
	MarkProcessed(ctx context.Context, docID, processedID string, at time.Time) error
	// ProcessedForJob returns successful processed records for a job,
	// used as LLM answer context.
	ProcessedForJob(ctx context.Context, jobID string) ([]domain.ProcessedDocument, error)
}
