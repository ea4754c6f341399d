package ingest

import (
	"context"

	"github.com/talentgrid/talentgrid/engine/domain"
	"github.com/talentgrid/talentgrid/engine/extract"
	"github.com/talentgrid/talentgrid/engine/semantic"
)

// Embedder produces vectors for extracted text.
type Embedder interface {
	Available() bool
	Model() string
	Generate(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex receives document vectors after persistence.
type VectorIndex interface {
	Upsert(ctx context.Context, rec semantic.Record) error
}

// ProcessResult is the outcome of processing one document.
type ProcessResult struct {
	DocumentID   string `json:"document_id"`
	ProcessedID  string `json:"processed_document_id,omitempty"`
	Success      bool   `json:"success"`
	HasEmbedding bool   `json:"has_embedding"`
	Error        string `json:"error,omitempty"`
}

// BatchSummary tallies a batch run. Processed plus Failed always equals
// Total, and Results carries one entry per document.
type BatchSummary struct {
	Total     int             `json:"total"`
	Processed int             `json:"processed"`
	Failed    int             `json:"failed"`
	Results   []ProcessResult `json:"results"`
}

// docState is the value threaded through the pipeline stages.
type docState struct {
	doc        domain.Document
	extraction extract.Result
	embedding  []float32
	model      string
	record     domain.ProcessedDocument
}
