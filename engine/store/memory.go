package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/talentgrid/talentgrid/engine/domain"
)

// Memory is an in-memory JobStore + DocumentStore for tests and local
// development. Safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	jobs      map[string]domain.Job
	documents map[string]domain.Document
	processed map[string]domain.ProcessedDocument
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:      make(map[string]domain.Job),
		documents: make(map[string]domain.Document),
		processed: make(map[string]domain.ProcessedDocument),
	}
}

// PutJob seeds or replaces a job record.
func (m *Memory) PutJob(j domain.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j
}

// PutDocument seeds or replaces a raw document.
func (m *Memory) PutDocument(d domain.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[d.ID] = d
}

func (m *Memory) GetJob(_ context.Context, id string) (domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.Job{}, domain.NewNotFound("job", id)
	}
	return j, nil
}

func (m *Memory) ListJobs(_ context.Context, f JobFilter) ([]domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idSet := make(map[string]bool, len(f.IDs))
	for _, id := range f.IDs {
		idSet[id] = true
	}

	var out []domain.Job
	for _, j := range m.jobs {
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		if f.ProjectID != "" && j.ProjectID != f.ProjectID {
			continue
		}
		if len(idSet) > 0 && !idSet[j.ID] {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) Annotate(_ context.Context, id string, taxonomy, competencies map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.NewNotFound("job", id)
	}
	if taxonomy != nil {
		j.Taxonomy = taxonomy
	}
	if competencies != nil {
		j.Competencies = competencies
	}
	j.UpdatedAt = time.Now().UTC()
	m.jobs[id] = j
	return nil
}

func (m *Memory) GetDocument(_ context.Context, id string) (domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	if !ok {
		return domain.Document{}, domain.NewNotFound("document", id)
	}
	return d, nil
}

func (m *Memory) ListUnprocessed(_ context.Context, jobID string) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Document
	for _, d := range m.documents {
		if d.Processed {
			continue
		}
		if jobID != "" && d.JobID != jobID {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (m *Memory) InsertProcessed(_ context.Context, doc domain.ProcessedDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[doc.ID] = doc
	return nil
}

func (m *Memory) MarkProcessed(_ context.Context, docID, processedID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[docID]
	if !ok {
		return domain.NewNotFound("document", docID)
	}
	d.Processed = true
	d.ProcessedID = processedID
	d.ProcessedAt = at
	m.documents[docID] = d
	return nil
}

func (m *Memory) ProcessedForJob(_ context.Context, jobID string) ([]domain.ProcessedDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ProcessedDocument
	for _, p := range m.processed {
		if p.JobID == jobID && p.Status == "processed" {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

// ProcessedCount reports the total number of processed records. Test helper.
func (m *Memory) ProcessedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.processed)
}
