package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/talentgrid/talentgrid/engine/domain"
)

func TestMemory_GetJobNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.GetJob(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestMemory_ListJobsFilters(t *testing.T) {
	m := NewMemory()
	m.PutJob(domain.Job{ID: "j1", Title: "A", Status: domain.StatusPublished, ProjectID: "p1"})
	m.PutJob(domain.Job{ID: "j2", Title: "B", Status: domain.StatusDraft, ProjectID: "p1"})
	m.PutJob(domain.Job{ID: "j3", Title: "C", Status: domain.StatusPublished, ProjectID: "p2"})

	published, err := m.ListJobs(context.Background(), JobFilter{Status: domain.StatusPublished})
	if err != nil {
		t.Fatal(err)
	}
	if len(published) != 2 {
		t.Errorf("published = %d, want 2", len(published))
	}

	scoped, _ := m.ListJobs(context.Background(), JobFilter{IDs: []string{"j3"}})
	if len(scoped) != 1 || scoped[0].ID != "j3" {
		t.Errorf("id filter broken: %v", scoped)
	}

	limited, _ := m.ListJobs(context.Background(), JobFilter{Limit: 1})
	if len(limited) != 1 || limited[0].ID != "j1" {
		t.Errorf("limit/order broken: %v", limited)
	}
}

func TestMemory_Annotate(t *testing.T) {
	m := NewMemory()
	m.PutJob(domain.Job{ID: "j1", Title: "A"})

	tax := map[string]any{"job_family": "Information Technology"}
	if err := m.Annotate(context.Background(), "j1", tax, nil); err != nil {
		t.Fatal(err)
	}
	j, _ := m.GetJob(context.Background(), "j1")
	if j.Taxonomy["job_family"] != "Information Technology" {
		t.Errorf("taxonomy not written: %v", j.Taxonomy)
	}

	if err := m.Annotate(context.Background(), "nope", tax, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestMemory_DocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.PutDocument(domain.Document{ID: "d1", JobID: "j1", Content: []byte("pdf")})
	m.PutDocument(domain.Document{ID: "d2", JobID: "j2", Content: []byte("pdf")})

	un, _ := m.ListUnprocessed(ctx, "")
	if len(un) != 2 {
		t.Fatalf("unprocessed = %d, want 2", len(un))
	}
	un, _ = m.ListUnprocessed(ctx, "j1")
	if len(un) != 1 || un[0].ID != "d1" {
		t.Fatalf("job filter broken: %v", un)
	}

	now := time.Now().UTC()
	if err := m.InsertProcessed(ctx, domain.ProcessedDocument{
		ID: "p1", SourceID: "d1", JobID: "j1", Status: "processed", ProcessedAt: now,
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.MarkProcessed(ctx, "d1", "p1", now); err != nil {
		t.Fatal(err)
	}

	d, _ := m.GetDocument(ctx, "d1")
	if !d.Processed || d.ProcessedID != "p1" {
		t.Errorf("back-reference not set: %+v", d)
	}

	un, _ = m.ListUnprocessed(ctx, "")
	if len(un) != 1 {
		t.Errorf("unprocessed after marking = %d, want 1", len(un))
	}

	docs, _ := m.ProcessedForJob(ctx, "j1")
	if len(docs) != 1 || docs[0].ID != "p1" {
		t.Errorf("ProcessedForJob = %v", docs)
	}
}

func TestMemory_ReprocessKeepsPriorRecords(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.PutDocument(domain.Document{ID: "d1", JobID: "j1", Content: []byte("pdf")})

	now := time.Now().UTC()
	_ = m.InsertProcessed(ctx, domain.ProcessedDocument{ID: "p1", SourceID: "d1", JobID: "j1", Status: "processed", ProcessedAt: now})
	_ = m.MarkProcessed(ctx, "d1", "p1", now)

	later := now.Add(time.Minute)
	_ = m.InsertProcessed(ctx, domain.ProcessedDocument{ID: "p2", SourceID: "d1", JobID: "j1", Status: "processed", ProcessedAt: later})
	_ = m.MarkProcessed(ctx, "d1", "p2", later)

	d, _ := m.GetDocument(ctx, "d1")
	if d.ProcessedID != "p2" {
		t.Errorf("pointer should follow newest record, got %s", d.ProcessedID)
	}
	if m.ProcessedCount() != 2 {
		t.Errorf("prior processed records must not be deleted, count = %d", m.ProcessedCount())
	}
}
