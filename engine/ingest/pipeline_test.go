package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/talentgrid/talentgrid/engine/domain"
	"github.com/talentgrid/talentgrid/engine/extract"
	"github.com/talentgrid/talentgrid/engine/semantic"
	"github.com/talentgrid/talentgrid/engine/store"
)

type passExtractor struct{ text string }

func (p passExtractor) Name() string { return "pass" }

func (p passExtractor) Extract(_ context.Context, _ []byte) (extract.Result, error) {
	return extract.Result{
		Success: true,
		Text:    p.text,
		Meta:    domain.ExtractionMeta{PageCount: 1, Method: "pass"},
	}, nil
}

type failExtractor struct{}

func (failExtractor) Name() string { return "fail" }

func (failExtractor) Extract(_ context.Context, _ []byte) (extract.Result, error) {
	return extract.Result{Err: errors.New("corrupt stream")}, errors.New("corrupt stream")
}

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Available() bool { return true }
func (s *stubEmbedder) Model() string   { return "stub-model" }

func (s *stubEmbedder) Generate(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	return s.vec, s.err
}

type captureIndex struct {
	records []semantic.Record
	err     error
}

func (c *captureIndex) Upsert(_ context.Context, rec semantic.Record) error {
	if c.err != nil {
		return c.err
	}
	c.records = append(c.records, rec)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func newService(mem *store.Memory, ex extract.Extractor, emb Embedder, idx VectorIndex) *Service {
	return NewService(Deps{
		Documents: mem,
		Extractor: extract.NewChain(discard(), ex),
		Embedder:  emb,
		Index:     idx,
		Logger:    discard(),
	})
}

func seedDoc(mem *store.Memory, id, jobID string, content []byte) {
	mem.PutDocument(domain.Document{
		ID:        id,
		JobID:     jobID,
		Title:     "JD " + id,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

func TestProcessDocumentSuccess(t *testing.T) {
	mem := store.NewMemory()
	seedDoc(mem, "d1", "j1", []byte("%PDF"))
	emb := &stubEmbedder{vec: []float32{0.6, 0.8}}
	idx := &captureIndex{}

	svc := newService(mem, passExtractor{text: "Senior Go engineer wanted."}, emb, idx)
	res := svc.ProcessDocument(context.Background(), "d1", true)

	if !res.Success || !res.HasEmbedding {
		t.Fatalf("result = %+v", res)
	}

	doc, err := mem.GetDocument(context.Background(), "d1")
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Processed || doc.ProcessedID != res.ProcessedID {
		t.Fatalf("source document not marked: %+v", doc)
	}

	records, err := mem.ProcessedForJob(context.Background(), "j1")
	if err != nil || len(records) != 1 {
		t.Fatalf("records = %v, err = %v", records, err)
	}
	rec := records[0]
	if rec.Text != "Senior Go engineer wanted." || rec.WordCount != 4 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.EmbeddingModel != "stub-model" {
		t.Fatalf("model = %q", rec.EmbeddingModel)
	}

	if len(idx.records) != 1 || !strings.HasPrefix(idx.records[0].Key, "doc:") {
		t.Fatalf("index records = %+v", idx.records)
	}
	if idx.records[0].Payload["skills"] != "go" {
		t.Fatalf("skill mentions missing from payload: %+v", idx.records[0].Payload)
	}
}

func TestProcessDocumentMissing(t *testing.T) {
	svc := newService(store.NewMemory(), passExtractor{text: "x"}, nil, nil)
	res := svc.ProcessDocument(context.Background(), "ghost", false)
	if res.Success {
		t.Fatal("missing document must fail")
	}
	if res.Error == "" {
		t.Fatal("expected error message")
	}
}

func TestProcessDocumentNoContent(t *testing.T) {
	mem := store.NewMemory()
	seedDoc(mem, "d1", "", nil)

	svc := newService(mem, passExtractor{text: "x"}, nil, nil)
	res := svc.ProcessDocument(context.Background(), "d1", false)
	if res.Success {
		t.Fatal("empty content must fail")
	}
}

func TestProcessDocumentExtractionFailureCreatesNoRecord(t *testing.T) {
	mem := store.NewMemory()
	seedDoc(mem, "d1", "j1", []byte("%PDF"))

	svc := newService(mem, failExtractor{}, nil, nil)
	res := svc.ProcessDocument(context.Background(), "d1", false)
	if res.Success {
		t.Fatal("extraction failure must fail the document")
	}
	if mem.ProcessedCount() != 0 {
		t.Fatalf("processed count = %d, want 0", mem.ProcessedCount())
	}

	doc, _ := mem.GetDocument(context.Background(), "d1")
	if doc.Processed {
		t.Fatal("source must not be marked processed")
	}
}

func TestProcessDocumentEmbeddingFailureIsSoft(t *testing.T) {
	mem := store.NewMemory()
	seedDoc(mem, "d1", "j1", []byte("%PDF"))
	emb := &stubEmbedder{err: domain.ErrEmbeddingUnavailable}
	idx := &captureIndex{}

	svc := newService(mem, passExtractor{text: "text"}, emb, idx)
	res := svc.ProcessDocument(context.Background(), "d1", true)

	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if res.HasEmbedding {
		t.Fatal("embedding should be absent")
	}
	if len(idx.records) != 0 {
		t.Fatal("no vector should be upserted without an embedding")
	}

	records, _ := mem.ProcessedForJob(context.Background(), "j1")
	if len(records) != 1 || len(records[0].Embedding) != 0 {
		t.Fatalf("records = %+v", records)
	}
}

func TestProcessDocumentSkipsEmbeddingWhenDisabled(t *testing.T) {
	mem := store.NewMemory()
	seedDoc(mem, "d1", "", []byte("%PDF"))
	emb := &stubEmbedder{vec: []float32{1}}

	svc := newService(mem, passExtractor{text: "text"}, emb, nil)
	res := svc.ProcessDocument(context.Background(), "d1", false)

	if !res.Success || res.HasEmbedding {
		t.Fatalf("result = %+v", res)
	}
	if emb.calls != 0 {
		t.Fatalf("embedder called %d times", emb.calls)
	}
}

func TestProcessAllTally(t *testing.T) {
	mem := store.NewMemory()
	seedDoc(mem, "ok1", "j1", []byte("%PDF"))
	seedDoc(mem, "bad", "j1", nil) // no content → fails
	seedDoc(mem, "ok2", "j1", []byte("%PDF"))

	svc := newService(mem, passExtractor{text: "text"}, nil, nil)
	summary, err := svc.ProcessAll(context.Background(), "j1", false)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Total != 3 {
		t.Fatalf("total = %d", summary.Total)
	}
	if summary.Processed+summary.Failed != summary.Total {
		t.Fatalf("tally mismatch: %+v", summary)
	}
	if summary.Processed != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(summary.Results) != 3 {
		t.Fatalf("results = %d", len(summary.Results))
	}
}

func TestProcessAllFiltersByJob(t *testing.T) {
	mem := store.NewMemory()
	seedDoc(mem, "d1", "j1", []byte("%PDF"))
	seedDoc(mem, "d2", "j2", []byte("%PDF"))

	svc := newService(mem, passExtractor{text: "text"}, nil, nil)
	summary, err := svc.ProcessAll(context.Background(), "j1", false)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 1 {
		t.Fatalf("total = %d, want 1", summary.Total)
	}
}

type listFailStore struct {
	*store.Memory
}

func (listFailStore) ListUnprocessed(context.Context, string) ([]domain.Document, error) {
	return nil, errors.New("connection refused")
}

func TestProcessAllListFailureReturnsError(t *testing.T) {
	svc := NewService(Deps{
		Documents: listFailStore{store.NewMemory()},
		Extractor: extract.NewChain(discard(), passExtractor{text: "x"}),
		Logger:    discard(),
	})

	summary, err := svc.ProcessAll(context.Background(), "", false)
	if err == nil {
		t.Fatal("store failure must not look like an empty batch")
	}
	if summary.Total != 0 || len(summary.Results) != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestReprocessKeepsPriorRecords(t *testing.T) {
	mem := store.NewMemory()
	seedDoc(mem, "d1", "j1", []byte("%PDF"))
	svc := newService(mem, passExtractor{text: "first"}, nil, nil)

	first := svc.ProcessDocument(context.Background(), "d1", false)
	second := svc.ProcessDocument(context.Background(), "d1", false)
	if !first.Success || !second.Success {
		t.Fatalf("first=%+v second=%+v", first, second)
	}
	if first.ProcessedID == second.ProcessedID {
		t.Fatal("reprocessing must create a new record")
	}
	if mem.ProcessedCount() != 2 {
		t.Fatalf("processed count = %d, want 2", mem.ProcessedCount())
	}

	doc, _ := mem.GetDocument(context.Background(), "d1")
	if doc.ProcessedID != second.ProcessedID {
		t.Fatal("pointer must reference the newest record")
	}
}
