package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentgrid/talentgrid/engine/domain"
)

// Postgres implements JobStore and DocumentStore on pgx. Skill lists and
// annotation maps live in jsonb columns.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const jobColumns = `id, project_id, title, description, department, level, status,
	required_skills, responsibilities, taxonomy, competencies, created_at, updated_at`

func scanJob(row pgx.Row) (domain.Job, error) {
	var (
		j                       domain.Job
		skills, resp, tax, comp []byte
	)
	err := row.Scan(&j.ID, &j.ProjectID, &j.Title, &j.Description, &j.Department,
		&j.Level, &j.Status, &skills, &resp, &tax, &comp, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return domain.Job{}, err
	}
	if len(skills) > 0 {
		_ = json.Unmarshal(skills, &j.RequiredSkills)
	}
	if len(resp) > 0 {
		_ = json.Unmarshal(resp, &j.Responsibilities)
	}
	if len(tax) > 0 {
		_ = json.Unmarshal(tax, &j.Taxonomy)
	}
	if len(comp) > 0 {
		_ = json.Unmarshal(comp, &j.Competencies)
	}
	return j, nil
}

func (p *Postgres) GetJob(ctx context.Context, id string) (domain.Job, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, domain.NewNotFound("job", id)
	}
	if err != nil {
		return domain.Job{}, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

func (p *Postgres) ListJobs(ctx context.Context, f JobFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []any{}
	n := 0
	next := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if f.Status != "" {
		query += ` AND status = ` + next(string(f.Status))
	}
	if f.ProjectID != "" {
		query += ` AND project_id = ` + next(f.ProjectID)
	}
	if len(f.IDs) > 0 {
		query += ` AND id = ANY(` + next(f.IDs) + `)`
	}
	query += ` ORDER BY id`
	if f.Limit > 0 {
		query += ` LIMIT ` + next(f.Limit)
	}
	if f.Offset > 0 {
		query += ` OFFSET ` + next(f.Offset)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (p *Postgres) Annotate(ctx context.Context, id string, taxonomy, competencies map[string]any) error {
	tax, err := json.Marshal(taxonomy)
	if err != nil {
		return fmt.Errorf("marshal taxonomy: %w", err)
	}
	comp, err := json.Marshal(competencies)
	if err != nil {
		return fmt.Errorf("marshal competencies: %w", err)
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE jobs
		 SET taxonomy = COALESCE($2, taxonomy),
		     competencies = COALESCE($3, competencies),
		     updated_at = now()
		 WHERE id = $1`,
		id, nullable(taxonomy, tax), nullable(competencies, comp))
	if err != nil {
		return fmt.Errorf("annotate job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("job", id)
	}
	return nil
}

// nullable keeps existing column values when the caller passed no map.
func nullable(m map[string]any, b []byte) any {
	if m == nil {
		return nil
	}
	return b
}

func (p *Postgres) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	var d domain.Document
	err := p.pool.QueryRow(ctx,
		`SELECT id, job_id, project_id, title, content, processed,
		        COALESCE(processed_document_id, ''), COALESCE(processed_at, 'epoch'::timestamptz), created_at
		 FROM documents WHERE id = $1`, id).
		Scan(&d.ID, &d.JobID, &d.ProjectID, &d.Title, &d.Content, &d.Processed,
			&d.ProcessedID, &d.ProcessedAt, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Document{}, domain.NewNotFound("document", id)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return d, nil
}

func (p *Postgres) ListUnprocessed(ctx context.Context, jobID string) ([]domain.Document, error) {
	query := `SELECT id, job_id, project_id, title, content, processed,
	                 COALESCE(processed_document_id, ''), COALESCE(processed_at, 'epoch'::timestamptz), created_at
	          FROM documents WHERE processed IS NOT TRUE`
	args := []any{}
	if jobID != "" {
		query += ` AND job_id = $1`
		args = append(args, jobID)
	}
	query += ` ORDER BY id`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed: %w", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.JobID, &d.ProjectID, &d.Title, &d.Content,
			&d.Processed, &d.ProcessedID, &d.ProcessedAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) InsertProcessed(ctx context.Context, doc domain.ProcessedDocument) error {
	meta, err := json.Marshal(doc.Extraction)
	if err != nil {
		return fmt.Errorf("marshal extraction meta: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO processed_documents
		   (id, source_document_id, job_id, project_id, title, extracted_text,
		    extraction_meta, embedding, embedding_model, content_length, word_count,
		    status, processed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		doc.ID, doc.SourceID, doc.JobID, doc.ProjectID, doc.Title, doc.Text,
		meta, doc.Embedding, doc.EmbeddingModel, doc.ContentLength, doc.WordCount,
		doc.Status, doc.ProcessedAt)
	if err != nil {
		return fmt.Errorf("insert processed document %s: %w", doc.ID, err)
	}
	return nil
}

func (p *Postgres) MarkProcessed(ctx context.Context, docID, processedID string, at time.Time) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE documents
		 SET processed = TRUE, processed_document_id = $2, processed_at = $3
		 WHERE id = $1`,
		docID, processedID, at)
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", docID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFound("document", docID)
	}
	return nil
}

func (p *Postgres) ProcessedForJob(ctx context.Context, jobID string) ([]domain.ProcessedDocument, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, source_document_id, job_id, project_id, title, extracted_text,
		        extraction_meta, embedding, embedding_model, content_length, word_count,
		        status, processed_at
		 FROM processed_documents
		 WHERE job_id = $1 AND status = 'processed'
		 ORDER BY processed_at DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("processed for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var out []domain.ProcessedDocument
	for rows.Next() {
		var (
			d    domain.ProcessedDocument
			meta []byte
		)
		if err := rows.Scan(&d.ID, &d.SourceID, &d.JobID, &d.ProjectID, &d.Title,
			&d.Text, &meta, &d.Embedding, &d.EmbeddingModel, &d.ContentLength,
			&d.WordCount, &d.Status, &d.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan processed document: %w", err)
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &d.Extraction)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
