// Package domain defines the core types, constants, and validation for the
// talentgrid matching engine. It acts as the validation gate at the entry
// points of the matching and ingestion pipelines.
package domain

import "time"

// JobStatus is the lifecycle state of a job posting.
type JobStatus string

const (
	StatusDraft     JobStatus = "draft"
	StatusPublished JobStatus = "published"
	StatusClosed    JobStatus = "closed"
)

// ValidStatuses is the set of recognised job statuses.
var ValidStatuses = map[JobStatus]bool{
	StatusDraft: true, StatusPublished: true, StatusClosed: true,
}

// JobLevel orders seniority: entry < mid < senior < lead.
type JobLevel string

const (
	LevelEntry  JobLevel = "entry"
	LevelMid    JobLevel = "mid"
	LevelSenior JobLevel = "senior"
	LevelLead   JobLevel = "lead"
)

// levelRank maps levels onto their ordering. Unknown levels rank below entry.
var levelRank = map[JobLevel]int{
	LevelEntry: 1, LevelMid: 2, LevelSenior: 3, LevelLead: 4,
}

// Rank returns the ordinal position of a level, 0 for unknown.
func (l JobLevel) Rank() int { return levelRank[l] }

// Job is a job posting record. It is owned by the record store; the matching
// core reads it and writes only enrichment annotations.
type Job struct {
	ID               string         `json:"id"`
	ProjectID        string         `json:"project_id,omitempty"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	Department       string         `json:"department,omitempty"`
	Level            JobLevel       `json:"level,omitempty"`
	Status           JobStatus      `json:"status"`
	RequiredSkills   []string       `json:"required_skills,omitempty"`
	Responsibilities []string       `json:"responsibilities,omitempty"`
	Taxonomy         map[string]any `json:"taxonomy,omitempty"`
	Competencies     map[string]any `json:"competencies,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Candidate is a candidate profile. It is constructed per request and never
// persisted by the matching core.
type Candidate struct {
	Skills            []string          `json:"skills,omitempty"`
	YearsOfExperience int               `json:"years_of_experience"`
	DesiredRole       string            `json:"desired_role,omitempty"`
	ExperienceSummary string            `json:"experience_summary,omitempty"`
	Education         string            `json:"education,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// MatchResult is a single ranked candidate-to-job match. Produced fresh per
// request; callers may persist it, the core never does.
type MatchResult struct {
	JobID         string   `json:"job_id"`
	JobTitle      string   `json:"job_title"`
	Score         float64  `json:"score"`
	Tier          string   `json:"tier"`
	Reasons       []string `json:"reasons,omitempty"`
	MatchedSkills []string `json:"matched_skills,omitempty"`
	MissingSkills []string `json:"missing_skills,omitempty"`
}

// Document is a raw attachment awaiting processing.
type Document struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	Title       string    `json:"title,omitempty"`
	Content     []byte    `json:"-"`
	Processed   bool      `json:"processed"`
	ProcessedID string    `json:"processed_document_id,omitempty"`
	ProcessedAt time.Time `json:"processed_at,omitzero"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExtractionMeta describes how a document's text was obtained.
type ExtractionMeta struct {
	PageCount int    `json:"page_count"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Method    string `json:"method"`
}

// ProcessedDocument is the durable record produced by a successful extraction
// attempt. A source document points at its most recent successful record;
// reprocessing creates a new record and moves the pointer, it never deletes.
type ProcessedDocument struct {
	ID             string         `json:"id"`
	SourceID       string         `json:"source_document_id"`
	JobID          string         `json:"job_id,omitempty"`
	ProjectID      string         `json:"project_id,omitempty"`
	Title          string         `json:"title"`
	Text           string         `json:"text"`
	Extraction     ExtractionMeta `json:"extraction"`
	Embedding      []float32      `json:"embedding,omitempty"`
	EmbeddingModel string         `json:"embedding_model,omitempty"`
	ContentLength  int            `json:"content_length"`
	WordCount      int            `json:"word_count"`
	Status         string         `json:"status"`
	ProcessedAt    time.Time      `json:"processed_at"`
}
