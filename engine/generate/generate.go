// Package generate wraps the LLM completion service for job description
// generation and question answering, with a deterministic template fallback.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talentgrid/talentgrid/engine/domain"
	"github.com/talentgrid/talentgrid/pkg/resilience"
)

// LLM is a text completion service.
type LLM interface {
	Model() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Requirements describes the job to generate a description for.
type Requirements struct {
	Title            string   `json:"title"`
	Department       string   `json:"department"`
	Level            string   `json:"level"`
	RequiredSkills   []string `json:"required_skills"`
	Responsibilities []string `json:"responsibilities"`
}

// Service generates descriptions and answers. A nil LLM degrades Describe
// to the template and makes Answer unavailable.
type Service struct {
	llm     LLM
	limiter *resilience.Limiter
	logger  *slog.Logger
}

// Option configures the service.
type Option func(*Service)

// WithLimiter rate limits LLM calls.
func WithLimiter(l *resilience.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// New creates a generation service. llm may be nil.
func New(llm LLM, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{llm: llm, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether an LLM is configured.
func (s *Service) Available() bool { return s != nil && s.llm != nil }

// Describe generates a job description. With useLLM and a configured LLM it
// prompts the model; on any failure, or when the LLM is skipped, it falls
// back to the deterministic template. The bool reports whether the LLM
// produced the text.
func (s *Service) Describe(ctx context.Context, req Requirements, useLLM bool) (string, bool) {
	if !useLLM || !s.Available() {
		return Template(req), false
	}

	text, err := s.complete(ctx, describePrompt(req))
	if err != nil {
		s.logger.Warn("llm description failed, using template", "error", err)
		return Template(req), false
	}
	return text, true
}

// Answer answers a free-text question about a job. The prompt context comes
// from the supplied processed documents, or a minimal job-id placeholder
// when none are given. Without an LLM the operation is unavailable.
func (s *Service) Answer(ctx context.Context, question, jobID string, docs []domain.ProcessedDocument) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is empty", domain.ErrEmptyInput)
	}
	if !s.Available() {
		return "", domain.ErrLLMUnavailable
	}

	jobContext := fmt.Sprintf("Job ID: %s", jobID)
	if len(docs) > 0 {
		jobContext = formatDocsContext(docs)
	}

	prompt := fmt.Sprintf(`You are a helpful assistant answering questions about job postings.

Context about the job:
%s

Question: %s

Provide a clear, concise answer based on the job information above.`, jobContext, question)

	text, err := s.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}
	return text, nil
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return s.llm.Complete(ctx, prompt)
}

func describePrompt(req Requirements) string {
	return fmt.Sprintf(`Generate a professional job description based on these requirements:

Title: %s
Department: %s
Level: %s
Required Skills: %s
Key Responsibilities: %s

Create a comprehensive job description with:
- Job summary
- Key responsibilities
- Required qualifications
- Preferred qualifications
- Benefits (brief)`,
		orDefault(req.Title, "Software Engineer"),
		orDefault(req.Department, "Engineering"),
		orDefault(req.Level, "Mid-level"),
		strings.Join(req.RequiredSkills, ", "),
		strings.Join(req.Responsibilities, "; "))
}

// Template renders the fixed markdown description used when no LLM is
// available. Identical input always yields identical output.
func Template(req Requirements) string {
	title := orDefault(req.Title, "Software Engineer")
	department := orDefault(req.Department, "Engineering")
	level := orDefault(req.Level, "Mid-level")

	responsibilities := req.Responsibilities
	if len(responsibilities) == 0 {
		responsibilities = []string{"Perform assigned tasks"}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Department:** %s\n", department)
	fmt.Fprintf(&b, "**Level:** %s\n\n", level)
	fmt.Fprintf(&b, "## Job Summary\nWe are looking for a %s %s to join our %s team.\n\n", level, title, department)

	b.WriteString("## Key Responsibilities\n")
	for _, r := range responsibilities {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	b.WriteString("\n## Required Skills\n")
	for _, sk := range req.RequiredSkills {
		fmt.Fprintf(&b, "- %s\n", sk)
	}

	b.WriteString("\n## Qualifications\n")
	fmt.Fprintf(&b, "- Relevant experience in %s\n", department)
	fmt.Fprintf(&b, "- %s level expertise\n", level)
	b.WriteString("- Strong communication skills\n")

	return b.String()
}

func formatDocsContext(docs []domain.ProcessedDocument) string {
	var parts []string
	for _, d := range docs {
		text := d.Text
		if len(text) > 2000 {
			text = text[:2000]
		}
		parts = append(parts, fmt.Sprintf("Document: %s\nJob ID: %s\n%s", d.Title, d.JobID, text))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
