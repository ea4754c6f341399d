package generate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/talentgrid/talentgrid/engine/domain"
)

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Model() string { return "fake" }

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestDescribeUsesLLM(t *testing.T) {
	llm := &fakeLLM{reply: "A great job."}
	svc := New(llm, discard())

	text, usedLLM := svc.Describe(context.Background(), Requirements{Title: "Data Engineer"}, true)
	if !usedLLM {
		t.Fatal("expected LLM path")
	}
	if text != "A great job." {
		t.Fatalf("text = %q", text)
	}
	if len(llm.prompts) != 1 || !strings.Contains(llm.prompts[0], "Data Engineer") {
		t.Fatalf("prompts = %v", llm.prompts)
	}
}

func TestDescribeFallsBackOnLLMFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("service down")}
	svc := New(llm, discard())

	text, usedLLM := svc.Describe(context.Background(), Requirements{Title: "Data Engineer"}, true)
	if usedLLM {
		t.Fatal("expected template fallback")
	}
	if !strings.Contains(text, "# Data Engineer") {
		t.Fatalf("text = %q", text)
	}
}

func TestDescribeWithoutLLM(t *testing.T) {
	svc := New(nil, discard())
	text, usedLLM := svc.Describe(context.Background(), Requirements{}, true)
	if usedLLM {
		t.Fatal("nil LLM cannot be used")
	}
	if !strings.Contains(text, "# Software Engineer") {
		t.Fatalf("text = %q", text)
	}
}

func TestDescribeSkipsLLMWhenDisabled(t *testing.T) {
	llm := &fakeLLM{reply: "should not be used"}
	svc := New(llm, discard())

	_, usedLLM := svc.Describe(context.Background(), Requirements{}, false)
	if usedLLM || len(llm.prompts) != 0 {
		t.Fatal("LLM called despite useLLM=false")
	}
}

func TestTemplateDeterministic(t *testing.T) {
	req := Requirements{
		Title:            "Backend Engineer",
		Department:       "Platform",
		Level:            "Senior",
		RequiredSkills:   []string{"Go", "PostgreSQL"},
		Responsibilities: []string{"Design services", "Review code"},
	}
	first := Template(req)
	second := Template(req)
	if first != second {
		t.Fatal("template output differs between runs")
	}
	for _, want := range []string{
		"# Backend Engineer",
		"**Department:** Platform",
		"**Level:** Senior",
		"- Go",
		"- Design services",
		"- Relevant experience in Platform",
	} {
		if !strings.Contains(first, want) {
			t.Fatalf("template missing %q:\n%s", want, first)
		}
	}
}

func TestTemplateDefaults(t *testing.T) {
	text := Template(Requirements{})
	for _, want := range []string{
		"# Software Engineer",
		"**Department:** Engineering",
		"**Level:** Mid-level",
		"- Perform assigned tasks",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("template missing %q", want)
		}
	}
}

func TestAnswerRequiresLLM(t *testing.T) {
	svc := New(nil, discard())
	_, err := svc.Answer(context.Background(), "What is the level?", "j1", nil)
	if !errors.Is(err, domain.ErrLLMUnavailable) {
		t.Fatalf("err = %v, want ErrLLMUnavailable", err)
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	svc := New(&fakeLLM{reply: "x"}, discard())
	_, err := svc.Answer(context.Background(), "  ", "j1", nil)
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestAnswerUsesPlaceholderContext(t *testing.T) {
	llm := &fakeLLM{reply: "It is a senior role."}
	svc := New(llm, discard())

	answer, err := svc.Answer(context.Background(), "What level is this job?", "job-42", nil)
	if err != nil {
		t.Fatal(err)
	}
	if answer != "It is a senior role." {
		t.Fatalf("answer = %q", answer)
	}
	if !strings.Contains(llm.prompts[0], "Job ID: job-42") {
		t.Fatalf("prompt missing placeholder context:\n%s", llm.prompts[0])
	}
}

func TestAnswerUsesDocumentContext(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	svc := New(llm, discard())

	docs := []domain.ProcessedDocument{
		{Title: "JD attachment", JobID: "j1", Text: "Requires five years of Go."},
	}
	if _, err := svc.Answer(context.Background(), "How much experience?", "j1", docs); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(llm.prompts[0], "Requires five years of Go.") {
		t.Fatalf("prompt missing document context:\n%s", llm.prompts[0])
	}
}

func TestAnswerWrapsLLMFailure(t *testing.T) {
	svc := New(&fakeLLM{err: errors.New("timeout")}, discard())
	_, err := svc.Answer(context.Background(), "Question?", "j1", nil)
	if !errors.Is(err, domain.ErrLLMUnavailable) {
		t.Fatalf("err = %v, want ErrLLMUnavailable", err)
	}
}
