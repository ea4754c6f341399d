package skillnlp

import (
	"reflect"
	"testing"
)

func TestExtractBest(t *testing.T) {
	tests := []struct {
		input     string
		wantSkill string
		wantYears int
	}{
		{"5+ years of Python experience", "python", 5},
		{"Senior Golang developer wanted", "go", 0},
		{"3 years Kubernetes experience required", "kubernetes", 3},
		{"Proficient in PostgreSQL and Redis", "postgresql", 0},
		{"Looking for a k8s platform engineer", "kubernetes", 0},
		{"C++ systems programming, 10 yrs", "c++", 10},
		{"Node developer with React skills", "node.js", 0},
		{"AWS certified, 4+ years", "aws", 4},
		{"Experienced TypeScript engineer", "typescript", 0},
		{"Deep knowledge of Elasticsearch clusters", "elasticsearch", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := ExtractBest(tt.input)
			if m == nil {
				t.Fatalf("ExtractBest(%q) = nil, want match", tt.input)
			}
			if m.Skill != tt.wantSkill {
				t.Errorf("Skill = %q, want %q", m.Skill, tt.wantSkill)
			}
			if m.Years != tt.wantYears {
				t.Errorf("Years = %d, want %d", m.Years, tt.wantYears)
			}
		})
	}
}

func TestExtractEmpty(t *testing.T) {
	if m := ExtractBest(""); m != nil {
		t.Error("expected nil for empty string")
	}
	if m := ExtractBest("the office is next to the park"); m != nil {
		t.Errorf("expected nil, got %+v", m)
	}
}

func TestAmbiguousAliasNeedsCue(t *testing.T) {
	if m := ExtractBest("please go to the second floor"); m != nil {
		t.Errorf("bare verb matched as a skill: %+v", m)
	}
	m := ExtractBest("Go developer, distributed systems")
	if m == nil || m.Skill != "go" {
		t.Errorf("cued mention missed: %+v", m)
	}
}

func TestCaseInsensitive(t *testing.T) {
	m := ExtractBest("PYTHON scripting and automation skills")
	if m == nil || m.Skill != "python" {
		t.Errorf("case insensitive failed: %+v", m)
	}
}

func TestCategories(t *testing.T) {
	m := ExtractBest("MongoDB replica set administration")
	if m == nil {
		t.Fatal("expected match")
	}
	if m.Category != "data" {
		t.Errorf("Category = %q, want data", m.Category)
	}
}

func TestExtractMultiple(t *testing.T) {
	matches := Extract("Stack: Python, PostgreSQL, Docker and Terraform")
	if len(matches) < 4 {
		t.Fatalf("expected at least 4 matches, got %d: %+v", len(matches), matches)
	}
}

func TestSkills(t *testing.T) {
	got := Skills("We use Golang, golang, and Postgres. Skills: docker.")
	want := []string{"docker", "go", "postgresql"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Skills = %v, want %v", got, want)
	}
	if Skills("") != nil {
		t.Error("expected nil for empty text")
	}
}

func TestYearsConfidenceBoost(t *testing.T) {
	with := ExtractBest("7 years of Java experience")
	without := ExtractBest("Java experience preferred")
	if with == nil || without == nil {
		t.Fatal("expected matches")
	}
	if with.Confidence <= without.Confidence {
		t.Errorf("years nearby should raise confidence: %f <= %f",
			with.Confidence, without.Confidence)
	}
}
