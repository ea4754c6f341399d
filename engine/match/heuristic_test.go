package match

import (
	"math"
	"testing"

	"github.com/talentgrid/talentgrid/engine/domain"
)

func TestHeuristicWeightedScenario(t *testing.T) {
	// skills {python, docker} against {python, docker, aws}, senior job,
	// six years of experience, no desired role:
	// 0.5*(2/3) + 0.3*1.0 + 0.2*1.0
	c := domain.Candidate{Skills: []string{"python", "docker"}, YearsOfExperience: 6}
	job := publishedJob("j1", "Senior Backend Engineer", domain.LevelSenior, "python", "docker", "aws")

	b := heuristicScore(c, job)
	want := 0.5*(2.0/3.0) + 0.3 + 0.2
	if math.Abs(b.score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", b.score, want)
	}

	results := heuristicTier(c, []domain.Job{job}, 10)
	if results[0].Score != 0.833 {
		t.Fatalf("rounded score = %v, want 0.833", results[0].Score)
	}
	if results[0].Tier != TierHeuristic {
		t.Fatalf("tier = %q", results[0].Tier)
	}
}

func TestHeuristicEmptySkillSet(t *testing.T) {
	c := domain.Candidate{Skills: []string{"go"}}
	job := publishedJob("j1", "Generalist", "")

	b := heuristicScore(c, job)
	if b.required != 1 {
		t.Fatalf("denominator = %d, want 1", b.required)
	}
	// skill 0, level 1.0, title 1.0
	if math.Abs(b.score-0.5) > 1e-9 {
		t.Fatalf("score = %v, want 0.5", b.score)
	}
}

func TestHeuristicSkillScoreBounds(t *testing.T) {
	c := domain.Candidate{Skills: []string{"go", "sql", "redis"}}
	for _, job := range []domain.Job{
		publishedJob("j1", "A", "", "go"),
		publishedJob("j2", "B", "", "go", "rust", "zig"),
		publishedJob("j3", "C", "", "haskell"),
	} {
		b := heuristicScore(c, job)
		ratio := float64(len(b.matched)) / float64(b.required)
		if ratio < 0 || ratio > 1 {
			t.Fatalf("skill ratio %v out of [0,1] for %s", ratio, job.ID)
		}
	}
}

func TestHeuristicLevelPenalties(t *testing.T) {
	cases := []struct {
		name  string
		level domain.JobLevel
		years int
		want  float64
	}{
		{"senior underqualified", domain.LevelSenior, 3, 0.6},
		{"senior qualified", domain.LevelSenior, 5, 1.0},
		{"mid underqualified", domain.LevelMid, 1, 0.7},
		{"mid qualified", domain.LevelMid, 3, 1.0},
		{"entry overqualified", domain.LevelEntry, 8, 0.8},
		{"entry qualified", domain.LevelEntry, 1, 1.0},
		{"no level", "", 0, 1.0},
		{"lead never penalized", domain.LevelLead, 0, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := heuristicLevelScore(tc.level, tc.years); got != tc.want {
				t.Fatalf("level score = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHeuristicTitleScore(t *testing.T) {
	cases := []struct {
		role, title string
		want        float64
	}{
		{"", "Anything", 1.0},
		{"backend engineer", "Senior Backend Engineer", 1.0},
		{"backend engineer", "Backend Analyst", 0.5},
		{"data scientist", "Frontend Developer", 0.0},
		{"Engineer", "senior ENGINEER", 1.0},
	}
	for _, tc := range cases {
		if got := heuristicTitleScore(tc.role, tc.title); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("titleScore(%q, %q) = %v, want %v", tc.role, tc.title, got, tc.want)
		}
	}
}

func TestHeuristicRankingDescending(t *testing.T) {
	c := domain.Candidate{Skills: []string{"go", "sql"}, YearsOfExperience: 6}
	jobs := []domain.Job{
		publishedJob("j1", "A", "", "rust"),
		publishedJob("j2", "B", "", "go", "sql"),
		publishedJob("j3", "C", "", "go", "sql", "redis", "kafka"),
	}

	results := heuristicTier(c, jobs, 10)
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not in descending order: %+v", results)
		}
	}
	if results[0].JobID != "j2" {
		t.Fatalf("best = %s, want j2", results[0].JobID)
	}
}

func TestHeuristicMissingSkillsCapped(t *testing.T) {
	c := domain.Candidate{Skills: []string{"go"}}
	job := publishedJob("j1", "A", "", "a", "b", "c", "d", "e", "f", "g")

	results := heuristicTier(c, []domain.Job{job}, 1)
	if len(results[0].MissingSkills) != 5 {
		t.Fatalf("missing = %d, want 5", len(results[0].MissingSkills))
	}
}
