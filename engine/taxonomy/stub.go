package taxonomy

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/talentgrid/talentgrid/engine/domain"
)

// Stub is the documented fallback matching policy used when the external
// taxonomy service is not configured. It is deterministic: the same
// candidate and job set always produce the same ranked list.
type Stub struct{}

// NewStub creates the fallback matcher.
func NewStub() *Stub { return &Stub{} }

func (s *Stub) Name() string { return "stub" }

// ClassifyJob derives a coarse taxonomy from the job title and level.
func (s *Stub) ClassifyJob(_ context.Context, job domain.Job) (Classification, error) {
	title := strings.ToLower(job.Title)

	family := "Business"
	if strings.Contains(title, "engineer") || strings.Contains(title, "developer") {
		family = "Information Technology"
	}
	subFamily := "General"
	if strings.Contains(title, "software") {
		subFamily = "Software Development"
	}

	level := "Mid"
	if job.Level != "" {
		level = capitalize(string(job.Level))
	}

	code := job.ID
	if len(code) > 8 {
		code = code[:8]
	}

	return Classification{
		JobFamily:      family,
		JobSubFamily:   subFamily,
		JobLevel:       level,
		Code:           "TG-" + code,
		Classification: "Professional",
	}, nil
}

// CompetencyModel builds a competency model from the required skills.
func (s *Stub) CompetencyModel(_ context.Context, job domain.Job) (CompetencyModel, error) {
	skills := domain.NormalizeSkills(job.RequiredSkills)

	technical := skills
	if len(technical) > 5 {
		technical = technical[:5]
	}

	prof := make(map[string]string)
	for i, sk := range skills {
		if i >= 3 {
			break
		}
		prof[sk] = "Proficient"
	}

	return CompetencyModel{
		Technical:     technical,
		Behavioral:    []string{"Problem Solving", "Communication", "Teamwork"},
		Proficiencies: prof,
	}, nil
}

// Match scores each job by required-skill overlap with a level-fit bonus.
// An empty required-skill set counts as a denominator of 1.
func (s *Stub) Match(_ context.Context, c domain.Candidate, jobs []domain.Job, topN int) ([]Match, error) {
	candSkills := domain.SkillSet(c.Skills)

	matches := make([]Match, 0, len(jobs))
	for _, job := range jobs {
		jobSkills := domain.NormalizeSkills(job.RequiredSkills)

		overlap := 0
		scores := make(map[string]float64)
		var gaps []string
		for _, sk := range jobSkills {
			if candSkills[sk] {
				overlap++
			} else if len(gaps) < 5 {
				gaps = append(gaps, sk)
			}
		}

		denom := len(jobSkills)
		if denom == 0 {
			denom = 1
		}
		score := float64(overlap) / float64(denom)
		score += levelBonus(job.Level, c.YearsOfExperience)
		score = math.Min(1.0, score)

		for _, sk := range jobSkills {
			if candSkills[sk] {
				scores[sk] = score + 0.1
			}
		}

		matches = append(matches, Match{
			JobID:    job.ID,
			JobTitle: job.Title,
			Score:    round3(score),
			Details: map[string]string{
				"skill_match": fmt.Sprintf("%d/%d", overlap, denom),
				"algorithm":   s.Name(),
			},
			CompetencyScores: scores,
			SkillGaps:        gaps,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].JobID < matches[j].JobID
	})

	if topN > 0 && len(matches) > topN {
		matches = matches[:topN]
	}
	return matches, nil
}

// levelBonus rewards experience that fits the job level.
func levelBonus(level domain.JobLevel, years int) float64 {
	switch {
	case level == domain.LevelSenior && years >= 5:
		return 0.2
	case level == domain.LevelMid && years >= 2 && years < 5:
		return 0.1
	case level == domain.LevelEntry && years < 2:
		return 0.1
	}
	return 0
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
