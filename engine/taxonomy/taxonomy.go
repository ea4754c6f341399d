// Package taxonomy wraps the external job-taxonomy and competency matching
// service, with a deterministic stub used when the service is absent.
package taxonomy

import (
	"context"

	"github.com/talentgrid/talentgrid/engine/domain"
)

// Classification is the taxonomy assignment for a job.
type Classification struct {
	JobFamily      string `json:"job_family"`
	JobSubFamily   string `json:"job_sub_family"`
	JobLevel       string `json:"job_level"`
	Code           string `json:"code"`
	Classification string `json:"classification"`
}

// CompetencyModel lists the competencies derived from a job posting.
type CompetencyModel struct {
	Technical     []string          `json:"technical_competencies"`
	Behavioral    []string          `json:"behavioral_competencies"`
	Proficiencies map[string]string `json:"required_proficiencies"`
}

// Match is one ranked candidate-to-job match from the matcher.
type Match struct {
	JobID            string             `json:"job_id"`
	JobTitle         string             `json:"job_title"`
	Score            float64            `json:"score"`
	Details          map[string]string  `json:"details"`
	CompetencyScores map[string]float64 `json:"competency_scores"`
	SkillGaps        []string           `json:"skill_gaps"`
}

// Matcher is the taxonomy/competency matching capability.
type Matcher interface {
	Name() string
	ClassifyJob(ctx context.Context, job domain.Job) (Classification, error)
	CompetencyModel(ctx context.Context, job domain.Job) (CompetencyModel, error)
	Match(ctx context.Context, c domain.Candidate, jobs []domain.Job, topN int) ([]Match, error)
}

// toMap converts a Classification to the generic annotation shape stored
// on the job record.
func (c Classification) toMap() map[string]any {
	return map[string]any{
		"job_family":     c.JobFamily,
		"job_sub_family": c.JobSubFamily,
		"job_level":      c.JobLevel,
		"code":           c.Code,
		"classification": c.Classification,
	}
}

func (m CompetencyModel) toMap() map[string]any {
	prof := make(map[string]any, len(m.Proficiencies))
	for k, v := range m.Proficiencies {
		prof[k] = v
	}
	return map[string]any{
		"technical_competencies":  m.Technical,
		"behavioral_competencies": m.Behavioral,
		"required_proficiencies":  prof,
	}
}
