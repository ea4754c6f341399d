package match

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/talentgrid/talentgrid/engine/domain"
)

// Heuristic weights. Skill overlap dominates, then level fit, then title
// relevance.
const (
	weightSkill = 0.5
	weightLevel = 0.3
	weightTitle = 0.2
)

type heuristicBreakdown struct {
	score      float64
	levelScore float64
	titleScore float64
	required   int
	matched    []string
	missing    []string
}

// heuristicScore computes the deterministic fallback score for one job.
func heuristicScore(c domain.Candidate, job domain.Job) heuristicBreakdown {
	candSkills := domain.SkillSet(c.Skills)
	jobSkills := domain.NormalizeSkills(job.RequiredSkills)

	var matched, missing []string
	for _, sk := range jobSkills {
		if candSkills[sk] {
			matched = append(matched, sk)
		} else {
			missing = append(missing, sk)
		}
	}

	denom := len(jobSkills)
	if denom == 0 {
		denom = 1
	}
	skillScore := float64(len(matched)) / float64(denom)
	levelScore := heuristicLevelScore(job.Level, c.YearsOfExperience)
	titleScore := heuristicTitleScore(c.DesiredRole, job.Title)

	return heuristicBreakdown{
		score:      weightSkill*skillScore + weightLevel*levelScore + weightTitle*titleScore,
		levelScore: levelScore,
		titleScore: titleScore,
		required:   denom,
		matched:    matched,
		missing:    missing,
	}
}

// heuristicLevelScore starts at 1.0 and penalizes a level/experience
// mismatch. This is deliberately a penalty scale, unlike the bonus scale
// the taxonomy stub uses.
func heuristicLevelScore(level domain.JobLevel, years int) float64 {
	switch {
	case level == domain.LevelSenior && years < 5:
		return 0.6
	case level == domain.LevelMid && years < 2:
		return 0.7
	case level == domain.LevelEntry && years > 5:
		return 0.8
	}
	return 1.0
}

// heuristicTitleScore is the fraction of desired-role words present in the
// job title, 1.0 when no desired role is given.
func heuristicTitleScore(desiredRole, jobTitle string) float64 {
	role := strings.Fields(strings.ToLower(desiredRole))
	if len(role) == 0 {
		return 1.0
	}

	titleWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(jobTitle)) {
		titleWords[w] = true
	}

	common := 0
	for _, w := range role {
		if titleWords[w] {
			common++
		}
	}
	return math.Min(1.0, float64(common)/float64(len(role)))
}

// heuristicTier ranks the job list with the weighted heuristic.
func heuristicTier(c domain.Candidate, jobs []domain.Job, limit int) []domain.MatchResult {
	results := make([]domain.MatchResult, 0, len(jobs))
	for _, job := range jobs {
		b := heuristicScore(c, job)

		missing := b.missing
		if len(missing) > 5 {
			missing = missing[:5]
		}

		results = append(results, domain.MatchResult{
			JobID:    job.ID,
			JobTitle: job.Title,
			Score:    round3(b.score),
			Tier:     TierHeuristic,
			Reasons: []string{
				fmt.Sprintf("Skill match: %d/%d", len(b.matched), b.required),
				fmt.Sprintf("Level fit: %.2f", b.levelScore),
				fmt.Sprintf("Title relevance: %.2f", b.titleScore),
			},
			MatchedSkills: b.matched,
			MissingSkills: missing,
		})
	}

	rankResults(results)
	return capResults(results, limit)
}

// rankResults sorts descending by score with job id as the secondary key.
func rankResults(results []domain.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].JobID < results[j].JobID
	})
}

func capResults(results []domain.MatchResult, limit int) []domain.MatchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
