package domain

import (
	"fmt"
	"strings"
)

// NormalizeSkills lowercases and trims a skill list, dropping empties and
// duplicates. Skill comparison is case-insensitive everywhere in the engine.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// SkillSet converts a skill list to a case-insensitive membership set.
func SkillSet(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, s := range NormalizeSkills(skills) {
		set[s] = true
	}
	return set
}

// ValidateJob checks a job record before indexing or matching.
func ValidateJob(j Job) error {
	if j.ID == "" {
		return fmt.Errorf("validate: job id is empty")
	}
	if j.Title == "" {
		return fmt.Errorf("validate: job %s has no title", j.ID)
	}
	if j.Status != "" && !ValidStatuses[j.Status] {
		return fmt.Errorf("validate: job %s has unknown status %q", j.ID, j.Status)
	}
	return nil
}

// ValidateCandidate checks a candidate profile before matching.
func ValidateCandidate(c Candidate) error {
	if c.YearsOfExperience < 0 {
		return fmt.Errorf("validate: years of experience must be non-negative")
	}
	if len(c.Skills) == 0 && c.DesiredRole == "" && c.ExperienceSummary == "" {
		return fmt.Errorf("validate: candidate profile is empty")
	}
	return nil
}

// SearchableText flattens a job into the text snapshot that gets embedded
// and stored alongside its vector.
func SearchableText(j Job) string {
	parts := []string{
		j.Title,
		j.Description,
		strings.Join(j.RequiredSkills, ", "),
		j.Department,
		string(j.Level),
		strings.Join(j.Responsibilities, " "),
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// CandidateQuery flattens a candidate profile into a semantic search query.
func CandidateQuery(c Candidate) string {
	parts := []string{
		strings.Join(c.Skills, ", "),
		c.ExperienceSummary,
		c.Education,
		c.DesiredRole,
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
