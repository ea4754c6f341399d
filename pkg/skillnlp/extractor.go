// Package skillnlp extracts skill mentions and nearby years-of-experience
// figures from unstructured text using regex patterns and a curated skill
// dictionary. No external dependencies.
package skillnlp

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Match represents one extracted skill mention.
type Match struct {
	Skill      string  // canonical lowercase name, e.g. "postgresql"
	Category   string  // e.g. "data"
	Years      int     // years of experience near the mention (0 if not found)
	Confidence float64 // 0.0-1.0
	Span       string  // the matched text fragment
}

// skillAliases maps abbreviations/spellings to canonical skill names.
var skillAliases = map[string]string{
	"golang":                "go",
	"py":                    "python",
	"js":                    "javascript",
	"ecmascript":            "javascript",
	"ts":                    "typescript",
	"cpp":                   "c++",
	"c plus plus":           "c++",
	"csharp":                "c#",
	"c sharp":               "c#",
	"node":                  "node.js",
	"nodejs":                "node.js",
	"reactjs":               "react",
	"vuejs":                 "vue",
	"vue.js":                "vue",
	"postgres":              "postgresql",
	"mongo":                 "mongodb",
	"elastic":               "elasticsearch",
	"k8s":                   "kubernetes",
	"amazon web services":   "aws",
	"google cloud platform": "gcp",
	"google cloud":          "gcp",
	"cicd":                  "ci/cd",
	"sklearn":               "scikit-learn",
	"tf":                    "terraform",
}

// categorySkills maps category to canonical skills.
var categorySkills = map[string][]string{
	"language": {"go", "python", "java", "javascript", "typescript", "c++", "c#", "ruby", "rust", "php", "kotlin", "swift", "scala", "sql"},
	"backend":  {"node.js", "django", "flask", "spring", "rails", "grpc", "graphql", "rest"},
	"frontend": {"react", "angular", "vue", "next.js", "html", "css"},
	"data":     {"postgresql", "mysql", "mongodb", "redis", "elasticsearch", "kafka", "spark", "snowflake", "neo4j", "qdrant"},
	"infra":    {"aws", "azure", "gcp", "kubernetes", "docker", "terraform", "ansible", "jenkins", "git", "linux", "nats"},
	"ml":       {"tensorflow", "pytorch", "pandas", "numpy", "scikit-learn", "mlflow"},
	"practice": {"agile", "scrum", "ci/cd", "tdd", "microservices", "devops"},
}

// ambiguous lists aliases that collide with common words and only count
// when a profession/skill cue appears nearby.
var ambiguous = map[string]bool{
	"go": true, "py": true, "js": true, "ts": true, "tf": true,
	"rest": true, "spring": true, "rails": true, "rust": true,
	"spark": true, "swift": true,
}

// skillCategory maps canonical skill -> category.
var skillCategory map[string]string

// aliasCanonical maps every lowercase alias and canonical name to canonical.
var aliasCanonical map[string]string

// wordRe is a regex alternation of all word-safe aliases, longest first.
var wordRe *regexp.Regexp

// symbolAliases are aliases containing regex-hostile characters ("c++",
// "node.js", "ci/cd"), scanned manually with boundary checks.
var symbolAliases []string

var yearsRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`)

// cueRe marks text that is talking about skills rather than using an
// ambiguous alias as a plain word.
var cueRe = regexp.MustCompile(`(?i)\b(?:developer|engineer(?:ing)?|programm(?:er|ing)|experienced?|proficien(?:t|cy)|skills?|stack|framework|language|knowledge)\b`)

func init() {
	skillCategory = make(map[string]string)
	aliasCanonical = make(map[string]string)

	for cat, skills := range categorySkills {
		for _, sk := range skills {
			skillCategory[sk] = cat
			aliasCanonical[sk] = sk
		}
	}
	for alias, canonical := range skillAliases {
		aliasCanonical[alias] = canonical
	}

	var wordNames []string
	for alias := range aliasCanonical {
		if wordSafe(alias) {
			wordNames = append(wordNames, regexp.QuoteMeta(alias))
		} else {
			symbolAliases = append(symbolAliases, alias)
		}
	}
	// Longest first so "google cloud platform" wins over "google cloud".
	sort.Slice(wordNames, func(i, j int) bool { return len(wordNames[i]) > len(wordNames[j]) })
	sort.Strings(symbolAliases)

	wordRe = regexp.MustCompile(`(?i)\b(` + strings.Join(wordNames, "|") + `)\b`)
}

func wordSafe(alias string) bool {
	for _, r := range alias {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' && r != '-' {
			return false
		}
	}
	return true
}

// Extract finds all skill mentions in text. Returns matches sorted by
// confidence, one per canonical skill.
func Extract(text string) []Match {
	if text == "" {
		return nil
	}
	var matches []Match
	used := make(map[string]bool)

	for _, loc := range wordRe.FindAllStringSubmatchIndex(text, -1) {
		if m, ok := mentionAt(text, loc[2], loc[3]); ok && !used[m.Skill] {
			used[m.Skill] = true
			matches = append(matches, m)
		}
	}
	for _, alias := range symbolAliases {
		for _, idx := range scanAlias(text, alias) {
			if m, ok := mentionAt(text, idx, idx+len(alias)); ok && !used[m.Skill] {
				used[m.Skill] = true
				matches = append(matches, m)
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Skill < matches[j].Skill
	})
	return matches
}

// ExtractBest returns the single highest-confidence match, or nil.
func ExtractBest(text string) *Match {
	matches := Extract(text)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

// Skills returns the deduplicated canonical skills mentioned in text,
// sorted. Intended for building search payloads.
func Skills(text string) []string {
	matches := Extract(text)
	if len(matches) == 0 {
		return nil
	}
	skills := make([]string, len(matches))
	for i, m := range matches {
		skills[i] = m.Skill
	}
	sort.Strings(skills)
	return skills
}

// mentionAt classifies the alias occurrence at text[start:end]. Ambiguous
// aliases need a nearby cue; years of experience are looked up in a window
// around the mention.
func mentionAt(text string, start, end int) (Match, bool) {
	canonical := aliasCanonical[strings.ToLower(text[start:end])]
	if canonical == "" {
		return Match{}, false
	}

	windowStart := max(0, start-40)
	windowEnd := min(end+40, len(text))
	window := text[windowStart:windowEnd]

	amb := ambiguous[strings.ToLower(text[start:end])]
	if amb && !cueRe.MatchString(window) {
		return Match{}, false
	}

	years := findYears(window)

	conf := 0.0
	switch {
	case !amb && years > 0:
		conf = 0.95
	case !amb:
		conf = 0.85
	case years > 0:
		conf = 0.80
	default:
		conf = 0.70
	}

	return Match{
		Skill:      canonical,
		Category:   skillCategory[canonical],
		Years:      years,
		Confidence: conf,
		Span:       strings.TrimSpace(window),
	}, true
}

// scanAlias finds boundary-respecting occurrences of a symbol-bearing alias.
func scanAlias(text, alias string) []int {
	lower := strings.ToLower(text)
	var idxs []int
	for from := 0; ; {
		idx := strings.Index(lower[from:], alias)
		if idx < 0 {
			return idxs
		}
		idx += from
		from = idx + len(alias)

		if idx > 0 && wordRune(rune(lower[idx-1])) {
			continue
		}
		end := idx + len(alias)
		if end < len(lower) && wordRune(rune(lower[end])) {
			continue
		}
		idxs = append(idxs, idx)
	}
}

func wordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func findYears(s string) int {
	m := yearsRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	if y >= 1 && y <= 40 {
		return y
	}
	return 0
}
