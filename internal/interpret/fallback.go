package interpret

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/pkg/utils"
)

var (
	minutesRe = regexp.MustCompile(`(\d{1,3})\s*(?:minutes|mins|min)\b`)
	hoursRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hours|hour)\b`)
)

// skillVocabulary is the fixed keyword set the fallback extractor matches
// against. Anything outside it is left to lexical scoring.
var skillVocabulary = []string{
	"java", "python", "sql", "excel", "marketing", "sales", "seo", "selenium", "tableau",
}

// softSkillStems maps keyword stems to canonical soft-skill names.
// Stems match any suffix ("communicating", "communication"); the remaining
// entries are literal matches.
var softSkillStems = []struct {
	stem string
	name string
}{
	{"communicat", "communication"},
	{"collaborat", "collaboration"},
	{"team", "team"},
	{"stakeholder", "stakeholder"},
	{"leadership", "leadership"},
}

// ParseDurationMinutes extracts an explicit duration in minutes from free
// text, e.g. "40 minutes", "under 45 mins", "1.5 hours". Returns false when
// no duration is present. These are the same rules the hybrid scorer uses to
// honor a spoken duration constraint in an un-interpreted query.
func ParseDurationMinutes(text string) (int, bool) {
	q := strings.ToLower(text)
	if m := minutesRe.FindStringSubmatch(q); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n, true
		}
	}
	if m := hoursRe.FindStringSubmatch(q); m != nil {
		h, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return int(math.Round(h * 60)), true
		}
	}
	return 0, false
}

// FallbackInterpret is the deterministic regex-based query interpreter used
// when the language-understanding call is unavailable. It produces the same
// structure as the primary path from keyword and pattern matching alone.
func FallbackInterpret(query string) *models.QueryInterpretation {
	q := strings.ToLower(query)

	qi := &models.QueryInterpretation{Query: query}

	if minutes, ok := ParseDurationMinutes(q); ok {
		qi.DurationMinutes = &minutes
	}

	switch {
	case containsAny(q, "entry", "junior", "graduate"):
		qi.Seniority = models.SeniorityEntry
	case containsAny(q, "senior", "lead", "manager", "director"):
		qi.Seniority = models.SenioritySenior
	case containsAny(q, "mid", "experienced", "mid-level"):
		qi.Seniority = models.SeniorityMid
	}

	for _, skill := range skillVocabulary {
		if strings.Contains(q, skill) {
			qi.Skills = append(qi.Skills, skill)
		}
	}
	for _, s := range softSkillStems {
		if strings.Contains(q, s.stem) {
			qi.SoftSkills = append(qi.SoftSkills, s.name)
		}
	}

	qi.Summary = utils.TruncateHard(strings.TrimSpace(query), 200)
	qi.Rewrite = BuildRewrite(qi)
	return qi
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
