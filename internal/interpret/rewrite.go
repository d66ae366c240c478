package interpret

import (
	"fmt"
	"strings"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/pkg/utils"
)

// BuildRewrite folds an interpretation into the single search string the
// hybrid scorer consumes. Alternative search phrasings come first so they
// dominate the embedding, then labeled constraint lines, then the truncated
// summary.
func BuildRewrite(qi *models.QueryInterpretation) string {
	parts := make([]string, 0, 7)
	if len(qi.SearchQueries) > 0 {
		parts = append(parts, strings.Join(qi.SearchQueries, " "))
	}
	if len(qi.Skills) > 0 {
		parts = append(parts, "SKILL: "+qi.Skills.Join(", "))
	}
	if len(qi.SoftSkills) > 0 {
		parts = append(parts, "SOFT: "+qi.SoftSkills.Join(", "))
	}
	if qi.Seniority != "" {
		parts = append(parts, "JOBLEVEL: "+qi.Seniority)
	}
	if qi.DurationMinutes != nil {
		parts = append(parts, fmt.Sprintf("DURATION: %dMIN", *qi.DurationMinutes))
	}
	if len(qi.Languages) > 0 {
		parts = append(parts, "LANG: "+qi.Languages.Join(", "))
	}
	parts = append(parts, "SUMMARY: "+utils.TruncateHard(qi.Summary, 200))
	return strings.Join(parts, " \n ")
}
