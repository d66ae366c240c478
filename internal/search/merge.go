package search

import (
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/pkg/utils"
)

// ProjectCandidates converts scored candidates into the bounded projection
// sent to the relevance scorer. Descriptions are cut to their first sentence
// and capped so a large candidate batch stays within prompt limits.
func ProjectCandidates(scored []*models.ScoredCandidate) []models.Candidate {
	candidates := make([]models.Candidate, 0, len(scored))
	for _, c := range scored {
		rec := c.Record
		candidates = append(candidates, models.Candidate{
			URL:         rec.URL,
			Name:        rec.Name,
			Desc:        utils.Truncate(utils.FirstSentence(rec.Description), 200),
			DurationMin: rec.DurationMin,
			DurationMax: rec.DurationMax,
			JobLevels:   rec.JobLevels,
			Languages:   rec.Languages,
			TestTypes:   rec.TestTypes,
			Tags:        rec.Tags,
		})
	}
	return candidates
}

// Merge reconciles reranked items with full candidate metadata by exact URL
// match. Output order follows reranked order; items whose URL is not in the
// candidate set are dropped silently. The result is truncated to topK and
// never backfilled; a short reranked list stays short.
func Merge(reranked []models.RerankedItem, candidates []*models.ScoredCandidate, topK int) []*models.FinalResult {
	byURL := make(map[string]*models.CatalogRecord, len(candidates))
	for _, c := range candidates {
		if c.Record.URL == "" {
			continue
		}
		if _, ok := byURL[c.Record.URL]; !ok {
			byURL[c.Record.URL] = c.Record
		}
	}

	results := make([]*models.FinalResult, 0, len(reranked))
	for _, item := range reranked {
		rec, ok := byURL[item.URL]
		if !ok {
			continue
		}
		results = append(results, &models.FinalResult{
			CatalogRecord:   *rec,
			RelevanceScore:  item.Score,
			RelevanceReason: item.Reason,
		})
		if topK > 0 && len(results) == topK {
			break
		}
	}
	return results
}
