package rerank

import (
	"encoding/json"
	"fmt"

	"github.com/hyperjump/osusume/internal/models"
)

// buildRerankPrompt produces the scoring instruction plus the candidate
// projections as a JSON array. The model sees the original query and the
// rewritten form so it can weigh both the literal ask and the extracted
// constraints.
func buildRerankPrompt(query, rewritten string, candidates []models.Candidate) string {
	payload, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		// Candidate only holds strings, ints and string slices; this
		// cannot fail in practice.
		payload = []byte("[]")
	}

	return fmt.Sprintf(`You are scoring assessment products for relevance to a hiring need.

Original query: %q
Interpreted query: %q

Candidates:
%s

Score EVERY candidate from 0.0 (irrelevant) to 1.0 (exact match). Consider:
- skill and role fit against the query
- seniority fit against job_levels
- duration fit against any stated time limit
- language fit when the query names one

Respond with JSON only, using exactly this shape:
{"results": [{"url": "<candidate url>", "score": 0.95, "reason": "<one short sentence>"}]}

Include every candidate exactly once, keyed by its url verbatim.`, query, rewritten, payload)
}
