// Package search implements the retrieval pipeline: hybrid scoring over the
// catalog index, candidate projection, relevance reranking, and the final
// merge back onto catalog metadata.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/embedding"
	"github.com/hyperjump/osusume/internal/interpret"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/vector"
	"go.uber.org/zap"
)

// Weights control the fusion of dense and lexical similarity.
type Weights struct {
	Vector  float64
	Lexical float64
}

// Boosts are the additive soft-boost values applied for metadata matches.
type Boosts struct {
	Duration float64
	JobLevel float64
	Language float64
	TestType float64
}

// DefaultWeights and DefaultBoosts are the tuned fusion constants. They are
// starting points, not invariants; both are overridable through config.
var (
	DefaultWeights = Weights{Vector: 0.75, Lexical: 0.25}
	DefaultBoosts  = Boosts{Duration: 0.12, JobLevel: 0.08, Language: 0.05, TestType: 0.06}
)

// Options are the per-call retrieval parameters. DurationMin and DurationMax
// are explicit hard bounds; SoftDurationMax participates in boosting only and
// never excludes a record.
type Options struct {
	TopK            int
	DurationMin     *int
	DurationMax     *int
	SoftDurationMax *int
	JobLevel        string
	Languages       []string
	TestTypeCodes   []string
}

// Scorer computes fused dense+lexical relevance scores over a catalog index.
// It is stateless between calls and safe for concurrent use.
type Scorer struct {
	embedder embedding.Embedder
	weights  Weights
	boosts   Boosts
	logger   *zap.Logger
}

// NewScorer creates a Scorer. Zero-valued weights fall back to the defaults.
func NewScorer(embedder embedding.Embedder, weights Weights, boosts Boosts, logger *zap.Logger) *Scorer {
	if weights.Vector == 0 && weights.Lexical == 0 {
		weights = DefaultWeights
	}
	if boosts == (Boosts{}) {
		boosts = DefaultBoosts
	}
	return &Scorer{embedder: embedder, weights: weights, boosts: boosts, logger: logger}
}

// Retrieve scores every record in idx against searchText and returns the top
// candidates, at most opts.TopK, ordered by descending combined score. Hard
// duration bounds exclude records, but a hard filter that would exclude
// everything is dropped entirely: the result is empty only when the catalog
// itself is.
func (s *Scorer) Retrieve(ctx context.Context, idx *catalog.Index, searchText string, opts Options) ([]*models.ScoredCandidate, error) {
	searchText = strings.TrimSpace(searchText)
	if searchText == "" {
		return nil, fmt.Errorf("search text cannot be empty")
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if idx.Len() == 0 {
		return []*models.ScoredCandidate{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, searchText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	lexQuery := idx.Lexical().Transform(searchText)

	// A spoken duration in an otherwise un-interpreted query still earns
	// the duration boost. Text parsing never hardens into a filter.
	softMax := opts.SoftDurationMax
	if softMax == nil {
		softMax = opts.DurationMax
	}
	if softMax == nil {
		if minutes, ok := interpret.ParseDurationMinutes(searchText); ok {
			softMax = &minutes
		}
	}

	scored := make([]*models.ScoredCandidate, 0, idx.Len())
	for i := 0; i < idx.Len(); i++ {
		rec := idx.Record(i)
		vecScore := vector.CosineNorm(vector.Cosine(queryVec, idx.Vector(i)))
		lexScore := idx.Lexical().Similarity(lexQuery, i)
		boost := s.boost(rec, softMax, opts)
		base := s.weights.Vector*vecScore + s.weights.Lexical*lexScore
		scored = append(scored, &models.ScoredCandidate{
			Record:       rec,
			VectorScore:  vecScore,
			LexicalScore: lexScore,
			Boost:        boost,
			Score:        base + boost,
		})
	}

	// Stable: equal scores keep catalog order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if opts.DurationMin != nil || opts.DurationMax != nil {
		filtered := make([]*models.ScoredCandidate, 0, len(scored))
		for _, c := range scored {
			if durationExcluded(c.Record, opts.DurationMin, opts.DurationMax) {
				continue
			}
			filtered = append(filtered, c)
		}
		if len(filtered) > 0 {
			scored = filtered
		} else if s.logger != nil {
			s.logger.Debug("hard duration filter excluded all candidates, ignoring it",
				zap.Intp("duration_min", opts.DurationMin),
				zap.Intp("duration_max", opts.DurationMax))
		}
	}

	if len(scored) > opts.TopK {
		scored = scored[:opts.TopK]
	}
	return scored, nil
}

// boost computes the additive soft boost for one record. Missing metadata
// never boosts and never penalizes.
func (s *Scorer) boost(rec *models.CatalogRecord, softMax *int, opts Options) float64 {
	boost := 0.0

	// Both bounds must be known for the window to count as fitting; a bare
	// duration_max says nothing about where the window starts.
	if softMax != nil && rec.DurationMin != nil && rec.DurationMax != nil && *rec.DurationMax <= *softMax {
		boost += s.boosts.Duration
	}

	if opts.JobLevel != "" {
		want := strings.ToLower(opts.JobLevel)
		for _, level := range rec.JobLevels {
			if strings.Contains(strings.ToLower(level), want) {
				boost += s.boosts.JobLevel
				break
			}
		}
	}

	if len(opts.Languages) > 0 && matchesAny(opts.Languages, rec.Languages) {
		boost += s.boosts.Language
	}
	if len(opts.TestTypeCodes) > 0 && matchesAny(opts.TestTypeCodes, rec.TestTypeCodes) {
		boost += s.boosts.TestType
	}
	return boost
}

// matchesAny reports whether any requested value equals any record value
// after trimming, case-insensitively.
func matchesAny(requested []string, have models.StringList) bool {
	for _, want := range requested {
		want = strings.TrimSpace(want)
		for _, got := range have {
			if strings.EqualFold(want, strings.TrimSpace(got)) {
				return true
			}
		}
	}
	return false
}

// durationExcluded applies the hard containment test: a record is excluded
// only when both its bounds are known and its window does not fit entirely
// inside the requested one. A straddling window (e.g. 20-60 against max 45)
// is excluded. Unknown duration is never disqualifying.
func durationExcluded(rec *models.CatalogRecord, min, max *int) bool {
	if rec.DurationMin == nil || rec.DurationMax == nil {
		return false
	}
	if max != nil && *rec.DurationMax > *max {
		return true
	}
	if min != nil && *rec.DurationMin < *min {
		return true
	}
	return false
}
