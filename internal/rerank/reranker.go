// Package rerank orders retrieved candidates by relevance using a
// language-model scoring call, with a deterministic positional fallback and
// an optional persistent cache.
package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/hyperjump/osusume/internal/llm"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/pkg/utils"
	"go.uber.org/zap"
)

// Reranker scores candidates against the query. It never fails a request:
// any upstream problem degrades to the positional fallback ranking.
type Reranker struct {
	client  llm.Client
	timeout time.Duration
	cache   *Cache
	logger  *zap.Logger
}

// New creates a Reranker. client and cache may each be nil; with a nil
// client only the fallback ranking is produced.
func New(client llm.Client, timeout time.Duration, cache *Cache, logger *zap.Logger) *Reranker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Reranker{client: client, timeout: timeout, cache: cache, logger: logger}
}

// rerankResponse is the fixed schema expected from the scoring call.
type rerankResponse struct {
	Results []models.RerankedItem `json:"results"`
}

// Rerank returns at most topK candidates ordered by descending relevance.
// The scoring call ranks the full candidate list; the cache stores that full
// ranking so a later request with a different topK still hits.
func (r *Reranker) Rerank(ctx context.Context, query, rewritten string, candidates []models.Candidate, topK int) []models.RerankedItem {
	if len(candidates) == 0 {
		return []models.RerankedItem{}
	}
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}

	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.URL
	}

	var key string
	if r.cache != nil {
		key = CacheKey(query, rewritten, urls)
		if items, ok := r.cache.Get(key); ok {
			return truncate(items, topK)
		}
	}

	items, err := r.rerankLLM(ctx, query, rewritten, candidates)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("relevance scoring falling back to positional ranking", zap.Error(err))
		}
		return Fallback(candidates, topK)
	}

	if r.cache != nil {
		if err := r.cache.Put(key, items); err != nil && r.logger != nil {
			r.logger.Warn("failed to cache ranking", zap.Error(err))
		}
	}
	return truncate(items, topK)
}

// Fallback produces the deterministic positional ranking: candidate order is
// preserved and scores decrease by a fixed step from 1.0.
func Fallback(candidates []models.Candidate, topK int) []models.RerankedItem {
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}
	items := make([]models.RerankedItem, 0, topK)
	for i := 0; i < topK; i++ {
		items = append(items, models.RerankedItem{
			URL:    candidates[i].URL,
			Score:  1.0 - 0.05*float64(i),
			Reason: "fallback",
		})
	}
	return items
}

func (r *Reranker) rerankLLM(ctx context.Context, query, rewritten string, candidates []models.Candidate) ([]models.RerankedItem, error) {
	if r.client == nil {
		return nil, fmt.Errorf("no relevance-scoring client configured")
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.client.GenerateJSON(ctx, buildRerankPrompt(query, rewritten, candidates))
	if err != nil {
		return nil, fmt.Errorf("relevance-scoring call: %w", err)
	}

	var resp rerankResponse
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &resp); err != nil {
		return nil, fmt.Errorf("invalid scoring response: %w", err)
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.URL] = true
	}

	// Keep only items addressing a real candidate, one per URL, scores
	// clamped into [0,1].
	seen := make(map[string]bool, len(resp.Results))
	items := make([]models.RerankedItem, 0, len(resp.Results))
	for _, item := range resp.Results {
		if !known[item.URL] || seen[item.URL] {
			continue
		}
		seen[item.URL] = true
		item.Score = utils.Clamp01(item.Score)
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("scoring response matched no candidates")
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items, nil
}

func truncate(items []models.RerankedItem, topK int) []models.RerankedItem {
	if len(items) > topK {
		return items[:topK]
	}
	return items
}
