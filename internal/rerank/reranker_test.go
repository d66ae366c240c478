package rerank

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/osusume/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	resp  string
	err   error
	calls int
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.resp, f.err
}

func (f *fakeClient) Close() error { return nil }

func testCandidates(n int) []models.Candidate {
	candidates := make([]models.Candidate, n)
	for i := range candidates {
		candidates[i] = models.Candidate{
			URL:  "https://example.com/" + string(rune('a'+i)),
			Name: "Assessment " + string(rune('A'+i)),
		}
	}
	return candidates
}

func TestFallbackSequence(t *testing.T) {
	items := Fallback(testCandidates(3), 3)
	require.Len(t, items, 3)
	assert.InDelta(t, 1.0, items[0].Score, 1e-9)
	assert.InDelta(t, 0.95, items[1].Score, 1e-9)
	assert.InDelta(t, 0.90, items[2].Score, 1e-9)
	for _, item := range items {
		assert.Equal(t, "fallback", item.Reason)
	}
	// Candidate order is preserved.
	assert.Equal(t, "https://example.com/a", items[0].URL)
}

func TestRerankUpstreamFailureFallsBack(t *testing.T) {
	r := New(&fakeClient{err: errors.New("quota exceeded")}, time.Second, nil, zap.NewNop())
	items := r.Rerank(context.Background(), "q", "q", testCandidates(4), 2)
	require.Len(t, items, 2)
	assert.Equal(t, "fallback", items[0].Reason)
	assert.InDelta(t, 1.0, items[0].Score, 1e-9)
	assert.InDelta(t, 0.95, items[1].Score, 1e-9)
}

func TestRerankParsesAndSorts(t *testing.T) {
	client := &fakeClient{resp: "```json\n" + `{"results": [
		{"url": "https://example.com/a", "score": 0.4, "reason": "weak fit"},
		{"url": "https://example.com/b", "score": 1.7, "reason": "strong fit"},
		{"url": "https://example.com/c", "score": -0.2, "reason": "off topic"},
		{"url": "https://example.com/zzz", "score": 0.9, "reason": "not a candidate"}
	]}` + "\n```"}
	r := New(client, time.Second, nil, zap.NewNop())
	items := r.Rerank(context.Background(), "q", "q", testCandidates(3), 10)
	require.Len(t, items, 3)
	// Unknown URLs dropped, scores clamped into [0,1], sorted descending.
	assert.Equal(t, "https://example.com/b", items[0].URL)
	assert.InDelta(t, 1.0, items[0].Score, 1e-9)
	assert.Equal(t, "https://example.com/a", items[1].URL)
	assert.Equal(t, "https://example.com/c", items[2].URL)
	assert.InDelta(t, 0.0, items[2].Score, 1e-9)
}

func TestRerankNoCandidateMatchFallsBack(t *testing.T) {
	client := &fakeClient{resp: `{"results": [{"url": "https://elsewhere.example", "score": 1.0}]}`}
	r := New(client, time.Second, nil, zap.NewNop())
	items := r.Rerank(context.Background(), "q", "q", testCandidates(2), 2)
	require.Len(t, items, 2)
	assert.Equal(t, "fallback", items[0].Reason)
}

func TestRerankEmptyCandidates(t *testing.T) {
	r := New(nil, time.Second, nil, zap.NewNop())
	items := r.Rerank(context.Background(), "q", "q", nil, 5)
	assert.Empty(t, items)
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "rerank.db"))
	require.NoError(t, err)
	defer cache.Close()

	key := CacheKey("q", "rewritten", []string{"u1", "u2"})
	_, ok := cache.Get(key)
	assert.False(t, ok)

	items := []models.RerankedItem{
		{URL: "u1", Score: 0.9, Reason: "fit"},
		{URL: "u2", Score: 0.3, Reason: "partial"},
	}
	require.NoError(t, cache.Put(key, items))

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, items, got)
}

func TestCacheKeySensitivity(t *testing.T) {
	base := CacheKey("q", "r", []string{"u1", "u2"})
	assert.NotEqual(t, base, CacheKey("q2", "r", []string{"u1", "u2"}))
	assert.NotEqual(t, base, CacheKey("q", "r2", []string{"u1", "u2"}))
	assert.NotEqual(t, base, CacheKey("q", "r", []string{"u2", "u1"}))
}

func TestRerankCacheHitSkipsCall(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "rerank.db"))
	require.NoError(t, err)
	defer cache.Close()

	client := &fakeClient{resp: `{"results": [
		{"url": "https://example.com/a", "score": 0.8, "reason": "fit"},
		{"url": "https://example.com/b", "score": 0.6, "reason": "fit"}
	]}`}
	r := New(client, time.Second, cache, zap.NewNop())
	candidates := testCandidates(2)

	first := r.Rerank(context.Background(), "q", "q", candidates, 2)
	require.Len(t, first, 2)
	assert.Equal(t, 1, client.calls)

	// Second request is served from the cache, even with a smaller topK.
	second := r.Rerank(context.Background(), "q", "q", candidates, 1)
	require.Len(t, second, 1)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, first[0], second[0])
}
