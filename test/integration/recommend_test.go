// Package integration provides end-to-end tests over the full pipeline with
// on-disk catalog fixtures.
package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/embedding"
	"github.com/hyperjump/osusume/internal/interpret"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/rerank"
	"github.com/hyperjump/osusume/internal/search"
	"github.com/hyperjump/osusume/internal/vector"
	"go.uber.org/zap"
)

type scriptedClient struct {
	interpretResp string
	rerankResp    string
}

// GenerateJSON routes on prompt content: the rerank prompt carries the
// candidate payload, the interpret prompt does not.
func (s *scriptedClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "Candidates") {
		return s.rerankResp, nil
	}
	return s.interpretResp, nil
}

func (s *scriptedClient) Close() error { return nil }

// writeFixture builds a catalog dataset on disk: a JSON record file and a
// row-aligned vector matrix embedded with the mock embedder.
func writeFixture(t *testing.T, dir string, embedder embedding.Embedder) (recordsPath, vectorsPath string) {
	t.Helper()
	dur := func(n int) *int { return &n }
	records := []*models.CatalogRecord{
		{
			Name: "Java Developer Assessment", URL: "https://x/java",
			Description: "Evaluates core Java programming ability.",
			DurationMin: dur(20), DurationMax: dur(40),
			JobLevels: models.StringList{"Mid-Professional"},
			Languages: models.StringList{"English"},
		},
		{
			Name: "Python Data Assessment", URL: "https://x/python",
			Description: "Evaluates Python and data analysis skills.",
			DurationMin: dur(30), DurationMax: dur(60),
		},
		{
			Name: "Sales Screening", URL: "https://x/sales",
			Description: "Screens candidates for sales roles.",
		},
	}
	for _, rec := range records {
		rec.ID = rec.DeriveID()
		rec.EmbedText = rec.BuildEmbedText()
	}

	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	recordsPath = filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(recordsPath, data, 0600); err != nil {
		t.Fatal(err)
	}

	vectors := make([][]float32, len(records))
	for i, rec := range records {
		vec, err := embedder.Embed(context.Background(), rec.EmbedText)
		if err != nil {
			t.Fatal(err)
		}
		vectors[i] = vec
	}
	vectorsPath = filepath.Join(dir, "catalog.vec")
	if err := vector.WriteMatrix(vectorsPath, vectors); err != nil {
		t.Fatal(err)
	}
	return recordsPath, vectorsPath
}

func TestIntegration_Recommend(t *testing.T) {
	dir := t.TempDir()
	embedder := embedding.NewMockEmbedder(32)
	defer embedder.Close()
	recordsPath, vectorsPath := writeFixture(t, dir, embedder)

	idx, err := catalog.Load(recordsPath, vectorsPath, 0)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 3 {
		t.Fatalf("records = %d, want 3", idx.Len())
	}

	client := &scriptedClient{
		interpretResp: `{"skills":["java"],"seniority":"mid","duration_minutes":45,"summary":"Java developer assessment","search_queries":["java developer test"]}`,
		rerankResp: `{"results":[
			{"url":"https://x/java","score":0.95,"reason":"direct match"},
			{"url":"https://x/python","score":0.5,"reason":"adjacent"},
			{"url":"https://x/invented","score":0.99,"reason":"hallucinated"}
		]}`,
	}

	logger := zap.NewNop()
	cache, err := rerank.OpenCache(filepath.Join(dir, "rerank.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	handle := catalog.NewHandle(idx)
	engine := search.NewEngine(
		handle,
		interpret.New(client, time.Second, logger),
		search.NewScorer(embedder, search.DefaultWeights, search.DefaultBoosts, logger),
		rerank.New(client, time.Second, cache, logger),
		40,
		logger,
	)

	resp, err := engine.Recommend(context.Background(), &models.RecommendRequest{
		Query: "mid-level java developer, under 45 minutes", TopK: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2 (hallucinated URL dropped)", len(resp.Results))
	}
	if resp.Results[0].URL != "https://x/java" {
		t.Errorf("top result = %s", resp.Results[0].URL)
	}
	if resp.Results[0].RelevanceScore != 0.95 {
		t.Errorf("top score = %v", resp.Results[0].RelevanceScore)
	}
	if resp.Results[0].Name != "Java Developer Assessment" {
		t.Errorf("catalog metadata missing from result: %+v", resp.Results[0])
	}
	if resp.RewrittenQuery == "" {
		t.Error("rewritten query missing from response")
	}

	// Same query again is served from the rerank cache.
	again, err := engine.Recommend(context.Background(), &models.RecommendRequest{
		Query: "mid-level java developer, under 45 minutes", TopK: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Results) != 2 || again.Results[0].URL != resp.Results[0].URL {
		t.Errorf("cached rerank changed the results: %+v", again.Results)
	}
}

func TestIntegration_ReloadSwapsIndex(t *testing.T) {
	dir := t.TempDir()
	embedder := embedding.NewMockEmbedder(32)
	defer embedder.Close()
	recordsPath, vectorsPath := writeFixture(t, dir, embedder)

	idx, err := catalog.Load(recordsPath, vectorsPath, 0)
	if err != nil {
		t.Fatal(err)
	}
	handle := catalog.NewHandle(idx)
	reloader := &catalog.Reloader{Handle: handle, RecordsPath: recordsPath, VectorsPath: vectorsPath}

	// Corrupt the records file: reload must fail and keep the old index.
	if err := os.WriteFile(recordsPath, []byte("[]"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := reloader.Reload(); err == nil {
		t.Fatal("reload of empty catalog should fail")
	}
	if handle.Current().Len() != 3 {
		t.Errorf("failed reload replaced the serving index")
	}
}
