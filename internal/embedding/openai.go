package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// OpenAIEmbedder produces embeddings through an OpenAI-compatible embeddings
// API (OpenAI, Ollama, vLLM, LocalAI). The configured model must be the same
// one the offline job used to embed the catalog, or query and record vectors
// will live in different spaces.
type OpenAIEmbedder struct {
	embedder   embeddings.Embedder
	dimensions int
	cache      *Cache
	logger     *zap.Logger
}

// NewOpenAIEmbedder creates an embedder against the given base URL and model.
// dimensions is the expected vector length and is validated on every call;
// cacheSize > 0 enables an in-process LRU keyed by text. OPENAI_API_KEY is
// read from the environment; "none" is sent for local services that do not
// require authentication.
func NewOpenAIEmbedder(host, model string, dimensions, cacheSize int, logger *zap.Logger) (*OpenAIEmbedder, error) {
	token := os.Getenv("OPENAI_API_KEY")
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("wrap embedder: %w", err)
	}
	e := &OpenAIEmbedder{
		embedder:   embedder,
		dimensions: dimensions,
		logger:     logger,
	}
	if cacheSize > 0 {
		e.cache = NewCache(cacheSize)
	}
	return e, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.cache != nil {
		if emb, ok := e.cache.Get(text); ok {
			return emb, nil
		}
	}
	emb, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := e.checkDimensions(len(emb)); err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(text, emb)
	}
	return emb, nil
}

// EmbedBatch returns embeddings for texts in input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(embs) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(embs), len(texts))
	}
	for _, emb := range embs {
		if err := e.checkDimensions(len(emb)); err != nil {
			return nil, err
		}
	}
	return embs, nil
}

func (e *OpenAIEmbedder) checkDimensions(got int) error {
	if e.dimensions > 0 && got != e.dimensions {
		return fmt.Errorf("embedding dimension mismatch: got %d, expected %d", got, e.dimensions)
	}
	return nil
}

// Dimensions returns the configured embedding dimension (0 if unchecked).
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the underlying HTTP client holds no resources.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
