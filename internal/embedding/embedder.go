// Package embedding provides text embedding clients and caching.
package embedding

import "context"

// Embedder produces vector embeddings for text. The query-time embedder must
// be the same embedding function that produced the catalog's dense vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
