// Package llm provides the language-model boundary used for query
// interpretation and relevance scoring.
//
// Callers must treat every error from a Client as an upstream-service
// failure and branch to their deterministic fallback; transport errors never
// cross into ranking logic.
package llm

import "context"

// Client generates structured JSON from a prompt.
type Client interface {
	// GenerateJSON sends prompt and returns the model's response with any
	// markdown code fences stripped. The returned string is not guaranteed
	// to be valid JSON; callers validate against their own schema.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	// Close releases resources held by the client.
	Close() error
}
