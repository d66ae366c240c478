package search

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/interpret"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/rerank"
	"go.uber.org/zap"
)

// Engine runs the full recommendation pipeline: interpret, score, rerank,
// merge. One Engine serves all requests; each request is an independent
// sequential pass sharing only the read-only catalog index.
type Engine struct {
	handle      *catalog.Handle
	interpreter *interpret.Interpreter
	scorer      *Scorer
	reranker    *rerank.Reranker
	candidates  int
	logger      *zap.Logger
}

// NewEngine creates an Engine. candidates is the retrieval depth handed to
// the reranker, conventionally larger than any requested top_k.
func NewEngine(handle *catalog.Handle, interpreter *interpret.Interpreter, scorer *Scorer, reranker *rerank.Reranker, candidates int, logger *zap.Logger) *Engine {
	if candidates <= 0 {
		candidates = 40
	}
	return &Engine{
		handle:      handle,
		interpreter: interpreter,
		scorer:      scorer,
		reranker:    reranker,
		candidates:  candidates,
		logger:      logger,
	}
}

// Recommend answers one query end to end. Upstream service failures degrade
// to the per-stage fallbacks; only an invalid request or an embedding failure
// surfaces as an error.
func (e *Engine) Recommend(ctx context.Context, req *models.RecommendRequest) (*models.RecommendResponse, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	qi, err := e.interpreter.Interpret(ctx, req.Query, true)
	if err != nil {
		return nil, fmt.Errorf("failed to interpret query: %w", err)
	}

	idx := e.handle.Current()
	if idx == nil {
		return nil, fmt.Errorf("catalog index not loaded")
	}

	// Interpreted duration stays a soft signal: it boosts fitting records
	// but never excludes anything.
	opts := Options{
		TopK:            e.candidates,
		SoftDurationMax: qi.DurationMinutes,
		Languages:       qi.Languages,
	}
	if qi.Seniority != "" && qi.Seniority != models.SeniorityAny {
		opts.JobLevel = qi.Seniority
	}
	scored, err := e.scorer.Retrieve(ctx, idx, qi.Rewrite, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to score candidates: %w", err)
	}

	projected := ProjectCandidates(scored)
	reranked := e.reranker.Rerank(ctx, req.Query, qi.Rewrite, projected, req.TopK)
	results := Merge(reranked, scored, req.TopK)

	if e.logger != nil {
		e.logger.Info("recommendation served",
			zap.String("query", req.Query),
			zap.Int("candidates", len(scored)),
			zap.Int("results", len(results)),
			zap.Duration("elapsed", time.Since(start)))
	}

	return &models.RecommendResponse{
		Query:          req.Query,
		RewrittenQuery: qi.Rewrite,
		Results:        results,
		QueryTime:      time.Since(start).Milliseconds(),
	}, nil
}
