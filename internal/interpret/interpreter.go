// Package interpret converts a raw query string into structured constraints
// and a rewritten search string.
package interpret

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/osusume/internal/llm"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/pkg/utils"
	"go.uber.org/zap"
)

// Interpreter extracts structured constraints from free-text queries via a
// language-understanding call, with a deterministic regex fallback.
type Interpreter struct {
	client  llm.Client
	timeout time.Duration
	logger  *zap.Logger
}

// New creates an Interpreter. client may be nil, in which case only the
// fallback path is available.
func New(client llm.Client, timeout time.Duration, logger *zap.Logger) *Interpreter {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Interpreter{client: client, timeout: timeout, logger: logger}
}

// llmResponse is the fixed schema expected from the language-understanding
// service. StringList fields absorb both string and array shapes; any other
// deviation is a schema violation and treated as a call failure.
type llmResponse struct {
	Skills          models.StringList `json:"skills"`
	SoftSkills      models.StringList `json:"soft_skills"`
	Seniority       *string           `json:"seniority"`
	DurationMinutes *int              `json:"duration_minutes"`
	Languages       models.StringList `json:"languages"`
	Summary         string            `json:"summary"`
	SearchQueries   []string          `json:"search_queries"`
	Rewrite         string            `json:"rewrite"`
}

// Interpret converts query into a QueryInterpretation. The primary path is
// one language-understanding call; when it fails and allowFallback is true,
// the deterministic extractor produces the same structure. With allowFallback
// false the failure propagates.
func (it *Interpreter) Interpret(ctx context.Context, query string, allowFallback bool) (*models.QueryInterpretation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	qi, err := it.interpretLLM(ctx, query)
	if err == nil {
		return qi, nil
	}
	if !allowFallback {
		return nil, err
	}
	if it.logger != nil {
		it.logger.Warn("query interpretation falling back to regex extractor", zap.Error(err))
	}
	return FallbackInterpret(query), nil
}

func (it *Interpreter) interpretLLM(ctx context.Context, query string) (*models.QueryInterpretation, error) {
	if it.client == nil {
		return nil, fmt.Errorf("no language-understanding client configured")
	}
	ctx, cancel := context.WithTimeout(ctx, it.timeout)
	defer cancel()

	raw, err := it.client.GenerateJSON(ctx, buildInterpretPrompt(query))
	if err != nil {
		return nil, fmt.Errorf("language-understanding call: %w", err)
	}

	var resp llmResponse
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &resp); err != nil {
		return nil, fmt.Errorf("invalid interpretation response: %w", err)
	}
	seniority := ""
	if resp.Seniority != nil && *resp.Seniority != "" {
		if !models.ValidSeniority(*resp.Seniority) {
			return nil, fmt.Errorf("invalid seniority %q in interpretation response", *resp.Seniority)
		}
		seniority = *resp.Seniority
	}
	if resp.DurationMinutes != nil && *resp.DurationMinutes < 0 {
		return nil, fmt.Errorf("negative duration in interpretation response")
	}

	qi := &models.QueryInterpretation{
		Query:           query,
		Skills:          resp.Skills,
		SoftSkills:      resp.SoftSkills,
		Seniority:       seniority,
		DurationMinutes: resp.DurationMinutes,
		Languages:       resp.Languages,
		Summary:         utils.TruncateHard(strings.TrimSpace(resp.Summary), 200),
		SearchQueries:   resp.SearchQueries,
	}
	if r := strings.TrimSpace(resp.Rewrite); r != "" {
		qi.Rewrite = r
	} else {
		qi.Rewrite = BuildRewrite(qi)
	}
	return qi, nil
}

// buildInterpretPrompt asks for the fixed interpretation schema plus 1-3
// alternative search phrasings that broaden recall.
func buildInterpretPrompt(query string) string {
	return fmt.Sprintf(`Analyze this user query for assessment products: %q

Extract structured data AND generate up to 3 optimized search queries:
1. The exact technical requirement.
2. A broader role-based query.
3. A behavioral/competency query.

Respond with JSON only, using exactly these keys:
{
  "skills": [string] or null,
  "soft_skills": [string] or null,
  "seniority": one of "entry", "mid", "senior", "any", or null,
  "duration_minutes": integer or null,
  "languages": [string] or null,
  "summary": string,
  "search_queries": [string]
}`, query)
}
