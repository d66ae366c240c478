package models

import (
	"fmt"
	"strings"
)

// Seniority levels recognized by the query interpreter.
const (
	SeniorityEntry  = "entry"
	SeniorityMid    = "mid"
	SenioritySenior = "senior"
	SeniorityAny    = "any"
)

// ValidSeniority reports whether s is one of the recognized seniority levels.
func ValidSeniority(s string) bool {
	switch s {
	case SeniorityEntry, SeniorityMid, SenioritySenior, SeniorityAny:
		return true
	}
	return false
}

// QueryInterpretation is the structured form of a raw query: extracted
// constraints plus a single rewritten search string. Created per request,
// never persisted.
type QueryInterpretation struct {
	Query           string     `json:"query"`
	Skills          StringList `json:"skills,omitempty"`
	SoftSkills      StringList `json:"soft_skills,omitempty"`
	Seniority       string     `json:"seniority,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Languages       StringList `json:"languages,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	SearchQueries   []string   `json:"search_queries,omitempty"`
	Rewrite         string     `json:"rewrite"`
}

// RecommendRequest is the pipeline entry point payload.
type RecommendRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate ensures the request has a non-empty query and clamps TopK
// into [1,50], defaulting to 10 when unset.
func (r *RecommendRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if r.TopK <= 0 {
		r.TopK = 10
	}
	if r.TopK > 50 {
		r.TopK = 50
	}
	return nil
}
