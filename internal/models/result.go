package models

// ScoredCandidate is one catalog record considered during hybrid scoring,
// with its score breakdown. Created and discarded within one retrieval call.
type ScoredCandidate struct {
	Record       *CatalogRecord `json:"record"`
	VectorScore  float64        `json:"vector_score"`
	LexicalScore float64        `json:"lexical_score"`
	Boost        float64        `json:"boost"`
	Score        float64        `json:"score"`
}

// Candidate is the bounded projection of a ScoredCandidate sent to the
// relevance-scoring service.
type Candidate struct {
	URL         string     `json:"url"`
	Name        string     `json:"name"`
	Desc        string     `json:"desc"`
	DurationMin *int       `json:"duration_min"`
	DurationMax *int       `json:"duration_max"`
	JobLevels   StringList `json:"job_levels"`
	Languages   StringList `json:"languages"`
	TestTypes   StringList `json:"test_types"`
	Tags        StringList `json:"tags"`
}

// RerankedItem is one entry of the relevance scorer's output: identity key,
// a score in [0,1], and a short justification.
type RerankedItem struct {
	URL    string  `json:"url"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// FinalResult is a reranked candidate merged back with its full catalog
// metadata. Its URL always exists in the original candidate set.
type FinalResult struct {
	CatalogRecord
	RelevanceScore  float64 `json:"relevance_score"`
	RelevanceReason string  `json:"relevance_reason"`
}

// RecommendResponse is the response for a recommend request.
type RecommendResponse struct {
	Query          string         `json:"query"`
	RewrittenQuery string         `json:"rewritten_query"`
	Results        []*FinalResult `json:"results"`
	QueryTime      int64          `json:"query_time_ms"`
}
