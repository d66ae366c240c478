package lexical

import (
	"fmt"
	"math"
	"sort"
)

// sparseVec maps vocabulary column to weight.
type sparseVec map[int]float64

// Model is a TF-IDF document-term model fit once over a fixed corpus.
// After fitting it is immutable and safe for concurrent use. Queries are
// transformed with the fitted vocabulary; out-of-vocabulary terms contribute
// zero weight and the model is never re-fit per query.
type Model struct {
	analyzer *Analyzer
	vocab    map[string]int
	idf      []float64
	rows     []sparseVec // L2-normalized, one per corpus document
}

// Fit builds a model over corpus. When maxFeatures > 0 the vocabulary is
// capped to the maxFeatures terms with the highest corpus frequency (ties
// broken alphabetically for determinism).
func Fit(corpus []string, maxFeatures int) (*Model, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("cannot fit lexical model over empty corpus")
	}
	analyzer, err := NewAnalyzer()
	if err != nil {
		return nil, err
	}

	docTerms := make([]map[string]int, len(corpus))
	totalCounts := make(map[string]int)
	docFreq := make(map[string]int)
	for i, text := range corpus {
		counts := make(map[string]int)
		for _, term := range analyzer.Tokens(text) {
			counts[term]++
		}
		docTerms[i] = counts
		for term, n := range counts {
			totalCounts[term] += n
			docFreq[term]++
		}
	}

	terms := make([]string, 0, len(totalCounts))
	for term := range totalCounts {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if maxFeatures > 0 && len(terms) > maxFeatures {
		sort.SliceStable(terms, func(i, j int) bool {
			return totalCounts[terms[i]] > totalCounts[terms[j]]
		})
		terms = terms[:maxFeatures]
		sort.Strings(terms)
	}

	vocab := make(map[string]int, len(terms))
	for i, term := range terms {
		vocab[term] = i
	}

	// Smoothed IDF: ln((1+n)/(1+df)) + 1, so terms present in every
	// document still carry positive weight.
	n := float64(len(corpus))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	m := &Model{analyzer: analyzer, vocab: vocab, idf: idf}
	m.rows = make([]sparseVec, len(corpus))
	for i, counts := range docTerms {
		m.rows[i] = m.vectorize(counts)
	}
	return m, nil
}

// vectorize converts raw term counts into an L2-normalized tf-idf vector
// over the fitted vocabulary.
func (m *Model) vectorize(counts map[string]int) sparseVec {
	vec := make(sparseVec)
	for term, count := range counts {
		col, ok := m.vocab[term]
		if !ok {
			continue
		}
		vec[col] = float64(count) * m.idf[col]
	}
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if sum > 0 {
		norm := 1.0 / math.Sqrt(sum)
		for col := range vec {
			vec[col] *= norm
		}
	}
	return vec
}

// Transform converts query text into the fitted term-weight space.
func (m *Model) Transform(text string) sparseVec {
	counts := make(map[string]int)
	for _, term := range m.analyzer.Tokens(text) {
		counts[term]++
	}
	return m.vectorize(counts)
}

// Similarity returns the cosine similarity between the query vector and
// corpus row i. Both sides are L2-normalized, so this is a sparse dot
// product, naturally in [0,1] for non-negative weights.
func (m *Model) Similarity(query sparseVec, i int) float64 {
	if i < 0 || i >= len(m.rows) {
		return 0
	}
	row := m.rows[i]
	// Iterate the smaller side.
	a, b := query, row
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for col, w := range a {
		if w2, ok := b[col]; ok {
			dot += w * w2
		}
	}
	return dot
}

// DocCount returns the number of corpus rows.
func (m *Model) DocCount() int {
	return len(m.rows)
}

// VocabSize returns the fitted vocabulary size.
func (m *Model) VocabSize() int {
	return len(m.vocab)
}
