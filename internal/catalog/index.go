package catalog

import (
	"fmt"
	"sync/atomic"

	"github.com/hyperjump/osusume/internal/lexical"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/vector"
)

// Index is the loaded catalog plus its two precomputed representations:
// a dense vector per record and a fitted lexical term-weight model, all
// row-aligned with the record order. An Index is immutable after
// construction and safe for unlimited concurrent reads.
type Index struct {
	records []*models.CatalogRecord
	vectors [][]float32
	dims    int
	lex     *lexical.Model
}

// BuildIndex constructs an index from records and their row-aligned dense
// vectors. Row-count or dimension mismatches are ErrIntegrity failures.
func BuildIndex(records []*models.CatalogRecord, vectors [][]float32, maxFeatures int) (*Index, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrIntegrity)
	}
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("%w: %d records but %d vectors", ErrIntegrity, len(records), len(vectors))
	}
	dims := len(vectors[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: zero-dimension vectors", ErrIntegrity)
	}
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d", ErrIntegrity, i, len(v), dims)
		}
	}

	corpus := make([]string, len(records))
	for i, rec := range records {
		corpus[i] = rec.LexicalText()
	}
	lex, err := lexical.Fit(corpus, maxFeatures)
	if err != nil {
		return nil, fmt.Errorf("fit lexical model: %w", err)
	}

	return &Index{
		records: records,
		vectors: vectors,
		dims:    dims,
		lex:     lex,
	}, nil
}

// Load reads the catalog JSON and vectors file and builds the index.
func Load(recordsPath, vectorsPath string, maxFeatures int) (*Index, error) {
	records, err := LoadRecords(recordsPath)
	if err != nil {
		return nil, err
	}
	vectors, err := vector.ReadMatrix(vectorsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return BuildIndex(records, vectors, maxFeatures)
}

// Len returns the record count.
func (idx *Index) Len() int {
	return len(idx.records)
}

// Record returns record i.
func (idx *Index) Record(i int) *models.CatalogRecord {
	return idx.records[i]
}

// Records returns the record slice. Callers must not mutate it.
func (idx *Index) Records() []*models.CatalogRecord {
	return idx.records
}

// Vector returns the dense vector of record i.
func (idx *Index) Vector(i int) []float32 {
	return idx.vectors[i]
}

// Dimensions returns the dense vector dimension.
func (idx *Index) Dimensions() int {
	return idx.dims
}

// Lexical returns the fitted term-weight model.
func (idx *Index) Lexical() *lexical.Model {
	return idx.lex
}

// Handle is a swappable reference to the current Index. Requests read
// through the handle lock-free; reload builds a fresh Index and swaps it in
// atomically, never mutating the one in flight.
type Handle struct {
	ptr atomic.Pointer[Index]
}

// NewHandle creates a handle serving idx.
func NewHandle(idx *Index) *Handle {
	h := &Handle{}
	h.ptr.Store(idx)
	return h
}

// Current returns the index currently being served.
func (h *Handle) Current() *Index {
	return h.ptr.Load()
}

// Replace atomically swaps in a new index.
func (h *Handle) Replace(idx *Index) {
	h.ptr.Store(idx)
}

// Reloader rebuilds the index from its source files and swaps it into a
// handle. A failed rebuild leaves the handle untouched so the old index
// keeps serving.
type Reloader struct {
	Handle      *Handle
	RecordsPath string
	VectorsPath string
	MaxFeatures int
}

// Reload rebuilds and swaps the index.
func (r *Reloader) Reload() error {
	idx, err := Load(r.RecordsPath, r.VectorsPath, r.MaxFeatures)
	if err != nil {
		return err
	}
	r.Handle.Replace(idx)
	return nil
}
