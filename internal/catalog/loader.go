// Package catalog loads the assessment catalog and builds the immutable
// in-memory index used by retrieval.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/hyperjump/osusume/internal/models"
)

// ErrIntegrity marks data-integrity failures: malformed records or
// index/vector misalignment. These are fatal at load time; the process must
// abort startup rather than serve partial results.
var ErrIntegrity = errors.New("catalog integrity")

// LoadRecords reads the catalog JSON at path, validates each record, derives
// missing IDs, deduplicates, and fills in missing embed text. Record order is
// preserved (first occurrence wins on duplicates); that order is the
// tie-break order for equal retrieval scores.
func LoadRecords(path string) ([]*models.CatalogRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var records []*models.CatalogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: catalog %s is empty", ErrIntegrity, path)
	}

	seen := make(map[string]bool, len(records))
	seenURL := make(map[string]bool, len(records))
	out := make([]*models.CatalogRecord, 0, len(records))
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("%w: record %d is null", ErrIntegrity, i)
		}
		if rec.Name == "" && rec.URL == "" {
			return nil, fmt.Errorf("%w: record %d has neither name nor url", ErrIntegrity, i)
		}
		if rec.URL != "" {
			if seenURL[rec.URL] {
				continue
			}
			seenURL[rec.URL] = true
		}
		key := rec.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		if rec.ID == "" {
			rec.ID = rec.DeriveID()
		}
		if rec.EmbedText == "" {
			rec.EmbedText = rec.BuildEmbedText()
		}
		out = append(out, rec)
	}
	return out, nil
}
