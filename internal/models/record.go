// Package models defines core data structures for catalog records, queries, and results.
package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// recordNamespace is the UUIDv5 namespace for deriving stable record IDs.
// Derived IDs survive re-scrapes because they are a pure function of the
// record's URL (or name+description when the URL is absent).
var recordNamespace = uuid.MustParse("7b9e4d52-3c1a-4f7e-9d2b-8a6c5e0f1a3d")

// StringList normalizes metadata fields that appear in several JSON shapes:
// a list of strings, a list of objects with a "name" key, a bare string, or absent.
// Scoring code only ever sees the normalized []string form.
type StringList []string

// UnmarshalJSON accepts null, a string, or a heterogeneous array of
// strings and {"name": ...} objects.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*s = nil
	case string:
		if t == "" {
			*s = nil
		} else {
			*s = StringList{t}
		}
	case []interface{}:
		out := make(StringList, 0, len(t))
		for _, item := range t {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]interface{}:
				if name, ok := it["name"].(string); ok {
					out = append(out, name)
				}
			default:
				out = append(out, fmt.Sprintf("%v", it))
			}
		}
		*s = out
	default:
		*s = StringList{fmt.Sprintf("%v", t)}
	}
	return nil
}

// Join returns the elements joined by sep.
func (s StringList) Join(sep string) string {
	return strings.Join(s, sep)
}

// OptionalBool is a tri-state flag: true, false, or unknown (nil).
// Accepts JSON booleans and yes/no/true/false strings; absence is unknown,
// never false.
type OptionalBool struct {
	Value *bool
}

// UnmarshalJSON accepts null, a boolean, or a yes/no string.
func (b *OptionalBool) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		b.Value = nil
	case bool:
		val := t
		b.Value = &val
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "true", "y":
			val := true
			b.Value = &val
		case "no", "false", "n":
			val := false
			b.Value = &val
		default:
			b.Value = nil
		}
	default:
		b.Value = nil
	}
	return nil
}

// MarshalJSON emits null for unknown, otherwise the boolean.
func (b OptionalBool) MarshalJSON() ([]byte, error) {
	if b.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*b.Value)
}

// CatalogRecord is one assessable product. Records are created by the offline
// ingestion job and are immutable at runtime. Duration bounds of nil mean
// "unknown", never zero.
type CatalogRecord struct {
	ID              string       `json:"id,omitempty"`
	Name            string       `json:"name"`
	URL             string       `json:"url,omitempty"`
	Description     string       `json:"description,omitempty"`
	DurationMin     *int         `json:"duration_min,omitempty"`
	DurationMax     *int         `json:"duration_max,omitempty"`
	JobLevels       StringList   `json:"job_levels,omitempty"`
	Languages       StringList   `json:"languages,omitempty"`
	TestTypeCodes   StringList   `json:"test_type_codes,omitempty"`
	TestTypes       StringList   `json:"test_types,omitempty"`
	Tags            StringList   `json:"tags,omitempty"`
	RemoteSupport   OptionalBool `json:"remote_support,omitempty"`
	AdaptiveSupport OptionalBool `json:"adaptive_support,omitempty"`
	EmbedText       string       `json:"embed_text,omitempty"`
}

// DeriveID returns a deterministic identifier for the record: a UUIDv5 of the
// URL when present, otherwise of the (name, description) pair.
func (r *CatalogRecord) DeriveID() string {
	key := r.URL
	if key == "" {
		key = r.Name + "\n" + r.Description
	}
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

// DedupKey returns the identity key used for catalog deduplication:
// the URL when present, otherwise the (name, description) pair.
func (r *CatalogRecord) DedupKey() string {
	if r.URL != "" {
		return "url:" + r.URL
	}
	return "nd:" + r.Name + "\n" + r.Description
}

// LexicalText returns the text the lexical model is fit over:
// name + description + tags + test-type names.
func (r *CatalogRecord) LexicalText() string {
	parts := make([]string, 0, 4)
	if r.Name != "" {
		parts = append(parts, r.Name)
	}
	if r.Description != "" {
		parts = append(parts, r.Description)
	}
	if len(r.Tags) > 0 {
		parts = append(parts, r.Tags.Join(" "))
	}
	if len(r.TestTypes) > 0 {
		parts = append(parts, r.TestTypes.Join(" "))
	}
	return strings.Join(parts, " ")
}

// BuildEmbedText derives the text used to produce the record's dense vector.
// Existing embed text is kept as-is so vectors stay aligned with what the
// offline job actually embedded.
func (r *CatalogRecord) BuildEmbedText() string {
	if r.EmbedText != "" {
		return r.EmbedText
	}
	parts := make([]string, 0, 7)
	if r.Name != "" {
		parts = append(parts, r.Name)
	}
	if r.Description != "" {
		parts = append(parts, r.Description)
	}
	if len(r.JobLevels) > 0 {
		parts = append(parts, "Job levels: "+r.JobLevels.Join(", "))
	}
	if len(r.Languages) > 0 {
		parts = append(parts, "Languages: "+r.Languages.Join(" "))
	}
	if len(r.TestTypes) > 0 {
		parts = append(parts, "Test types: "+r.TestTypes.Join(" "))
	}
	if len(r.Tags) > 0 {
		parts = append(parts, "Tags: "+r.Tags.Join(" "))
	}
	if r.DurationMin != nil {
		parts = append(parts, fmt.Sprintf("duration_min %d", *r.DurationMin))
	}
	return strings.Join(parts, " \n ")
}
