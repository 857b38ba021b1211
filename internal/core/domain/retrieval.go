package domain

import (
	"fmt"
	"reflect"
	"strings"
)

// RetrieveOptions configures a retrieval request.
// Zero values fall back to the configured defaults.
type RetrieveOptions struct {
	// TopK caps the number of results. Values <= 0 use the default.
	TopK int

	// Threshold is the minimum similarity score. Nil uses the default;
	// an explicit zero disables thresholding.
	Threshold *float64

	// Filters maps metadata field names to required values.
	// See MatchFilters for the matching rules.
	Filters map[string]any
}

// RetrievalResult is a chunk matched by a query.
// The chunk fields are denormalised for convenient serialisation.
type RetrievalResult struct {
	ChunkID      string  `json:"chunk_id"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	DocName      string  `json:"doc_name"`
	PageNumber   *int    `json:"page_number"`
	SectionTitle string  `json:"section_title,omitempty"`
	Location     string  `json:"location,omitempty"`

	// Position is the chunk's position in the index.
	Position int `json:"-"`

	// Chunk is the matched chunk.
	Chunk Chunk `json:"-"`
}

// NewRetrievalResult builds a result for the chunk at the given index position.
func NewRetrievalResult(position int, score float64, chunk Chunk) RetrievalResult {
	return RetrievalResult{
		ChunkID:      chunk.ID,
		Text:         chunk.Text,
		Score:        score,
		DocName:      chunk.DocName(),
		PageNumber:   chunk.PageNumber,
		SectionTitle: chunk.SectionTitle,
		Location:     chunk.Location,
		Position:     position,
		Chunk:        chunk,
	}
}

// Similarity converts a vector distance into a score in (0, 1].
// A distance of zero scores 1 and the score falls strictly as distance grows.
func Similarity(distance float32) float64 {
	return 1 / (1 + float64(distance))
}

// MatchFilters reports whether a chunk satisfies every filter.
//
// A string filter value matches when it is a case-insensitive substring of
// the stored value's string form. Any other filter value requires equality,
// with all numeric kinds compared as float64. A chunk that lacks the field
// (or stores nil) never matches.
func MatchFilters(chunk *Chunk, filters map[string]any) bool {
	for key, want := range filters {
		got, ok := chunk.Field(key)
		if !ok {
			return false
		}
		if !matchValue(got, want) {
			return false
		}
	}
	return true
}

func matchValue(got, want any) bool {
	if s, ok := want.(string); ok {
		return strings.Contains(strings.ToLower(fmt.Sprint(got)), strings.ToLower(s))
	}
	if w, ok := toFloat(want); ok {
		g, ok := toFloat(got)
		return ok && g == w
	}
	return reflect.DeepEqual(got, want)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// Float64Ptr returns a pointer to f. Convenient for optional thresholds.
func Float64Ptr(f float64) *float64 {
	return &f
}
