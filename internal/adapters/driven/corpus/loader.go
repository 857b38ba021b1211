// Package corpus loads the pre-built vector index and its chunk metadata.
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/docrag/internal/adapters/driven/index/flat"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Corpus is a loaded index with position-aligned metadata.
type Corpus struct {
	Index    *flat.Index
	Metadata driven.MetadataStore
}

// Close releases the metadata store.
func (c *Corpus) Close() error {
	if c.Metadata == nil {
		return nil
	}
	return c.Metadata.Close()
}

// Load reads the index and metadata artifacts. Missing files yield
// domain.ErrNotFound; unreadable or misaligned artifacts yield
// domain.ErrCorruptData.
func Load(indexPath, metadataPath string) (*Corpus, error) {
	logger.Debug("Loading index from %s", indexPath)
	index, err := flat.Load(indexPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Index loaded with %d vectors of %d dimensions", index.Len(), index.Dimensions())

	logger.Debug("Loading metadata from %s", metadataPath)
	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Metadata loaded for %d chunks", metadata.Len())

	if index.Len() != metadata.Len() {
		if err := metadata.Close(); err != nil {
			logger.Warn("Closing metadata: %v", err)
		}
		return nil, fmt.Errorf("%w: index has %d vectors but metadata has %d records",
			domain.ErrCorruptData, index.Len(), metadata.Len())
	}

	return &Corpus{Index: index, Metadata: metadata}, nil
}

// LoadMetadata reads a metadata artifact into memory. Files ending in .db,
// .sqlite or .sqlite3 are read as SQLite; anything else as a JSON array.
// The artifact is never written.
func LoadMetadata(path string) (driven.MetadataStore, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: metadata %s", domain.ErrNotFound, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		chunks, err := readSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("load metadata %s: %w", path, err)
		}
		return memory.NewMetadataStore(chunks), nil
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open metadata %s: %w", path, err)
		}
		defer f.Close()

		chunks, err := ParseJSON(f)
		if err != nil {
			return nil, fmt.Errorf("load metadata %s: %w", path, err)
		}
		return memory.NewMetadataStore(chunks), nil
	}
}

func readSQLite(path string) ([]domain.Chunk, error) {
	store, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, corrupt(err)
	}
	defer store.Close()

	chunks, err := store.Chunks(context.Background())
	if err != nil {
		return nil, corrupt(err)
	}
	return chunks, nil
}

// corrupt marks err as domain.ErrCorruptData unless it already is.
func corrupt(err error) error {
	if errors.Is(err, domain.ErrCorruptData) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrCorruptData, err)
}

// ParseJSON decodes a JSON array of chunk records. Records without an id
// are named "chunk-<position>". Keys other than the well-known ones are kept
// in Chunk.Extra.
func ParseJSON(r io.Reader) ([]domain.Chunk, error) {
	var records []map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode metadata: %w", domain.ErrCorruptData, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: metadata is null, want an array", domain.ErrCorruptData)
	}

	chunks := make([]domain.Chunk, len(records))
	for i, rec := range records {
		chunks[i] = recordToChunk(i, rec)
	}
	return chunks, nil
}

// WriteJSON encodes chunks in the format read by ParseJSON.
func WriteJSON(w io.Writer, chunks []domain.Chunk) error {
	records := make([]map[string]any, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		rec := make(map[string]any, len(c.Extra)+6)
		for k, v := range c.Extra {
			rec[k] = v
		}
		rec["id"] = c.ID
		rec["text"] = c.Text
		if c.SourceDocument != "" {
			rec["source"] = c.SourceDocument
		}
		if c.PageNumber != nil {
			rec["page"] = *c.PageNumber
		}
		if c.SectionTitle != "" {
			rec["section"] = c.SectionTitle
		}
		if c.Location != "" {
			rec["location"] = c.Location
		}
		records[i] = rec
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func recordToChunk(position int, rec map[string]any) domain.Chunk {
	chunk := domain.Chunk{
		ID:             stringField(rec, "id"),
		Text:           stringField(rec, "text"),
		SourceDocument: stringField(rec, "source"),
		SectionTitle:   stringField(rec, "section"),
		Location:       stringField(rec, "location"),
	}
	if chunk.ID == "" {
		chunk.ID = fmt.Sprintf("chunk-%d", position)
	}
	for _, key := range []string{"source", "section", "location"} {
		if v, ok := rec[key].(string); ok && v == "" {
			setExtra(&chunk, key, "")
		}
	}

	if raw, ok := rec["page"]; ok && raw != nil {
		if page, ok := pageNumber(raw); ok {
			chunk.PageNumber = &page
		} else {
			// Non-numeric page labels ("iv", "A-3") stay filterable.
			setExtra(&chunk, "page", raw)
		}
	}

	for k, v := range rec {
		switch k {
		case "id", "text", "source", "section", "location", "page":
			continue
		}
		setExtra(&chunk, k, normalise(v))
	}
	return chunk
}

func setExtra(c *domain.Chunk, key string, value any) {
	if c.Extra == nil {
		c.Extra = make(map[string]any)
	}
	c.Extra[key] = value
}

func stringField(rec map[string]any, key string) string {
	switch v := rec[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func pageNumber(raw any) (int, bool) {
	switch v := raw.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		if f, err := v.Float64(); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// normalise converts json.Number values to int or float64 so filters
// compare them numerically.
func normalise(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = normalise(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalise(t[k])
		}
		return t
	default:
		return v
	}
}
