package domain

// UnknownDocument is the document name used when a chunk has no source.
const UnknownDocument = "unknown"

// Chunk is an immutable unit of indexed text.
// Chunks are produced by an external ingestion process and are never
// mutated by docrag.
type Chunk struct {
	// ID is the stable identifier, unique within the corpus.
	ID string `json:"id"`

	// Text is the raw chunk content.
	Text string `json:"text"`

	// SourceDocument is the name of the document the chunk came from.
	SourceDocument string `json:"source,omitempty"`

	// PageNumber is the page the chunk starts on, if known.
	PageNumber *int `json:"page,omitempty"`

	// SectionTitle is the enclosing section heading, if known.
	SectionTitle string `json:"section,omitempty"`

	// Location is a free-form positional hint (e.g. "paragraph 3").
	Location string `json:"location,omitempty"`

	// Extra holds any additional metadata fields from the artifact. A source,
	// section or location stored as an empty string is kept here as "" so it
	// stays distinct from an absent field.
	Extra map[string]any `json:"-"`
}

// DocName returns the source document, or UnknownDocument when unset.
func (c *Chunk) DocName() string {
	if c.SourceDocument == "" {
		return UnknownDocument
	}
	return c.SourceDocument
}

// Field looks up a metadata field by its artifact key.
// Extra fields take precedence so that corpora carrying their own
// "doc_name" or similar keys filter on what they stored. The result-facing
// names doc_name, page_number and section_title are accepted as aliases of
// source, page and section. Absent or nil fields report false.
func (c *Chunk) Field(name string) (any, bool) {
	if v, ok := c.Extra[name]; ok {
		return v, v != nil
	}

	switch name {
	case "id", "chunk_id":
		return c.ID, true
	case "text":
		return c.Text, true
	case "source", "doc_name":
		return c.SourceDocument, c.SourceDocument != ""
	case "page", "page_number":
		if c.PageNumber == nil {
			return nil, false
		}
		return *c.PageNumber, true
	case "section", "section_title":
		return c.SectionTitle, c.SectionTitle != ""
	case "location":
		return c.Location, c.Location != ""
	default:
		return nil, false
	}
}

// IntPtr returns a pointer to n. Convenient for optional page numbers.
func IntPtr(n int) *int {
	return &n
}
