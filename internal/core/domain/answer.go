package domain

// InsufficientInformationAnswer is returned when retrieval finds nothing.
const InsufficientInformationAnswer = "I don't have sufficient information in the indexed documents to answer this question."

// SnippetLength is the number of characters kept in a retrieved chunk snippet.
const SnippetLength = 100

// SnippetCount is the number of top results summarised in an answer.
const SnippetCount = 3

// Outcome distinguishes an empty-but-successful answer from a grounded one.
// Failures are reported as errors, never as an outcome.
type Outcome string

const (
	// OutcomeNoResults means nothing relevant was retrieved and the
	// canned fallback answer was returned.
	OutcomeNoResults Outcome = "no_results"

	// OutcomeAnswered means the backend produced an answer from retrieved context.
	OutcomeAnswered Outcome = "answered"
)

// AnswerOptions configures answer generation.
type AnswerOptions struct {
	// Retrieve is forwarded unchanged to the retriever.
	Retrieve RetrieveOptions

	// MaxTokens bounds the generated answer. Values <= 0 use the default.
	MaxTokens int

	// Temperature controls sampling. Nil uses the default.
	Temperature *float64
}

// Reference is a deduplicated citation of a document location.
type Reference struct {
	DocName      string `json:"doc_name"`
	ChunkID      string `json:"chunk_id"`
	PageNumber   *int   `json:"page_number,omitempty"`
	SectionTitle string `json:"section_title,omitempty"`
	Location     string `json:"location,omitempty"`
}

// ChunkSnippet is a short preview of a retrieved chunk.
type ChunkSnippet struct {
	ChunkID     string  `json:"chunk_id"`
	Score       float64 `json:"score"`
	TextSnippet string  `json:"text_snippet"`
}

// AnswerPackage is a grounded answer with its sources.
type AnswerPackage struct {
	ID              string         `json:"id"`
	Query           string         `json:"query"`
	Answer          string         `json:"answer"`
	References      []Reference    `json:"references"`
	RetrievedCount  int            `json:"retrieved_count"`
	RetrievedChunks []ChunkSnippet `json:"retrieved_chunks,omitempty"`
	Outcome         Outcome        `json:"outcome"`
}

// HasResults reports whether the answer is grounded in retrieved chunks.
func (a *AnswerPackage) HasResults() bool {
	return a.Outcome == OutcomeAnswered
}

// referenceKey identifies a document location.
type referenceKey struct {
	doc     string
	page    int
	hasPage bool
	section string
}

// BuildReferences returns one Reference per unique (document, page, section)
// in rank order. Later results from an already-cited location are dropped.
func BuildReferences(results []RetrievalResult) []Reference {
	refs := make([]Reference, 0, len(results))
	seen := make(map[referenceKey]struct{}, len(results))

	for i := range results {
		r := &results[i]
		key := referenceKey{doc: r.DocName, section: r.SectionTitle}
		if r.PageNumber != nil {
			key.page = *r.PageNumber
			key.hasPage = true
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		refs = append(refs, Reference{
			DocName:      r.DocName,
			ChunkID:      r.ChunkID,
			PageNumber:   r.PageNumber,
			SectionTitle: r.SectionTitle,
			Location:     r.Location,
		})
	}
	return refs
}

// BuildSnippets summarises the top results as short previews.
func BuildSnippets(results []RetrievalResult) []ChunkSnippet {
	n := min(len(results), SnippetCount)
	snippets := make([]ChunkSnippet, 0, n)
	for _, r := range results[:n] {
		snippets = append(snippets, ChunkSnippet{
			ChunkID:     r.ChunkID,
			Score:       r.Score,
			TextSnippet: Snippet(r.Text, SnippetLength),
		})
	}
	return snippets
}

// Snippet truncates text to n runes, appending "..." when truncated.
func Snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// Built-in answer prompts. DefaultAnswerUserPrompt takes the context and
// the question as two %s verbs.
const (
	DefaultAnswerSystemPrompt = `You are a helpful assistant that answers questions based on provided context.

IMPORTANT RULES:
1. Answer ONLY using the provided context
2. If the answer is not in the context, say "I don't have sufficient information to answer this question"
3. Be concise and clear
4. Cite specific sections when possible`

	DefaultAnswerUserPrompt = `Context:
%s

Question: %s

Please provide a clear, concise answer based only on the context provided.`
)
