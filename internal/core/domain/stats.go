package domain

// IndexStats describes the loaded corpus.
type IndexStats struct {
	TotalChunks        int `json:"total_chunks"`
	EmbeddingDimension int `json:"embedding_dimension"`
	MetadataCount      int `json:"metadata_count"`
	UniqueDocuments    int `json:"unique_docs"`
}

// PipelineStatus is the result of a pipeline health check.
type PipelineStatus string

const (
	// PipelineSuccess means retrieval and generation both worked.
	PipelineSuccess PipelineStatus = "success"

	// PipelineWarning means the backend is reachable but the smoke query
	// retrieved nothing.
	PipelineWarning PipelineStatus = "warning"

	// PipelineError means the backend is unreachable or a stage failed.
	PipelineError PipelineStatus = "error"
)

// PipelineTestResult summarises the smoke-test answer.
type PipelineTestResult struct {
	Query           string `json:"query"`
	AnswerLength    int    `json:"answer_length"`
	ReferencesCount int    `json:"references_count"`
}

// PipelineReport is the outcome of a pipeline health check.
type PipelineReport struct {
	Status     PipelineStatus      `json:"status"`
	Message    string              `json:"message"`
	TestResult *PipelineTestResult `json:"test_result,omitempty"`
}
