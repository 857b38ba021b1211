package cli

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// MockRetrievalService records the last retrieve call.
type MockRetrievalService struct {
	RetrieveFunc func(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.RetrievalResult, error)
	StatsValue   domain.IndexStats

	LastQuery string
	LastOpts  domain.RetrieveOptions
}

func (m *MockRetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) ([]domain.RetrievalResult, error) {
	m.LastQuery = query
	m.LastOpts = opts
	if m.RetrieveFunc != nil {
		return m.RetrieveFunc(ctx, query, opts)
	}
	return testResults(), nil
}

func (m *MockRetrievalService) Stats() domain.IndexStats {
	return m.StatsValue
}

// MockAnswerService records the last answer call.
type MockAnswerService struct {
	GenerateAnswerFunc func(ctx context.Context, query string, opts domain.AnswerOptions) (*domain.AnswerPackage, error)
	Report             domain.PipelineReport

	LastQuery string
	LastOpts  domain.AnswerOptions
}

func (m *MockAnswerService) GenerateAnswer(
	ctx context.Context, query string, opts domain.AnswerOptions,
) (*domain.AnswerPackage, error) {
	m.LastQuery = query
	m.LastOpts = opts
	if m.GenerateAnswerFunc != nil {
		return m.GenerateAnswerFunc(ctx, query, opts)
	}
	return testAnswer(query), nil
}

func (m *MockAnswerService) TestPipeline(_ context.Context) domain.PipelineReport {
	return m.Report
}

// MockCorpusInspector serves a fixed chunk list.
type MockCorpusInspector struct {
	ChunkList []domain.Chunk
	Vector    []float32
	EmbedErr  error
	Model     string

	LastText string
}

func (m *MockCorpusInspector) Chunks(offset, limit int) []domain.Chunk {
	if offset >= len(m.ChunkList) {
		return nil
	}
	end := min(offset+limit, len(m.ChunkList))
	return m.ChunkList[offset:end]
}

func (m *MockCorpusInspector) Embed(_ context.Context, text string) ([]float32, error) {
	m.LastText = text
	if m.EmbedErr != nil {
		return nil, m.EmbedErr
	}
	return m.Vector, nil
}

func (m *MockCorpusInspector) EmbeddingModel() string {
	return m.Model
}

// MockSettingsService keeps settings in memory and records setter calls.
type MockSettingsService struct {
	Settings    domain.AppSettings
	ValidateErr error
	PingErr     error

	AzureEndpoint   string
	AzureAPIVersion string
}

func newMockSettingsService() *MockSettingsService {
	return &MockSettingsService{Settings: domain.DefaultAppSettings()}
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.Settings
	return &s, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.Settings = *settings
	return nil
}

func (m *MockSettingsService) SetCorpus(indexPath, metadataPath string) error {
	if indexPath == "" || metadataPath == "" {
		return domain.ErrInvalidInput
	}
	m.Settings.Corpus.IndexPath = indexPath
	m.Settings.Corpus.MetadataPath = metadataPath
	return nil
}

func (m *MockSettingsService) SetRetrievalDefaults(topK int, threshold float64) error {
	if topK <= 0 || threshold < 0 || threshold > 1 {
		return domain.ErrInvalidInput
	}
	m.Settings.Retrieval.TopK = topK
	m.Settings.Retrieval.Threshold = threshold
	return nil
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.Settings.Embedding.Provider = provider
	m.Settings.Embedding.Model = model
	m.Settings.Embedding.APIKey = apiKey
	return nil
}

func (m *MockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.Settings.LLM.Provider = provider
	m.Settings.LLM.Model = model
	m.Settings.LLM.APIKey = apiKey
	return nil
}

func (m *MockSettingsService) SetAzureEndpoint(endpoint, apiVersion string) error {
	m.AzureEndpoint = endpoint
	m.AzureAPIVersion = apiVersion
	return nil
}

func (m *MockSettingsService) Validate() error { return m.ValidateErr }
func (m *MockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *MockSettingsService) ValidateEmbeddingConfig() error { return m.PingErr }
func (m *MockSettingsService) ValidateLLMConfig() error { return m.PingErr }

var (
	_ driving.RetrievalService = (*MockRetrievalService)(nil)
	_ driving.AnswerService    = (*MockAnswerService)(nil)
	_ driving.CorpusInspector  = (*MockCorpusInspector)(nil)
	_ driving.SettingsService  = (*MockSettingsService)(nil)
)

func testResults() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		{
			ChunkID:    "c0",
			Text:       "Employees accrue 20 days of paid leave per year.",
			Score:      0.91,
			DocName:    "handbook.pdf",
			PageNumber: domain.IntPtr(4),
			Position:   0,
		},
		{
			ChunkID:      "c7",
			Text:         "Leave requests go through the HR portal.",
			Score:        0.72,
			DocName:      "policy.md",
			SectionTitle: "Leave",
			Location:     "policy.md#leave",
			Position:     7,
		},
	}
}

func testAnswer(query string) *domain.AnswerPackage {
	return &domain.AnswerPackage{
		ID:     "a1",
		Query:  query,
		Answer: "You get 20 days of paid leave [1].",
		References: []domain.Reference{
			{DocName: "handbook.pdf", ChunkID: "c0", PageNumber: domain.IntPtr(4)},
			{DocName: "policy.md", ChunkID: "c7", SectionTitle: "Leave"},
		},
		RetrievedCount: 2,
		Outcome:        domain.OutcomeAnswered,
	}
}

// testServices bundles the mocks installed by setupTestServices.
type testServices struct {
	Retrieval *MockRetrievalService
	Answer    *MockAnswerService
	Inspector *MockCorpusInspector
	Settings  *MockSettingsService
}

// setupTestServices installs fresh mocks and returns them with a cleanup
// that restores the previous services and resets command state.
func setupTestServices() (*testServices, func()) {
	oldRetrieval, oldAnswer, oldInspector := retrievalService, answerService, corpusInspector
	oldSettings, oldCorpusErr, oldServer := settingsService, corpusErr, serverSettings
	oldWatch := watchCorpus

	ts := &testServices{
		Retrieval: &MockRetrievalService{
			StatsValue: domain.IndexStats{TotalChunks: 12, EmbeddingDimension: 384, MetadataCount: 12, UniqueDocuments: 2},
		},
		Answer: &MockAnswerService{
			Report: domain.PipelineReport{Status: domain.PipelineSuccess, Message: "Pipeline working correctly"},
		},
		Inspector: &MockCorpusInspector{Model: "all-minilm"},
		Settings:  newMockSettingsService(),
	}
	SetServices(Services{
		Retrieval: ts.Retrieval,
		Answer:    ts.Answer,
		Inspector: ts.Inspector,
		Settings:  ts.Settings,
	})

	return ts, func() {
		retrievalService, answerService, corpusInspector = oldRetrieval, oldAnswer, oldInspector
		settingsService, corpusErr, serverSettings = oldSettings, oldCorpusErr, oldServer
		watchCorpus = oldWatch
		resetCommandState()
	}
}

// resetCommandState clears flag values and IO left on the commands by a
// previous Execute.
func resetCommandState() {
	rootCmd.SetArgs(nil)
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetIn(nil)
	resetFlags(rootCmd)
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
