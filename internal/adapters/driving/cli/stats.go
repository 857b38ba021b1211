package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var statsJSON bool

// errPipelineFailed makes `docrag check` exit non-zero.
var errPipelineFailed = errors.New("pipeline check failed")

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the retrieval and answer pipeline end to end",
	Long: `Pings the LLM backend, then runs a short smoke-test question through
retrieval and answer generation.

Exits non-zero when the pipeline is broken. A warning (nothing relevant
retrieved for the smoke test) still exits zero.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(checkCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return notConfigured("retrieval")
	}

	stats := retrievalService.Stats()
	if statsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Println("Index Statistics")
	cmd.Println("================")
	cmd.Printf("  Chunks:              %d\n", stats.TotalChunks)
	cmd.Printf("  Embedding dimension: %d\n", stats.EmbeddingDimension)
	cmd.Printf("  Metadata entries:    %d\n", stats.MetadataCount)
	cmd.Printf("  Unique documents:    %d\n", stats.UniqueDocuments)
	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if answerService == nil {
		return notConfigured("answer generation")
	}

	report := answerService.TestPipeline(cmd.Context())

	cmd.Printf("Status:  %s\n", report.Status)
	cmd.Printf("Message: %s\n", report.Message)
	if tr := report.TestResult; tr != nil {
		cmd.Printf("Query:   %s\n", tr.Query)
		cmd.Printf("Answer:  %d characters, %d references\n", tr.AnswerLength, tr.ReferencesCount)
	}

	if report.Status == domain.PipelineError {
		return errPipelineFailed
	}
	return nil
}
