package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var (
	askMaxTokens   int
	askTemperature float64
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieves the most relevant chunks and asks the configured LLM to answer
using only that context. The answer lists the documents it was drawn from.

When nothing relevant is found, docrag says so instead of guessing.

Retrieval flags (--top-k, --threshold, --filter) work as for 'docrag retrieve'.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "number of chunks to use as context (0 = configured default)")
	askCmd.Flags().Float64Var(&retrieveThreshold, "threshold", 0, "minimum similarity score (default: configured threshold)")
	askCmd.Flags().StringArrayVar(&retrieveFilters, "filter", nil, "metadata filter as key=value (repeatable)")
	askCmd.Flags().IntVar(&askMaxTokens, "max-tokens", 0, "maximum answer length in tokens (0 = configured default)")
	askCmd.Flags().Float64Var(&askTemperature, "temperature", 0, "sampling temperature (default: configured temperature)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer package as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return notConfigured("answer generation")
	}

	retrieveOpts, err := retrieveOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	opts := domain.AnswerOptions{
		Retrieve:  retrieveOpts,
		MaxTokens: askMaxTokens,
	}
	if cmd.Flags().Changed("temperature") {
		temp := askTemperature
		opts.Temperature = &temp
	}

	pkg, err := answerService.GenerateAnswer(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, pkg)
	}
	printAnswer(cmd, pkg)
	return nil
}

func printAnswer(cmd *cobra.Command, pkg *domain.AnswerPackage) {
	cmd.Println(pkg.Answer)
	if !pkg.HasResults() {
		return
	}

	cmd.Println()
	cmd.Printf("References (%d chunks retrieved):\n", pkg.RetrievedCount)
	for i := range pkg.References {
		ref := &pkg.References[i]
		cmd.Printf("  [%d] %s\n", i+1, citation(ref.DocName, ref.PageNumber, ref.SectionTitle))
	}
}
