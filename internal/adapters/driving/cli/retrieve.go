package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var (
	retrieveTopK      int
	retrieveThreshold float64
	retrieveFilters   []string
	retrieveJSON      bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Find the chunks most relevant to a query",
	Long: `Embeds the query and returns the most similar chunks from the index.

Results below the similarity threshold are dropped. Filters restrict results
by metadata: string values match case-insensitively as substrings, numbers
and booleans must be equal.

Examples:
  docrag retrieve "vacation policy"
  docrag retrieve -k 3 --threshold 0.3 "vacation policy"
  docrag retrieve --filter source=handbook --filter page=4 "vacation"`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "maximum number of results (0 = configured default)")
	retrieveCmd.Flags().Float64Var(&retrieveThreshold, "threshold", 0, "minimum similarity score (default: configured threshold)")
	retrieveCmd.Flags().StringArrayVar(&retrieveFilters, "filter", nil, "metadata filter as key=value (repeatable)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return notConfigured("retrieval")
	}

	opts, err := retrieveOptionsFromFlags(cmd)
	if err != nil {
		return err
	}

	results, err := retrievalService.Retrieve(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		return printJSON(cmd, results)
	}
	printResults(cmd, results)
	return nil
}

// retrieveOptionsFromFlags builds options from the retrieve flags. The
// threshold is only set when the flag was given, so 0 disables filtering
// rather than meaning "use the default".
func retrieveOptionsFromFlags(cmd *cobra.Command) (domain.RetrieveOptions, error) {
	opts := domain.RetrieveOptions{TopK: retrieveTopK}
	if retrieveTopK < 0 {
		return opts, fmt.Errorf("%w: --top-k must not be negative", domain.ErrInvalidInput)
	}
	if cmd.Flags().Changed("threshold") {
		t := retrieveThreshold
		opts.Threshold = &t
	}

	filters, err := parseFilters(retrieveFilters)
	if err != nil {
		return opts, err
	}
	opts.Filters = filters
	return opts, nil
}

// parseFilters turns key=value pairs into a filter map. Values that parse
// as integers, floats or booleans are typed, everything else is a string.
func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	filters := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: filter %q must be key=value", domain.ErrInvalidInput, pair)
		}
		filters[key] = parseFilterValue(strings.TrimSpace(value))
	}
	return filters, nil
}

func parseFilterValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func printResults(cmd *cobra.Command, results []domain.RetrievalResult) {
	if len(results) == 0 {
		cmd.Println("No relevant chunks found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, citation(r.DocName, r.PageNumber, r.SectionTitle), r.Score)
		if r.Location != "" {
			cmd.Printf("      Location: %s\n", r.Location)
		}
		cmd.Printf("      %s\n", domain.Snippet(strings.Join(strings.Fields(r.Text), " "), 200))
		cmd.Println()
	}
}

// citation formats "doc, p.N, section" leaving out absent parts.
func citation(doc string, page *int, section string) string {
	parts := []string{doc}
	if page != nil {
		parts = append(parts, fmt.Sprintf("p.%d", *page))
	}
	if section != "" {
		parts = append(parts, section)
	}
	return strings.Join(parts, ", ")
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
