package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// Preview sizes for the debugging commands.
const (
	inspectSnippetLength = 200
	embedPreviewValues   = 5
)

var (
	inspectOffset int
	inspectLimit  int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print chunks from the loaded corpus",
	Long: `Prints chunk metadata by index position, for checking that the index and
metadata artifacts line up.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

var embedCmd = &cobra.Command{
	Use:   "embed [text]",
	Short: "Embed a sample text and print the vector shape",
	Long:  `Embeds the given text (or a fixed sample) with the configured model to check the embedding backend.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEmbed,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectOffset, "offset", 0, "first chunk position")
	inspectCmd.Flags().IntVarP(&inspectLimit, "limit", "n", 5, "number of chunks to print")
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(embedCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	if corpusInspector == nil {
		return notConfigured("corpus")
	}
	if inspectOffset < 0 || inspectLimit < 1 {
		return fmt.Errorf("%w: --offset must be >= 0 and --limit >= 1", domain.ErrInvalidInput)
	}

	chunks := corpusInspector.Chunks(inspectOffset, inspectLimit)
	if len(chunks) == 0 {
		cmd.Printf("No chunks at position %d.\n", inspectOffset)
		return nil
	}

	for i := range chunks {
		c := &chunks[i]
		cmd.Printf("[%d] %s\n", inspectOffset+i, c.ID)
		cmd.Printf("    Document: %s\n", citation(c.DocName(), c.PageNumber, c.SectionTitle))
		if c.Location != "" {
			cmd.Printf("    Location: %s\n", c.Location)
		}
		if len(c.Extra) > 0 {
			keys := make([]string, 0, len(c.Extra))
			for k := range c.Extra {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			cmd.Printf("    Extra:    %s\n", strings.Join(keys, ", "))
		}
		cmd.Printf("    %s\n", domain.Snippet(strings.Join(strings.Fields(c.Text), " "), inspectSnippetLength))
		cmd.Println()
	}
	return nil
}

func runEmbed(cmd *cobra.Command, args []string) error {
	if corpusInspector == nil {
		return notConfigured("embedding")
	}

	text := "This is a test sentence for embedding."
	if len(args) == 1 {
		text = args[0]
	}

	vec, err := corpusInspector.Embed(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	n := min(len(vec), embedPreviewValues)
	values := make([]string, n)
	for i := range n {
		values[i] = fmt.Sprintf("%.4f", vec[i])
	}

	cmd.Printf("Model:     %s\n", corpusInspector.EmbeddingModel())
	cmd.Printf("Dimension: %d\n", len(vec))
	cmd.Printf("First %d:   [%s]\n", n, strings.Join(values, ", "))
	return nil
}
