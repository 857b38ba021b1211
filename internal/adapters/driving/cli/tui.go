package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for docrag.

Ask questions, browse retrieved chunks, check index statistics and switch
providers with keyboard navigation.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Ask / Retrieve / Select
  Esc      - Back / Cancel
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// tuiPorts collects the services the TUI uses. Nil services are left as
// nil interfaces so the views can detect them.
func tuiPorts() *tui.Ports {
	ports := &tui.Ports{}
	if retrievalService != nil {
		ports.Retrieval = retrievalService
	}
	if answerService != nil {
		ports.Answer = answerService
	}
	if settingsService != nil {
		ports.Settings = settingsService
	}
	return ports
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if retrievalService == nil {
		return notConfigured("retrieval")
	}

	app, err := tui.NewApp(tuiPorts())
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
