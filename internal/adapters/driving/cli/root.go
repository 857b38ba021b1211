// Package cli provides the docrag command line interface.
// It is a driving adapter: commands call core services through the
// driving ports set with SetServices.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// version is set by the entrypoint through SetVersion.
var version = "dev"

var verbose bool

// Services wired in by the entrypoint. Retrieval, Answer and Inspector are
// nil when the corpus could not be loaded; CorpusErr then says why.
var (
	retrievalService driving.RetrievalService
	answerService    driving.AnswerService
	corpusInspector  driving.CorpusInspector
	settingsService  driving.SettingsService
	corpusErr        error
	serverSettings   domain.ServerSettings
	watchCorpus      func(ctx context.Context) error
)

// Services aggregates the driving ports used by the commands.
type Services struct {
	Retrieval driving.RetrievalService
	Answer    driving.AnswerService
	Inspector driving.CorpusInspector
	Settings  driving.SettingsService

	// CorpusErr is the reason corpus services are unavailable, if any.
	CorpusErr error

	// Server is the effective listen address after environment overrides.
	// A zero value falls back to the stored settings.
	Server domain.ServerSettings

	// WatchCorpus reloads the corpus when its artifacts change, until ctx
	// is cancelled. Optional.
	WatchCorpus func(ctx context.Context) error
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	retrievalService = s.Retrieval
	answerService = s.Answer
	corpusInspector = s.Inspector
	settingsService = s.Settings
	corpusErr = s.CorpusErr
	serverSettings = s.Server
	watchCorpus = s.WatchCorpus
}

// SetVersion sets the version reported by `docrag version` and the HTTP API.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Grounded answers from a pre-built document index",
	Long: `docrag answers questions against a fixed corpus of document chunks.

It embeds the question, finds the most similar chunks in the vector index,
and asks an LLM to answer using only that text, citing its sources.

Configure providers with 'docrag settings', then try:
  docrag ask "What is the refund policy?"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var errNotConfigured = errors.New("not configured")

// notConfigured reports a missing service, with the load failure if known.
func notConfigured(what string) error {
	if corpusErr != nil {
		return fmt.Errorf("%s %w: %w", what, errNotConfigured, corpusErr)
	}
	return fmt.Errorf("%s %w", what, errNotConfigured)
}
