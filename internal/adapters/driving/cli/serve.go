package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/http"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

var (
	serveHost  string
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the retrieval and answer API over HTTP",
	Long: `Starts the JSON API:

  GET  /health         service status
  POST /api/retrieve   ranked chunks for a query
  POST /api/rag        grounded answer with references
  GET  /api/stats      index statistics
  GET  /api/test       pipeline self-test

Host and port default to the server settings. With --watch the corpus is
reloaded whenever the index or metadata file is rewritten; requests in
flight finish against the corpus they started with.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default: configured host)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default: configured port)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the corpus when its artifacts change")
	rootCmd.AddCommand(serveCmd)
}

// serveConfig merges flags over configured server settings.
func serveConfig(cmd *cobra.Command) http.Config {
	cfg := http.DefaultConfig()
	cfg.Version = version

	server := serverSettings
	if server == (domain.ServerSettings{}) && settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			server = s.Server
		}
	}
	if server.Host != "" {
		cfg.Host = server.Host
	}
	if server.Port > 0 {
		cfg.Port = server.Port
	}

	if cmd.Flags().Changed("host") {
		cfg.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	return cfg
}

func runServe(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil || answerService == nil {
		return notConfigured("retrieval")
	}

	server := http.NewServer(serveConfig(cmd), retrievalService, answerService)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveWatch {
		if watchCorpus == nil {
			return fmt.Errorf("corpus watching %w", errNotConfigured)
		}
		go func() {
			if err := watchCorpus(ctx); err != nil {
				logger.Warn("Corpus watcher stopped: %v", err)
			}
		}()
	}

	cmd.Printf("docrag API listening on http://%s\n", server.Addr())
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("API server stopped")
	return nil
}
