// Command docrag answers questions from a pre-built document index.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/env"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/adapters/driven/corpus"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/services"
	"github.com/custodia-labs/docrag/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if err := env.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	var configStore driven.ConfigStore
	if store, err := file.NewConfigStore(""); err != nil {
		fmt.Fprintf(os.Stderr, "warning: settings will not persist: %v\n", err)
		configStore = memory.NewConfigStore()
	} else {
		configStore = store
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings := domain.DefaultAppSettings()
	if stored, err := settingsService.Get(); err == nil {
		settings = *stored
	} else {
		fmt.Fprintf(os.Stderr, "warning: using default settings: %v\n", err)
	}
	env.Apply(&settings)

	logger.SetLevel(logger.ParseLevel(settings.Log.Level))
	if settings.Log.Dir != "" {
		if err := logger.OpenFile(settings.Log.Dir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	defer logger.Close()

	svcs := cli.Services{
		Settings: settingsService,
		Server:   settings.Server,
	}

	rt, err := openBackend(&settings)
	if err != nil {
		logger.Debug("Corpus services unavailable: %v", err)
		svcs.CorpusErr = err
	} else {
		defer rt.Close()
		svcs.Retrieval = rt.retriever
		svcs.Answer = rt.answer
		svcs.Inspector = rt.retriever
		svcs.WatchCorpus = func(ctx context.Context) error {
			return corpus.NewWatcher(settings.Corpus.IndexPath, settings.Corpus.MetadataPath, rt.swap).Run(ctx)
		}
	}

	cli.SetServices(svcs)
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

// retireDelay is how long a replaced corpus stays open for requests that
// started before the swap.
const retireDelay = 30 * time.Second

// backend holds the loaded corpus and the services built on it.
type backend struct {
	mu     sync.Mutex
	corpus *corpus.Corpus

	ai        *ai.InitResult
	retriever *services.Retriever
	answer    *services.AnswerService
}

func (r *backend) Close() {
	if r.ai != nil {
		r.ai.Close()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	closeCorpus(r.corpus)
	r.corpus = nil
}

// swap installs a reloaded corpus in the retriever and retires the old one.
func (r *backend) swap(c *corpus.Corpus) error {
	if err := r.retriever.Swap(c.Index, c.Metadata); err != nil {
		return err
	}

	r.mu.Lock()
	old := r.corpus
	r.corpus = c
	r.mu.Unlock()

	time.AfterFunc(retireDelay, func() { closeCorpus(old) })
	return nil
}

func closeCorpus(c *corpus.Corpus) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("Closing metadata: %v", err)
	}
}

// openBackend loads the corpus and connects the AI backends. Connectivity
// is not checked here so that commands which do not need a backend still
// start quickly.
func openBackend(settings *domain.AppSettings) (*backend, error) {
	c, err := corpus.Load(settings.Corpus.IndexPath, settings.Corpus.MetadataPath)
	if err != nil {
		return nil, err
	}
	rt := &backend{corpus: c}

	rt.ai, err = ai.Init(settings, false)
	if err != nil {
		rt.Close()
		return nil, err
	}
	for _, w := range rt.ai.Warnings {
		logger.Debug("AI init: %s", w)
	}

	rt.retriever, err = services.NewRetriever(c.Index, c.Metadata, rt.ai.EmbeddingService, services.RetrieverConfig{
		TopK:      settings.Retrieval.TopK,
		Threshold: settings.Retrieval.Threshold,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.answer = services.NewAnswerService(rt.retriever, rt.ai.LLMService, services.AnswerConfig{
		MaxTokens:   settings.Generation.MaxTokens,
		Temperature: settings.Generation.Temperature,
	})
	if prompts, err := file.NewPromptStore(""); err == nil {
		rt.answer.SetPromptStore(prompts)
	} else {
		logger.Warn("Prompt overrides disabled: %v", err)
	}

	return rt, nil
}
