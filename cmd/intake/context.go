package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"intake/internal/blobstore"
	"intake/internal/config"
	"intake/internal/docstore"
	"intake/internal/fetch"
	"intake/internal/ingest"
	"intake/internal/logging"
	"intake/internal/sweep"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runtime bundles the collaborators a one-shot command needs.
type runtime struct {
	cfg     *config.Config
	store   *docstore.Store
	blobs   blobstore.Client
	orch    *ingest.Orchestrator
	sweeper *sweep.Sweeper
	logger  *slog.Logger
}

// withRuntime opens the store and blob client, runs fn, and closes both.
func (c *commandContext) withRuntime(cmd *cobra.Command, fn func(*runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:            "warn",
		Format:           "text",
		ErrorOutputPaths: []string{"stderr"},
		OutputPaths:      []string{"stderr"},
	})
	if err != nil {
		logger = logging.NewNop()
	}

	store, err := docstore.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	blobs, err := blobstore.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer blobs.Close()

	fetcher := fetch.NewFetcher(fetch.Options{
		MaxBytes: cfg.Fetch.MaxBytes,
		Timeout:  cfg.FetchTimeout(),
	})
	orch := ingest.NewOrchestrator(store, blobs, fetcher, cfg, logger)
	sweeper := sweep.NewSweeper(store, orch, cfg, logger)

	return fn(&runtime{
		cfg:     cfg,
		store:   store,
		blobs:   blobs,
		orch:    orch,
		sweeper: sweeper,
		logger:  logger,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
