package main

import (
	"context"
	"fmt"
	"log/slog"

	"intake/internal/api"
	"intake/internal/blobstore"
	"intake/internal/config"
	"intake/internal/daemon"
	"intake/internal/docstore"
	"intake/internal/fetch"
	"intake/internal/ingest"
	"intake/internal/logging"
	"intake/internal/sweep"
)

// buildDaemon assembles the full pipeline behind a daemon. The returned
// cleanup closes the blob client; the daemon itself owns the store.
func buildDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, func(), error) {
	store, err := docstore.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open document store: %w", err)
	}

	blobs, err := blobstore.New(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("open blob store: %w", err)
	}

	fetcher := fetch.NewFetcher(fetch.Options{
		MaxBytes: cfg.Fetch.MaxBytes,
		Timeout:  cfg.FetchTimeout(),
	})
	orch := ingest.NewOrchestrator(store, blobs, fetcher, cfg, logger)
	sweeper := sweep.NewSweeper(store, orch, cfg, logger)
	server := api.NewServer(cfg, store, orch, sweeper, logger)
	scheduler := sweep.NewScheduler(sweeper, cfg.SweepInterval())

	d, err := daemon.New(cfg, store, server, scheduler, logger)
	if err != nil {
		blobs.Close()
		store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := blobs.Close(); err != nil {
			logger.Warn("close blob store", logging.Error(err))
		}
	}
	return d, cleanup, nil
}
