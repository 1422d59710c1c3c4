package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"intake/internal/docstore"
)

// BatchResult reports the outcome of one document within a batch.
type BatchResult struct {
	Index  int
	Record *docstore.Record
	Err    error
}

// IngestBatch drives every request through the pipeline concurrently with
// a bounded worker limit. The batch itself never fails: each document
// reports its own outcome, and results come back in request order.
func (o *Orchestrator) IngestBatch(ctx context.Context, requests []docstore.CreateParams) []BatchResult {
	results := make([]BatchResult, len(requests))

	group, groupCtx := errgroup.WithContext(ctx)
	limit := o.cfg.Ingest.BatchConcurrency
	if limit <= 0 {
		limit = 1
	}
	group.SetLimit(limit)

	for i, params := range requests {
		group.Go(func() error {
			record, err := o.Ingest(groupCtx, params)
			results[i] = BatchResult{Index: i, Record: record, Err: err}
			return nil
		})
	}
	// Workers never return errors; Wait only fences completion.
	_ = group.Wait()
	return results
}
