package sweep

import (
	"context"
	"log/slog"
	"time"

	"intake/internal/config"
	"intake/internal/docstore"
	"intake/internal/ingest"
	"intake/internal/logging"
	"intake/internal/services"
)

// Summary reports what one sweep pass did.
type Summary struct {
	Processed         int   `json:"processed"`
	Succeeded         int   `json:"succeeded"`
	Failed            int   `json:"failed"`
	PermanentlyFailed int   `json:"permanentlyFailed"`
	Reclaimed         int64 `json:"reclaimed"`
}

// Sweeper selects due failed records and re-drives them.
type Sweeper struct {
	store  *docstore.Store
	orch   *ingest.Orchestrator
	cfg    *config.Config
	logger *slog.Logger
}

// NewSweeper wires a sweeper against the store and orchestrator.
func NewSweeper(store *docstore.Store, orch *ingest.Orchestrator, cfg *config.Config, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sweeper{
		store:  store,
		orch:   orch,
		cfg:    cfg,
		logger: logger.With(logging.String(logging.FieldComponent, "sweep")),
	}
}

// Sweep runs one pass: reclaim stalled records, stamp spent ones terminal,
// then re-drive up to limit due records. A limit of zero or less uses the
// configured batch limit.
func (s *Sweeper) Sweep(ctx context.Context, limit int) (Summary, error) {
	if limit <= 0 {
		limit = s.cfg.Sweep.BatchLimit
	}
	summary := Summary{}
	now := time.Now().UTC()

	if timeout := s.cfg.ProcessingTimeout(); timeout > 0 {
		reclaimed, err := s.store.ReclaimStaleProcessing(ctx, now.Add(-timeout))
		if err != nil {
			return summary, services.Wrap(nil, "sweep", "reclaim", "reclaim stale processing", err)
		}
		summary.Reclaimed = reclaimed
		if reclaimed > 0 {
			s.logger.InfoContext(ctx, "stale processing reclaimed", logging.Int64("records", reclaimed))
		}
	}

	stamped, err := s.store.MarkExhausted(ctx)
	if err != nil {
		return summary, services.Wrap(nil, "sweep", "exhaust", "stamp exhausted records", err)
	}
	summary.PermanentlyFailed += int(stamped)

	candidates, err := s.store.RetryCandidates(ctx, time.Now().UTC(), limit)
	if err != nil {
		return summary, services.Wrap(nil, "sweep", "select", "select retry candidates", err)
	}

	pacing := s.cfg.SweepPacing()
	for i, candidate := range candidates {
		if i > 0 && pacing > 0 {
			select {
			case <-time.After(pacing):
			case <-ctx.Done():
				return summary, ctx.Err()
			}
		}
		outcome, err := s.sweepRecord(ctx, candidate.ID)
		if err != nil {
			return summary, err
		}
		summary.Processed++
		switch outcome {
		case outcomeSucceeded:
			summary.Succeeded++
		case outcomeFailed:
			summary.Failed++
		case outcomePermanent:
			summary.PermanentlyFailed++
		}
	}

	s.logger.InfoContext(ctx, "sweep finished",
		logging.Int("processed", summary.Processed),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("permanently_failed", summary.PermanentlyFailed),
		logging.Int64("reclaimed", summary.Reclaimed))
	return summary, nil
}

type sweepOutcome int

const (
	outcomeSucceeded sweepOutcome = iota
	outcomeFailed
	outcomePermanent
	outcomeSkipped
)

func (s *Sweeper) sweepRecord(ctx context.Context, id string) (sweepOutcome, error) {
	// Re-read at pickup: another sweep may have advanced the record since
	// selection.
	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		return outcomeSkipped, services.Wrap(nil, "sweep", "pickup", "reload record", err)
	}
	if record == nil || record.Status != docstore.StatusFailed {
		return outcomeSkipped, nil
	}
	if record.RetryCount >= record.MaxRetries {
		record.MarkPermanentlyFailed()
		if err := s.store.Update(ctx, record); err != nil {
			return outcomeSkipped, services.Wrap(nil, "sweep", "pickup", "persist exhaustion", err)
		}
		return outcomePermanent, nil
	}

	now := time.Now().UTC()
	record.LastRetryAt = &now
	result, err := s.orch.Drive(ctx, record)
	if err != nil {
		return outcomeSkipped, err
	}

	if result.Status == docstore.StatusCompleted {
		return outcomeSucceeded, nil
	}
	// The attempt this sweep just ran may have spent the budget; stamp it
	// now so the next pass has nothing to do for this record.
	if result.RetryCount >= result.MaxRetries {
		result.MarkPermanentlyFailed()
		if err := s.store.Update(ctx, result); err != nil {
			return outcomeSkipped, services.Wrap(nil, "sweep", "exhaust", "persist exhaustion", err)
		}
		return outcomePermanent, nil
	}
	return outcomeFailed, nil
}

// SweepOne re-drives a single failed record on demand, bypassing the due
// time but not exhaustion or terminal error classes.
func (s *Sweeper) SweepOne(ctx context.Context, id string) (*docstore.Record, error) {
	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, services.Wrap(nil, "sweep", "retry", "load record", err)
	}
	if record == nil {
		return nil, services.Wrap(services.ErrNotFound, "sweep", "retry", "record "+id, nil)
	}
	if record.Status != docstore.StatusFailed {
		return nil, services.Wrap(services.ErrValidation, "sweep", "retry", "record is not failed", nil)
	}
	if record.RetryCount >= record.MaxRetries {
		return nil, services.Wrap(services.ErrValidation, "sweep", "retry", "retry budget exhausted", nil)
	}
	if record.ErrorCode != "" && !record.ErrorCode.Retryable() {
		return nil, services.Wrap(services.ErrValidation, "sweep", "retry", "error class "+string(record.ErrorCode)+" is not retryable", nil)
	}

	now := time.Now().UTC()
	record.LastRetryAt = &now
	return s.orch.Drive(ctx, record)
}
