// Package scheduler drives periodic refresh cycles.
package scheduler

import (
	"context"
	"time"

	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"github.com/rs/zerolog"
)

// Refresher runs one refresh cycle.
type Refresher interface {
	Refresh(ctx context.Context, query string) (models.Snapshot, error)
}

// Worker refreshes on a fixed interval until its context is cancelled.
type Worker struct {
	refresher Refresher
	interval  time.Duration
	query     string
	logger    *zerolog.Logger
}

// NewWorker returns a new Worker.
func NewWorker(refresher Refresher, interval time.Duration, query string, logger *zerolog.Logger) *Worker {
	return &Worker{
		refresher: refresher,
		interval:  interval,
		query:     query,
		logger:    logger,
	}
}

// Run refreshes once immediately, then on every interval tick. It returns
// when ctx is cancelled. A failed cycle is logged and the previous snapshot
// stays in place.
func (w *Worker) Run(ctx context.Context) {
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	started := time.Now()

	snapshot, err := w.refresher.Refresh(ctx, w.query)
	if err != nil {
		w.logger.Error().
			Err(err).
			Str("query", w.query).
			Msg("scheduled refresh failed")
		return
	}

	w.logger.Info().
		Str("query", w.query).
		Int("products", len(snapshot.Products)).
		Int("rejections", snapshot.Rejections).
		Dur("took", time.Since(started)).
		Msg("scheduled refresh finished")
}
