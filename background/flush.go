// Copyright (C) 2025 Bloomd Labs.
// See LICENSE for copying information.

package background

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bloomd.io/bloomd/filtermgr"
)

// Flusher periodically flushes every filter to disk, so a crash loses at
// most one flush interval of updates.
//
// architecture: Chore
type Flusher struct {
	log      *zap.Logger
	mgr      filtermgr.Manager
	interval time.Duration

	loop loop
}

// NewFlusher creates a new flush worker.
func NewFlusher(log *zap.Logger, mgr filtermgr.Manager, config Config) *Flusher {
	return &Flusher{
		log:      log,
		mgr:      mgr,
		interval: config.FlushInterval,
		loop:     newLoop(mgr, config.FlushInterval),
	}
}

// Run runs the flush worker until ctx is canceled. When the worker is
// disabled by configuration it returns immediately.
func (flusher *Flusher) Run(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	if flusher.interval <= 0 {
		flusher.log.Info("disabled by configuration")
		return nil
	}

	flusher.log.Info("flush worker started", zap.Duration("interval", flusher.interval))
	flusher.loop.run(ctx, func(ctx context.Context) {
		if err := flusher.FlushAll(ctx); err != nil {
			flusher.log.Warn("failed to list filters for flushing", zap.Error(err))
		}
	})
	return nil
}

// FlushAll flushes every filter the manager knows about, in listing
// order. Filters deleted while the pass is running are skipped silently.
func (flusher *Flusher) FlushAll(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	listing, err := flusher.mgr.ListFilters(ctx, "")
	if err != nil {
		return Error.Wrap(err)
	}
	defer listing.Release()

	flusher.log.Debug("scheduled flush started", zap.Int("filters", len(listing.Names)))

	checkpoints := batchCheckpointer{mgr: flusher.mgr}
	for _, name := range listing.Names {
		err := flusher.mgr.Flush(ctx, name)
		switch {
		case err == nil:
			mon.Counter("flushed_filters").Inc(1)
		case filtermgr.ErrNotFound.Has(err):
			// deleted concurrently, expected
		default:
			flusher.log.Warn("unable to flush filter", zap.String("filter", name), zap.Error(err))
		}
		checkpoints.step()
	}
	return nil
}
