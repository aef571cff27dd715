// Copyright (C) 2025 Bloomd Labs.
// See LICENSE for copying information.

package background

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bloomd.io/bloomd/filtermgr"
)

// ColdUnmapper periodically unmaps filters the manager classifies as
// cold, releasing their resident memory while keeping the durable copy.
// A cold filter is mapped back in transparently on its next access.
//
// architecture: Chore
type ColdUnmapper struct {
	log      *zap.Logger
	mgr      filtermgr.Manager
	interval time.Duration

	loop loop
}

// NewColdUnmapper creates a new cold unmap worker.
func NewColdUnmapper(log *zap.Logger, mgr filtermgr.Manager, config Config) *ColdUnmapper {
	return &ColdUnmapper{
		log:      log,
		mgr:      mgr,
		interval: config.ColdInterval,
		loop:     newLoop(mgr, config.ColdInterval),
	}
}

// Run runs the cold unmap worker until ctx is canceled. When the worker
// is disabled by configuration it returns immediately.
func (unmapper *ColdUnmapper) Run(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	if unmapper.interval <= 0 {
		unmapper.log.Info("disabled by configuration")
		return nil
	}

	unmapper.log.Info("cold unmap worker started", zap.Duration("interval", unmapper.interval))
	unmapper.loop.run(ctx, func(ctx context.Context) {
		if err := unmapper.UnmapCold(ctx); err != nil {
			unmapper.log.Warn("failed to list cold filters", zap.Error(err))
		}
	})
	return nil
}

// UnmapCold unmaps every filter in the manager's cold listing.
func (unmapper *ColdUnmapper) UnmapCold(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	listing, err := unmapper.mgr.ListColdFilters(ctx)
	if err != nil {
		return Error.Wrap(err)
	}
	defer listing.Release()

	unmapper.log.Info("cold unmap started", zap.Int("cold filters", len(listing.Names)))

	checkpoints := batchCheckpointer{mgr: unmapper.mgr}
	for _, name := range listing.Names {
		err := unmapper.mgr.Unmap(ctx, name)
		switch {
		case err == nil:
			unmapper.log.Info("unmapped cold filter", zap.String("filter", name))
			mon.Counter("unmapped_filters").Inc(1)
		case filtermgr.ErrNotFound.Has(err):
			// deleted concurrently, expected
		default:
			unmapper.log.Warn("unable to unmap filter", zap.String("filter", name), zap.Error(err))
		}
		checkpoints.step()
	}
	return nil
}
