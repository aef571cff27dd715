// Copyright (C) 2025 Bloomd Labs.
// See LICENSE for copying information.

package background

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storj.io/common/memory"

	"bloomd.io/bloomd/filtermgr"
)

// MemoryUsage reports memory facts about the host and this process.
type MemoryUsage interface {
	// Total returns the total installed system memory.
	Total() (memory.Size, error)
	// Resident returns the current resident set size of this process.
	Resident() (memory.Size, error)
}

// MemoryChecker periodically compares the resident set size of the
// process against a high watermark derived from total system memory.
// Above the watermark it evicts filters, flush and unmap combined as one
// manager operation, until resident memory falls back under the low
// watermark or no filters remain. The gap between the two watermarks
// keeps a single filter oscillating around the limit from re-triggering
// a full pass every period.
//
// architecture: Chore
type MemoryChecker struct {
	log      *zap.Logger
	mgr      filtermgr.Manager
	usage    MemoryUsage
	interval time.Duration

	maxPercent  int
	safePercent int

	// derived once at worker start from one total-memory sample, on the
	// assumption that total system memory does not change at runtime
	maxMemory  memory.Size
	safeMemory memory.Size

	loop loop
}

// NewMemoryChecker creates a new memory check worker.
func NewMemoryChecker(log *zap.Logger, mgr filtermgr.Manager, usage MemoryUsage, config Config) *MemoryChecker {
	return &MemoryChecker{
		log:         log,
		mgr:         mgr,
		usage:       usage,
		interval:    config.MemoryCheckInterval,
		maxPercent:  config.MaxMemoryPercent,
		safePercent: config.SafeMemoryPercent,
		loop:        newLoop(mgr, config.MemoryCheckInterval),
	}
}

// Run runs the memory check worker until ctx is canceled. When the
// worker is disabled by configuration it returns immediately.
func (checker *MemoryChecker) Run(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	if checker.interval <= 0 {
		checker.log.Info("disabled by configuration")
		return nil
	}

	total, err := checker.usage.Total()
	if err != nil {
		return Error.New("unable to determine total system memory: %v", err)
	}
	checker.maxMemory = total * memory.Size(checker.maxPercent) / 100
	checker.safeMemory = total * memory.Size(checker.safePercent) / 100

	checker.log.Info("memory check worker started",
		zap.Duration("interval", checker.interval),
		zap.Stringer("max memory", checker.maxMemory),
		zap.Stringer("safe memory", checker.safeMemory))

	checker.loop.run(ctx, func(ctx context.Context) {
		if err := checker.CheckMemory(ctx); err != nil {
			checker.log.Warn("memory check failed", zap.Error(err))
		}
	})
	return nil
}

// CheckMemory samples resident memory and, above the high watermark,
// evicts filters one at a time until resident memory drops under the low
// watermark or the filter list runs out. Running out with memory still
// over budget is not an error; the next period re-samples and retries.
func (checker *MemoryChecker) CheckMemory(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	current, err := checker.usage.Resident()
	if err != nil {
		return Error.Wrap(err)
	}
	mon.IntVal("resident_memory").Observe(current.Int64())

	if current <= checker.maxMemory {
		return nil
	}

	checker.log.Info("max memory exceeded, evicting filters to reclaim memory",
		zap.Stringer("resident", current),
		zap.Stringer("max memory", checker.maxMemory))

	listing, err := checker.mgr.ListFilters(ctx, "")
	if err != nil {
		return Error.Wrap(err)
	}
	defer listing.Release()

	checkpoints := batchCheckpointer{mgr: checker.mgr}
	evicted := int64(0)
	for _, name := range listing.Names {
		if current <= checker.safeMemory {
			break
		}

		checker.log.Info("evicting filter to free memory", zap.String("filter", name))
		err := checker.mgr.FlushAndUnmap(ctx, name)
		switch {
		case err == nil:
			evicted++
		case filtermgr.ErrNotFound.Has(err):
			// deleted concurrently, expected
		default:
			checker.log.Warn("unable to evict filter", zap.String("filter", name), zap.Error(err))
		}
		checkpoints.step()

		current, err = checker.usage.Resident()
		if err != nil {
			return Error.Wrap(err)
		}
	}
	mon.IntVal("evicted_filters").Observe(evicted)
	return nil
}
