// Copyright (C) 2025 Bloomd Labs.
// See LICENSE for copying information.

// Package background implements the maintenance workers of the bloomd
// daemon: periodic flushing of every filter, unmapping of cold filters
// and eviction of filters under memory pressure.
//
// All three workers run the same loop: sleep one fixed quantum, issue a
// liveness checkpoint to the filter manager, then run the scheduled pass
// whenever the tick counter hits the configured interval. Checkpoints
// fire every quantum whether or not a pass runs, so manager-side
// reclamation latency stays bounded by a single quantum even while a
// worker is idle.
package background

import (
	"context"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"

	"storj.io/common/sync2"

	"bloomd.io/bloomd/filtermgr"
)

var (
	// Error is the default error class for the background workers.
	Error = errs.Class("background")

	mon = monkit.Package()
)

// TickQuantum is the fixed sleep between loop ticks. Cancellation and
// checkpoints are both observed at this granularity.
const TickQuantum = 250 * time.Millisecond

// checkpointEvery is the number of per-filter operations after which a
// pass issues an extra checkpoint, so a pass over a large filter table
// cannot stall manager-side reclamation for its whole duration.
const checkpointEvery = 16

// loop drives a worker on the fixed tick cadence.
type loop struct {
	mgr      filtermgr.Manager
	interval time.Duration
	quantum  time.Duration
}

func newLoop(mgr filtermgr.Manager, interval time.Duration) loop {
	return loop{
		mgr:      mgr,
		interval: interval,
		quantum:  TickQuantum,
	}
}

// run calls period once per interval and checkpoints once per quantum,
// until ctx is canceled. A pass that is already running is allowed to
// finish, but no new pass starts after cancellation.
func (loop *loop) run(ctx context.Context, period func(context.Context)) {
	loop.mgr.Checkpoint()

	every := uint64(loop.interval / loop.quantum)
	if every == 0 {
		every = 1
	}

	var ticks uint64
	for {
		if !sync2.Sleep(ctx, loop.quantum) {
			return
		}
		loop.mgr.Checkpoint()

		ticks++
		if ticks%every == 0 && ctx.Err() == nil {
			period(ctx)
		}
	}
}

// batchCheckpointer issues a manager checkpoint after every
// checkpointEvery operations within a single pass.
type batchCheckpointer struct {
	mgr  filtermgr.Manager
	cmds int
}

func (batch *batchCheckpointer) step() {
	batch.cmds++
	if batch.cmds%checkpointEvery == 0 {
		batch.mgr.Checkpoint()
	}
}
