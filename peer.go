// Copyright (C) 2025 Bloomd Labs.
// See LICENSE for copying information.

// Package bloomd wires the background maintenance workers of a bloomd
// node over a shared filter manager.
package bloomd

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storj.io/common/errs2"

	"bloomd.io/bloomd/background"
	"bloomd.io/bloomd/filtermgr"
)

// Config is all the configuration parameters for the maintenance peer.
type Config struct {
	Background background.Config
}

// Verify verifies whether configuration is consistent and acceptable.
func (config *Config) Verify() error {
	return config.Background.Verify()
}

// Peer is the background maintenance half of a bloomd node. The filter
// manager and the request-serving path live outside it; the peer only
// runs the workers that keep the manager's filters durable and the
// process within its memory budget.
type Peer struct {
	Log     *zap.Logger
	Manager filtermgr.Manager

	Maintenance struct {
		Flusher       *background.Flusher
		ColdUnmapper  *background.ColdUnmapper
		MemoryChecker *background.MemoryChecker
	}
}

// New creates a new maintenance peer.
func New(log *zap.Logger, mgr filtermgr.Manager, usage background.MemoryUsage, config Config) (*Peer, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}

	peer := &Peer{
		Log:     log,
		Manager: mgr,
	}

	{ // setup maintenance workers
		peer.Maintenance.Flusher = background.NewFlusher(
			log.Named("flusher"), mgr, config.Background)
		peer.Maintenance.ColdUnmapper = background.NewColdUnmapper(
			log.Named("cold-unmapper"), mgr, config.Background)
		peer.Maintenance.MemoryChecker = background.NewMemoryChecker(
			log.Named("memory-checker"), mgr, usage, config.Background)
	}

	return peer, nil
}

// Run runs the maintenance workers until ctx is canceled or a worker
// fails to start. Workers disabled by configuration return immediately
// without running.
func (peer *Peer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var group errgroup.Group
	group.Go(func() error {
		return errs2.IgnoreCanceled(peer.Maintenance.Flusher.Run(ctx))
	})
	group.Go(func() error {
		return errs2.IgnoreCanceled(peer.Maintenance.ColdUnmapper.Run(ctx))
	})
	group.Go(func() error {
		return errs2.IgnoreCanceled(peer.Maintenance.MemoryChecker.Run(ctx))
	})

	return group.Wait()
}

// Close closes all the resources. The workers hold none of their own;
// stopping is cooperative through the context passed to Run.
func (peer *Peer) Close() error {
	return nil
}
