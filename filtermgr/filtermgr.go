// Copyright (C) 2025 Bloomd Labs.
// See LICENSE for copying information.

// Package filtermgr defines the capability surface the background
// maintenance workers consume from the filter manager.
//
// The manager itself lives outside this module. It owns the filter table,
// the on-disk encoding and the serving path; the background workers only
// borrow listings from it and issue flush, unmap and checkpoint commands.
// Every method must be safe to call concurrently from all workers and from
// the serving path, and must return promptly.
package filtermgr

import (
	"context"

	"github.com/zeebo/errs"
)

// ErrNotFound is returned by per-filter operations when the named filter
// no longer exists. Filters are deleted concurrently by clients, so the
// workers treat this as an expected outcome, never as a failure.
var ErrNotFound = errs.Class("filter not found")

// Manager is the filter manager as seen by the background workers.
type Manager interface {
	// Checkpoint declares that the calling worker holds no reference into
	// filter internals. The manager uses these declarations to reclaim
	// state concurrently mutated by client requests. It must be fast and
	// safe to call every tick quantum.
	Checkpoint()

	// ListFilters returns a point-in-time snapshot of all filter names,
	// optionally restricted to a prefix ("" lists everything).
	ListFilters(ctx context.Context, prefix string) (*Listing, error)

	// ListColdFilters returns a snapshot restricted to filters the
	// manager classifies as idle. The idleness policy is the manager's.
	ListColdFilters(ctx context.Context) (*Listing, error)

	// Flush durably persists the named filter.
	Flush(ctx context.Context, name string) error

	// Unmap releases the resident memory of the named filter while
	// keeping its durable copy, so it can be mapped again on access.
	Unmap(ctx context.Context, name string) error

	// FlushAndUnmap combines Flush and Unmap into one operation, holding
	// the filter lock throughout so no writer can mutate the filter while
	// it is being dumped.
	FlushAndUnmap(ctx context.Context, name string) error
}

// Listing is a snapshot of filter names owned by the requesting worker.
// It must be released exactly once when the worker is done with it and
// must not be read afterwards.
type Listing struct {
	Names []string

	release func()
}

// NewListing constructs a listing over names. release may be nil when the
// snapshot holds no manager-side resources.
func NewListing(names []string, release func()) *Listing {
	return &Listing{Names: names, release: release}
}

// Release returns the snapshot to the manager. Releasing more than once
// is a no-op.
func (listing *Listing) Release() {
	if listing.release != nil {
		listing.release()
		listing.release = nil
	}
}
