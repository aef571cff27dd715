// Copyright (C) 2025 Bloomd Labs.
// See LICENSE for copying information.

package background

import (
	"context"
	"sync"
	"time"

	"storj.io/common/memory"

	"bloomd.io/bloomd/filtermgr"
)

// fakeManager implements filtermgr.Manager for tests, recording every
// call it receives.
type fakeManager struct {
	mu sync.Mutex

	filters []string
	cold    []string
	missing map[string]bool

	listErr   error
	coldErr   error
	listDelay time.Duration
	onList    func()

	checkpoints int
	listCalls   int
	released    int

	flushed  []string
	unmapped []string
	evicted  []string

	onEvict func(name string)
}

func (mgr *fakeManager) Checkpoint() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.checkpoints++
}

func (mgr *fakeManager) ListFilters(ctx context.Context, prefix string) (*filtermgr.Listing, error) {
	if mgr.onList != nil {
		mgr.onList()
	}
	if mgr.listDelay > 0 {
		time.Sleep(mgr.listDelay)
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.listCalls++
	if mgr.listErr != nil {
		return nil, mgr.listErr
	}
	return filtermgr.NewListing(append([]string(nil), mgr.filters...), mgr.releaseOnce), nil
}

func (mgr *fakeManager) ListColdFilters(ctx context.Context) (*filtermgr.Listing, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if mgr.coldErr != nil {
		return nil, mgr.coldErr
	}
	return filtermgr.NewListing(append([]string(nil), mgr.cold...), mgr.releaseOnce), nil
}

func (mgr *fakeManager) Flush(ctx context.Context, name string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if mgr.missing[name] {
		return filtermgr.ErrNotFound.New("%s", name)
	}
	mgr.flushed = append(mgr.flushed, name)
	return nil
}

func (mgr *fakeManager) Unmap(ctx context.Context, name string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if mgr.missing[name] {
		return filtermgr.ErrNotFound.New("%s", name)
	}
	mgr.unmapped = append(mgr.unmapped, name)
	return nil
}

func (mgr *fakeManager) FlushAndUnmap(ctx context.Context, name string) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if mgr.missing[name] {
		return filtermgr.ErrNotFound.New("%s", name)
	}
	mgr.evicted = append(mgr.evicted, name)
	if mgr.onEvict != nil {
		mgr.onEvict(name)
	}
	return nil
}

func (mgr *fakeManager) releaseOnce() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.released++
}

func (mgr *fakeManager) checkpointCount() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.checkpoints
}

func (mgr *fakeManager) listCount() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.listCalls
}

func (mgr *fakeManager) releasedCount() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.released
}

func (mgr *fakeManager) flushedNames() []string {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return append([]string(nil), mgr.flushed...)
}

func (mgr *fakeManager) unmappedNames() []string {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return append([]string(nil), mgr.unmapped...)
}

func (mgr *fakeManager) evictedNames() []string {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return append([]string(nil), mgr.evicted...)
}

var _ filtermgr.Manager = &fakeManager{}

// fakeUsage implements MemoryUsage with fixed values that tests adjust
// as filters are evicted.
type fakeUsage struct {
	mu sync.Mutex

	total    memory.Size
	resident memory.Size

	totalErr    error
	residentErr error
}

func (usage *fakeUsage) Total() (memory.Size, error) {
	usage.mu.Lock()
	defer usage.mu.Unlock()
	if usage.totalErr != nil {
		return 0, usage.totalErr
	}
	return usage.total, nil
}

func (usage *fakeUsage) Resident() (memory.Size, error) {
	usage.mu.Lock()
	defer usage.mu.Unlock()
	if usage.residentErr != nil {
		return 0, usage.residentErr
	}
	return usage.resident, nil
}

func (usage *fakeUsage) drop(delta memory.Size) {
	usage.mu.Lock()
	defer usage.mu.Unlock()
	usage.resident -= delta
}

func (usage *fakeUsage) residentNow() memory.Size {
	usage.mu.Lock()
	defer usage.mu.Unlock()
	return usage.resident
}

var _ MemoryUsage = &fakeUsage{}
