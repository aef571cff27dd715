// Copyright (C) 2025 Bloomd Labs.
// See LICENSE for copying information.

package background

import (
	"time"
)

// Config defines the schedule and the memory watermarks for the
// background maintenance workers. An interval of zero (or below)
// disables the corresponding worker.
type Config struct {
	FlushInterval       time.Duration `help:"how often every filter is flushed to disk, 0 disables the worker" default:"1m0s"`
	ColdInterval        time.Duration `help:"how often cold filters are unmapped, 0 disables the worker" default:"1h0m0s"`
	MemoryCheckInterval time.Duration `help:"how often resident memory is compared against the watermarks, 0 disables the worker" default:"1m0s"`

	MaxMemoryPercent  int `help:"percent of total system memory above which filters are evicted" default:"90"`
	SafeMemoryPercent int `help:"percent of total system memory eviction brings the process back under" default:"75"`
}

// Verify verifies whether the configuration is consistent and acceptable.
func (config Config) Verify() error {
	if config.MaxMemoryPercent < 0 || config.MaxMemoryPercent > 100 {
		return Error.New("max memory percent %d outside of 0-100", config.MaxMemoryPercent)
	}
	if config.SafeMemoryPercent < 0 || config.SafeMemoryPercent > 100 {
		return Error.New("safe memory percent %d outside of 0-100", config.SafeMemoryPercent)
	}
	if config.SafeMemoryPercent > config.MaxMemoryPercent {
		return Error.New("safe memory percent %d above max memory percent %d",
			config.SafeMemoryPercent, config.MaxMemoryPercent)
	}
	return nil
}
