// Copyright (C) 2025 Bloomd Labs.
// See LICENSE for copying information.

// Package sysmem reports total system memory and the resident set size
// of the current process.
package sysmem

import (
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/zeebo/errs"

	"storj.io/common/memory"

	"bloomd.io/bloomd/background"
)

// Error is the default error class for sysmem errors.
var Error = errs.Class("sysmem")

// Usage reports memory facts about the host via gopsutil.
type Usage struct{}

var _ background.MemoryUsage = Usage{}

// Total returns the total installed system memory.
func (Usage) Total() (memory.Size, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, Error.Wrap(err)
	}
	return memory.Size(vm.Total), nil
}

// Resident returns the current resident set size of this process.
func (Usage) Resident() (memory.Size, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, Error.Wrap(err)
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, Error.Wrap(err)
	}
	return memory.Size(info.RSS), nil
}
