// Copyright (C) 2025 Bloomd Labs.
// See LICENSE for copying information.

// Package config loads the bloomd configuration file options recognized
// by the background maintenance subsystem.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/zeebo/errs"

	"bloomd.io/bloomd/background"
)

// Error is the default error class for configuration errors.
var Error = errs.Class("config")

// Config mirrors the flat bloomd configuration file. Intervals are in
// seconds; zero disables the corresponding worker.
type Config struct {
	FlushInterval       int `toml:"flush_interval"`
	ColdInterval        int `toml:"cold_interval"`
	MemoryCheckInterval int `toml:"memory_check_interval"`
	MaxMemoryPercent    int `toml:"max_memory_percent"`
	SafeMemoryPercent   int `toml:"safe_memory_percent"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		FlushInterval:       60,
		ColdInterval:        3600,
		MemoryCheckInterval: 60,
		MaxMemoryPercent:    90,
		SafeMemoryPercent:   75,
	}
}

// Load reads the file at path over the defaults and validates the
// result. Options outside the recognized set are rejected.
func Load(path string) (Config, error) {
	config := Default()
	meta, err := toml.DecodeFile(path, &config)
	if err != nil {
		return Config{}, Error.Wrap(err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, Error.New("unrecognized option %q", undecoded[0].String())
	}
	if err := config.Verify(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Verify verifies whether the configuration is consistent and acceptable.
func (config Config) Verify() error {
	return Error.Wrap(config.Background().Verify())
}

// Background converts the file options into the worker configuration.
func (config Config) Background() background.Config {
	return background.Config{
		FlushInterval:       time.Duration(config.FlushInterval) * time.Second,
		ColdInterval:        time.Duration(config.ColdInterval) * time.Second,
		MemoryCheckInterval: time.Duration(config.MemoryCheckInterval) * time.Second,
		MaxMemoryPercent:    config.MaxMemoryPercent,
		SafeMemoryPercent:   config.SafeMemoryPercent,
	}
}
