// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bench drives benchmark configurations against a render target.
//
// A configuration is a named list of runs. Each run resizes the target,
// records one rasterization pass, submits it and saves the result
// synchronously, timing every phase:
//
//	ctx, _ := raymarks.New()
//	results, err := bench.Execute(ctx, bench.BunnyRasterization())
package bench

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/raymarks"
)

// Configuration errors.
var (
	// ErrEmptyConfig is returned for a configuration without runs.
	ErrEmptyConfig = errors.New("bench: configuration has no runs")

	// ErrInvalidRun is returned for a run with a zero dimension or a
	// negative workload.
	ErrInvalidRun = errors.New("bench: invalid run")

	// ErrNoName is returned for a configuration without a name.
	ErrNoName = errors.New("bench: configuration has no name")
)

// Target is the part of raymarks.Context the driver uses.
type Target interface {
	Resize(width, height uint32) error
	RecordRasterizationPass() error
	Submit() error
	SaveRenderTargetSync(name string) (string, error)
}

var _ Target = (*raymarks.Context)(nil)

// Run is one benchmark step: a resolution and a workload size.
type Run struct {
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`

	// Workload is the number of model instances the pass should render.
	// It is reported but not yet consumed by the rasterization pass.
	Workload int `toml:"workload"`
}

// String returns "WxH".
func (r Run) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Config is a named list of runs. The name prefixes every output image.
type Config struct {
	Name string `toml:"name"`
	Runs []Run  `toml:"runs"`
}

// Validate checks that the configuration can be executed.
func (c Config) Validate() error {
	if c.Name == "" {
		return ErrNoName
	}
	if len(c.Runs) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyConfig, c.Name)
	}
	for i, r := range c.Runs {
		if r.Width == 0 || r.Height == 0 {
			return fmt.Errorf("%w: %s run %d: size %s", ErrInvalidRun, c.Name, i, r)
		}
		if r.Workload < 0 {
			return fmt.Errorf("%w: %s run %d: workload %d", ErrInvalidRun, c.Name, i, r.Workload)
		}
	}
	return nil
}

// BunnyRasterization is the built-in configuration: one 512x512 run with a
// workload of 1000.
func BunnyRasterization() Config {
	return Config{
		Name: "bunny_rasterization",
		Runs: []Run{{Width: 512, Height: 512, Workload: 1000}},
	}
}

// Result is the outcome of one run.
type Result struct {
	Run  Run
	Path string

	Record   time.Duration
	Submit   time.Duration
	Readback time.Duration
	Total    time.Duration
}
