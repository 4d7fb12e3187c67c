// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bench

import (
	"fmt"
	"time"

	"github.com/gogpu/raymarks"
)

// clock is replaced in tests.
var clock = time.Now

// Execute runs every step of cfg in order against target and returns one
// Result per run. It stops at the first failing run; the error names the
// run index and resolution.
func Execute(target Target, cfg Config) ([]Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := raymarks.Logger()

	results := make([]Result, 0, len(cfg.Runs))
	for i, run := range cfg.Runs {
		res, err := execute(target, cfg.Name, run)
		if err != nil {
			return results, fmt.Errorf("%s run %d (%s): %w", cfg.Name, i, run, err)
		}
		results = append(results, res)
		log.Info("bench: run complete",
			"benchmark", cfg.Name,
			"size", run.String(),
			"workload", run.Workload,
			"record", res.Record,
			"submit", res.Submit,
			"readback", res.Readback,
			"total", res.Total,
			"path", res.Path,
		)
	}
	log.Info("bench: benchmark complete", "benchmark", cfg.Name, "runs", len(results))
	return results, nil
}

func execute(target Target, name string, run Run) (Result, error) {
	res := Result{Run: run}
	start := clock()

	if err := target.Resize(run.Width, run.Height); err != nil {
		return res, err
	}
	recordStart := clock()
	if err := target.RecordRasterizationPass(); err != nil {
		return res, err
	}
	submitStart := clock()
	res.Record = submitStart.Sub(recordStart)
	if err := target.Submit(); err != nil {
		return res, err
	}
	readbackStart := clock()
	res.Submit = readbackStart.Sub(submitStart)
	path, err := target.SaveRenderTargetSync(name)
	if err != nil {
		return res, err
	}
	end := clock()
	res.Readback = end.Sub(readbackStart)
	res.Total = end.Sub(start)
	res.Path = path
	return res, nil
}

// ExecuteAll executes every configuration in order and stops at the first
// error.
func ExecuteAll(target Target, cfgs []Config) ([]Result, error) {
	var all []Result
	for _, cfg := range cfgs {
		results, err := Execute(target, cfg)
		all = append(all, results...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}
