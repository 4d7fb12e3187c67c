// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command raymarks runs the GPU rasterization benchmarks and saves the
// rendered targets as PNG images.
//
// Usage:
//
//	raymarks [-config raymarks.toml] [-v]
//
// Without -config the built-in bunny_rasterization benchmark runs.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/raymarks"
	"github.com/gogpu/raymarks/bench"
	"github.com/gogpu/raymarks/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if err := run(*configPath, *verbose); err != nil {
		slog.Error("raymarks: benchmark failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath string, verbose bool) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	raymarks.SetLogger(logger)

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	ctx, err := raymarks.New(opts...)
	if err != nil {
		return fmt.Errorf("create context: %w", err)
	}
	defer func() {
		if err := ctx.Close(); err != nil {
			logger.Warn("raymarks: close", "err", err)
		}
	}()

	results, err := bench.ExecuteAll(ctx, cfg.Benchmarks)
	if err != nil {
		return err
	}
	logger.Info("raymarks: all benchmarks complete", "runs", len(results))
	return nil
}
