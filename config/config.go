// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads benchmark configuration files.
//
// A configuration file is TOML. Every key is optional; missing keys take
// the values of Default. Unknown keys are an error.
//
//	backend = "vulkan"
//	shader_format = "wgsl"
//	output_dir = "images"
//	map_timeout = "5s"
//	poll_interval = "10ms"
//	log_level = "info"
//
//	[[benchmarks]]
//	name = "bunny_rasterization"
//	runs = [{ width = 512, height = 512, workload = 1000 }]
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/raymarks"
	"github.com/gogpu/raymarks/bench"
)

// ErrInvalid is returned for configurations that fail validation.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the process configuration.
type Config struct {
	Backend      string         `toml:"backend"`
	ShaderFormat string         `toml:"shader_format"`
	ShaderDir    string         `toml:"shader_dir"`
	OutputDir    string         `toml:"output_dir"`
	MapTimeout   Duration       `toml:"map_timeout"`
	PollInterval Duration       `toml:"poll_interval"`
	LogLevel     string         `toml:"log_level"`
	Benchmarks   []bench.Config `toml:"benchmarks"`
}

// Default returns the built-in configuration: the bunny rasterization
// benchmark on Vulkan, WGSL shaders, images next to the module sources.
func Default() Config {
	return Config{
		Backend:      "vulkan",
		ShaderFormat: raymarks.ShaderFormatWGSL.String(),
		OutputDir:    raymarks.ImageDirectory(),
		MapTimeout:   Duration(raymarks.DefaultMapTimeout),
		PollInterval: Duration(raymarks.DefaultPollInterval),
		LogLevel:     "info",
		Benchmarks:   []bench.Config{bench.BunnyRasterization()},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("config: open: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a TOML configuration from r, fills in defaults and
// validates the result.
func Decode(r io.Reader) (Config, error) {
	var cfg Config
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalid, strict.String())
		}
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.ShaderFormat == "" {
		c.ShaderFormat = def.ShaderFormat
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.MapTimeout == 0 {
		c.MapTimeout = def.MapTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = def.PollInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Benchmarks == nil {
		c.Benchmarks = def.Benchmarks
	}
}

// Validate checks every field.
func (c Config) Validate() error {
	if _, err := parseBackend(c.Backend); err != nil {
		return err
	}
	if _, err := parseShaderFormat(c.ShaderFormat); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.MapTimeout <= 0 {
		return fmt.Errorf("%w: map_timeout must be positive, got %v", ErrInvalid, c.MapTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive, got %v", ErrInvalid, c.PollInterval)
	}
	if len(c.Benchmarks) == 0 {
		return fmt.Errorf("%w: no benchmarks", ErrInvalid)
	}
	for _, b := range c.Benchmarks {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}

// Options converts the configuration to Context options.
func (c Config) Options() ([]raymarks.Option, error) {
	backend, err := parseBackend(c.Backend)
	if err != nil {
		return nil, err
	}
	format, err := parseShaderFormat(c.ShaderFormat)
	if err != nil {
		return nil, err
	}
	opts := []raymarks.Option{
		raymarks.WithBackend(backend),
		raymarks.WithShaderFormat(format),
		raymarks.WithOutputDirectory(c.OutputDir),
		raymarks.WithMapTimeout(time.Duration(c.MapTimeout)),
		raymarks.WithPollInterval(time.Duration(c.PollInterval)),
	}
	if c.ShaderDir != "" {
		opts = append(opts, raymarks.WithShaderDirectory(c.ShaderDir))
	}
	return opts, nil
}

var backends = map[string]gputypes.Backend{
	"vulkan": gputypes.BackendVulkan,
	"metal":  gputypes.BackendMetal,
	"dx12":   gputypes.BackendDX12,
	"gl":     gputypes.BackendGL,
}

func parseBackend(s string) (gputypes.Backend, error) {
	b, ok := backends[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("%w: unknown backend %q", ErrInvalid, s)
	}
	return b, nil
}

func parseShaderFormat(s string) (raymarks.ShaderFormat, error) {
	switch strings.ToLower(s) {
	case raymarks.ShaderFormatWGSL.String():
		return raymarks.ShaderFormatWGSL, nil
	case raymarks.ShaderFormatSPIRV.String():
		return raymarks.ShaderFormatSPIRV, nil
	default:
		return 0, fmt.Errorf("%w: unknown shader_format %q", ErrInvalid, s)
	}
}
