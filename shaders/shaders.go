// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shaders locates and loads the WGSL sources used by the
// benchmarks.
//
// Sources are read from disk on every Load so that an edited shader is
// picked up by the next pipeline build without restarting anything.
package shaders

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ErrShaderSource is returned when a shader source file cannot be read.
var ErrShaderSource = errors.New("shaders: cannot read shader source")

// Shader identifies a shader source shipped with the benchmarks.
type Shader int

const (
	// Rasterization draws the placeholder triangle of the rasterization
	// benchmark. Entry points: vertex_shader, fragment_shader.
	Rasterization Shader = iota
)

// String returns the shader name.
func (s Shader) String() string {
	switch s {
	case Rasterization:
		return "rasterization"
	default:
		return fmt.Sprintf("Shader(%d)", int(s))
	}
}

// SourceFile returns the file name of the shader source within Directory.
func (s Shader) SourceFile() string {
	switch s {
	case Rasterization:
		return "rasterization.wgsl"
	default:
		return ""
	}
}

// Load reads the shader source from Directory.
func (s Shader) Load() (string, error) {
	return s.LoadFrom(Directory())
}

// LoadFrom reads the shader source from dir.
func (s Shader) LoadFrom(dir string) (string, error) {
	name := s.SourceFile()
	if name == "" {
		return "", fmt.Errorf("%w: unknown %v", ErrShaderSource, s)
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrShaderSource, err)
	}
	return string(data), nil
}

// Directory returns the directory containing the shader sources: the
// directory of this package in the module source tree.
func Directory() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "shaders"
	}
	return filepath.Dir(file)
}
