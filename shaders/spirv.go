// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shaders

import (
	"fmt"

	"github.com/gogpu/naga"
)

// CompileSPIRV compiles WGSL source to SPIR-V words for backends that take
// SPIR-V directly.
func CompileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("shaders: compile to SPIR-V: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shaders: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}
