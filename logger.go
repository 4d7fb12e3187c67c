// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raymarks

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/raymarks/internal/gpu"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for raymarks and its sub-packages.
// By default nothing is logged. Pass nil to restore silent behavior.
//
// Log levels used:
//   - [slog.LevelDebug]: buffer sizes, submissions, mapping progress
//   - [slog.LevelInfo]: adapter selection, benchmark runs, saved images
//   - [slog.LevelWarn]: work still in flight at Close
//
// Example:
//
//	raymarks.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	gpu.SetLogger(l)
}

// Logger returns the current logger. Sub-packages such as bench call it to
// share the same configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
