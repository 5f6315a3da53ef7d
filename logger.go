// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package playout

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/playout/internal/gpu"
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
// SetLogger can race with producer and consumer goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for playout and all its sub-packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used by playout:
//   - [slog.LevelDebug]: per-frame diagnostics (skipped uploads, retries)
//   - [slog.LevelInfo]: lifecycle events (producer started, window created)
//   - [slog.LevelWarn]: recoverable faults (presentation cycle errors)
//   - [slog.LevelError]: faults captured on a worker goroutine
//
// Example:
//
//	playout.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	gpu.SetLogger(l)
}

// Logger returns the current logger used by playout.
// Sub-packages call this to share the configuration without import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
