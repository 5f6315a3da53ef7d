// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package playout

import "errors"

// Errors shared by producers and consumers. Callers match them with errors.Is;
// the returned errors wrap these with context.
var (
	// ErrFileNotFound is returned when a source asset cannot be resolved.
	ErrFileNotFound = errors.New("playout: file not found")

	// ErrOutOfRange is returned when a screen index has no matching display.
	ErrOutOfRange = errors.New("playout: out of range")

	// ErrInvalidOperation is returned when display geometry cannot be queried.
	ErrInvalidOperation = errors.New("playout: invalid operation")

	// ErrOperationFailed is returned when a control command is still rejected
	// after the retry budget is spent.
	ErrOperationFailed = errors.New("playout: operation failed")

	// ErrNotSupported is returned for modes the platform cannot provide,
	// such as fullscreen output without a fullscreen-capable display.
	ErrNotSupported = errors.New("playout: not supported")
)
