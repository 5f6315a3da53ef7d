// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package executor

import "sync"

// Fault holds the first error raised on a worker until a caller takes it.
type Fault struct {
	mu  sync.Mutex
	err error
}

// Set records err unless a fault is already pending. Nil is ignored.
func (f *Fault) Set(err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	if f.err == nil {
		f.err = err
	}
	f.mu.Unlock()
}

// Take returns the pending fault and clears it.
func (f *Fault) Take() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.err
	f.err = nil
	return err
}

// Pending reports whether a fault is waiting.
func (f *Fault) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err != nil
}
