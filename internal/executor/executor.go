// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package executor runs a loop on one dedicated, OS-thread-locked goroutine
// and lets other goroutines hand it synchronous tasks.
//
// Producers use it so that every call into a renderer or decoder happens
// on the same thread, which native rendering and decoding libraries
// usually require.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned by Invoke when the executor is not running or
// stops before the task runs.
var ErrStopped = errors.New("executor: stopped")

type task struct {
	fn   func() error
	done chan error
}

// Executor owns one worker goroutine. The zero value is not usable; use New.
//
// Thread safety: all methods are safe for concurrent use. Execute and
// TryExecute must only be called from the loop passed to Start.
type Executor struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	tasks   chan task
	running atomic.Bool
}

// New returns a stopped executor.
func New() *Executor {
	return &Executor{tasks: make(chan task)}
}

// Start launches loop on a new goroutine locked to its OS thread. The loop
// must return when ctx is done. Start on a running executor is a no-op.
func (e *Executor) Start(loop func(ctx context.Context)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running.Load() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.cancel, e.done = cancel, done
	e.running.Store(true)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)
		defer e.running.Store(false)
		loop(ctx)
	}()
}

// Stop cancels the loop and waits for it to return. Stop is idempotent.
func (e *Executor) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// IsRunning reports whether the loop goroutine is alive.
func (e *Executor) IsRunning() bool {
	return e.running.Load()
}

// Invoke runs fn on the worker goroutine and waits for its result. A panic
// in fn is recovered and returned as an error.
func (e *Executor) Invoke(fn func() error) error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return ErrStopped
	}

	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case e.tasks <- t:
	case <-done:
		return ErrStopped
	}
	select {
	case err := <-t.done:
		return err
	case <-done:
		// the loop may have run the task just before exiting
		select {
		case err := <-t.done:
			return err
		default:
			return ErrStopped
		}
	}
}

// Execute blocks until one task runs or ctx is done.
func (e *Executor) Execute(ctx context.Context) bool {
	select {
	case t := <-e.tasks:
		t.done <- Safe(t.fn)
		return true
	case <-ctx.Done():
		return false
	}
}

// TryExecute runs one pending task if there is one.
func (e *Executor) TryExecute() bool {
	select {
	case t := <-e.tasks:
		t.done <- Safe(t.fn)
		return true
	default:
		return false
	}
}

// Safe calls fn and turns a panic into an error.
func Safe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor: task panicked: %v", r)
		}
	}()
	return fn()
}
