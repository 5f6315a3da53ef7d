// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package fifo provides the bounded frame channel between a producing and
// a consuming goroutine.
//
// A nil frame is the end-of-stream sentinel: the reader that pops it must
// leave its loop without popping again.
package fifo

import (
	"context"

	"github.com/gogpu/playout/frame"
)

// DefaultCapacity couples producer and consumer one frame apart.
const DefaultCapacity = 1

// Queue is a fixed capacity FIFO of frames.
//
// Thread safety: all methods are safe for concurrent use.
type Queue struct {
	ch chan *frame.Frame
}

// New returns a queue holding at most capacity frames.
// A capacity below 1 uses DefaultCapacity.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{ch: make(chan *frame.Frame, capacity)}
}

// Push appends f, blocking while the queue is full.
func (q *Queue) Push(f *frame.Frame) {
	q.ch <- f
}

// PushContext appends f, blocking while the queue is full or until ctx is done.
func (q *Queue) PushContext(ctx context.Context, f *frame.Frame) error {
	select {
	case q.ch <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPush appends f if a slot is free.
func (q *Queue) TryPush(f *frame.Frame) bool {
	select {
	case q.ch <- f:
		return true
	default:
		return false
	}
}

// Pop removes the oldest frame, blocking while the queue is empty.
func (q *Queue) Pop() *frame.Frame {
	return <-q.ch
}

// PopContext removes the oldest frame, blocking until one is available or
// ctx is done.
func (q *Queue) PopContext(ctx context.Context) (*frame.Frame, error) {
	select {
	case f := <-q.ch:
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryPop removes the oldest frame if there is one. ok distinguishes a
// popped sentinel from an empty queue.
func (q *Queue) TryPop() (f *frame.Frame, ok bool) {
	select {
	case f = <-q.ch:
		return f, true
	default:
		return nil, false
	}
}

// Clear discards every buffered frame without blocking. A buffered
// sentinel is kept so the reader still observes end of stream.
func (q *Queue) Clear() {
	sentinel := false
	for {
		select {
		case f := <-q.ch:
			if f == nil {
				sentinel = true
			}
			continue
		default:
		}
		break
	}
	if sentinel {
		q.TryPush(nil)
	}
}

// Drain discards everything, sentinels included, and returns how many
// items were dropped.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case <-q.ch:
			n++
		default:
			return n
		}
	}
}

// Len returns the number of buffered items.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }
