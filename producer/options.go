// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package producer

import (
	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/internal/fifo"
	"github.com/gogpu/playout/internal/parallel"
)

// defaultBitmaps bounds the renderer bitmap pool.
const defaultBitmaps = 4

// Option configures a producer during creation.
//
// Example:
//
//	p, err := producer.NewRendererProducer(format, r, "lower-third",
//		producer.WithMediaRoot("/srv/media"),
//		producer.WithCapacity(2))
type Option func(*options)

type options struct {
	name      string
	capacity  int
	pair      PairPolicy
	bitmaps   int
	mediaRoot string
	workers   *parallel.WorkerPool
	factory   frame.Factory
}

func defaultOptions() options {
	return options{
		capacity:  fifo.DefaultCapacity,
		pair:      DefaultPairPolicy,
		bitmaps:   defaultBitmaps,
		mediaRoot: ".",
	}
}

// WithName sets the name used in logs and String.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithCapacity sets the frame channel capacity. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithPairPolicy replaces DefaultPairPolicy.
func WithPairPolicy(p PairPolicy) Option {
	return func(o *options) {
		if p != nil {
			o.pair = p
		}
	}
}

// WithBitmapPoolSize bounds how many free render bitmaps are retained.
func WithBitmapPoolSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bitmaps = n
		}
	}
}

// WithMediaRoot sets the directory templates are resolved against.
func WithMediaRoot(dir string) Option {
	return func(o *options) {
		o.mediaRoot = dir
	}
}

// WithWorkerPool runs frame normalization copies on p.
func WithWorkerPool(p *parallel.WorkerPool) Option {
	return func(o *options) {
		o.workers = p
	}
}

// WithFactory allocates frames from f instead of a private frame.Pool.
func WithFactory(f frame.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}
