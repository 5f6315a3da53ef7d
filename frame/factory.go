// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"sync"

	"github.com/gogpu/playout/pixfmt"
)

// Factory allocates frames for a producer. The mixer or consumer owning
// the output format supplies it.
type Factory interface {
	// Format returns the output video format.
	Format() VideoFormat

	// CreateFrame allocates a zeroed frame with the given layout.
	CreateFrame(desc pixfmt.Desc, width, height int) *Frame
}

// Pool is a Factory that recycles frames grouped by layout.
//
// Frames are handed out zeroed. Put returns a frame once no reader holds it
// any more; frames never returned are reclaimed by the GC.
//
// Thread safety: all methods are safe for concurrent use.
type Pool struct {
	format  VideoFormat
	mu      sync.Mutex
	buckets map[poolKey][]*Frame
	maxSize int // max frames per bucket
}

type poolKey struct {
	width, height int
	desc          string
}

// NewPool returns a pool for the output format retaining at most
// maxPerBucket frames per layout. Zero means unlimited.
func NewPool(format VideoFormat, maxPerBucket int) *Pool {
	return &Pool{
		format:  format,
		buckets: make(map[poolKey][]*Frame),
		maxSize: maxPerBucket,
	}
}

// Format implements Factory.
func (p *Pool) Format() VideoFormat { return p.format }

// CreateFrame implements Factory.
func (p *Pool) CreateFrame(desc pixfmt.Desc, width, height int) *Frame {
	key := poolKey{width: width, height: height, desc: desc.String()}

	p.mu.Lock()
	bucket := p.buckets[key]
	if n := len(bucket); n > 0 {
		f := bucket[n-1]
		p.buckets[key] = bucket[:n-1]
		p.mu.Unlock()
		f.reset()
		return f
	}
	p.mu.Unlock()

	return New(desc, width, height)
}

// Put returns a frame for reuse. The caller must be its last reader.
func (p *Pool) Put(f *Frame) {
	if f.Empty() {
		return
	}
	key := poolKey{width: f.width, height: f.height, desc: f.desc.String()}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, f)
}

func (f *Frame) reset() {
	for _, pl := range f.planes {
		clear(pl)
	}
	f.interlaced = false
	f.topFieldFirst = false
	f.transform = IdentityTransform
}
