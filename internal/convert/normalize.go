// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package convert turns raw decoder and renderer output into normalized
// frames, and flattens normalized frames into BGRA for upload.
package convert

import (
	"errors"
	"fmt"

	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/internal/parallel"
	"github.com/gogpu/playout/pixfmt"
)

var (
	// ErrNilFrame is returned when Normalize receives no frame.
	ErrNilFrame = errors.New("convert: nil raw frame")

	// ErrShortPlane is returned when a plane holds fewer bytes than its
	// line size and height require.
	ErrShortPlane = errors.New("convert: plane too short")

	// ErrUnsupported is returned when neither a descriptor nor the
	// fallback conversion can interpret the source layout.
	ErrUnsupported = errors.New("convert: unsupported source layout")
)

// rowGrain is the smallest row range handed to one worker.
const rowGrain = 32

// Normalizer converts raw frames into descriptor-conformant frames
// allocated by a frame.Factory.
//
// Thread safety: Normalize may be called concurrently.
type Normalizer struct {
	factory frame.Factory
	workers *parallel.WorkerPool
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithWorkerPool runs plane copies on p instead of the shared pool.
func WithWorkerPool(p *parallel.WorkerPool) NormalizerOption {
	return func(n *Normalizer) {
		if p != nil {
			n.workers = p
		}
	}
}

// NewNormalizer returns a normalizer allocating from factory.
func NewNormalizer(factory frame.Factory, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{factory: factory, workers: parallel.Shared()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize copies raw into a new frame. Layouts with a valid descriptor
// are copied plane by plane with tight destination rows. Other layouts go
// through a pooled conversion context into BGRA. Interlaced sources get
// the fill translation that fixes their field order.
func (n *Normalizer) Normalize(raw *RawFrame) (*frame.Frame, error) {
	if raw == nil {
		return nil, ErrNilFrame
	}

	var (
		f   *frame.Frame
		err error
	)
	if desc := raw.Describe(); desc.Valid() {
		f, err = n.copyPlanes(raw, desc)
	} else {
		f, err = n.fallback(raw)
	}
	if err != nil {
		return nil, err
	}

	f.SetFieldOrder(raw.Interlaced, raw.TopFieldFirst)
	if off := FieldOffset(n.factory.Format().FieldMode, raw.Interlaced, raw.TopFieldFirst, raw.Height); off != 0 {
		t := f.Transform()
		t.FillTranslation[1] += off
		f.SetTransform(t)
	}
	return f, nil
}

// tightDesc returns desc with every line size set to the visible width.
func tightDesc(s pixfmt.Source, desc pixfmt.Desc, width int) pixfmt.Desc {
	out := pixfmt.Desc{Format: desc.Format, Planes: make([]pixfmt.Plane, len(desc.Planes))}
	copy(out.Planes, desc.Planes)
	out.Planes[0].Linesize = width
	if sx, _, ok := s.ChromaSubsampling(); ok {
		cw := (width + sx - 1) / sx
		out.Planes[1].Linesize = cw
		out.Planes[2].Linesize = cw
		if len(out.Planes) > 3 {
			out.Planes[3].Linesize = width
		}
	}
	return out
}

func (n *Normalizer) copyPlanes(raw *RawFrame, desc pixfmt.Desc) (*frame.Frame, error) {
	dstDesc := tightDesc(raw.Source, desc, raw.Width)

	// validate every plane before any copy starts
	for i, p := range desc.Planes {
		src := raw.plane(i)
		row := dstDesc.Planes[i].Stride()
		if p.Height > 0 && raw.Linesizes[i] < row {
			return nil, fmt.Errorf("%w: plane %d line size %d is shorter than a %d byte row",
				ErrShortPlane, i, raw.Linesizes[i], row)
		}
		if p.Height > 0 && len(src) < (p.Height-1)*raw.Linesizes[i]+row {
			return nil, fmt.Errorf("%w: plane %d has %d bytes, need %d",
				ErrShortPlane, i, len(src), (p.Height-1)*raw.Linesizes[i]+row)
		}
	}

	f := n.factory.CreateFrame(dstDesc, raw.Width, raw.Height)

	var work []func()
	for i, p := range dstDesc.Planes {
		src, dst := raw.plane(i), f.Plane(i)
		srcStride, dstStride := raw.Linesizes[i], p.Stride()
		if srcStride == dstStride {
			work = append(work, parallel.Split(p.Height, rowGrain, n.workers.Workers(), func(lo, hi int) {
				copy(dst[lo*dstStride:hi*dstStride], src[lo*srcStride:hi*srcStride])
			})...)
			continue
		}
		work = append(work, parallel.Split(p.Height, rowGrain, n.workers.Workers(), func(lo, hi int) {
			for y := lo; y < hi; y++ {
				copy(dst[y*dstStride:(y+1)*dstStride], src[y*srcStride:y*srcStride+dstStride])
			}
		})...)
	}
	n.workers.ExecuteAll(work)
	return f, nil
}

func (n *Normalizer) fallback(raw *RawFrame) (*frame.Frame, error) {
	if raw.Width <= 0 || raw.Height <= 0 {
		return nil, fmt.Errorf("%w: %v %dx%d", ErrUnsupported, raw.Source, raw.Width, raw.Height)
	}

	key := contextKey(raw.Width, raw.Height, raw.Source)
	ctx, ok := contexts.Get(key)
	if !ok {
		ctx = newContext(raw.Width, raw.Height, raw.Source)
	}
	defer contexts.Put(key, ctx)

	desc := pixfmt.NewPacked(pixfmt.BGRA, raw.Width, raw.Height)
	f := n.factory.CreateFrame(desc, raw.Width, raw.Height)
	if err := ctx.convert(raw, f.Plane(0), desc.Planes[0].Stride()); err != nil {
		return nil, err
	}
	return f, nil
}
