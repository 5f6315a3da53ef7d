// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package convert

import (
	"image"

	"github.com/gogpu/playout/pixfmt"
)

// RawFrame is a frame as delivered by a decoder or renderer, in its native
// layout. Planes may be given separately, or as one buffer in Planes[0]
// together with the plane start Offsets.
type RawFrame struct {
	Source pixfmt.Source
	Width  int
	Height int

	Planes    [][]byte
	Linesizes []int // bytes per row, per plane
	Offsets   []int // plane start offsets in bytes; derived from plane lengths when nil

	Interlaced    bool
	TopFieldFirst bool

	// Image is an already decoded picture. The fallback conversion reads
	// it directly when the source layout has no adapter of its own.
	Image image.Image
}

// offsets returns the plane start offsets used to recover chroma heights.
func (r *RawFrame) offsets() []int {
	if len(r.Offsets) > 0 {
		return r.Offsets
	}
	offs := make([]int, len(r.Planes))
	n := 0
	for i, p := range r.Planes {
		offs[i] = n
		n += len(p)
	}
	return offs
}

// plane returns the bytes of plane i.
func (r *RawFrame) plane(i int) []byte {
	if len(r.Planes) == 1 && len(r.Offsets) > 1 {
		if i >= len(r.Offsets) {
			return nil
		}
		end := len(r.Planes[0])
		if i+1 < len(r.Offsets) {
			end = r.Offsets[i+1]
		}
		return r.Planes[0][r.Offsets[i]:end]
	}
	if i >= len(r.Planes) {
		return nil
	}
	return r.Planes[i]
}

// Describe returns the descriptor of the raw layout.
func (r *RawFrame) Describe() pixfmt.Desc {
	return pixfmt.Describe(r.Source, r.Linesizes, r.offsets(), r.Height)
}
