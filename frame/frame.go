// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frame defines the unit of video data moved through the pipeline.
//
// A Frame owns its plane bytes and is immutable once handed to a channel.
// The nil *Frame is the empty/end-of-stream sentinel; every accessor is safe
// to call on it.
package frame

import (
	"fmt"

	"github.com/gogpu/playout/pixfmt"
)

// Transform is the compositing transform applied by the mixer.
type Transform struct {
	// FillTranslation is the normalized (x, y) offset of the fill rectangle.
	FillTranslation [2]float64

	// FillScale is the normalized (x, y) size of the fill rectangle.
	FillScale [2]float64
}

// IdentityTransform fills the output without offset.
var IdentityTransform = Transform{FillScale: [2]float64{1, 1}}

// Frame is one unit of pixel data plus its layout and geometry.
type Frame struct {
	desc          pixfmt.Desc
	width, height int
	planes        [][]byte

	interlaced    bool
	topFieldFirst bool
	transform     Transform
}

// New allocates a zeroed frame for the descriptor.
func New(desc pixfmt.Desc, width, height int) *Frame {
	planes := make([][]byte, len(desc.Planes))
	for i, p := range desc.Planes {
		planes[i] = make([]byte, p.Size())
	}
	return &Frame{
		desc:      desc,
		width:     width,
		height:    height,
		planes:    planes,
		transform: IdentityTransform,
	}
}

// Empty reports whether f is the sentinel or carries no pixel data.
func (f *Frame) Empty() bool {
	return f == nil || len(f.planes) == 0
}

// Desc returns the plane layout.
func (f *Frame) Desc() pixfmt.Desc {
	if f == nil {
		return pixfmt.Desc{}
	}
	return f.desc
}

// Width returns the visible width in pixels.
func (f *Frame) Width() int {
	if f == nil {
		return 0
	}
	return f.width
}

// Height returns the visible height in pixels.
func (f *Frame) Height() int {
	if f == nil {
		return 0
	}
	return f.height
}

// Plane returns the bytes of plane i, nil if out of range.
func (f *Frame) Plane(i int) []byte {
	if f == nil || i < 0 || i >= len(f.planes) {
		return nil
	}
	return f.planes[i]
}

// NumPlanes returns the number of planes.
func (f *Frame) NumPlanes() int {
	if f == nil {
		return 0
	}
	return len(f.planes)
}

// Size returns the total byte size of all planes.
func (f *Frame) Size() int {
	return f.Desc().Size()
}

// Interlaced reports whether the frame holds two fields.
func (f *Frame) Interlaced() bool {
	return f != nil && f.interlaced
}

// TopFieldFirst reports the field order hint of an interlaced frame.
func (f *Frame) TopFieldFirst() bool {
	return f != nil && f.topFieldFirst
}

// SetFieldOrder records the field structure of the frame. It must be called
// before the frame is shared.
func (f *Frame) SetFieldOrder(interlaced, topFieldFirst bool) {
	f.interlaced = interlaced
	f.topFieldFirst = topFieldFirst
}

// Transform returns the compositing transform.
func (f *Frame) Transform() Transform {
	if f == nil {
		return IdentityTransform
	}
	return f.transform
}

// SetTransform replaces the compositing transform. It must be called before
// the frame is shared.
func (f *Frame) SetTransform(t Transform) {
	f.transform = t
}

func (f *Frame) String() string {
	if f == nil {
		return "frame(nil)"
	}
	return fmt.Sprintf("frame(%dx%d %v)", f.width, f.height, f.desc.Format)
}
