// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pixfmt

import "fmt"

// Plane describes one plane of a frame.
type Plane struct {
	// Linesize is the row length in pixels (elements), including padding.
	Linesize int

	// Height is the number of rows.
	Height int

	// Channels is the number of samples per element.
	Channels int
}

// Stride returns the row length in bytes.
func (p Plane) Stride() int {
	return p.Linesize * p.Channels
}

// Size returns the plane size in bytes.
func (p Plane) Size() int {
	return p.Linesize * p.Height * p.Channels
}

// Desc is an immutable description of a frame's planes.
type Desc struct {
	Format Format
	Planes []Plane
}

// NewPacked returns the descriptor of a tightly packed single plane frame.
func NewPacked(f Format, width, height int) Desc {
	info := f.Info()
	if !info.Packed {
		return Desc{Format: Invalid}
	}
	return Desc{Format: f, Planes: []Plane{{Linesize: width, Height: height, Channels: info.Channels}}}
}

// Size returns the total byte size of all planes.
func (d Desc) Size() int {
	n := 0
	for _, p := range d.Planes {
		n += p.Size()
	}
	return n
}

// Valid reports whether the descriptor losslessly describes its frame.
func (d Desc) Valid() bool {
	return d.Format.Valid() && len(d.Planes) == d.Format.Info().Planes
}

// Equal reports whether d and o describe the same layout.
func (d Desc) Equal(o Desc) bool {
	if d.Format != o.Format || len(d.Planes) != len(o.Planes) {
		return false
	}
	for i := range d.Planes {
		if d.Planes[i] != o.Planes[i] {
			return false
		}
	}
	return true
}

func (d Desc) String() string {
	return fmt.Sprintf("%s%v", d.Format, d.Planes)
}
