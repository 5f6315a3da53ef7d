// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pixfmt describes the plane layout of video frames.
//
// A [Desc] lists the planes of a frame together with the logical color
// format they encode. Descriptors are computed from the native format tag
// reported by a decoder or renderer ([Source]) and the plane geometry it
// produced. Sources without a lossless descriptor map to [Invalid], which
// tells the normalizer to run its fallback conversion to BGRA.
package pixfmt

// Format is the logical color format of a normalized frame.
type Format uint8

const (
	// Invalid marks a layout that has no lossless descriptor.
	Invalid Format = iota

	// Gray is a single 8-bit luminance plane.
	Gray

	// BGRA is packed 32-bit blue, green, red, alpha.
	// This is the canonical layout uploaded to the GPU.
	BGRA

	// ARGB is packed 32-bit alpha, red, green, blue.
	ARGB

	// RGBA is packed 32-bit red, green, blue, alpha.
	RGBA

	// ABGR is packed 32-bit alpha, blue, green, red.
	ABGR

	// YCbCr is planar luma plus two chroma planes, possibly subsampled.
	YCbCr

	// YCbCrA is YCbCr with a full resolution alpha plane.
	YCbCrA

	formatCount
)

// FormatInfo contains metadata about a logical format.
type FormatInfo struct {
	// Name is the lower-case identifier used in logs and flags.
	Name string

	// Planes is the number of planes, zero for Invalid.
	Planes int

	// Channels is the number of interleaved samples per pixel in the first plane.
	Channels int

	// HasAlpha indicates if the format carries an alpha channel.
	HasAlpha bool

	// Packed indicates a single interleaved plane.
	Packed bool
}

var formatInfoTable = [formatCount]FormatInfo{
	Invalid: {Name: "invalid"},
	Gray:    {Name: "gray", Planes: 1, Channels: 1, Packed: true},
	BGRA:    {Name: "bgra", Planes: 1, Channels: 4, HasAlpha: true, Packed: true},
	ARGB:    {Name: "argb", Planes: 1, Channels: 4, HasAlpha: true, Packed: true},
	RGBA:    {Name: "rgba", Planes: 1, Channels: 4, HasAlpha: true, Packed: true},
	ABGR:    {Name: "abgr", Planes: 1, Channels: 4, HasAlpha: true, Packed: true},
	YCbCr:   {Name: "ycbcr", Planes: 3, Channels: 1},
	YCbCrA:  {Name: "ycbcra", Planes: 4, Channels: 1, HasAlpha: true},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return formatInfoTable[Invalid]
	}
	return formatInfoTable[f]
}

// String returns the format name.
func (f Format) String() string {
	return f.Info().Name
}

// Valid reports whether f has a lossless plane layout.
func (f Format) Valid() bool {
	return f != Invalid && f < formatCount
}

// IsPacked reports whether f is a single interleaved plane.
func (f Format) IsPacked() bool {
	return f.Info().Packed
}

// HasAlpha reports whether f carries alpha.
func (f Format) HasAlpha() bool {
	return f.Info().HasAlpha
}

// ChannelOrder returns the byte offsets of blue, green, red and alpha within
// one pixel of a packed four channel format. ok is false for other formats.
func (f Format) ChannelOrder() (b, g, r, a int, ok bool) {
	switch f {
	case BGRA:
		return 0, 1, 2, 3, true
	case ARGB:
		return 3, 2, 1, 0, true
	case RGBA:
		return 2, 1, 0, 3, true
	case ABGR:
		return 1, 2, 3, 0, true
	}
	return 0, 0, 0, 0, false
}
