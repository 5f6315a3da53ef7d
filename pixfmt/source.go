// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pixfmt

// Source is the native pixel layout reported by a decoder or renderer.
type Source uint8

const (
	SourceUnknown Source = iota
	SourceGray8
	SourceBGRA
	SourceARGB
	SourceRGBA
	SourceABGR
	SourceYUV444P
	SourceYUV422P
	SourceYUV420P
	SourceYUV411P
	SourceYUV410P
	SourceYUVA420P

	// Layouts below have no lossless descriptor and take the fallback path.

	SourceRGB24
	SourceBGR24
	SourceNV12
	SourceYUYV422
	SourcePAL8
	SourceRGBA64

	sourceCount
)

type sourceInfo struct {
	name   string
	format Format

	// chroma subsampling divisors for planar YCbCr
	subX, subY int

	// bytes per pixel of the first plane for packed layouts
	bpp int
}

var sourceTable = [sourceCount]sourceInfo{
	SourceUnknown:  {name: "unknown"},
	SourceGray8:    {name: "gray8", format: Gray, bpp: 1},
	SourceBGRA:     {name: "bgra", format: BGRA, bpp: 4},
	SourceARGB:     {name: "argb", format: ARGB, bpp: 4},
	SourceRGBA:     {name: "rgba", format: RGBA, bpp: 4},
	SourceABGR:     {name: "abgr", format: ABGR, bpp: 4},
	SourceYUV444P:  {name: "yuv444p", format: YCbCr, subX: 1, subY: 1, bpp: 1},
	SourceYUV422P:  {name: "yuv422p", format: YCbCr, subX: 2, subY: 1, bpp: 1},
	SourceYUV420P:  {name: "yuv420p", format: YCbCr, subX: 2, subY: 2, bpp: 1},
	SourceYUV411P:  {name: "yuv411p", format: YCbCr, subX: 4, subY: 1, bpp: 1},
	SourceYUV410P:  {name: "yuv410p", format: YCbCr, subX: 4, subY: 4, bpp: 1},
	SourceYUVA420P: {name: "yuva420p", format: YCbCrA, subX: 2, subY: 2, bpp: 1},
	SourceRGB24:    {name: "rgb24", bpp: 3},
	SourceBGR24:    {name: "bgr24", bpp: 3},
	SourceNV12:     {name: "nv12", subX: 2, subY: 2, bpp: 1},
	SourceYUYV422:  {name: "yuyv422", bpp: 2},
	SourcePAL8:     {name: "pal8", bpp: 1},
	SourceRGBA64:   {name: "rgba64", bpp: 8},
}

func (s Source) info() sourceInfo {
	if s >= sourceCount {
		return sourceTable[SourceUnknown]
	}
	return sourceTable[s]
}

// String returns the source layout name.
func (s Source) String() string {
	return s.info().name
}

// Format returns the logical format a source maps to, Invalid if none.
func (s Source) Format() Format {
	return s.info().format
}

// ChromaSubsampling returns the horizontal and vertical chroma divisors of a
// planar YCbCr source. ok is false for other sources.
func (s Source) ChromaSubsampling() (x, y int, ok bool) {
	info := s.info()
	if info.format != YCbCr && info.format != YCbCrA {
		return 0, 0, false
	}
	return info.subX, info.subY, true
}

// ParseSource returns the source whose name matches.
func ParseSource(name string) (Source, bool) {
	for i, info := range sourceTable {
		if info.name == name {
			return Source(i), true
		}
	}
	return SourceUnknown, false
}

// Layout computes tightly packed line sizes and plane offsets (in bytes)
// for a frame of the given source layout. The returned size is the total
// byte count of all planes. Unknown sources return nil slices.
func Layout(s Source, width, height int) (linesizes, offsets []int, size int) {
	info := s.info()
	switch {
	case s == SourceUnknown || s >= sourceCount:
		return nil, nil, 0

	case info.format == YCbCr || info.format == YCbCrA:
		cw := ceilDiv(width, info.subX)
		ch := ceilDiv(height, info.subY)
		linesizes = []int{width, cw, cw}
		heights := []int{height, ch, ch}
		if info.format == YCbCrA {
			linesizes = append(linesizes, width)
			heights = append(heights, height)
		}
		offsets = make([]int, len(linesizes))
		for i := range linesizes {
			offsets[i] = size
			size += linesizes[i] * heights[i]
		}
		return linesizes, offsets, size

	case s == SourceNV12:
		cw := ceilDiv(width, 2) * 2
		ch := ceilDiv(height, 2)
		linesizes = []int{width, cw}
		offsets = []int{0, width * height}
		return linesizes, offsets, width*height + cw*ch

	case s == SourcePAL8:
		// index plane followed by a 256 entry 32-bit palette
		linesizes = []int{width, 4 * 256}
		offsets = []int{0, width * height}
		return linesizes, offsets, width*height + 4*256

	default:
		ls := width * info.bpp
		return []int{ls}, []int{0}, ls * height
	}
}

// Describe computes the descriptor of a frame from its source layout, its
// line sizes in bytes, the byte offsets of each plane start and the frame
// height. Chroma plane heights are recovered from the distance between the
// second and third plane starts, so every planar subsampling variant is
// handled without enumerating it.
func Describe(s Source, linesizes, offsets []int, height int) Desc {
	f := s.Format()
	switch f {
	case Gray:
		if len(linesizes) < 1 {
			break
		}
		return Desc{Format: Gray, Planes: []Plane{{Linesize: linesizes[0], Height: height, Channels: 1}}}

	case BGRA, ARGB, RGBA, ABGR:
		if len(linesizes) < 1 {
			break
		}
		return Desc{Format: f, Planes: []Plane{{Linesize: linesizes[0] / 4, Height: height, Channels: 4}}}

	case YCbCr, YCbCrA:
		want := f.Info().Planes
		if len(linesizes) < want || len(offsets) < 3 || linesizes[1] <= 0 {
			break
		}
		h2 := (offsets[2] - offsets[1]) / linesizes[1]
		d := Desc{Format: f, Planes: []Plane{
			{Linesize: linesizes[0], Height: height, Channels: 1},
			{Linesize: linesizes[1], Height: h2, Channels: 1},
			{Linesize: linesizes[2], Height: h2, Channels: 1},
		}}
		if f == YCbCrA {
			d.Planes = append(d.Planes, Plane{Linesize: linesizes[3], Height: height, Channels: 1})
		}
		return d
	}
	return Desc{Format: Invalid}
}

// DescribeTight is Describe applied to the tight layout of s.
func DescribeTight(s Source, width, height int) Desc {
	ls, offs, _ := Layout(s, width, height)
	return Describe(s, ls, offs, height)
}

func ceilDiv(a, b int) int {
	if b <= 1 {
		return a
	}
	return (a + b - 1) / b
}
