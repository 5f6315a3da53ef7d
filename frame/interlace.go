// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

// Interlace weaves two progressive frames into one interlaced frame.
//
// For Upper, rows 0, 2, 4... come from first and the odd rows from second.
// For Lower the roles are swapped so that first is still shown first.
// Progressive returns first unchanged. When the layouts differ, or either
// frame is empty, the non-empty frame is returned.
func Interlace(first, second *Frame, mode FieldMode) *Frame {
	if mode == Progressive || second.Empty() {
		return first
	}
	if first.Empty() || !first.desc.Equal(second.desc) {
		if first.Empty() {
			return second
		}
		return first
	}

	even, odd := first, second
	if mode == Lower {
		even, odd = second, first
	}

	out := New(first.desc, first.width, first.height)
	for i, p := range first.desc.Planes {
		stride := p.Stride()
		dst := out.planes[i]
		for y := 0; y < p.Height; y++ {
			src := even.planes[i]
			if y&1 == 1 {
				src = odd.planes[i]
			}
			off := y * stride
			copy(dst[off:off+stride], src[off:off+stride])
		}
	}
	out.interlaced = true
	out.topFieldFirst = mode == Upper
	out.transform = first.transform
	return out
}
