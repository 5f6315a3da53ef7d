// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package convert

import "github.com/gogpu/playout/frame"

// FieldOffset returns the vertical fill translation that lines up the
// fields of an interlaced source with the output field order.
//
//	output \ source   top first   bottom first
//	upper             0           +0.5/h
//	lower             -0.5/h      0
func FieldOffset(output frame.FieldMode, interlaced, topFieldFirst bool, height int) float64 {
	if !interlaced || height <= 0 {
		return 0
	}
	switch {
	case output == frame.Upper && !topFieldFirst:
		return 0.5 / float64(height)
	case output == frame.Lower && topFieldFirst:
		return -0.5 / float64(height)
	}
	return 0
}
