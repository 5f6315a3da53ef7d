// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package present

import (
	"fmt"
	"math"
	"strings"
)

// Stretch selects how a frame is fitted to the window.
type Stretch uint8

const (
	// StretchNone draws the frame at its native pixel density.
	StretchNone Stretch = iota

	// StretchUniform keeps the aspect ratio and fits the whole frame.
	StretchUniform

	// StretchFill fills the window, ignoring the aspect ratio.
	StretchFill

	// StretchUniformToFill keeps the aspect ratio and fills the window,
	// cropping the overflow.
	StretchUniformToFill
)

var stretchNames = [...]string{"none", "uniform", "fill", "uniform_to_fill"}

// String returns the configuration name of the mode.
func (s Stretch) String() string {
	if int(s) < len(stretchNames) {
		return stretchNames[s]
	}
	return fmt.Sprintf("Stretch(%d)", int(s))
}

// ParseStretch parses a mode name. Matching ignores case and accepts
// hyphens for underscores.
func ParseStretch(name string) (Stretch, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for i, s := range stretchNames {
		if n == s {
			return Stretch(i), nil
		}
	}
	return 0, fmt.Errorf("present: unknown stretch mode %q", name)
}

// Scale returns the quad scale for a w x h frame on a W x H window.
// (1, 1) covers the window exactly.
func Scale(mode Stretch, w, h, W, H float64) (sx, sy float64) {
	switch mode {
	case StretchNone:
		return w / W, h / H

	case StretchUniform:
		aspect := w / h
		sx = math.Min(1, H*aspect/W)
		return sx, W * sx / (H * aspect)

	case StretchUniformToFill:
		wr, hr := w/W, h/H
		inv := 1 / math.Min(wr, hr)
		return wr * inv, hr * inv
	}
	return 1, 1
}
