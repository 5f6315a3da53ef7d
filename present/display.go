// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package present

import (
	"fmt"

	"github.com/gogpu/playout"
)

// Geometry is the origin and size of a screen, in desktop pixels.
type Geometry struct {
	X, Y          int
	Width, Height int
}

// Displays enumerates the screens of the platform.
type Displays interface {
	// Screen returns the geometry of screen index. It fails with
	// playout.ErrOutOfRange when there is no such screen and with
	// playout.ErrInvalidOperation when the geometry cannot be queried.
	Screen(index int) (Geometry, error)

	// SupportsFullscreen reports whether a window may cover a screen.
	SupportsFullscreen() bool
}

// StaticDisplays is a fixed screen list that supports fullscreen. A
// screen with a zero size cannot be queried.
type StaticDisplays []Geometry

// Screen implements Displays.
func (d StaticDisplays) Screen(index int) (Geometry, error) {
	if index < 0 || index >= len(d) {
		return Geometry{}, fmt.Errorf("%w: screen %d of %d", playout.ErrOutOfRange, index, len(d))
	}
	g := d[index]
	if g.Width <= 0 || g.Height <= 0 {
		return Geometry{}, fmt.Errorf("%w: screen %d has no current mode", playout.ErrInvalidOperation, index)
	}
	return g, nil
}

// SupportsFullscreen implements Displays.
func (StaticDisplays) SupportsFullscreen() bool { return true }

// Headless has no screens and only allows windowed output at the frame
// size. A nil Displays behaves the same.
type Headless struct{}

// Screen implements Displays.
func (Headless) Screen(int) (Geometry, error) {
	return Geometry{}, fmt.Errorf("%w: headless", playout.ErrNotSupported)
}

// SupportsFullscreen implements Displays.
func (Headless) SupportsFullscreen() bool { return false }
