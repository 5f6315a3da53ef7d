// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/playout/frame"
)

// Mode selects how a window is created.
type Mode uint8

const (
	// Windowed is a titled window positioned on a screen.
	Windowed Mode = iota

	// Fullscreen covers the whole screen.
	Fullscreen
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Windowed:
		return "windowed"
	case Fullscreen:
		return "fullscreen"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Window is the output surface driven by a presentation loop.
//
// Every method must be called from the goroutine that called Create.
type Window interface {
	// Create opens the window with a client area of width x height pixels.
	Create(width, height, depth int, title string, mode Mode) error

	// SetPosition moves the window origin to (x, y) in screen pixels.
	SetPosition(x, y int)

	// SetSize resizes the client area.
	SetSize(width, height int)

	// PollEvents drains and discards pending window events.
	PollEvents()

	// Activate binds the window's rendering context to the calling thread.
	Activate() error

	// NewTransfer allocates a staging buffer of size bytes.
	NewTransfer(size int) (Transfer, error)

	// Draw clears the window and draws the bound texture as a centered
	// quad scaled by (sx, sy) relative to the client area.
	Draw(sx, sy float64) error

	// Present shows the drawn picture.
	Present() error

	// Close releases the window. Close is idempotent.
	Close() error
}

// Transfer is a staging buffer holding one BGRA picture.
type Transfer interface {
	// Map returns the buffer for writing, or nil when the device is still
	// busy with it. A nil result is not an error.
	Map() []byte

	// Unmap ends the write started by Map.
	Unmap() error

	// Bind makes the buffer contents the texture of the next Draw.
	Bind() error

	// Release frees the buffer.
	Release()
}

// FrameWriter is implemented by windows that can flatten a frame into a
// mapped transfer themselves, for example on the GPU.
type FrameWriter interface {
	WriteFrame(dst []byte, f *frame.Frame) error
}

// Window errors.
var (
	// ErrNotCreated is returned by operations on a window before Create.
	ErrNotCreated = errors.New("surface: window not created")

	// ErrClosed is returned by operations on a closed window.
	ErrClosed = errors.New("surface: window closed")

	// ErrTransferSize is returned when a transfer does not match the texture.
	ErrTransferSize = errors.New("surface: transfer size does not match window texture")
)
