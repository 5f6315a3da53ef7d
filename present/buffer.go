// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package present

import (
	"errors"
	"fmt"

	"github.com/gogpu/playout"
	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/internal/convert"
	"github.com/gogpu/playout/surface"
)

// ErrFrameSize is returned when a frame does not match the transfer size.
var ErrFrameSize = errors.New("present: frame size does not match output format")

// DoubleBuffer alternates two transfers so that the window draws from one
// while the next frame is copied into the other.
//
// DoubleBuffer is not safe for concurrent use; it belongs to the
// presentation goroutine.
type DoubleBuffer struct {
	transfers [2]surface.Transfer
	index     int
	size      int
	skipped   int
	write     func(dst []byte, f *frame.Frame) error
}

// NewDoubleBuffer allocates two transfers of size bytes on win.
func NewDoubleBuffer(win surface.Window, size int) (*DoubleBuffer, error) {
	b := &DoubleBuffer{size: size, write: convert.WriteBGRA}
	if fw, ok := win.(surface.FrameWriter); ok {
		b.write = fw.WriteFrame
	}
	for i := range b.transfers {
		t, err := win.NewTransfer(size)
		if err != nil {
			b.Release()
			return nil, fmt.Errorf("present: transfer %d: %w", i, err)
		}
		b.transfers[i] = t
	}
	return b, nil
}

// Index returns the buffer bound by the next cycle. After K cycles it is
// K mod 2.
func (b *DoubleBuffer) Index() int { return b.index }

// Skipped returns how many updates were dropped because the device was
// still busy with the buffer.
func (b *DoubleBuffer) Skipped() int { return b.skipped }

// Cycle draws the ready buffer, copies f into the other one and flips.
// When the other buffer cannot be mapped the copy is skipped and the
// stale picture is drawn again on the next cycle.
func (b *DoubleBuffer) Cycle(win surface.Window, f *frame.Frame, sx, sy float64) error {
	if n := f.Width() * f.Height() * 4; n != b.size {
		return fmt.Errorf("%w: %v is %d bytes, want %d", ErrFrameSize, f, n, b.size)
	}
	if err := b.transfers[b.index].Bind(); err != nil {
		return fmt.Errorf("present: bind transfer %d: %w", b.index, err)
	}
	if err := win.Draw(sx, sy); err != nil {
		return fmt.Errorf("present: draw: %w", err)
	}

	next := b.index ^ 1
	var err error
	if dst := b.transfers[next].Map(); dst != nil {
		err = b.write(dst, f)
		if uerr := b.transfers[next].Unmap(); err == nil && uerr != nil {
			err = fmt.Errorf("present: unmap transfer %d: %w", next, uerr)
		}
	} else {
		b.skipped++
		playout.Logger().Debug("present: transfer busy, update skipped", "transfer", next)
	}
	b.index = next
	return err
}

// Release frees both transfers.
func (b *DoubleBuffer) Release() {
	for i, t := range b.transfers {
		if t != nil {
			t.Release()
			b.transfers[i] = nil
		}
	}
}
