// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "sync"

// ImageWindow is a headless Window. Bound transfers are composed on the
// CPU and the presented picture is kept for Snapshot and SavePNG.
type ImageWindow struct {
	canvas
}

// NewImageWindow returns a window that is not yet created.
func NewImageWindow() *ImageWindow {
	return &ImageWindow{}
}

// Create allocates the texture and client area.
func (w *ImageWindow) Create(width, height, depth int, title string, mode Mode) error {
	return w.create(width, height, depth, title, mode)
}

// NewTransfer returns a transfer backed by host memory.
func (w *ImageWindow) NewTransfer(size int) (Transfer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check(); err != nil {
		return nil, err
	}
	if size != len(w.texture.Pix) {
		return nil, ErrTransferSize
	}
	return &memTransfer{win: &w.canvas, data: make([]byte, size)}, nil
}

// Close releases the window.
func (w *ImageWindow) Close() error {
	w.close()
	return nil
}

// memTransfer is a host memory Transfer.
type memTransfer struct {
	mu       sync.Mutex
	win      *canvas
	data     []byte
	mapped   bool
	released bool
}

func (t *memTransfer) Map() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mapped || t.released {
		return nil
	}
	t.mapped = true
	return t.data
}

func (t *memTransfer) Unmap() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.mapped {
		return nil
	}
	t.mapped = false
	return nil
}

func (t *memTransfer) Bind() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return ErrClosed
	}
	return t.win.setTexture(t.data)
}

func (t *memTransfer) Release() {
	t.mu.Lock()
	t.released = true
	t.data = nil
	t.mu.Unlock()
}

var _ Window = (*ImageWindow)(nil)
