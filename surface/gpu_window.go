// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/playout"
	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/internal/convert"
	"github.com/gogpu/playout/internal/gpu"
)

// GPUWindow uploads transfers to a BGRA texture on the GPU. The texture
// is read back after each upload and composed like an ImageWindow, so a
// GPUWindow also works where no display is attached.
type GPUWindow struct {
	canvas
	provider gpucontext.DeviceProvider
	dev      *gpu.Device
	owned    bool
	target   *gpu.Target
	conv     *gpu.Converter
	pixels   []byte
	uploaded bool
}

// GPUOption configures a GPUWindow.
type GPUOption func(*GPUWindow)

// WithDeviceProvider shares the device of a host application instead of
// opening one.
func WithDeviceProvider(p gpucontext.DeviceProvider) GPUOption {
	return func(w *GPUWindow) { w.provider = p }
}

// withDevice draws on d. The window closes d when owned is true.
func withDevice(d *gpu.Device, owned bool) GPUOption {
	return func(w *GPUWindow) { w.dev, w.owned = d, owned }
}

// newGPUBackend opens a device up front so that the registry can fall
// back to another backend when no adapter is usable.
func newGPUBackend() (Window, error) {
	d, err := gpu.Open()
	if err != nil {
		return nil, err
	}
	return NewGPUWindow(withDevice(d, true)), nil
}

func init() {
	Register("gpu", 100, newGPUBackend, gpu.Available)
}

// NewGPUWindow returns a window that is not yet created. The device is
// acquired by Create.
func NewGPUWindow(opts ...GPUOption) *GPUWindow {
	w := &GPUWindow{}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Create acquires the device and allocates the target texture.
func (w *GPUWindow) Create(width, height, depth int, title string, mode Mode) error {
	if err := w.create(width, height, depth, title, mode); err != nil {
		return err
	}
	if w.dev == nil {
		var err error
		if w.provider != nil {
			w.dev, err = gpu.FromProvider(w.provider)
		} else {
			w.dev, err = gpu.Open()
			w.owned = err == nil
		}
		if err != nil {
			return fmt.Errorf("surface: gpu window: %w", err)
		}
	}
	target, err := gpu.NewTarget(w.dev, width, height)
	if err != nil {
		return fmt.Errorf("surface: gpu window: %w", err)
	}
	w.target = target
	w.pixels = make([]byte, target.ByteSize())

	conv, err := gpu.NewConverter(w.dev)
	if err != nil {
		playout.Logger().Warn("surface: YCbCr converter unavailable, converting on the CPU", "err", err)
	} else {
		w.conv = conv
	}
	playout.Logger().Info("surface: gpu window created",
		"adapter", w.dev.Name(), "width", width, "height", height, "mode", mode)
	return nil
}

// NewTransfer returns a fenced transfer buffer on the window's device.
func (w *GPUWindow) NewTransfer(size int) (Transfer, error) {
	w.mu.Lock()
	err := w.check()
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if size != w.target.ByteSize() {
		return nil, ErrTransferSize
	}
	buf, err := gpu.NewTransferBuffer(w.dev, size)
	if err != nil {
		return nil, fmt.Errorf("surface: gpu transfer: %w", err)
	}
	return &gpuTransfer{win: w, buf: buf}, nil
}

// Draw reads the texture back and draws it as the quad.
func (w *GPUWindow) Draw(sx, sy float64) error {
	if w.uploaded {
		if err := w.target.Read(w.pixels); err != nil {
			return fmt.Errorf("surface: gpu window: %w", err)
		}
		if err := w.setTexture(w.pixels); err != nil {
			return err
		}
	}
	return w.canvas.Draw(sx, sy)
}

// WriteFrame flattens f into dst, on the GPU for planar YCbCr.
func (w *GPUWindow) WriteFrame(dst []byte, f *frame.Frame) error {
	if w.conv != nil && w.conv.Supports(f) {
		err := w.conv.Convert(dst, f)
		if err == nil || errors.Is(err, gpu.ErrInvalidBufferSize) {
			return err
		}
		playout.Logger().Debug("surface: gpu conversion failed, converting on the CPU", "err", err)
	}
	return convert.WriteBGRA(dst, f)
}

// Close releases the texture, the converter and an owned device.
func (w *GPUWindow) Close() error {
	if !w.close() {
		return nil
	}
	if w.conv != nil {
		w.conv.Destroy()
	}
	if w.target != nil {
		w.target.Destroy()
	}
	if w.dev != nil && w.owned {
		w.dev.Close()
	}
	return nil
}

type gpuTransfer struct {
	win *GPUWindow
	buf *gpu.TransferBuffer
}

func (t *gpuTransfer) Map() []byte { return t.buf.Map() }

func (t *gpuTransfer) Unmap() error { return t.buf.Unmap() }

func (t *gpuTransfer) Bind() error {
	if err := t.buf.Upload(t.win.target); err != nil {
		return err
	}
	t.win.uploaded = true
	return nil
}

func (t *gpuTransfer) Release() { t.buf.Destroy() }

var (
	_ Window      = (*GPUWindow)(nil)
	_ FrameWriter = (*GPUWindow)(nil)
)
