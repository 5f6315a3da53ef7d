// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// TargetFormat is the pixel format of every Target texture.
const TargetFormat = gputypes.TextureFormatBGRA8Unorm

// copyPitchAlignment is the row alignment required for texture to
// buffer copies.
const copyPitchAlignment = 256

// waitTimeout bounds a blocking fence wait.
const waitTimeout = 5 * time.Second

// Target is the BGRA texture a window draws from. Each upload also
// copies the texture into a readback buffer so the composed picture can
// be inspected on the CPU.
type Target struct {
	mu       sync.Mutex
	device   hal.Device
	queue    hal.Queue
	width    uint32
	height   uint32
	pitch    uint32
	tex      hal.Texture
	readback hal.Buffer

	// fence and value of the most recent upload.
	fence hal.Fence
	value uint64
}

// NewTarget allocates a width x height BGRA texture on dev.
func NewTarget(dev *Device, width, height int) (*Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gpu: invalid target size %dx%d", width, height)
	}
	device, queue, err := dev.HAL()
	if err != nil {
		return nil, err
	}
	w, h := uint32(width), uint32(height) //nolint:gosec // checked positive above
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "playout_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TargetFormat,
		Usage: gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create target texture: %w", err)
	}
	pitch := (w*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	readback, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "playout_target_readback",
		Size:  uint64(pitch) * uint64(h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("gpu: create readback buffer: %w", err)
	}
	return &Target{
		device:   device,
		queue:    queue,
		width:    w,
		height:   h,
		pitch:    pitch,
		tex:      tex,
		readback: readback,
	}, nil
}

// Size returns the texture dimensions.
func (t *Target) Size() (width, height int) { return int(t.width), int(t.height) }

// ByteSize is the length of a tightly packed BGRA picture of the target.
func (t *Target) ByteSize() int { return int(t.width) * int(t.height) * 4 }

// write uploads a tightly packed BGRA picture and records the readback
// copy into encoder.
func (t *Target) write(src []byte, encoder hal.CommandEncoder) {
	t.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		src,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: t.width * 4, RowsPerImage: t.height},
		&hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	)
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopyDst,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.tex, t.readback, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: t.pitch, RowsPerImage: t.height},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageCopyDst,
		},
	}})
}

func (t *Target) submitted(fence hal.Fence, value uint64) {
	t.mu.Lock()
	t.fence, t.value = fence, value
	t.mu.Unlock()
}

// Read waits for the most recent upload and copies the texture into dst
// as tightly packed BGRA rows. Before the first upload dst is left as is.
func (t *Target) Read(dst []byte) error {
	if len(dst) < t.ByteSize() {
		return fmt.Errorf("gpu: read target: buffer of %d bytes, need %d", len(dst), t.ByteSize())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tex == nil {
		return ErrBufferDestroyed
	}
	if t.fence == nil {
		return nil
	}
	ok, err := t.device.Wait(t.fence, t.value, waitTimeout)
	if err != nil || !ok {
		return fmt.Errorf("gpu: wait for upload: ok=%v err=%w", ok, err)
	}
	padded := make([]byte, int(t.pitch)*int(t.height))
	if err := t.queue.ReadBuffer(t.readback, 0, padded); err != nil {
		return fmt.Errorf("gpu: readback: %w", err)
	}
	row := int(t.width) * 4
	for y := 0; y < int(t.height); y++ {
		copy(dst[y*row:(y+1)*row], padded[y*int(t.pitch):])
	}
	return nil
}

// Destroy releases the texture and readback buffer.
func (t *Target) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
	}
	if t.readback != nil {
		t.device.DestroyBuffer(t.readback)
		t.readback = nil
	}
	t.fence = nil
}
