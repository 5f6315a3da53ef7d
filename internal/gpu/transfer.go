// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"
)

// Transfer buffer errors.
var (
	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("gpu: buffer has been destroyed")

	// ErrInvalidBufferSize is returned when a buffer size does not fit its use.
	ErrInvalidBufferSize = errors.New("gpu: invalid buffer size")

	// ErrBufferAlreadyMapped is returned when uploading a mapped buffer.
	ErrBufferAlreadyMapped = errors.New("gpu: buffer is mapped")

	// ErrBufferNotMapped is returned by Unmap on a buffer that is not mapped.
	ErrBufferNotMapped = errors.New("gpu: buffer is not mapped")
)

// TransferState is the mapping state of a TransferBuffer.
type TransferState int

const (
	// TransferIdle means the buffer can be mapped.
	TransferIdle TransferState = iota
	// TransferMapped means the CPU owns the buffer contents.
	TransferMapped
	// TransferPending means an upload from the buffer is still in flight.
	TransferPending
)

func (s TransferState) String() string {
	switch s {
	case TransferIdle:
		return "Idle"
	case TransferMapped:
		return "Mapped"
	case TransferPending:
		return "Pending"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// TransferBuffer is a CPU staging area for one picture. The CPU writes
// it between Map and Unmap; Upload hands it to a Target. Until the GPU
// has consumed an upload the buffer reports TransferPending and Map
// returns nil.
type TransferBuffer struct {
	mu        sync.Mutex
	device    hal.Device
	data      []byte
	fence     hal.Fence
	submitted uint64
	state     TransferState
	destroyed bool
}

// NewTransferBuffer allocates a staging buffer of size bytes.
func NewTransferBuffer(dev *Device, size int) (*TransferBuffer, error) {
	if size <= 0 {
		return nil, ErrInvalidBufferSize
	}
	device, _, err := dev.HAL()
	if err != nil {
		return nil, err
	}
	fence, err := device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("gpu: create fence: %w", err)
	}
	return &TransferBuffer{
		device: device,
		data:   make([]byte, size),
		fence:  fence,
	}, nil
}

// Size returns the buffer length in bytes.
func (b *TransferBuffer) Size() int { return len(b.data) }

// State polls the upload fence and returns the current state.
func (b *TransferBuffer) State() TransferState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pollLocked()
	return b.state
}

func (b *TransferBuffer) pollLocked() {
	if b.state != TransferPending || b.destroyed {
		return
	}
	ok, err := b.device.Wait(b.fence, b.submitted, 0)
	if err != nil {
		slogger().Warn("gpu: poll transfer fence", "err", err)
		return
	}
	if ok {
		b.state = TransferIdle
	}
}

// Map gives the CPU write access to the buffer. It returns nil when the
// buffer is destroyed, already mapped or still being uploaded.
func (b *TransferBuffer) Map() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return nil
	}
	b.pollLocked()
	if b.state != TransferIdle {
		return nil
	}
	b.state = TransferMapped
	return b.data
}

// Unmap ends CPU access.
func (b *TransferBuffer) Unmap() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return ErrBufferDestroyed
	}
	if b.state != TransferMapped {
		return ErrBufferNotMapped
	}
	b.state = TransferIdle
	return nil
}

// Upload copies the buffer into t and submits the work. The buffer is
// TransferPending until the GPU signals completion.
func (b *TransferBuffer) Upload(t *Target) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return ErrBufferDestroyed
	}
	if b.state == TransferMapped {
		return ErrBufferAlreadyMapped
	}
	if len(b.data) != t.ByteSize() {
		return fmt.Errorf("%w: %d bytes for a %d byte target", ErrInvalidBufferSize, len(b.data), t.ByteSize())
	}

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "playout_upload"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("playout_upload"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}
	t.write(b.data, encoder)
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	value := b.submitted + 1
	if err := t.queue.Submit([]hal.CommandBuffer{cmdBuf}, b.fence, value); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	b.submitted = value
	b.state = TransferPending
	t.submitted(b.fence, value)
	return nil
}

// Destroy waits for an outstanding upload and releases the fence.
func (b *TransferBuffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	if b.state == TransferPending {
		if ok, err := b.device.Wait(b.fence, b.submitted, waitTimeout); err != nil || !ok {
			slogger().Warn("gpu: transfer still pending on destroy", "err", err)
		}
	}
	b.device.DestroyFence(b.fence)
	b.destroyed = true
	b.data = nil
}
