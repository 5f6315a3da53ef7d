package gpu

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/pixfmt"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	d, err := openInstance(instance)
	if err != nil {
		instance.Destroy()
		t.Fatalf("openInstance failed: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestDeviceClose(t *testing.T) {
	d := newTestDevice(t)
	if _, _, err := d.HAL(); err != nil {
		t.Fatalf("HAL() error = %v", err)
	}
	d.Close()
	d.Close()
	if _, _, err := d.HAL(); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("HAL() after Close error = %v, want ErrDeviceClosed", err)
	}
}

type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device             { return nil }
func (plainProvider) Queue() gpucontext.Queue               { return nil }
func (plainProvider) Adapter() gpucontext.Adapter           { return nil }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }

type fakeHALProvider struct {
	plainProvider
	device hal.Device
	queue  hal.Queue
}

func (p fakeHALProvider) HalDevice() any { return p.device }
func (p fakeHALProvider) HalQueue() any  { return p.queue }

func TestFromProvider(t *testing.T) {
	owner := newTestDevice(t)
	device, queue, _ := owner.HAL()

	if _, err := FromProvider(plainProvider{}); err == nil {
		t.Error("FromProvider without HAL accessors should fail")
	}
	if _, err := FromProvider(fakeHALProvider{}); err == nil {
		t.Error("FromProvider with nil HAL device should fail")
	}

	d, err := FromProvider(fakeHALProvider{device: device, queue: queue})
	if err != nil {
		t.Fatalf("FromProvider error = %v", err)
	}
	d.Close()
	if _, _, err := owner.HAL(); err != nil {
		t.Errorf("closing an adopted device must not close the owner: %v", err)
	}
}

func TestTransferStateString(t *testing.T) {
	tests := []struct {
		state TransferState
		want  string
	}{
		{TransferIdle, "Idle"},
		{TransferMapped, "Mapped"},
		{TransferPending, "Pending"},
		{TransferState(9), "Unknown(9)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("TransferState(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestTransferMapUnmap(t *testing.T) {
	d := newTestDevice(t)
	b, err := NewTransferBuffer(d, 16)
	if err != nil {
		t.Fatalf("NewTransferBuffer error = %v", err)
	}

	data := b.Map()
	if len(data) != 16 {
		t.Fatalf("Map() returned %d bytes, want 16", len(data))
	}
	if b.State() != TransferMapped {
		t.Errorf("State() = %v, want Mapped", b.State())
	}
	if b.Map() != nil {
		t.Error("second Map() should return nil")
	}
	if err := b.Unmap(); err != nil {
		t.Fatalf("Unmap error = %v", err)
	}
	if err := b.Unmap(); !errors.Is(err, ErrBufferNotMapped) {
		t.Errorf("second Unmap error = %v, want ErrBufferNotMapped", err)
	}

	b.Destroy()
	b.Destroy()
	if b.Map() != nil {
		t.Error("Map() after Destroy should return nil")
	}
	if err := b.Unmap(); !errors.Is(err, ErrBufferDestroyed) {
		t.Errorf("Unmap after Destroy error = %v, want ErrBufferDestroyed", err)
	}
}

func TestTransferInvalidSize(t *testing.T) {
	d := newTestDevice(t)
	if _, err := NewTransferBuffer(d, 0); !errors.Is(err, ErrInvalidBufferSize) {
		t.Errorf("NewTransferBuffer(0) error = %v, want ErrInvalidBufferSize", err)
	}
	if _, err := NewTarget(d, 0, 10); err == nil {
		t.Error("NewTarget(0, 10) should fail")
	}
}

func TestTransferUpload(t *testing.T) {
	d := newTestDevice(t)
	target, err := NewTarget(d, 4, 2)
	if err != nil {
		t.Fatalf("NewTarget error = %v", err)
	}
	defer target.Destroy()
	if w, h := target.Size(); w != 4 || h != 2 {
		t.Errorf("Size() = %dx%d, want 4x2", w, h)
	}

	b, err := NewTransferBuffer(d, target.ByteSize())
	if err != nil {
		t.Fatalf("NewTransferBuffer error = %v", err)
	}
	defer b.Destroy()

	copy(b.Map(), []byte{1, 2, 3, 4})
	if err := b.Upload(target); !errors.Is(err, ErrBufferAlreadyMapped) {
		t.Errorf("Upload while mapped error = %v, want ErrBufferAlreadyMapped", err)
	}
	if err := b.Unmap(); err != nil {
		t.Fatalf("Unmap error = %v", err)
	}
	if err := b.Upload(target); err != nil {
		t.Fatalf("Upload error = %v", err)
	}
	if b.State() == TransferMapped {
		t.Error("State() after Upload should not be Mapped")
	}

	dst := make([]byte, target.ByteSize())
	if err := target.Read(dst); err != nil {
		t.Errorf("Read error = %v", err)
	}
	if err := target.Read(dst[:3]); err == nil {
		t.Error("Read into a short buffer should fail")
	}

	small, err := NewTransferBuffer(d, 8)
	if err != nil {
		t.Fatalf("NewTransferBuffer error = %v", err)
	}
	defer small.Destroy()
	if err := small.Upload(target); !errors.Is(err, ErrInvalidBufferSize) {
		t.Errorf("Upload of mismatched buffer error = %v, want ErrInvalidBufferSize", err)
	}
}

func TestTargetReadBeforeUpload(t *testing.T) {
	d := newTestDevice(t)
	target, err := NewTarget(d, 2, 2)
	if err != nil {
		t.Fatalf("NewTarget error = %v", err)
	}
	dst := []byte{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9}
	if err := target.Read(dst); err != nil {
		t.Fatalf("Read error = %v", err)
	}
	if dst[0] != 9 {
		t.Error("Read before any upload should leave dst untouched")
	}
	target.Destroy()
	if err := target.Read(dst); !errors.Is(err, ErrBufferDestroyed) {
		t.Errorf("Read after Destroy error = %v, want ErrBufferDestroyed", err)
	}
}

func yuvFrame(t *testing.T, s pixfmt.Source, w, h int) *frame.Frame {
	t.Helper()
	f := frame.New(pixfmt.DescribeTight(s, w, h), w, h)
	for i := 0; i < f.NumPlanes(); i++ {
		p := f.Plane(i)
		for j := range p {
			p[j] = byte(i*64 + j)
		}
	}
	return f
}

func TestPlaneParams(t *testing.T) {
	tests := []struct {
		source     pixfmt.Source
		w, h       int
		subX, subY uint32
	}{
		{pixfmt.SourceYUV444P, 4, 2, 1, 1},
		{pixfmt.SourceYUV422P, 4, 2, 2, 1},
		{pixfmt.SourceYUV420P, 4, 2, 2, 2},
		{pixfmt.SourceYUV411P, 8, 2, 4, 1},
		{pixfmt.SourceYUV410P, 8, 4, 4, 4},
		{pixfmt.SourceYUV420P, 5, 3, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.source.String(), func(t *testing.T) {
			f := yuvFrame(t, tt.source, tt.w, tt.h)
			data, params := planeParams(f)
			if len(data)%4 != 0 {
				t.Errorf("plane data length %d is not word aligned", len(data))
			}
			word := func(i int) uint32 { return binary.LittleEndian.Uint32(params[i*4:]) }
			if word(0) != uint32(tt.w) || word(1) != uint32(tt.h) {
				t.Errorf("size = %dx%d, want %dx%d", word(0), word(1), tt.w, tt.h)
			}
			if word(6) != tt.subX || word(7) != tt.subY {
				t.Errorf("subsampling = %d,%d, want %d,%d", word(6), word(7), tt.subX, tt.subY)
			}
			pl := f.Desc().Planes
			cb, cr := word(4), word(5)
			if int(cb) != pl[0].Size() || int(cr) != pl[0].Size()+pl[1].Size() {
				t.Errorf("offsets = %d,%d", cb, cr)
			}
			if data[cb] != f.Plane(1)[0] || data[cr] != f.Plane(2)[0] {
				t.Error("chroma planes not at their offsets")
			}
		})
	}
}

func TestConverter(t *testing.T) {
	d := newTestDevice(t)
	c, err := NewConverter(d)
	if err != nil {
		t.Fatalf("NewConverter error = %v", err)
	}
	defer c.Destroy()

	f := yuvFrame(t, pixfmt.SourceYUV420P, 8, 8)
	if !c.Supports(f) {
		t.Fatal("Supports(yuv420p) = false")
	}
	dst := make([]byte, 8*8*4)
	if err := c.Convert(dst, f); err != nil {
		t.Fatalf("Convert error = %v", err)
	}
	if err := c.Convert(dst[:10], f); !errors.Is(err, ErrInvalidBufferSize) {
		t.Errorf("Convert into short buffer error = %v, want ErrInvalidBufferSize", err)
	}

	bgra := frame.New(pixfmt.NewPacked(pixfmt.BGRA, 2, 2), 2, 2)
	if c.Supports(bgra) {
		t.Error("Supports(bgra) = true")
	}
	if err := c.Convert(dst, bgra); !errors.Is(err, ErrUnsupportedFrame) {
		t.Errorf("Convert(bgra) error = %v, want ErrUnsupportedFrame", err)
	}

	c.Destroy()
	if err := c.Convert(dst, f); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("Convert after Destroy error = %v, want ErrDeviceClosed", err)
	}
}
