package producer

import (
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/internal/convert"
	"github.com/gogpu/playout/pixfmt"
)

const (
	fakeW = 4
	fakeH = 4
)

// fakeDecoder yields gray frames whose pixels all hold the frame index.
type fakeDecoder struct {
	frames    int // per pass; negative means endless
	fps       float64
	acceptOn  int32 // Call succeeds on this attempt; 0 never
	openErr   error
	failAfter atomic.Int32 // Decode fails after this many frames; 0 never, negative always
	panicky   bool

	pos     int
	opens   atomic.Int32
	closes  atomic.Int32
	calls   atomic.Int32
	decodes atomic.Int32
}

func (d *fakeDecoder) Open() error {
	d.opens.Add(1)
	d.pos = 0
	return d.openErr
}

func (d *fakeDecoder) Close() error {
	d.closes.Add(1)
	return nil
}

func (d *fakeDecoder) Decode() (*convert.RawFrame, error) {
	if n := d.failAfter.Load(); n != 0 && d.decodes.Load() >= max(n, 0) {
		if d.panicky {
			panic("decoder state corrupted")
		}
		return nil, errors.New("corrupt packet")
	}
	if d.frames >= 0 && d.pos >= d.frames {
		return nil, io.EOF
	}
	d.decodes.Add(1)
	pix := make([]byte, fakeW*fakeH)
	for i := range pix {
		pix[i] = byte(d.pos)
	}
	d.pos++
	return &convert.RawFrame{
		Source:    pixfmt.SourceGray8,
		Width:     fakeW,
		Height:    fakeH,
		Planes:    [][]byte{pix},
		Linesizes: []int{fakeW},
	}, nil
}

func (d *fakeDecoder) Call(cmd string) bool {
	n := d.calls.Add(1)
	return d.acceptOn > 0 && n >= d.acceptOn
}

func (d *fakeDecoder) FPS() float64 {
	if d.fps == 0 {
		return 50
	}
	return d.fps
}

// fakeRenderer paints the whole bitmap with the draw count.
type fakeRenderer struct {
	invalid  atomic.Bool
	notReady atomic.Bool
	empty    atomic.Bool

	template  atomic.Value
	draws     atomic.Int32
	closes    atomic.Int32
	attached  atomic.Int32
	released  atomic.Int32
	attachErr error
}

func (r *fakeRenderer) Open(template string, _, _ int) error {
	r.template.Store(template)
	return nil
}

func (r *fakeRenderer) Close() error {
	r.closes.Add(1)
	return nil
}

func (r *fakeRenderer) Ready() bool      { return !r.notReady.Load() }
func (r *fakeRenderer) Call(string) bool { return true }
func (r *fakeRenderer) Invalid() bool    { return r.invalid.Load() }
func (r *fakeRenderer) FPS() float64     { return 50 }
func (r *fakeRenderer) Empty() bool      { return r.empty.Load() }

func (r *fakeRenderer) Draw(dst *frame.Bitmap) error {
	n := byte(r.draws.Add(1))
	for i := range dst.Pix {
		dst.Pix[i] = n
	}
	return nil
}

type attachingRenderer struct {
	*fakeRenderer
}

func (r attachingRenderer) Attach() (func(), error) {
	if r.attachErr != nil {
		return nil, r.attachErr
	}
	r.attached.Add(1)
	return func() { r.released.Add(1) }, nil
}

func testFormat(t *testing.T, name string) frame.VideoFormat {
	t.Helper()
	f, ok := frame.LookupFormat(name)
	require.True(t, ok, "format %s", name)
	return f
}

// collect polls GetFrame until n distinct consecutive frames were seen.
func collect(t *testing.T, p *Runner, n int) []*frame.Frame {
	t.Helper()
	var got []*frame.Frame
	require.Eventually(t, func() bool {
		f, err := p.GetFrame()
		if err != nil || f == nil {
			return false
		}
		if len(got) == 0 || got[len(got)-1] != f {
			got = append(got, f)
		}
		return len(got) >= n
	}, 2*time.Second, time.Millisecond)
	return got
}
