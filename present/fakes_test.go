package present

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/pixfmt"
	"github.com/gogpu/playout/surface"
)

var testFormat = frame.VideoFormat{Name: "test", Width: 4, Height: 2, FPS: 25}

func bgraFrame(w, h int, b, g, r byte) *frame.Frame {
	f := frame.New(pixfmt.NewPacked(pixfmt.BGRA, w, h), w, h)
	p := f.Plane(0)
	for i := 0; i < len(p); i += 4 {
		p[i], p[i+1], p[i+2], p[i+3] = b, g, r, 0xff
	}
	return f
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *recorder) log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// fakeWindow records every call made by the presentation loop.
type fakeWindow struct {
	rec         recorder
	createErr   error
	panicOnDraw atomic.Bool
	transfers   []*fakeTransfer
}

func (w *fakeWindow) Create(width, height, depth int, title string, mode surface.Mode) error {
	w.rec.add("create %dx%d %d %s %v", width, height, depth, title, mode)
	return w.createErr
}

func (w *fakeWindow) SetPosition(x, y int)      { w.rec.add("position %d,%d", x, y) }
func (w *fakeWindow) SetSize(width, height int) { w.rec.add("size %dx%d", width, height) }
func (w *fakeWindow) PollEvents()               { w.rec.add("poll") }

func (w *fakeWindow) Activate() error {
	w.rec.add("activate")
	return nil
}

func (w *fakeWindow) NewTransfer(size int) (surface.Transfer, error) {
	t := &fakeTransfer{id: len(w.transfers), win: w, data: make([]byte, size)}
	w.transfers = append(w.transfers, t)
	w.rec.add("transfer %d", t.id)
	return t, nil
}

func (w *fakeWindow) Draw(sx, sy float64) error {
	if w.panicOnDraw.Load() {
		panic("draw exploded")
	}
	w.rec.add("draw")
	return nil
}

func (w *fakeWindow) Present() error {
	w.rec.add("present")
	return nil
}

func (w *fakeWindow) Close() error {
	w.rec.add("close")
	return nil
}

type fakeTransfer struct {
	id   int
	win  *fakeWindow
	data []byte
	busy atomic.Bool
}

func (t *fakeTransfer) Map() []byte {
	if t.busy.Load() {
		return nil
	}
	t.win.rec.add("map %d", t.id)
	return t.data
}

func (t *fakeTransfer) Unmap() error {
	t.win.rec.add("unmap %d", t.id)
	return nil
}

func (t *fakeTransfer) Bind() error {
	t.win.rec.add("bind %d", t.id)
	return nil
}

func (t *fakeTransfer) Release() { t.win.rec.add("release %d", t.id) }

// writerWindow flattens frames itself.
type writerWindow struct {
	fakeWindow
	writes atomic.Int32
}

func (w *writerWindow) WriteFrame(dst []byte, f *frame.Frame) error {
	w.writes.Add(1)
	copy(dst, f.Plane(0))
	return nil
}

type failingDisplays struct{}

func (failingDisplays) Screen(int) (Geometry, error) { return Geometry{}, errors.New("driver gone") }
func (failingDisplays) SupportsFullscreen() bool     { return true }
