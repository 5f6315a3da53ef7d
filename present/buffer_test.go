package present

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuffer(t *testing.T, win *fakeWindow) *DoubleBuffer {
	t.Helper()
	b, err := NewDoubleBuffer(win, testFormat.Size())
	require.NoError(t, err)
	require.Len(t, win.transfers, 2)
	return b
}

func TestDoubleBufferIndexAlternates(t *testing.T) {
	win := &fakeWindow{}
	b := newTestBuffer(t, win)
	f := bgraFrame(4, 2, 1, 2, 3)
	for k := 0; k < 7; k++ {
		require.Equal(t, k%2, b.Index(), "after %d cycles", k)
		require.NoError(t, b.Cycle(win, f, 1, 1))
	}
}

func TestDoubleBufferCycleOrder(t *testing.T) {
	win := &fakeWindow{}
	b := newTestBuffer(t, win)
	f := bgraFrame(4, 2, 1, 2, 3)

	require.NoError(t, b.Cycle(win, f, 1, 1))
	require.NoError(t, b.Cycle(win, f, 1, 1))
	assert.Equal(t, []string{
		"transfer 0", "transfer 1",
		"bind 0", "draw", "map 1", "unmap 1",
		"bind 1", "draw", "map 0", "unmap 0",
	}, win.rec.log())

	assert.True(t, bytes.Equal(win.transfers[1].data, f.Plane(0)), "frame bytes copied into the mapped transfer")
}

func TestDoubleBufferBusySkips(t *testing.T) {
	win := &fakeWindow{}
	b := newTestBuffer(t, win)
	win.transfers[1].busy.Store(true)

	require.NoError(t, b.Cycle(win, bgraFrame(4, 2, 9, 9, 9), 1, 1))
	assert.Equal(t, 1, b.Skipped())
	assert.Equal(t, 1, b.Index(), "a skipped update still flips")
	assert.Equal(t, make([]byte, testFormat.Size()), win.transfers[1].data, "busy transfer untouched")

	win.transfers[1].busy.Store(false)
	require.NoError(t, b.Cycle(win, bgraFrame(4, 2, 9, 9, 9), 1, 1))
	assert.Equal(t, []string{
		"transfer 0", "transfer 1",
		"bind 0", "draw",
		"bind 1", "draw", "map 0", "unmap 0",
	}, win.rec.log(), "the stale buffer is drawn again")
}

func TestDoubleBufferFrameSize(t *testing.T) {
	win := &fakeWindow{}
	b := newTestBuffer(t, win)

	err := b.Cycle(win, bgraFrame(2, 2, 0, 0, 0), 1, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrameSize))
	assert.Equal(t, 0, b.Index())
}

func TestDoubleBufferFrameWriter(t *testing.T) {
	win := &writerWindow{}
	b, err := NewDoubleBuffer(win, testFormat.Size())
	require.NoError(t, err)

	require.NoError(t, b.Cycle(win, bgraFrame(4, 2, 5, 6, 7), 1, 1))
	assert.Equal(t, int32(1), win.writes.Load())

	b.Release()
	b.Release()
	log := win.rec.log()
	assert.Equal(t, []string{"release 0", "release 1"}, log[len(log)-2:])
}
