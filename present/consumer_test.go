package present

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/playout"
	"github.com/gogpu/playout/surface"
)

func fakeFactory(w surface.Window) surface.WindowFactory {
	return func() (surface.Window, error) { return w, nil }
}

func TestResolve(t *testing.T) {
	screens := StaticDisplays{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: 0, Width: 1280, Height: 720},
		{X: 3200, Y: 0},
	}
	tests := []struct {
		name     string
		cfg      Config
		displays Displays
		want     Geometry
		wantErr  error
	}{
		{"headless windowed", Config{Windowed: true}, nil, Geometry{Width: 4, Height: 2}, nil},
		{"headless other screen", Config{Windowed: true, Screen: 3}, Headless{}, Geometry{Width: 4, Height: 2}, nil},
		{"headless fullscreen", Config{}, nil, Geometry{}, playout.ErrNotSupported},
		{"fullscreen", Config{Screen: 1}, screens, Geometry{X: 1920, Width: 1280, Height: 720}, nil},
		{"windowed keeps origin", Config{Screen: 1, Windowed: true}, screens, Geometry{X: 1920, Width: 4, Height: 2}, nil},
		{"out of range", Config{Screen: 5}, screens, Geometry{}, playout.ErrOutOfRange},
		{"negative index", Config{Screen: -1}, screens, Geometry{}, playout.ErrOutOfRange},
		{"no current mode", Config{Screen: 2}, screens, Geometry{}, playout.ErrInvalidOperation},
		{"query failed", Config{}, failingDisplays{}, Geometry{}, playout.ErrInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve(testFormat, tt.cfg, tt.displays)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "error %v is not %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewErrors(t *testing.T) {
	_, err := New(testFormat, Config{}, fakeFactory(&fakeWindow{}), nil)
	assert.True(t, errors.Is(err, playout.ErrNotSupported))

	_, err = New(testFormat, DefaultConfig(), nil, nil)
	assert.True(t, errors.Is(err, playout.ErrInvalidOperation))

	factoryErr := errors.New("no display")
	_, err = New(testFormat, DefaultConfig(), func() (surface.Window, error) { return nil, factoryErr }, nil)
	assert.True(t, errors.Is(err, factoryErr))

	createErr := errors.New("create failed")
	win := &fakeWindow{createErr: createErr}
	_, err = New(testFormat, DefaultConfig(), fakeFactory(win), nil)
	assert.True(t, errors.Is(err, createErr))
	assert.Contains(t, win.rec.log(), "close", "a window that failed to create is closed")
}

func TestConsumerCallOrder(t *testing.T) {
	win := &fakeWindow{}
	c, err := New(testFormat, DefaultConfig(), fakeFactory(win), nil, WithTitle("cam 1"))
	require.NoError(t, err)

	require.NoError(t, c.Send(bgraFrame(4, 2, 1, 1, 1)))
	require.NoError(t, c.Close())
	assert.Equal(t, int64(1), c.Cycles())

	assert.Equal(t, []string{
		"create 4x2 32 cam 1 windowed",
		"position 0,0",
		"size 4x2",
		"activate",
		"transfer 0", "transfer 1",
		"poll", "activate", "bind 0", "draw", "map 1", "unmap 1", "present",
		"release 0", "release 1",
		"close",
	}, win.rec.log())
}

func TestConsumerPresentsPreviousFrame(t *testing.T) {
	var win *surface.ImageWindow
	factory := func() (surface.Window, error) {
		win = surface.NewImageWindow()
		return win, nil
	}
	c, err := New(testFormat, DefaultConfig(), factory, nil)
	require.NoError(t, err)

	require.NoError(t, c.Send(bgraFrame(4, 2, 0, 0, 255)))
	require.NoError(t, c.Send(bgraFrame(4, 2, 0, 255, 0)))
	require.NoError(t, c.Send(bgraFrame(4, 2, 255, 0, 0)))
	require.NoError(t, c.Close())
	assert.Equal(t, int64(3), c.Cycles())

	// The last cycle draws the buffer filled one cycle earlier.
	px := win.Snapshot().RGBAAt(1, 1)
	assert.Equal(t, uint8(0), px.R)
	assert.Equal(t, uint8(255), px.G)
	assert.Equal(t, uint8(0), px.B)
	assert.Equal(t, 3, win.Stats().Presents)
}

func TestConsumerFullscreenGeometry(t *testing.T) {
	var win *surface.ImageWindow
	factory := func() (surface.Window, error) {
		win = surface.NewImageWindow()
		return win, nil
	}
	screens := StaticDisplays{{X: 100, Y: 50, Width: 8, Height: 8}}
	cfg := Config{Stretch: StretchUniform}
	c, err := New(testFormat, cfg, factory, screens)
	require.NoError(t, err)
	assert.Equal(t, Geometry{X: 100, Y: 50, Width: 8, Height: 8}, c.Geometry())

	require.NoError(t, c.Send(bgraFrame(4, 2, 0, 0, 255)))
	require.NoError(t, c.Send(bgraFrame(4, 2, 0, 0, 255)))
	require.NoError(t, c.Close())

	assert.Equal(t, surface.Fullscreen, win.Mode())
	x, y := win.Position()
	assert.Equal(t, [2]int{100, 50}, [2]int{x, y})
	img := win.Snapshot()
	require.Equal(t, 8, img.Bounds().Dx())
	// 2:1 frame on a square screen: rows 2..5 carry the picture.
	assert.Equal(t, uint8(0), img.RGBAAt(4, 0).A)
	assert.Equal(t, uint8(255), img.RGBAAt(4, 4).R)
}

func TestConsumerFaultIsReportedAndLoopContinues(t *testing.T) {
	win := &fakeWindow{}
	c, err := New(testFormat, DefaultConfig(), fakeFactory(win), nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Send(bgraFrame(2, 2, 0, 0, 0)))

	var sendErr error
	require.Eventually(t, func() bool {
		sendErr = c.Send(bgraFrame(4, 2, 0, 0, 0))
		return sendErr != nil
	}, time.Second, time.Millisecond)
	assert.True(t, errors.Is(sendErr, ErrFrameSize))

	require.NoError(t, c.Send(bgraFrame(4, 2, 0, 0, 0)))
	require.Eventually(t, func() bool { return c.Cycles() >= 1 }, time.Second, time.Millisecond)
}

func TestConsumerRecoversPanic(t *testing.T) {
	win := &fakeWindow{}
	win.panicOnDraw.Store(true)
	c, err := New(testFormat, DefaultConfig(), fakeFactory(win), nil)
	require.NoError(t, err)

	require.NoError(t, c.Send(bgraFrame(4, 2, 0, 0, 0)))
	require.Eventually(t, func() bool {
		for _, call := range win.rec.log() {
			if call == "poll" {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)

	err = c.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draw exploded")
	assert.Equal(t, int64(0), c.Cycles())
}

func TestConsumerSendAfterClose(t *testing.T) {
	c, err := New(testFormat, DefaultConfig(), fakeFactory(&fakeWindow{}), nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.True(t, errors.Is(c.Send(bgraFrame(4, 2, 0, 0, 0)), ErrClosed))
	assert.NoError(t, c.Send(nil), "nil frames are ignored")
}
