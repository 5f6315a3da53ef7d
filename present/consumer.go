// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package present shows frames on an output window at the cadence they
// are sent.
//
// A Consumer owns one window and one goroutine locked to its OS thread.
// Every cycle pops a frame, drains window events, activates the window,
// draws the previously uploaded buffer and copies the new frame into the
// other one, then presents.
package present

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/playout"
	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/internal/executor"
	"github.com/gogpu/playout/internal/fifo"
	"github.com/gogpu/playout/surface"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("present: consumer closed")

// Consumer is a presentation loop.
type Consumer struct {
	format  frame.VideoFormat
	cfg     Config
	opts    options
	geom    Geometry
	factory surface.WindowFactory

	queue  *fifo.Queue
	ex     *executor.Executor
	fault  executor.Fault
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
	cycles atomic.Int64
}

// New resolves the screen geometry, creates the window through factory
// on the presentation goroutine and starts the loop. A nil displays is
// treated as Headless.
func New(format frame.VideoFormat, cfg Config, factory surface.WindowFactory, displays Displays, opts ...Option) (*Consumer, error) {
	if format.Width <= 0 || format.Height <= 0 {
		return nil, fmt.Errorf("%w: format %q has no raster", playout.ErrInvalidOperation, format.Name)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: nil window factory", playout.ErrInvalidOperation)
	}
	geom, err := resolve(format, cfg, displays)
	if err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Consumer{
		format:  format,
		cfg:     cfg,
		opts:    o,
		geom:    geom,
		factory: factory,
		queue:   fifo.New(o.capacity),
		ex:      executor.New(),
		done:    make(chan struct{}),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	started := make(chan error, 1)
	c.ex.Start(func(ctx context.Context) { c.run(ctx, started) })
	if err := <-started; err != nil {
		c.ex.Stop()
		return nil, fmt.Errorf("present: %w", err)
	}
	playout.Logger().Info("present: consumer started", "consumer", c.String(),
		"x", geom.X, "y", geom.Y, "width", geom.Width, "height", geom.Height, "stretch", cfg.Stretch)
	return c, nil
}

// resolve returns the window geometry for cfg.
func resolve(format frame.VideoFormat, cfg Config, displays Displays) (Geometry, error) {
	if displays == nil || !displays.SupportsFullscreen() {
		if !cfg.Windowed {
			return Geometry{}, fmt.Errorf("%w: fullscreen output on this platform", playout.ErrNotSupported)
		}
		if cfg.Screen != 0 {
			playout.Logger().Warn("present: only screen 0 is available, ignoring screen index", "screen", cfg.Screen)
		}
		return Geometry{Width: format.Width, Height: format.Height}, nil
	}

	g, err := displays.Screen(cfg.Screen)
	if err != nil {
		if errors.Is(err, playout.ErrOutOfRange) || errors.Is(err, playout.ErrInvalidOperation) {
			return Geometry{}, fmt.Errorf("present: screen %d: %w", cfg.Screen, err)
		}
		return Geometry{}, fmt.Errorf("present: screen %d: %w: %w", cfg.Screen, playout.ErrInvalidOperation, err)
	}
	if cfg.Windowed {
		g.Width, g.Height = format.Width, format.Height
	}
	return g, nil
}

// String identifies the consumer in logs.
func (c *Consumer) String() string {
	return fmt.Sprintf("present[%s|%d]", c.format.Name, c.cfg.Screen)
}

// Geometry returns the resolved window origin and size.
func (c *Consumer) Geometry() Geometry { return c.geom }

// Cycles returns the number of completed presentation cycles.
func (c *Consumer) Cycles() int64 { return c.cycles.Load() }

// Send queues f for presentation, blocking while the queue is full. A
// nil frame is ignored. A fault captured by an earlier cycle is returned
// instead of queueing f, and is then cleared.
func (c *Consumer) Send(f *frame.Frame) error {
	if f == nil {
		return nil
	}
	if err := c.fault.Take(); err != nil {
		return err
	}
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.queue.PushContext(c.ctx, f); err != nil {
		return ErrClosed
	}
	return nil
}

// Close presents every queued frame, stops the loop and releases the
// window. It returns a fault that was never reported by Send.
func (c *Consumer) Close() error {
	c.once.Do(func() {
		c.closed.Store(true)
		_ = c.queue.PushContext(c.ctx, nil)
		<-c.done
		c.ex.Stop()
		playout.Logger().Info("present: consumer closed", "consumer", c.String(), "cycles", c.Cycles())
	})
	return c.fault.Take()
}

func (c *Consumer) run(ctx context.Context, started chan<- error) {
	defer close(c.done)
	defer c.cancel()

	var (
		win surface.Window
		buf *DoubleBuffer
	)
	err := executor.Safe(func() (err error) {
		win, buf, err = c.open()
		return err
	})
	if err != nil {
		started <- err
		return
	}
	defer func() {
		buf.Release()
		if err := win.Close(); err != nil {
			playout.Logger().Warn("present: close window", "consumer", c.String(), "err", err)
		}
	}()
	started <- nil

	sx, sy := Scale(c.cfg.Stretch,
		float64(c.format.Width), float64(c.format.Height),
		float64(c.geom.Width), float64(c.geom.Height))

	for {
		f, err := c.queue.PopContext(ctx)
		if err != nil || f == nil {
			return
		}
		err = executor.Safe(func() error {
			win.PollEvents()
			if err := win.Activate(); err != nil {
				return fmt.Errorf("present: activate: %w", err)
			}
			if err := buf.Cycle(win, f, sx, sy); err != nil {
				return err
			}
			return win.Present()
		})
		if err != nil {
			playout.Logger().Warn("present: cycle failed", "consumer", c.String(), "err", err)
			c.fault.Set(err)
			continue
		}
		c.cycles.Add(1)
	}
}

// open creates and configures the window on the presentation goroutine.
func (c *Consumer) open() (surface.Window, *DoubleBuffer, error) {
	win, err := c.factory()
	if err != nil {
		return nil, nil, fmt.Errorf("window: %w", err)
	}
	mode := surface.Fullscreen
	if c.cfg.Windowed {
		mode = surface.Windowed
	}
	if err := win.Create(c.format.Width, c.format.Height, c.opts.depth, c.opts.title, mode); err != nil {
		win.Close()
		return nil, nil, fmt.Errorf("create window: %w", err)
	}
	win.SetPosition(c.geom.X, c.geom.Y)
	win.SetSize(c.geom.Width, c.geom.Height)
	if err := win.Activate(); err != nil {
		win.Close()
		return nil, nil, fmt.Errorf("activate window: %w", err)
	}
	buf, err := NewDoubleBuffer(win, c.format.Size())
	if err != nil {
		win.Close()
		return nil, nil, err
	}
	return win, buf, nil
}
