// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package producer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/playout"
	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/internal/convert"
	"github.com/gogpu/playout/internal/executor"
	"github.com/gogpu/playout/internal/fifo"
)

const (
	// maxAttempts is how often a rejected command is tried.
	maxAttempts = 5

	// readyPoll is how long the worker yields when there is nothing to draw.
	readyPoll = time.Millisecond

	// pushPoll bounds how long commands wait behind a full channel.
	pushPoll = 5 * time.Millisecond
)

// source is a generation source driven by a Runner. Every method runs on
// the worker goroutine.
type source interface {
	open() error
	close()
	ready() bool
	fps() float64
	call(cmd string) (bool, error)
	next() (*frame.Frame, error)
	empty() bool
}

// Runner implements Producer on top of a generation source.
//
// Thread safety: Start, Stop, Param and GetFrame are safe for concurrent use.
// Only the frame channel and the empty flag are shared with the worker.
type Runner struct {
	kind    string
	name    string
	format  frame.VideoFormat
	src     source
	pair    PairPolicy
	factory frame.Factory

	queue *fifo.Queue
	ex    *executor.Executor
	fault executor.Fault

	ctl   sync.Mutex // serializes Start, Stop and Param
	state atomic.Int32
	empty atomic.Bool

	lastMu sync.Mutex
	last   *frame.Frame
}

var _ Producer = (*Runner)(nil)

func newRunner(kind string, format frame.VideoFormat, o options, build func(*convert.Normalizer) source) *Runner {
	if o.factory == nil {
		o.factory = frame.NewPool(format, 2*o.capacity+2)
	}
	var nopts []convert.NormalizerOption
	if o.workers != nil {
		nopts = append(nopts, convert.WithWorkerPool(o.workers))
	}
	r := &Runner{
		kind:    kind,
		name:    o.name,
		format:  format,
		pair:    o.pair,
		factory: o.factory,
		queue:   fifo.New(o.capacity),
		ex:      executor.New(),
	}
	r.src = build(convert.NewNormalizer(o.factory, nopts...))
	r.empty.Store(true)
	return r
}

// State implements Producer.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// String implements Producer.
func (r *Runner) String() string {
	if r.name == "" {
		return r.kind + "[" + r.format.Name + "]"
	}
	return r.kind + "[" + r.name + "]"
}

func (r *Runner) log() *slog.Logger {
	return playout.Logger().With("producer", r.String())
}

// Start implements Producer. A fault left by a previous worker is reported
// when Start has nothing to do and discarded when it restarts the worker.
func (r *Runner) Start(force bool) error {
	r.ctl.Lock()
	defer r.ctl.Unlock()

	if r.State() == Running && !force {
		return r.fault.Take()
	}
	if err := r.fault.Take(); err != nil {
		r.log().Warn("discarding fault on restart", "err", err)
	}
	return r.start()
}

func (r *Runner) start() error {
	r.state.Store(int32(Starting))
	r.empty.Store(true)
	r.ex.Stop()
	r.queue.Drain()
	r.setLast(nil)

	started := make(chan error, 1)
	r.ex.Start(func(ctx context.Context) { r.run(ctx, started) })
	if err := <-started; err != nil {
		r.ex.Stop()
		r.queue.Drain()
		r.state.Store(int32(Stopped))
		return fmt.Errorf("producer %s: start: %w", r, err)
	}

	// A worker that faulted on its first frame has already left Starting.
	if !r.state.CompareAndSwap(int32(Starting), int32(Running)) {
		r.log().Warn("worker stopped during start")
		return nil
	}
	r.log().Info("started")
	return nil
}

// Stop implements Producer. The generation source is released on the
// worker goroutine before Stop returns.
func (r *Runner) Stop() {
	r.ctl.Lock()
	defer r.ctl.Unlock()

	r.state.Store(int32(Stopping))
	r.empty.Store(true)
	r.queue.Clear()
	r.ex.Stop()
	r.queue.Drain()
	r.setLast(nil)
	r.state.Store(int32(Stopped))
	r.log().Info("stopped")
}

// Param implements Producer. A stopped producer is started first. The
// command is retried while the source rejects it; after maxAttempts
// rejections the error wraps playout.ErrOperationFailed and the producer
// keeps running.
func (r *Runner) Param(cmd string) error {
	if err := r.fault.Take(); err != nil {
		return err
	}

	r.ctl.Lock()
	defer r.ctl.Unlock()

	if r.State() != Running {
		if err := r.start(); err != nil {
			return fmt.Errorf("producer %s: failed to recover: %w", r, err)
		}
	}

	return r.ex.Invoke(func() error {
		for attempt := 1; ; attempt++ {
			ok, err := r.src.call(cmd)
			if err != nil {
				return fmt.Errorf("producer %s: %q: %w", r, cmd, err)
			}
			if ok {
				r.empty.Store(false)
				return nil
			}
			r.log().Debug("command rejected", "cmd", cmd, "attempt", attempt)
			if attempt >= maxAttempts {
				return fmt.Errorf("producer %s: %q rejected %d times: %w",
					r, cmd, maxAttempts, playout.ErrOperationFailed)
			}
		}
	})
}

// GetFrame implements Producer.
func (r *Runner) GetFrame() (*frame.Frame, error) {
	if err := r.fault.Take(); err != nil {
		return nil, err
	}

	r.lastMu.Lock()
	defer r.lastMu.Unlock()

	if f, ok := r.queue.TryPop(); ok {
		r.last = f
		return f, nil
	}
	if r.empty.Load() {
		return nil, nil
	}
	return r.last, nil
}

func (r *Runner) setLast(f *frame.Frame) {
	r.lastMu.Lock()
	r.last = f
	r.lastMu.Unlock()
}

// run is the worker loop. started receives exactly one value.
func (r *Runner) run(ctx context.Context, started chan<- error) {
	release := func() {}
	if a, ok := r.src.(Attacher); ok {
		rel, err := a.Attach()
		if err != nil {
			started <- fmt.Errorf("attach: %w", err)
			return
		}
		if rel != nil {
			release = rel
		}
	}
	defer release()

	if err := executor.Safe(r.src.open); err != nil {
		started <- err
		return
	}
	defer r.src.close()
	r.empty.Store(r.src.empty())
	started <- nil

	produced := false
	for ctx.Err() == nil {
		for r.ex.TryExecute() {
		}
		if produced && r.empty.Load() {
			r.idle(ctx)
			continue
		}

		var pushed bool
		err := executor.Safe(func() error {
			var err error
			pushed, err = r.render(ctx)
			return err
		})
		if err != nil {
			r.empty.Store(true)
			if !r.state.CompareAndSwap(int32(Running), int32(Stopped)) {
				r.state.CompareAndSwap(int32(Starting), int32(Stopped))
			}
			r.log().Warn("worker fault", "err", err)
			r.fault.Set(err)
			return
		}
		produced = produced || pushed
	}
}

// render runs one cycle: wait for the source, draw one or two frames,
// push the result and refresh the empty flag.
func (r *Runner) render(ctx context.Context) (bool, error) {
	if !r.src.ready() {
		r.idle(ctx)
		return false, nil
	}

	f, err := r.draw()
	if err != nil {
		return false, err
	}
	if f == nil {
		r.empty.Store(r.src.empty())
		r.idle(ctx)
		return false, nil
	}
	pushed := r.push(ctx, f)
	r.empty.Store(r.src.empty())
	return pushed, nil
}

func (r *Runner) draw() (*frame.Frame, error) {
	if !r.pair(r.src.fps(), r.format) {
		return r.src.next()
	}

	first, err := r.src.next()
	if err != nil {
		return nil, err
	}
	second, err := r.src.next()
	if err != nil {
		return nil, err
	}
	f := frame.Interlace(first, second, r.format.FieldMode)
	if pool, ok := r.factory.(*frame.Pool); ok {
		for _, src := range []*frame.Frame{first, second} {
			if src != f {
				pool.Put(src)
			}
		}
	}
	return f, nil
}

// push blocks until f is queued or ctx is done, running commands while
// the channel is full.
func (r *Runner) push(ctx context.Context, f *frame.Frame) bool {
	for {
		pctx, cancel := context.WithTimeout(ctx, pushPoll)
		err := r.queue.PushContext(pctx, f)
		cancel()
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		for r.ex.TryExecute() {
		}
	}
}

// idle yields for readyPoll, running a command if one arrives.
func (r *Runner) idle(ctx context.Context) {
	ictx, cancel := context.WithTimeout(ctx, readyPoll)
	r.ex.Execute(ictx)
	cancel()
}
