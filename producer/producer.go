// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package producer generates frames on a dedicated worker goroutine and
// hands them to the mixer through a bounded frame channel.
//
// Two variants share one state machine: NewRendererProducer drives an
// external rendering engine through Renderer, NewDecoderProducer pulls raw
// frames from a Decoder and normalizes them.
//
//	p, err := producer.NewDecoderProducer(format, imageseq.New("media/clip"))
//	if err != nil {
//		return err
//	}
//	if err := p.Start(false); err != nil {
//		return err
//	}
//	defer p.Stop()
//
//	f, err := p.GetFrame() // never blocks
package producer

import (
	"math"

	"github.com/gogpu/playout/frame"
)

// Producer is the control surface the mixer uses.
type Producer interface {
	// Start initializes the generation source and begins producing.
	// When already running, Start does nothing unless force is set.
	Start(force bool) error

	// Stop halts production and drops buffered frames.
	Stop()

	// Param sends a text command to the generation source.
	Param(cmd string) error

	// GetFrame returns the next frame without blocking. It repeats the
	// last frame on underflow and returns nil once the stream is empty.
	GetFrame() (*frame.Frame, error)

	// State reports the lifecycle state.
	State() State

	String() string
}

// State is the producer lifecycle state.
type State int32

const (
	// Stopped is the initial and final state.
	Stopped State = iota

	// Starting means the worker is initializing the generation source.
	Starting

	// Running means the worker is producing frames.
	Running

	// Stopping means the worker is being halted.
	Stopping
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return "unknown"
}

// Attacher is implemented by generation sources that must register with
// the worker goroutine before use. The returned release function runs on
// the same goroutine when the worker exits, whatever the exit path.
type Attacher interface {
	Attach() (release func(), err error)
}

// PairPolicy decides whether two source frames are woven into one output
// frame.
type PairPolicy func(sourceFPS float64, output frame.VideoFormat) bool

// DefaultPairPolicy pairs frames when the output is interlaced and the
// source runs at the output field rate.
func DefaultPairPolicy(sourceFPS float64, output frame.VideoFormat) bool {
	return output.Interlaced() && math.Abs(sourceFPS-2*output.FPS) < 0.01
}

// NeverPair always produces one source frame per output frame.
func NeverPair(float64, frame.VideoFormat) bool { return false }
