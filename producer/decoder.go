// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package producer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/gogpu/playout"
	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/internal/convert"
)

// Decoder is an external decode library producing raw frames.
// All methods are called on the producer's worker goroutine.
type Decoder interface {
	Open() error
	Close() error

	// Decode returns the next raw frame, or io.EOF at the end of the stream.
	Decode() (*convert.RawFrame, error)

	// Call runs a command and reports whether the decoder accepted it.
	Call(cmd string) bool

	FPS() float64
}

// NewDecoderProducer returns a producer normalizing frames from d.
//
// The LOOP command is handled here: "LOOP" or "LOOP 1" re-opens the
// decoder at the end of the stream, "LOOP 0" turns that off. Other
// commands go to d.
func NewDecoderProducer(format frame.VideoFormat, d Decoder, opts ...Option) (*Runner, error) {
	if d == nil {
		return nil, fmt.Errorf("producer: nil decoder: %w", playout.ErrInvalidOperation)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newRunner("decoder", format, o, func(n *convert.Normalizer) source {
		return &decoderSource{d: d, norm: n}
	}), nil
}

type decoderSource struct {
	d    Decoder
	norm *convert.Normalizer

	loop bool
	eof  atomic.Bool
}

func (s *decoderSource) Attach() (func(), error) {
	if a, ok := s.d.(Attacher); ok {
		return a.Attach()
	}
	return nil, nil
}

func (s *decoderSource) open() error {
	s.eof.Store(false)
	return s.d.Open()
}

func (s *decoderSource) close() {
	if err := s.d.Close(); err != nil {
		playout.Logger().Warn("decoder close failed", "err", err)
	}
}

func (s *decoderSource) ready() bool  { return true }
func (s *decoderSource) fps() float64 { return s.d.FPS() }
func (s *decoderSource) empty() bool  { return s.eof.Load() }

func (s *decoderSource) call(cmd string) (bool, error) {
	fields := strings.Fields(cmd)
	if len(fields) > 0 && strings.EqualFold(fields[0], "LOOP") {
		s.loop = len(fields) < 2 || fields[1] != "0"
		if s.loop && s.eof.Load() {
			return true, s.reopen()
		}
		return true, nil
	}
	if !s.d.Call(cmd) {
		return false, nil
	}
	s.eof.Store(false)
	return true, nil
}

func (s *decoderSource) reopen() error {
	if err := s.d.Close(); err != nil {
		playout.Logger().Debug("decoder close before reopen failed", "err", err)
	}
	s.eof.Store(false)
	return s.d.Open()
}

func (s *decoderSource) next() (*frame.Frame, error) {
	if s.eof.Load() {
		return nil, nil
	}
	raw, err := s.d.Decode()
	if errors.Is(err, io.EOF) && s.loop {
		if err := s.reopen(); err != nil {
			return nil, fmt.Errorf("reopen: %w", err)
		}
		raw, err = s.d.Decode()
	}
	if errors.Is(err, io.EOF) {
		s.eof.Store(true)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return s.norm.Normalize(raw)
}
