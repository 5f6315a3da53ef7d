// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package producer

import (
	"fmt"

	"github.com/gogpu/playout"
	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/internal/convert"
	"github.com/gogpu/playout/media"
	"github.com/gogpu/playout/pixfmt"
)

// TemplateExtensions are tried in order when resolving a renderer template.
var TemplateExtensions = []string{".ft", ".ct"}

// Renderer is an external rendering engine that draws into BGRA bitmaps.
// All methods are called on the producer's worker goroutine.
type Renderer interface {
	// Open loads the template at path (empty for none) for a canvas of
	// the given size.
	Open(template string, width, height int) error
	Close() error

	// Ready reports whether a frame can be drawn now.
	Ready() bool

	// Call runs a command and reports whether the engine accepted it.
	Call(cmd string) bool

	// Invalid reports whether anything changed since the last Draw.
	Invalid() bool

	// Draw renders the current state into dst, which is cleared.
	Draw(dst *frame.Bitmap) error

	FPS() float64
	Empty() bool
}

// NewRendererProducer returns a producer driving r at the size of format.
// A non-empty template is resolved below the media root with
// TemplateExtensions; a missing one yields playout.ErrFileNotFound.
func NewRendererProducer(format frame.VideoFormat, r Renderer, template string, opts ...Option) (*Runner, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var path string
	if template != "" {
		p, err := media.Resolve(o.mediaRoot, template, TemplateExtensions...)
		if err != nil {
			return nil, fmt.Errorf("producer: template: %w", err)
		}
		path = p
	}
	if o.name == "" {
		o.name = template
	}

	return newRunner("renderer", format, o, func(n *convert.Normalizer) source {
		return &rendererSource{
			r:        r,
			template: path,
			format:   format,
			bitmaps:  frame.NewBitmapPool(format.Width, format.Height, o.bitmaps),
			norm:     n,
		}
	}), nil
}

// rendererSource adapts a Renderer. The current bitmap is redrawn only
// while the engine keeps reporting invalid regions.
type rendererSource struct {
	r        Renderer
	template string
	format   frame.VideoFormat
	bitmaps  *frame.BitmapPool
	norm     *convert.Normalizer

	current      frame.Token
	hasCurrent   bool
	invalidCount int
}

func (s *rendererSource) Attach() (func(), error) {
	if a, ok := s.r.(Attacher); ok {
		return a.Attach()
	}
	return nil, nil
}

func (s *rendererSource) open() error {
	s.invalidCount = 0
	return s.r.Open(s.template, s.format.Width, s.format.Height)
}

func (s *rendererSource) close() {
	if s.hasCurrent {
		_ = s.bitmaps.Release(s.current)
		s.current, s.hasCurrent = frame.Token{}, false
	}
	if err := s.r.Close(); err != nil {
		playout.Logger().Warn("renderer close failed", "err", err)
	}
}

func (s *rendererSource) ready() bool  { return s.r.Ready() }
func (s *rendererSource) fps() float64 { return s.r.FPS() }
func (s *rendererSource) empty() bool  { return s.r.Empty() }

func (s *rendererSource) call(cmd string) (bool, error) {
	return s.r.Call(cmd), nil
}

func (s *rendererSource) next() (*frame.Frame, error) {
	if s.r.Invalid() {
		s.invalidCount = 0
	} else {
		s.invalidCount = min(2, s.invalidCount+1)
	}

	if !s.hasCurrent || s.invalidCount < 2 {
		bmp, tok := s.bitmaps.Acquire()
		if err := s.r.Draw(bmp); err != nil {
			_ = s.bitmaps.Release(tok)
			return nil, fmt.Errorf("draw: %w", err)
		}
		if s.hasCurrent {
			_ = s.bitmaps.Release(s.current)
		}
		s.current, s.hasCurrent = tok, true
	}

	bmp := s.current.Bitmap()
	return s.norm.Normalize(&convert.RawFrame{
		Source:    pixfmt.SourceBGRA,
		Width:     bmp.Width,
		Height:    bmp.Height,
		Planes:    [][]byte{bmp.Pix},
		Linesizes: []int{bmp.Stride},
	})
}
