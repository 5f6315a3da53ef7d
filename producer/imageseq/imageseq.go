// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package imageseq is a producer.Decoder for still images: a single file,
// or every supported image in a directory played in name order.
//
// Supported formats: PNG, JPEG, GIF, BMP, TIFF and WebP.
//
// Commands:
//
//	SEEK <n>   continue from the n-th image
package imageseq

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/gogpu/playout"
	"github.com/gogpu/playout/internal/convert"
	"github.com/gogpu/playout/pixfmt"
)

// DefaultFPS is the rate reported when none is configured.
const DefaultFPS = 25

// Extensions lists the file extensions picked up from a directory.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Decoder reads images from disk one per frame.
// It is driven from a single goroutine.
type Decoder struct {
	path   string
	fps    float64
	repeat int

	files []string
	pos   int
	shown int
	raw   *convert.RawFrame
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithFPS sets the reported frame rate.
func WithFPS(fps float64) Option {
	return func(d *Decoder) {
		if fps > 0 {
			d.fps = fps
		}
	}
}

// WithRepeat shows every image for n frames.
func WithRepeat(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.repeat = n
		}
	}
}

// New returns a decoder for the file or directory at path.
func New(path string, opts ...Option) *Decoder {
	d := &Decoder{path: path, fps: DefaultFPS, repeat: 1}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open lists the images to play.
func (d *Decoder) Open() error {
	fi, err := os.Stat(d.path)
	if err != nil {
		return fmt.Errorf("imageseq: %w: %w", playout.ErrFileNotFound, err)
	}

	d.files, d.pos, d.shown, d.raw = nil, 0, 0, nil
	if !fi.IsDir() {
		d.files = []string{d.path}
		return nil
	}

	entries, err := os.ReadDir(d.path)
	if err != nil {
		return fmt.Errorf("imageseq: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(Extensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		d.files = append(d.files, filepath.Join(d.path, e.Name()))
	}
	if len(d.files) == 0 {
		return fmt.Errorf("imageseq: no images in %q: %w", d.path, playout.ErrFileNotFound)
	}
	slices.Sort(d.files)
	return nil
}

// Close forgets the file list.
func (d *Decoder) Close() error {
	d.files, d.raw = nil, nil
	return nil
}

// Len returns the number of images found by Open.
func (d *Decoder) Len() int { return len(d.files) }

// FPS returns the configured rate.
func (d *Decoder) FPS() float64 { return d.fps }

// Decode returns the next frame, or io.EOF after the last image.
func (d *Decoder) Decode() (*convert.RawFrame, error) {
	if d.raw != nil && d.shown < d.repeat {
		d.shown++
		return d.raw, nil
	}
	if d.pos >= len(d.files) {
		return nil, io.EOF
	}

	name := d.files[d.pos]
	d.pos++
	img, err := decodeFile(name)
	if err != nil {
		return nil, err
	}
	d.raw, d.shown = Raw(img), 1
	return d.raw, nil
}

func decodeFile(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imageseq: %s: %w", filepath.Base(name), err)
	}
	return img, nil
}

// Call runs one command.
func (d *Decoder) Call(cmd string) bool {
	verb, arg, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	if !strings.EqualFold(verb, "SEEK") {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 0 || n >= len(d.files) {
		return false
	}
	d.pos, d.raw = n, nil
	return true
}

// Raw describes a decoded image as a raw frame without copying pixels.
// Layouts with a lossless descriptor are tagged with their source layout;
// everything else is passed through as an image for the fallback path.
func Raw(img image.Image) *convert.RawFrame {
	b := img.Bounds()
	raw := &convert.RawFrame{Width: b.Dx(), Height: b.Dy(), Image: img}
	if b.Min != (image.Point{}) {
		return raw
	}

	switch m := img.(type) {
	case *image.YCbCr:
		s, ok := ycbcrSource(m.SubsampleRatio)
		if !ok {
			return raw
		}
		ch := chromaRows(m.SubsampleRatio, b.Dy())
		raw.Source = s
		raw.Planes = [][]byte{m.Y, rows(m.Cb, ch, m.CStride), rows(m.Cr, ch, m.CStride)}
		raw.Linesizes = []int{m.YStride, m.CStride, m.CStride}

	case *image.NYCbCrA:
		if m.SubsampleRatio != image.YCbCrSubsampleRatio420 {
			return raw
		}
		ch := chromaRows(m.SubsampleRatio, b.Dy())
		raw.Source = pixfmt.SourceYUVA420P
		raw.Planes = [][]byte{m.Y, rows(m.Cb, ch, m.CStride), rows(m.Cr, ch, m.CStride), m.A}
		raw.Linesizes = []int{m.YStride, m.CStride, m.CStride, m.AStride}

	case *image.RGBA:
		raw.Source = pixfmt.SourceRGBA
		raw.Planes = [][]byte{m.Pix}
		raw.Linesizes = []int{m.Stride}

	case *image.NRGBA:
		// straight alpha only matches the premultiplied layout when opaque
		if !m.Opaque() {
			return raw
		}
		raw.Source = pixfmt.SourceRGBA
		raw.Planes = [][]byte{m.Pix}
		raw.Linesizes = []int{m.Stride}

	case *image.Gray:
		raw.Source = pixfmt.SourceGray8
		raw.Planes = [][]byte{m.Pix}
		raw.Linesizes = []int{m.Stride}
	}
	return raw
}

func ycbcrSource(r image.YCbCrSubsampleRatio) (pixfmt.Source, bool) {
	switch r {
	case image.YCbCrSubsampleRatio444:
		return pixfmt.SourceYUV444P, true
	case image.YCbCrSubsampleRatio422:
		return pixfmt.SourceYUV422P, true
	case image.YCbCrSubsampleRatio420:
		return pixfmt.SourceYUV420P, true
	case image.YCbCrSubsampleRatio411:
		return pixfmt.SourceYUV411P, true
	}
	return pixfmt.SourceUnknown, false
}

func chromaRows(r image.YCbCrSubsampleRatio, height int) int {
	if r == image.YCbCrSubsampleRatio420 {
		return (height + 1) / 2
	}
	return height
}

// rows trims p to n rows. Decoders pad planes to whole blocks, and the
// chroma height is recovered from the plane length.
func rows(p []byte, n, stride int) []byte {
	if n*stride < len(p) {
		return p[:n*stride]
	}
	return p
}
