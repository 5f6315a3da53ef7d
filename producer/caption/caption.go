// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package caption is a producer.Renderer that draws lines of text over a
// transparent canvas, in the lower third by default.
//
// Commands:
//
//	SET <text>   replace the caption; "\n" separates lines
//	ADD <text>   append one line
//	BARS         show SMPTE color bars behind the caption
//	CLEAR        remove text and bars
//	STOP         same as CLEAR
//
// A template file holds the initial caption, one line per line.
package caption

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/playout/frame"
)

// DefaultFPS is the rate reported when none is configured.
const DefaultFPS = 50

// Renderer draws captions. It is driven from a single goroutine.
type Renderer struct {
	fps       float64
	face      font.Face
	ownFace   bool
	fixedFace bool
	fg        color.Color
	box       color.Color

	width, height int
	lines         []string
	bars          bool
	dirty         bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFPS sets the reported frame rate.
func WithFPS(fps float64) Option {
	return func(r *Renderer) {
		if fps > 0 {
			r.fps = fps
		}
	}
}

// WithFace draws with f instead of Go Regular scaled to the canvas.
func WithFace(f font.Face) Option {
	return func(r *Renderer) {
		r.face = f
		r.fixedFace = f != nil
	}
}

// WithColors sets the text color and the box drawn behind each line.
// A nil box draws no box.
func WithColors(text, box color.Color) Option {
	return func(r *Renderer) {
		if text != nil {
			r.fg = text
		}
		r.box = box
	}
}

// New returns a caption renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		fps: DefaultFPS,
		fg:  color.White,
		box: color.RGBA{A: 0xa0},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open prepares a canvas and loads the template, if any.
func (r *Renderer) Open(template string, width, height int) error {
	r.width, r.height = width, height
	r.lines, r.bars = nil, false
	r.dirty = true

	if !r.fixedFace {
		face, err := scaledFace(height)
		if err != nil {
			return fmt.Errorf("caption: font: %w", err)
		}
		r.face, r.ownFace = face, true
	}

	if template == "" {
		return nil
	}
	lines, err := readTemplate(template)
	if err != nil {
		return fmt.Errorf("caption: template: %w", err)
	}
	r.lines = lines
	return nil
}

// scaledFace sizes Go Regular to one eighteenth of the canvas height.
func scaledFace(height int) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(max(height/18, 8)),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func readTemplate(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

// Close releases the font face created by Open.
func (r *Renderer) Close() error {
	var err error
	if r.ownFace && r.face != nil {
		err = r.face.Close()
		r.face, r.ownFace = nil, false
	}
	r.lines, r.bars = nil, false
	return err
}

// Ready always reports true; drawing never waits on anything.
func (r *Renderer) Ready() bool { return true }

// Call runs one command.
func (r *Renderer) Call(cmd string) bool {
	verb, arg, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	switch strings.ToUpper(verb) {
	case "SET":
		r.lines = splitLines(arg)
	case "ADD":
		r.lines = append(r.lines, arg)
	case "BARS":
		r.bars = true
	case "CLEAR", "STOP":
		r.lines, r.bars = nil, false
	default:
		return false
	}
	r.dirty = true
	return true
}

func splitLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(s, `\n`, "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Invalid reports whether a command changed the caption since the last Draw.
func (r *Renderer) Invalid() bool { return r.dirty }

// FPS returns the configured rate.
func (r *Renderer) FPS() float64 { return r.fps }

// Empty reports whether there is nothing to show.
func (r *Renderer) Empty() bool { return len(r.lines) == 0 && !r.bars }

// Lines returns a copy of the current caption.
func (r *Renderer) Lines() []string {
	return append([]string(nil), r.lines...)
}

// Draw renders bars and text into dst.
func (r *Renderer) Draw(dst *frame.Bitmap) error {
	r.dirty = false
	if r.bars {
		fillBars(dst)
	}
	if len(r.lines) == 0 || r.face == nil {
		return nil
	}

	m := r.face.Metrics()
	lineH := (m.Ascent + m.Descent).Ceil()
	pad := max(lineH/4, 2)
	y := dst.Height*5/6 - len(r.lines)*(lineH+pad)

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(r.fg), Face: r.face}
	for _, line := range r.lines {
		w := d.MeasureString(line).Ceil()
		x := (dst.Width - w) / 2
		if r.box != nil {
			box := image.Rect(x-pad, y, x+w+pad, y+lineH+pad)
			fillRect(dst, box.Intersect(dst.Bounds()), r.box)
		}
		d.Dot = fixed.P(x, y+pad/2+m.Ascent.Ceil())
		d.DrawString(line)
		y += lineH + pad
	}
	return nil
}

func fillRect(dst *frame.Bitmap, rect image.Rectangle, c color.Color) {
	cr, cg, cb, ca := c.RGBA()
	px := [4]byte{byte(cb >> 8), byte(cg >> 8), byte(cr >> 8), byte(ca >> 8)}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := rect.Min.X; x < rect.Max.X; x++ {
			copy(row[x*4:x*4+4], px[:])
		}
	}
}

// barColors are the seven 75% SMPTE bars as RGB.
var barColors = [7][3]uint8{
	{192, 192, 192}, // gray
	{192, 192, 0},   // yellow
	{0, 192, 192},   // cyan
	{0, 192, 0},     // green
	{192, 0, 192},   // magenta
	{192, 0, 0},     // red
	{0, 0, 192},     // blue
}

func fillBars(dst *frame.Bitmap) {
	barWidth := max(dst.Width/7, 1)
	for x := range dst.Width {
		idx := min(x/barWidth, 6)
		c := barColors[idx]
		fillRect(dst, image.Rect(x, 0, x+1, dst.Height), color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff})
	}
}
