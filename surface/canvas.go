// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Stats counts the calls a window has served.
type Stats struct {
	Polls       int
	Activations int
	Binds       int
	Draws       int
	Presents    int
}

// canvas composes a textured quad into an RGBA client area on the CPU.
// Both window types embed it.
type canvas struct {
	mu      sync.Mutex
	texture *image.RGBA
	back    *image.RGBA
	front   *image.RGBA
	x, y    int
	title   string
	mode    Mode
	created bool
	closed  bool
	stats   Stats
}

func (c *canvas) create(width, height, depth int, title string, mode Mode) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("surface: invalid window size %dx%d", width, height)
	}
	if depth != 24 && depth != 32 {
		return fmt.Errorf("surface: unsupported bit depth %d", depth)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.texture = image.NewRGBA(image.Rect(0, 0, width, height))
	c.back = image.NewRGBA(image.Rect(0, 0, width, height))
	c.front = image.NewRGBA(image.Rect(0, 0, width, height))
	c.title, c.mode = title, mode
	c.created = true
	return nil
}

func (c *canvas) check() error {
	if c.closed {
		return ErrClosed
	}
	if !c.created {
		return ErrNotCreated
	}
	return nil
}

// SetPosition records the window origin.
func (c *canvas) SetPosition(x, y int) {
	c.mu.Lock()
	c.x, c.y = x, y
	c.mu.Unlock()
}

// Position returns the window origin.
func (c *canvas) Position() (x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.x, c.y
}

// SetSize resizes the client area. The texture keeps its size.
func (c *canvas) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.check() != nil {
		return
	}
	c.back = image.NewRGBA(image.Rect(0, 0, width, height))
	c.front = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Size returns the client area size.
func (c *canvas) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.back == nil {
		return 0, 0
	}
	b := c.back.Bounds()
	return b.Dx(), b.Dy()
}

// Title returns the title passed to Create.
func (c *canvas) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

// Mode returns the mode passed to Create.
func (c *canvas) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// PollEvents drains pending events. A headless canvas has none.
func (c *canvas) PollEvents() {
	c.mu.Lock()
	c.stats.Polls++
	c.mu.Unlock()
}

// Activate marks the canvas current.
func (c *canvas) Activate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	c.stats.Activations++
	return nil
}

// setTexture replaces the texture with a tightly packed BGRA picture.
func (c *canvas) setTexture(bgra []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	pix := c.texture.Pix
	if len(bgra) != len(pix) {
		return fmt.Errorf("%w: %d bytes, texture holds %d", ErrTransferSize, len(bgra), len(pix))
	}
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = bgra[i+2], bgra[i+1], bgra[i], bgra[i+3]
	}
	c.stats.Binds++
	return nil
}

// quad returns the destination of the texture for scale (sx, sy): a
// rectangle centered in a width x height area spanning sx*width by
// sy*height pixels.
func quad(width, height int, sx, sy float64) image.Rectangle {
	qw := sx * float64(width)
	qh := sy * float64(height)
	x0 := (float64(width) - qw) / 2
	y0 := (float64(height) - qh) / 2
	return image.Rect(
		int(math.Round(x0)), int(math.Round(y0)),
		int(math.Round(x0+qw)), int(math.Round(y0+qh)),
	)
}

// Draw clears the back buffer and draws the texture quad.
func (c *canvas) Draw(sx, sy float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	clear(c.back.Pix)
	b := c.back.Bounds()
	dr := quad(b.Dx(), b.Dy(), sx, sy)
	if dr.Eq(c.texture.Bounds()) {
		draw.Draw(c.back, dr, c.texture, image.Point{}, draw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(c.back, dr, c.texture, c.texture.Bounds(), xdraw.Src, nil)
	}
	c.stats.Draws++
	return nil
}

// Present copies the back buffer to the visible picture.
func (c *canvas) Present() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	copy(c.front.Pix, c.back.Pix)
	c.stats.Presents++
	return nil
}

// Stats returns the call counters.
func (c *canvas) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Snapshot returns a copy of the last presented picture, or nil before
// Create.
func (c *canvas) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.front == nil {
		return nil
	}
	img := image.NewRGBA(c.front.Bounds())
	copy(img.Pix, c.front.Pix)
	return img
}

// SavePNG writes the last presented picture to path.
func (c *canvas) SavePNG(path string) error {
	img := c.Snapshot()
	if img == nil {
		return ErrNotCreated
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("surface: save png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("surface: save png: %w", err)
	}
	return f.Close()
}

func (c *canvas) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	return true
}
