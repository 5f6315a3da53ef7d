// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"errors"
	"image"
	"image/color"
	"sync/atomic"
)

// ErrStaleToken is returned when a bitmap token is released twice.
var ErrStaleToken = errors.New("frame: stale bitmap token")

// Bitmap is a BGRA render target handed to an external renderer.
// It implements draw.Image so standard drawing code can target it.
type Bitmap struct {
	Width  int
	Height int
	Stride int
	Pix    []byte

	gen atomic.Uint64
}

// NewBitmap allocates a cleared BGRA bitmap.
func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{
		Width:  width,
		Height: height,
		Stride: width * 4,
		Pix:    make([]byte, width*height*4),
	}
}

// Clear zeroes every pixel.
func (b *Bitmap) Clear() {
	clear(b.Pix)
}

// ColorModel implements image.Image.
func (b *Bitmap) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (b *Bitmap) Bounds() image.Rectangle { return image.Rect(0, 0, b.Width, b.Height) }

// At implements image.Image.
func (b *Bitmap) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return color.RGBA{}
	}
	i := y*b.Stride + x*4
	return color.RGBA{R: b.Pix[i+2], G: b.Pix[i+1], B: b.Pix[i], A: b.Pix[i+3]}
}

// Set implements draw.Image.
func (b *Bitmap) Set(x, y int, c color.Color) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	i := y*b.Stride + x*4
	b.Pix[i] = rgba.B
	b.Pix[i+1] = rgba.G
	b.Pix[i+2] = rgba.R
	b.Pix[i+3] = rgba.A
}

// Token identifies one acquisition of a pooled bitmap.
type Token struct {
	b   *Bitmap
	gen uint64
}

// Bitmap returns the bitmap the token was issued for.
func (t Token) Bitmap() *Bitmap { return t.b }

// BitmapPool recycles bitmaps of one size through a bounded queue.
// Acquire allocates on a miss; Release clears the bitmap and keeps it if
// the queue has room.
//
// Thread safety: all methods are safe for concurrent use.
type BitmapPool struct {
	width, height int
	free          chan *Bitmap
	allocated     atomic.Int64
}

// NewBitmapPool returns a pool retaining at most capacity free bitmaps.
func NewBitmapPool(width, height, capacity int) *BitmapPool {
	if capacity < 1 {
		capacity = 1
	}
	return &BitmapPool{
		width:  width,
		height: height,
		free:   make(chan *Bitmap, capacity),
	}
}

// Acquire returns a cleared bitmap and the token that releases it.
func (p *BitmapPool) Acquire() (*Bitmap, Token) {
	var b *Bitmap
	select {
	case b = <-p.free:
	default:
		b = NewBitmap(p.width, p.height)
		p.allocated.Add(1)
	}
	return b, Token{b: b, gen: b.gen.Load()}
}

// Release hands a bitmap back to the pool. Releasing the same token twice
// returns ErrStaleToken. The zero Token is ignored.
func (p *BitmapPool) Release(t Token) error {
	if t.b == nil {
		return nil
	}
	if !t.b.gen.CompareAndSwap(t.gen, t.gen+1) {
		return ErrStaleToken
	}
	t.b.Clear()
	select {
	case p.free <- t.b:
	default:
	}
	return nil
}

// Allocated returns how many bitmaps the pool has created.
func (p *BitmapPool) Allocated() int {
	return int(p.allocated.Load())
}

// Free returns how many bitmaps are waiting for reuse.
func (p *BitmapPool) Free() int {
	return len(p.free)
}
