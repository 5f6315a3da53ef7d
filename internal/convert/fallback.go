// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package convert

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/playout/internal/cache"
	"github.com/gogpu/playout/pixfmt"
)

// contexts is shared by every Normalizer in the process.
var contexts = cache.NewShardedPool[uint64, *Context](cache.DefaultPerKey, cache.DefaultKeysPerShard, cache.Uint64Hasher)

// contextKey packs width into the high 32 bits, height into the next 24
// and the source tag into the low 8.
func contextKey(width, height int, s pixfmt.Source) uint64 {
	return uint64(uint32(width))<<32 | uint64(height&0xffffff)<<8 | uint64(s)
}

// Context converts frames of one geometry and source layout to BGRA.
// Building one precomputes the scaler kernel and allocates scratch planes,
// so contexts are pooled by (width, height, layout).
type Context struct {
	width, height int
	source        pixfmt.Source

	scaler  draw.Scaler
	scratch *image.RGBA
	ycbcr   *image.YCbCr // deinterleave target for packed and semi-planar YUV
}

func newContext(width, height int, s pixfmt.Source) *Context {
	c := &Context{
		width:   width,
		height:  height,
		source:  s,
		scaler:  draw.BiLinear.NewScaler(width, height, width, height),
		scratch: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	switch s {
	case pixfmt.SourceNV12:
		c.ycbcr = image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio420)
	case pixfmt.SourceYUYV422:
		c.ycbcr = image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio422)
	}
	return c
}

// convert writes raw as BGRA rows of dstStride bytes into dst.
func (c *Context) convert(raw *RawFrame, dst []byte, dstStride int) error {
	src, err := c.image(raw)
	if err != nil {
		return err
	}
	r := image.Rect(0, 0, c.width, c.height)
	c.scaler.Scale(c.scratch, r, src, src.Bounds(), draw.Src, nil)
	swizzleRGBA(dst, dstStride, c.scratch.Pix, c.scratch.Stride, c.width, c.height)
	return nil
}

// image exposes the raw planes as an image.Image without copying where the
// standard library has a matching type.
func (c *Context) image(raw *RawFrame) (image.Image, error) {
	r := image.Rect(0, 0, raw.Width, raw.Height)
	need := func(i, rows, rowBytes int) ([]byte, error) {
		p := raw.plane(i)
		if i >= len(raw.Linesizes) {
			return nil, fmt.Errorf("%w: %v plane %d missing", ErrShortPlane, raw.Source, i)
		}
		if rows > 0 && len(p) < (rows-1)*raw.Linesizes[i]+rowBytes {
			return nil, fmt.Errorf("%w: %v plane %d", ErrShortPlane, raw.Source, i)
		}
		return p, nil
	}

	switch raw.Source {
	case pixfmt.SourceRGB24, pixfmt.SourceBGR24:
		p, err := need(0, raw.Height, raw.Width*3)
		if err != nil {
			return nil, err
		}
		return &packed24{pix: p, stride: raw.Linesizes[0], rect: r, bgr: raw.Source == pixfmt.SourceBGR24}, nil

	case pixfmt.SourceRGBA64:
		p, err := need(0, raw.Height, raw.Width*8)
		if err != nil {
			return nil, err
		}
		return &image.RGBA64{Pix: p, Stride: raw.Linesizes[0], Rect: r}, nil

	case pixfmt.SourcePAL8:
		p, err := need(0, raw.Height, raw.Width)
		if err != nil {
			return nil, err
		}
		pal, err := need(1, 1, 4*256)
		if err != nil {
			return nil, err
		}
		return &image.Paletted{Pix: p, Stride: raw.Linesizes[0], Rect: r, Palette: palette(pal)}, nil

	case pixfmt.SourceNV12:
		y, err := need(0, raw.Height, raw.Width)
		if err != nil {
			return nil, err
		}
		uv, err := need(1, (raw.Height+1)/2, ((raw.Width+1)/2)*2)
		if err != nil {
			return nil, err
		}
		c.splitNV12(y, raw.Linesizes[0], uv, raw.Linesizes[1])
		return c.ycbcr, nil

	case pixfmt.SourceYUYV422:
		p, err := need(0, raw.Height, raw.Width*2)
		if err != nil {
			return nil, err
		}
		c.splitYUYV(p, raw.Linesizes[0])
		return c.ycbcr, nil
	}

	if raw.Image != nil {
		return raw.Image, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupported, raw.Source)
}

func (c *Context) splitNV12(y []byte, yStride int, uv []byte, uvStride int) {
	dst := c.ycbcr
	for row := range c.height {
		copy(dst.Y[row*dst.YStride:row*dst.YStride+c.width], y[row*yStride:])
	}
	cw, ch := (c.width+1)/2, (c.height+1)/2
	for row := range ch {
		src := uv[row*uvStride:]
		cb := dst.Cb[row*dst.CStride:]
		cr := dst.Cr[row*dst.CStride:]
		for x := range cw {
			cb[x] = src[2*x]
			cr[x] = src[2*x+1]
		}
	}
}

func (c *Context) splitYUYV(p []byte, stride int) {
	dst := c.ycbcr
	for row := range c.height {
		src := p[row*stride:]
		yRow := dst.Y[row*dst.YStride:]
		cb := dst.Cb[row*dst.CStride:]
		cr := dst.Cr[row*dst.CStride:]
		for x := 0; x+1 < c.width; x += 2 {
			i := x * 2
			yRow[x] = src[i]
			cb[x/2] = src[i+1]
			yRow[x+1] = src[i+2]
			cr[x/2] = src[i+3]
		}
		if c.width&1 == 1 {
			i := (c.width - 1) * 2
			yRow[c.width-1] = src[i]
			cb[c.width/2] = src[i+1]
			cr[c.width/2] = 128
		}
	}
}

// palette decodes 256 little-endian 0xAARRGGBB entries.
func palette(p []byte) color.Palette {
	pal := make(color.Palette, 256)
	for i := range pal {
		v := binary.LittleEndian.Uint32(p[i*4:])
		pal[i] = color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: uint8(v >> 24)}
	}
	return pal
}

// packed24 is an opaque 24-bit image in RGB or BGR byte order.
type packed24 struct {
	pix    []byte
	stride int
	rect   image.Rectangle
	bgr    bool
}

func (p *packed24) ColorModel() color.Model { return color.RGBAModel }
func (p *packed24) Bounds() image.Rectangle { return p.rect }

func (p *packed24) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.rect) {
		return color.RGBA{}
	}
	i := y*p.stride + x*3
	r, g, b := p.pix[i], p.pix[i+1], p.pix[i+2]
	if p.bgr {
		r, b = b, r
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// swizzleRGBA copies RGBA rows into BGRA rows.
func swizzleRGBA(dst []byte, dstStride int, src []byte, srcStride, width, height int) {
	for y := range height {
		d := dst[y*dstStride : y*dstStride+width*4]
		s := src[y*srcStride : y*srcStride+width*4]
		for i := 0; i < len(d); i += 4 {
			d[i], d[i+1], d[i+2], d[i+3] = s[i+2], s[i+1], s[i], s[i+3]
		}
	}
}
