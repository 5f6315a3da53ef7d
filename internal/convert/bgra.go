// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package convert

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/pixfmt"
)

// WriteBGRA flattens f into tightly packed BGRA rows in dst, which must
// hold Width*Height*4 bytes. Planar frames are converted with BT.601
// coefficients; packed formats are swizzled; gray is expanded.
func WriteBGRA(dst []byte, f *frame.Frame) error {
	if f.Empty() {
		return ErrNilFrame
	}
	w, h := f.Width(), f.Height()
	if len(dst) < w*h*4 {
		return fmt.Errorf("%w: destination has %d bytes, need %d", ErrShortPlane, len(dst), w*h*4)
	}
	desc := f.Desc()
	stride := w * 4

	switch desc.Format {
	case pixfmt.BGRA, pixfmt.ARGB, pixfmt.RGBA, pixfmt.ABGR:
		b, g, r, a, _ := desc.Format.ChannelOrder()
		src, srcStride := f.Plane(0), desc.Planes[0].Stride()
		for y := range h {
			s := src[y*srcStride : y*srcStride+w*4]
			d := dst[y*stride : y*stride+w*4]
			if desc.Format == pixfmt.BGRA {
				copy(d, s)
				continue
			}
			for i := 0; i < len(d); i += 4 {
				d[i], d[i+1], d[i+2], d[i+3] = s[i+b], s[i+g], s[i+r], s[i+a]
			}
		}
		return nil

	case pixfmt.Gray:
		src, srcStride := f.Plane(0), desc.Planes[0].Stride()
		for y := range h {
			s := src[y*srcStride : y*srcStride+w]
			d := dst[y*stride:]
			for x, v := range s {
				d[x*4], d[x*4+1], d[x*4+2], d[x*4+3] = v, v, v, 0xff
			}
		}
		return nil

	case pixfmt.YCbCr, pixfmt.YCbCrA:
		src, ok := ycbcrImage(f)
		if !ok {
			writeYCbCr(dst, stride, f)
			return nil
		}
		out := &image.RGBA{Pix: dst, Stride: stride, Rect: image.Rect(0, 0, w, h)}
		draw.Draw(out, out.Rect, src, image.Point{}, draw.Src)
		for i := 0; i < w*h*4; i += 4 {
			dst[i], dst[i+2] = dst[i+2], dst[i]
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnsupported, desc.Format)
}

// subsampleRatio maps luma and chroma plane sizes to a standard library ratio.
func subsampleRatio(yw, yh, cw, ch int) (image.YCbCrSubsampleRatio, bool) {
	div := func(full, sub int) int {
		if sub <= 0 {
			return 0
		}
		return (full + sub - 1) / sub
	}
	sx, sy := div(yw, cw), div(yh, ch)
	switch {
	case sx == 1 && sy == 1:
		return image.YCbCrSubsampleRatio444, true
	case sx == 2 && sy == 1:
		return image.YCbCrSubsampleRatio422, true
	case sx == 2 && sy == 2:
		return image.YCbCrSubsampleRatio420, true
	case sx == 1 && sy == 2:
		return image.YCbCrSubsampleRatio440, true
	case sx == 4 && sy == 1:
		return image.YCbCrSubsampleRatio411, true
	case sx == 4 && sy == 2:
		return image.YCbCrSubsampleRatio410, true
	}
	return 0, false
}

// ycbcrImage wraps the planes of a YCbCr or YCbCrA frame without copying.
// ok is false when the subsampling has no standard library equivalent.
func ycbcrImage(f *frame.Frame) (image.Image, bool) {
	desc := f.Desc()
	pl := desc.Planes
	ratio, ok := subsampleRatio(f.Width(), f.Height(), pl[1].Linesize, pl[1].Height)
	if !ok {
		return nil, false
	}
	yc := image.YCbCr{
		Y:              f.Plane(0),
		Cb:             f.Plane(1),
		Cr:             f.Plane(2),
		YStride:        pl[0].Stride(),
		CStride:        pl[1].Stride(),
		SubsampleRatio: ratio,
		Rect:           image.Rect(0, 0, f.Width(), f.Height()),
	}
	if desc.Format == pixfmt.YCbCrA {
		return &image.NYCbCrA{YCbCr: yc, A: f.Plane(3), AStride: pl[3].Stride()}, true
	}
	return &yc, true
}

// writeYCbCr converts pixel by pixel for subsamplings such as 4x4.
func writeYCbCr(dst []byte, stride int, f *frame.Frame) {
	desc := f.Desc()
	pl := desc.Planes
	w, h := f.Width(), f.Height()
	sx := max((w+pl[1].Linesize-1)/max(pl[1].Linesize, 1), 1)
	sy := max((h+pl[1].Height-1)/max(pl[1].Height, 1), 1)
	yp, cb, cr := f.Plane(0), f.Plane(1), f.Plane(2)
	var ap []byte
	if desc.Format == pixfmt.YCbCrA {
		ap = f.Plane(3)
	}
	for y := range h {
		d := dst[y*stride:]
		ci := (y / sy) * pl[1].Stride()
		for x := range w {
			r, g, b := color.YCbCrToRGB(yp[y*pl[0].Stride()+x], cb[ci+x/sx], cr[ci+x/sx])
			a := uint8(0xff)
			if ap != nil {
				a = ap[y*pl[3].Stride()+x]
				r, g, b = premul(r, a), premul(g, a), premul(b, a)
			}
			d[x*4], d[x*4+1], d[x*4+2], d[x*4+3] = b, g, r, a
		}
	}
}

func premul(c, a uint8) uint8 {
	return uint8((uint32(c)*uint32(a) + 127) / 255)
}
