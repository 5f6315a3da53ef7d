// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"strings"
	"time"
)

// FieldMode describes how an output cadence carries fields.
type FieldMode uint8

const (
	// Progressive delivers whole frames.
	Progressive FieldMode = iota

	// Upper delivers interlaced frames with the upper field first.
	Upper

	// Lower delivers interlaced frames with the lower field first.
	Lower
)

// String returns the mode name.
func (m FieldMode) String() string {
	switch m {
	case Progressive:
		return "progressive"
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	default:
		return "unknown"
	}
}

// VideoFormat describes an output cadence and raster.
type VideoFormat struct {
	Name      string
	Width     int
	Height    int
	FPS       float64
	FieldMode FieldMode
}

// Size returns the byte size of one BGRA frame in this format.
func (v VideoFormat) Size() int {
	return v.Width * v.Height * 4
}

// Interlaced reports whether the format delivers fields.
func (v VideoFormat) Interlaced() bool {
	return v.FieldMode != Progressive
}

// Duration returns the frame period.
func (v VideoFormat) Duration() time.Duration {
	if v.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / v.FPS)
}

func (v VideoFormat) String() string {
	return v.Name
}

// Formats lists the standard video formats.
var Formats = []VideoFormat{
	{Name: "PAL", Width: 720, Height: 576, FPS: 25, FieldMode: Upper},
	{Name: "NTSC", Width: 720, Height: 486, FPS: 30000.0 / 1001, FieldMode: Lower},
	{Name: "576p2500", Width: 720, Height: 576, FPS: 25, FieldMode: Progressive},
	{Name: "720p2500", Width: 1280, Height: 720, FPS: 25, FieldMode: Progressive},
	{Name: "720p5000", Width: 1280, Height: 720, FPS: 50, FieldMode: Progressive},
	{Name: "720p5994", Width: 1280, Height: 720, FPS: 60000.0 / 1001, FieldMode: Progressive},
	{Name: "720p6000", Width: 1280, Height: 720, FPS: 60, FieldMode: Progressive},
	{Name: "1080p2398", Width: 1920, Height: 1080, FPS: 24000.0 / 1001, FieldMode: Progressive},
	{Name: "1080p2400", Width: 1920, Height: 1080, FPS: 24, FieldMode: Progressive},
	{Name: "1080p2500", Width: 1920, Height: 1080, FPS: 25, FieldMode: Progressive},
	{Name: "1080p2997", Width: 1920, Height: 1080, FPS: 30000.0 / 1001, FieldMode: Progressive},
	{Name: "1080p3000", Width: 1920, Height: 1080, FPS: 30, FieldMode: Progressive},
	{Name: "1080p5000", Width: 1920, Height: 1080, FPS: 50, FieldMode: Progressive},
	{Name: "1080i5000", Width: 1920, Height: 1080, FPS: 25, FieldMode: Upper},
	{Name: "1080i5994", Width: 1920, Height: 1080, FPS: 30000.0 / 1001, FieldMode: Upper},
	{Name: "1080i6000", Width: 1920, Height: 1080, FPS: 30, FieldMode: Upper},
}

// LookupFormat returns the standard format with the given name, ignoring case.
func LookupFormat(name string) (VideoFormat, bool) {
	for _, f := range Formats {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return VideoFormat{}, false
}
