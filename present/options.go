// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package present

import "github.com/gogpu/playout/internal/fifo"

// Config selects the screen and layout of a Consumer.
type Config struct {
	// Screen is the index passed to Displays.Screen.
	Screen int

	// Stretch fits the frame to the window.
	Stretch Stretch

	// Windowed opens a titled window at the frame size instead of
	// covering the screen.
	Windowed bool
}

// DefaultConfig fills a windowed window on the first screen.
func DefaultConfig() Config {
	return Config{Stretch: StretchFill, Windowed: true}
}

type options struct {
	title    string
	depth    int
	capacity int
}

func defaultOptions() options {
	return options{title: "playout", depth: 32, capacity: fifo.DefaultCapacity}
}

// Option configures a Consumer.
type Option func(*options)

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(o *options) { o.title = title }
}

// WithDepth sets the window bit depth, 24 or 32.
func WithDepth(bits int) Option {
	return func(o *options) { o.depth = bits }
}

// WithCapacity sets how many frames Send may queue ahead of the loop.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}
