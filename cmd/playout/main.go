// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command playout plays an image sequence or a caption through a
// presentation window.
//
// Usage:
//
//	playout [flags] [SEQUENCE]
//
// Without SEQUENCE a caption producer is used. The last presented picture
// can be written to a PNG file with --output when the window backend
// keeps one in memory.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/gogpu/playout"
	"github.com/gogpu/playout/frame"
	"github.com/gogpu/playout/present"
	"github.com/gogpu/playout/producer"
	"github.com/gogpu/playout/producer/caption"
	"github.com/gogpu/playout/producer/imageseq"
	"github.com/gogpu/playout/surface"
)

var (
	flagFormat   string
	flagStretch  string
	flagScreen   int
	flagWindowed bool
	flagWindow   string
	flagMedia    string
	flagTemplate string
	flagCaption  string
	flagBars     bool
	flagLoop     bool
	flagTitle    string
	flagFrames   int
	flagOutput   string
	flagVerbose  bool
	flagList     bool
	flagHelp     bool
	flagVersion  bool
)

func init() {
	flag.StringVarP(&flagFormat, "format", "f", "720p5000", "Output video format")
	flag.StringVarP(&flagStretch, "stretch", "s", "fill", "Fit mode: none, uniform, fill, uniform_to_fill")
	flag.IntVar(&flagScreen, "screen", 0, "Screen index")
	flag.BoolVarP(&flagWindowed, "windowed", "w", true, "Open a window at the frame size instead of covering the screen")
	flag.StringVar(&flagWindow, "window", "", "Window backend (default: best available)")
	flag.StringVarP(&flagMedia, "media", "m", "media", "Media root for templates")
	flag.StringVarP(&flagTemplate, "template", "t", "", "Caption template, resolved below the media root")
	flag.StringVarP(&flagCaption, "caption", "c", "", "Caption text, lines separated by \\n")
	flag.BoolVar(&flagBars, "bars", false, "Show color bars behind the caption")
	flag.BoolVar(&flagLoop, "loop", false, "Loop the image sequence")
	flag.StringVar(&flagTitle, "title", "playout", "Window title")
	flag.IntVarP(&flagFrames, "frames", "n", 0, "Stop after this many frames (default: until interrupted)")
	flag.StringVarP(&flagOutput, "output", "o", "", "Write the last presented picture to this PNG file")
	flag.BoolVar(&flagVerbose, "verbose", false, "Log per-frame diagnostics")
	flag.BoolVar(&flagList, "list-windows", false, "List window backends and exit")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

func main() {
	flag.Parse()

	switch {
	case flagHelp:
		fmt.Println("Usage: playout [OPTION]... [SEQUENCE]")
		fmt.Println()
		flag.PrintDefaults()
		return
	case flagVersion:
		fmt.Println("playout", playout.Version)
		return
	case flagList:
		for _, name := range surface.Available() {
			fmt.Println(name)
		}
		return
	}

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	playout.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "playout:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	format, ok := frame.LookupFormat(flagFormat)
	if !ok {
		return fmt.Errorf("unknown format %q", flagFormat)
	}
	stretch, err := present.ParseStretch(flagStretch)
	if err != nil {
		return err
	}

	p, err := newProducer(format)
	if err != nil {
		return err
	}
	defer p.Stop()
	if err := p.Start(false); err != nil {
		return err
	}
	if err := configure(p); err != nil {
		return err
	}

	var win surface.Window
	factory := surface.Factory(flagWindow)
	capture := func() (surface.Window, error) {
		w, err := factory()
		win = w
		return w, err
	}

	cfg := present.Config{Screen: flagScreen, Stretch: stretch, Windowed: flagWindowed}
	c, err := present.New(format, cfg, capture, nil, present.WithTitle(flagTitle))
	if err != nil {
		return err
	}

	sent, err := play(ctx, format, p, c)
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	playout.Logger().Info("playout: done", "frames", sent, "presented", c.Cycles())
	if err != nil {
		return err
	}
	return save(win)
}

func newProducer(format frame.VideoFormat) (producer.Producer, error) {
	if seq := flag.Arg(0); seq != "" {
		return producer.NewDecoderProducer(format, imageseq.New(seq),
			producer.WithName(filepath.Base(seq)))
	}
	return producer.NewRendererProducer(format, caption.New(), flagTemplate,
		producer.WithMediaRoot(flagMedia))
}

func configure(p producer.Producer) error {
	var cmds []string
	if flag.Arg(0) != "" {
		if flagLoop {
			cmds = append(cmds, "LOOP")
		}
	} else {
		if flagBars {
			cmds = append(cmds, "BARS")
		}
		if flagCaption != "" {
			cmds = append(cmds, "SET "+flagCaption)
		}
	}
	for _, cmd := range cmds {
		if err := p.Param(cmd); err != nil {
			return err
		}
	}
	return nil
}

// play pulls one frame per frame period and sends it to c.
func play(ctx context.Context, format frame.VideoFormat, p producer.Producer, c *present.Consumer) (int, error) {
	tick := time.NewTicker(format.Duration())
	defer tick.Stop()

	sent := 0
	for flagFrames <= 0 || sent < flagFrames {
		select {
		case <-ctx.Done():
			return sent, nil
		case <-tick.C:
		}
		f, err := p.GetFrame()
		if err != nil {
			return sent, err
		}
		if f == nil {
			continue
		}
		if err := c.Send(f); err != nil {
			if errors.Is(err, present.ErrClosed) {
				return sent, err
			}
			playout.Logger().Warn("playout: presentation fault", "err", err)
		}
		sent++
	}
	return sent, nil
}

func save(win surface.Window) error {
	if flagOutput == "" {
		return nil
	}
	s, ok := win.(interface{ SavePNG(string) error })
	if !ok {
		return fmt.Errorf("window %T cannot save pictures", win)
	}
	return s.SavePNG(flagOutput)
}
