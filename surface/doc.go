// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the output window a presentation loop draws to.
//
// A Window is owned by exactly one goroutine, the one that created it.
// Pictures reach it through Transfers: the loop maps a Transfer, copies a
// BGRA frame into it, unmaps it, and on the next cycle binds it as the
// texture of the quad it draws.
//
// # Window Types
//
//   - ImageWindow: headless window composing into an *image.RGBA
//   - GPUWindow: uploads transfers to a wgpu texture and reads it back
//   - Third-party backends via the registry
//
// # Registry
//
// Backends register a factory under a name and priority:
//
//	surface.Register("sdl", 50, newSDLWindow, sdlAvailable)
//
//	w, err := surface.NewWindow()           // best available backend
//	w, err := surface.NewWindowByName("gpu")
//
// # Usage
//
//	w := surface.NewImageWindow()
//	if err := w.Create(1280, 720, 32, "playout", surface.Windowed); err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	t, _ := w.NewTransfer(1280 * 720 * 4)
//	copy(t.Map(), bgra)
//	t.Unmap()
//	t.Bind()
//	w.Draw(1, 1)
//	w.Present()
//	img := w.Snapshot()
package surface
