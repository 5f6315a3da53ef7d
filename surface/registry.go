// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/playout"
)

// WindowFactory returns a Window that is not yet created. The presentation
// loop calls it on its own goroutine and then calls Create.
type WindowFactory func() (Window, error)

// RegistryEntry describes one window backend.
type RegistryEntry struct {
	Name     string
	Priority int // built in: "gpu" 100, "image" 10
	Factory  WindowFactory

	// Available is probed on every lookup; a GPU backend may lose its
	// adapter while the process runs.
	Available func() bool
}

// ErrNoBackendAvailable is returned when no window backend can open a window.
var ErrNoBackendAvailable = errors.New("surface: no backend available")

// BackendNotFoundError is returned for a backend name nobody registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "surface: backend not found: " + e.Name
}

// BackendUnavailableError is returned for a registered backend whose
// Available probe fails.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "surface: backend unavailable: " + e.Name
}

// Registry ranks window backends. The presentation loop asks it for a
// factory once, at consumer construction:
//
//	present.New(format, cfg, surface.Factory(""), displays)
//
// Backends with equal priority rank by name so the choice is stable.
type Registry struct {
	mu     sync.RWMutex
	ranked []RegistryEntry // priority descending, then name
}

// NewRegistry returns an empty registry. The package level functions use
// a shared one that already holds the built-in backends.
func NewRegistry() *Registry {
	return &Registry{}
}

var defaultRegistry = NewRegistry()

func init() {
	defaultRegistry.Register("image", 10, func() (Window, error) { return NewImageWindow(), nil }, nil)
}

// Register adds or replaces a backend in the shared registry. A nil
// available means the backend always works.
//
//	func init() {
//	    surface.Register("sdl", 50, newSDLWindow, sdlAvailable)
//	}
func Register(name string, priority int, factory WindowFactory, available func() bool) {
	defaultRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the shared registry.
func Unregister(name string) { defaultRegistry.Unregister(name) }

// List returns every backend in the shared registry, best first.
func List() []string { return defaultRegistry.List() }

// Available returns the backends of the shared registry that can run here, best first.
func Available() []string { return defaultRegistry.Available() }

// Get looks a backend up in the shared registry.
func Get(name string) (*RegistryEntry, bool) { return defaultRegistry.Get(name) }

// NewWindow opens a window with the best working backend.
func NewWindow() (Window, error) { return defaultRegistry.NewWindow() }

// NewWindowByName opens a window with the named backend.
func NewWindowByName(name string) (Window, error) { return defaultRegistry.NewWindowByName(name) }

// Factory binds a backend choice for present.New: the named backend, or
// the best working one when name is empty.
func Factory(name string) WindowFactory {
	if name == "" {
		return NewWindow
	}
	return func() (Window, error) { return NewWindowByName(name) }
}

// Register adds or replaces a backend.
func (r *Registry) Register(name string, priority int, factory WindowFactory, available func() bool) {
	if available == nil {
		available = func() bool { return true }
	}
	e := RegistryEntry{Name: name, Priority: priority, Factory: factory, Available: available}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranked = slices.DeleteFunc(r.ranked, func(o RegistryEntry) bool { return o.Name == name })
	i, _ := slices.BinarySearchFunc(r.ranked, e, rank)
	r.ranked = slices.Insert(r.ranked, i, e)
}

func rank(a, b RegistryEntry) int {
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// Unregister removes a backend.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	r.ranked = slices.DeleteFunc(r.ranked, func(e RegistryEntry) bool { return e.Name == name })
	r.mu.Unlock()
}

// List returns every backend name, best first.
func (r *Registry) List() []string { return r.names(false) }

// Available returns the names of backends whose probe passes, best first.
func (r *Registry) Available() []string { return r.names(true) }

func (r *Registry) names(probe bool) []string {
	var names []string
	for _, e := range r.snapshot() {
		if !probe || e.Available() {
			names = append(names, e.Name)
		}
	}
	return names
}

func (r *Registry) snapshot() []RegistryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.ranked)
}

// Get returns a copy of the named entry.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	for _, e := range r.snapshot() {
		if e.Name == name {
			return &e, true
		}
	}
	return nil, false
}

// NewWindow tries the working backends best first and returns the first
// window one of them opens. When all fail the error wraps
// ErrNoBackendAvailable and every backend error.
func (r *Registry) NewWindow() (Window, error) {
	var errs []error
	for _, e := range r.snapshot() {
		if !e.Available() {
			continue
		}
		w, err := e.Factory()
		if err == nil {
			return w, nil
		}
		playout.Logger().Debug("surface: backend failed, trying next", "backend", e.Name, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
	}
	if len(errs) == 0 {
		return nil, ErrNoBackendAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrNoBackendAvailable, errors.Join(errs...))
}

// NewWindowByName opens a window with one backend, with no fallback.
func (r *Registry) NewWindowByName(name string) (Window, error) {
	e, ok := r.Get(name)
	switch {
	case !ok:
		return nil, &BackendNotFoundError{Name: name}
	case !e.Available():
		return nil, &BackendUnavailableError{Name: name}
	}
	return e.Factory()
}
