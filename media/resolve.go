// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package media locates template and clip files below a media root.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/playout"
)

// Resolve finds the file for name below root by trying each extension in
// order. Names are matched in NFC and then NFD form, and a case-insensitive
// directory scan is used when the exact spelling does not exist. With no
// extensions, name itself is looked up.
//
// The error wraps playout.ErrFileNotFound when nothing matches.
func Resolve(root, name string, exts ...string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("media: empty name: %w", playout.ErrFileNotFound)
	}
	if len(exts) == 0 {
		exts = []string{""}
	}

	for _, form := range []norm.Form{norm.NFC, norm.NFD} {
		n := form.String(filepath.FromSlash(name))
		for _, ext := range exts {
			candidate := n
			if ext != "" && !strings.EqualFold(filepath.Ext(n), ext) {
				candidate += ext
			}
			p := filepath.Join(root, candidate)
			if isFile(p) {
				return p, nil
			}
			if m, ok := findFold(p); ok {
				return m, nil
			}
		}
	}
	return "", fmt.Errorf("media: %q in %q: %w", name, root, playout.ErrFileNotFound)
}

// Exists reports whether Resolve would succeed.
func Exists(root, name string, exts ...string) bool {
	_, err := Resolve(root, name, exts...)
	return err == nil
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// findFold scans the directory of p for an entry equal to its base name
// under Unicode case folding.
func findFold(p string) (string, bool) {
	dir, base := filepath.Split(p)
	entries, err := os.ReadDir(filepath.Clean(dir))
	if err != nil {
		return "", false
	}
	fold := cases.Fold()
	want := fold.String(norm.NFC.String(base))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if fold.String(norm.NFC.String(e.Name())) == want {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}
