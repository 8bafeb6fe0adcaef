// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scope is a build scope, i.e. a set of sources compiled with the same
// compiler and flags.
type Scope struct {
	cfg  *Config
	c    scopeConfig
	deps []*Scope
}

// Name returns the name of the scope.
func (s *Scope) Name() string { return s.c.Name }

// ExecRoot returns the dir where relative paths are resolved.
func (s *Scope) ExecRoot() string { return s.cfg.root }

// Compiler returns the compiler command line.
func (s *Scope) Compiler() string { return s.c.Compiler }

// CompilerArgs returns the compiler command split into args,
// e.g. ["ccache", "g++"].
func (s *Scope) CompilerArgs() ([]string, error) {
	if s.c.Compiler == "" {
		return nil, fmt.Errorf("scope %s: no compiler", s.Name())
	}
	args, err := splitCommand(s.c.Compiler)
	if err != nil {
		return nil, fmt.Errorf("scope %s: compiler %q: %w", s.Name(), s.c.Compiler, err)
	}
	return args, nil
}

// Flags returns compiler flags of the scope.
func (s *Scope) Flags() []string { return s.c.Flags }

// Sources returns sources of the scope in config order.
func (s *Scope) Sources() []string { return s.c.Sources }

// FallbackScan reports whether the scope forces the fallback scanner.
func (s *Scope) FallbackScan() bool { return s.c.FallbackScan }

// Deps returns the ordered dependency list of the scope,
// transitive deps included, nearest first.
func (s *Scope) Deps() []string {
	var names []string
	for _, d := range s.deps {
		names = append(names, d.Name())
	}
	return names
}

// OwnIncludeDirs returns include dirs of the scope itself.
func (s *Scope) OwnIncludeDirs() []string { return s.c.IncludeDirs }

// DependencyIncludeDirs returns include dirs of dependency scopes.
func (s *Scope) DependencyIncludeDirs() []string {
	var dirs []string
	for _, d := range s.deps {
		dirs = append(dirs, d.c.IncludeDirs...)
	}
	return dirs
}

// PackageIncludeDirs returns include dirs of external packages.
func (s *Scope) PackageIncludeDirs() []string { return s.c.PackageIncludeDirs }

// IncludeDirs returns effective include dirs for `import <...>`, in search
// order: own, dependency, package. Relative dirs are resolved from ExecRoot.
// Duplicates are removed.
func (s *Scope) IncludeDirs() []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, set := range [][]string{s.OwnIncludeDirs(), s.DependencyIncludeDirs(), s.PackageIncludeDirs()} {
		for _, dir := range set {
			dir = s.abs(dir)
			if seen[dir] {
				continue
			}
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// SystemIncludeDirs returns extra toolchain system include dirs.
func (s *Scope) SystemIncludeDirs() []string {
	var dirs []string
	for _, dir := range s.c.SystemIncludeDirs {
		dirs = append(dirs, s.abs(dir))
	}
	return dirs
}

func (s *Scope) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.cfg.root, p)
}

// Dir returns the cache dir of the scope. It is stable per scope.
func (s *Scope) Dir() string {
	return filepath.Join(s.cfg.cacheDir, s.Name())
}

// CacheDir returns the cache dir of the scope, creating it if needed.
func (s *Scope) CacheDir() (string, error) {
	dir := s.Dir()
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return "", err
	}
	return dir, nil
}

// ObjectFile returns object file path for src, relative to ExecRoot
// if the cache dir is under ExecRoot.
func (s *Scope) ObjectFile(src string) string {
	return s.rel(filepath.Join(s.Dir(), "obj", objName(s.rel(s.abs(src))))) + ".o"
}

// DependFile returns dependency info file path for src,
// relative to ExecRoot if the cache dir is under ExecRoot.
func (s *Scope) DependFile(src string) string {
	return s.rel(filepath.Join(s.Dir(), "obj", objName(s.rel(s.abs(src))))) + ".ddi"
}

func (s *Scope) rel(p string) string {
	r, err := filepath.Rel(s.cfg.root, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return p
	}
	return r
}

// objName returns name for src in obj dir.
// sources outside of root are placed under "_abs".
func objName(src string) string {
	if !filepath.IsAbs(src) {
		return src
	}
	src = strings.TrimPrefix(src, filepath.VolumeName(src))
	return filepath.Join("_abs", src)
}
