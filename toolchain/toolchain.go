// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package toolchain provides compiler family adapters that supply
// module dependency scanning for build scopes.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.chromium.org/infra/build/modscan/execute"
)

// ErrUnsupportedCompiler is an error when compiler is not in any
// supported family.
var ErrUnsupportedCompiler = errors.New("unsupported compiler")

// Family is a compiler family.
type Family int

const (
	// GCC is GNU compiler collection.
	GCC Family = iota + 1
	// Clang is LLVM clang, including clang-cl.
	Clang
	// MSVC is Microsoft Visual C++.
	MSVC
)

func (f Family) String() string {
	switch f {
	case GCC:
		return "gcc"
	case Clang:
		return "clang"
	case MSVC:
		return "msvc"
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// BMIExtension returns filename extension of the family's binary module
// interface.
func (f Family) BMIExtension() string {
	switch f {
	case GCC:
		return ".gcm"
	case Clang:
		return ".pcm"
	case MSVC:
		return ".ifc"
	}
	return ""
}

// Detect detects compiler family from the compiler path.
func Detect(compiler string) (Family, error) {
	// compiler may be windows path on non-windows.
	name := compiler
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(name)
	name = strings.TrimSuffix(name, ".exe")
	name = trimVersion(name)
	switch {
	case name == "cl":
		return MSVC, nil
	case name == "clang-cl",
		name == "clang", strings.HasSuffix(name, "-clang"),
		name == "clang++", strings.HasSuffix(name, "-clang++"):
		return Clang, nil
	case name == "gcc", strings.HasSuffix(name, "-gcc"),
		name == "g++", strings.HasSuffix(name, "-g++"):
		return GCC, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedCompiler, compiler)
}

// trimVersion trims version suffix, e.g. "-13" or "-17.0".
func trimVersion(name string) string {
	i := strings.LastIndexByte(name, '-')
	if i < 0 {
		return name
	}
	v := name[i+1:]
	if v == "" || v[0] < '0' || v[0] > '9' {
		return name
	}
	for _, c := range v {
		if (c < '0' || c > '9') && c != '.' {
			return name
		}
	}
	return name[:i]
}

// Owner is a build scope that owns compile units.
type Owner interface {
	// Name is an identity of the owner.
	Name() string

	// ExecRoot is the dir where relative paths are resolved,
	// and commands run.
	ExecRoot() string

	// CompilerArgs returns compiler command, e.g. ["ccache", "g++"].
	CompilerArgs() ([]string, error)

	// Flags returns compiler flags.
	Flags() []string

	// IncludeDirs returns include dirs in search order.
	IncludeDirs() []string

	// SystemIncludeDirs returns extra system include dirs.
	SystemIncludeDirs() []string

	// ObjectFile returns object file of the source.
	ObjectFile(src string) string

	// DependFile returns dependency info file of the source.
	DependFile(src string) string

	// FallbackScan reports whether the owner forces the fallback scanner.
	FallbackScan() bool
}

// Adapter is a compiler family adapter.
type Adapter interface {
	// Family returns the compiler family.
	Family() Family

	// BMIExtension returns filename extension of BMI.
	BMIExtension() string

	// ToolchainIncludeDirs returns the toolchain's system include dirs
	// for the owner.
	ToolchainIncludeDirs(ctx context.Context, owner Owner) ([]string, error)

	// GenerateDependencies makes dependency info files of batch up to date.
	// changed is true if any of them is regenerated.
	GenerateDependencies(ctx context.Context, owner Owner, batch []string) (changed bool, err error)

	// ScanCommand returns a command to scan src with the native scanner.
	// It returns nil if no native scanner is available.
	ScanCommand(owner Owner, src string) *execute.Cmd
}

// compilerPath returns path of the compiler in args, i.e. skips
// compiler launchers such as ccache.
func compilerPath(args []string) string {
	if len(args) == 0 {
		return ""
	}
	for _, arg := range args {
		switch strings.TrimSuffix(filepath.Base(arg), ".exe") {
		case "ccache", "sccache", "distcc", "icecc":
			continue
		}
		if strings.Contains(arg, "=") {
			// env override
			continue
		}
		return arg
	}
	return args[len(args)-1]
}
