// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package toolchain

import (
	"errors"
	"testing"
)

func TestDetect(t *testing.T) {
	for _, tc := range []struct {
		compiler string
		want     Family
	}{
		{compiler: "g++", want: GCC},
		{compiler: "/usr/bin/gcc", want: GCC},
		{compiler: "g++-14", want: GCC},
		{compiler: "x86_64-linux-gnu-g++-13", want: GCC},
		{compiler: "clang++", want: Clang},
		{compiler: "/opt/llvm/bin/clang++-18", want: Clang},
		{compiler: "clang", want: Clang},
		{compiler: "aarch64-linux-android-clang", want: Clang},
		{compiler: `C:\LLVM\bin\clang-cl.exe`, want: Clang},
		{compiler: "cl", want: MSVC},
		{compiler: `C:\VS\bin\Hostx64\x64\CL.EXE`, want: MSVC},
	} {
		got, err := Detect(tc.compiler)
		if err != nil || got != tc.want {
			t.Errorf("Detect(%q)=%v, %v; want %v, nil", tc.compiler, got, err, tc.want)
		}
	}
}

func TestDetect_Unsupported(t *testing.T) {
	for _, compiler := range []string{"", "c++", "icpx", "nvcc", "/usr/bin/tcc"} {
		_, err := Detect(compiler)
		if !errors.Is(err, ErrUnsupportedCompiler) {
			t.Errorf("Detect(%q)=_, %v; want %v", compiler, err, ErrUnsupportedCompiler)
		}
	}
}

func TestFamily_BMIExtension(t *testing.T) {
	for f, want := range map[Family]string{
		GCC:   ".gcm",
		Clang: ".pcm",
		MSVC:  ".ifc",
	} {
		if got := f.BMIExtension(); got != want {
			t.Errorf("%s.BMIExtension()=%q; want %q", f, got, want)
		}
	}
}

func TestCompilerPath(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want string
	}{
		{args: []string{"g++"}, want: "g++"},
		{args: []string{"ccache", "clang++"}, want: "clang++"},
		{args: []string{"/usr/bin/sccache", "cl.exe"}, want: "cl.exe"},
		{args: []string{"CCACHE_DIR=/tmp", "ccache", "g++-13"}, want: "g++-13"},
		{args: nil, want: ""},
	} {
		if got := compilerPath(tc.args); got != tc.want {
			t.Errorf("compilerPath(%q)=%q; want %q", tc.args, got, tc.want)
		}
	}
}
