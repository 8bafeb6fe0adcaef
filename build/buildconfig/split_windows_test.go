// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build windows

package buildconfig

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitCommand(t *testing.T) {
	for _, tc := range []struct {
		name    string
		cmdline string
		want    []string
	}{
		{
			name:    "msvc",
			cmdline: `C:\VS\VC\Tools\MSVC\14.40\bin\Hostx64\x64\cl.exe`,
			want:    []string{`C:\VS\VC\Tools\MSVC\14.40\bin\Hostx64\x64\cl.exe`},
		},
		{
			name:    "quoted",
			cmdline: `"C:\Program Files\LLVM\bin\clang-cl.exe" /std:c++20`,
			want:    []string{`C:\Program Files\LLVM\bin\clang-cl.exe`, "/std:c++20"},
		},
		{
			name:    "launcher",
			cmdline: `sccache.exe ..\..\third_party\llvm-build\Release+Asserts\bin\clang-cl.exe`,
			want: []string{
				"sccache.exe",
				`..\..\third_party\llvm-build\Release+Asserts\bin\clang-cl.exe`,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitCommand(tc.cmdline)
			if err != nil {
				t.Fatalf("splitCommand(%q)=%q, %v; want nil err", tc.cmdline, got, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("splitCommand(%q) -want +got:\n%s", tc.cmdline, diff)
			}
		})
	}
}
