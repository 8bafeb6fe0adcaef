// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package gccutil_test

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/modscan/toolsupport/gccutil"
)

func TestScanDepsArgs(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "separateFlag",
			args: []string{
				"/usr/bin/g++",
				"-std=c++20",
				"-MMD",
				"-MF",
				"obj/hello.o.d",
				"-c",
				"../src/hello.cppm",
				"-o",
				"obj/hello.o",
			},
			want: []string{
				"/usr/bin/g++",
				"-std=c++20",
				"-E", "-x", "c++", "../src/hello.cppm",
				"-fmodules-ts",
				"-fdeps-format=p1689r5",
				"-fdeps-file=obj/hello.ddi",
				"-fdeps-target=obj/hello.o",
				"-MT", "obj/hello.ddi",
				"-MD", "-MF", "obj/hello.ddi.d",
				"-o", os.DevNull,
			},
		},
		{
			name: "joinedFlag",
			args: []string{
				"/usr/bin/g++",
				"-MMD",
				"-MFobj/hello.o.d",
				"-fdeps-format=p1689r5",
				"-Iinclude",
				"-oobj/hello.o",
			},
			want: []string{
				"/usr/bin/g++",
				"-Iinclude",
				"-E", "-x", "c++", "../src/hello.cppm",
				"-fmodules-ts",
				"-fdeps-format=p1689r5",
				"-fdeps-file=obj/hello.ddi",
				"-fdeps-target=obj/hello.o",
				"-MT", "obj/hello.ddi",
				"-MD", "-MF", "obj/hello.ddi.d",
				"-o", os.DevNull,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := gccutil.ScanDepsArgs(tc.args, "../src/hello.cppm", "obj/hello.o", "obj/hello.ddi", "obj/hello.ddi.d")
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("gccutil.ScanDepsArgs(%q): diff (-want +got):\n%s", tc.args, diff)
			}
		})
	}
}

func TestSearchDirsArgs(t *testing.T) {
	got := gccutil.SearchDirsArgs([]string{"ccache", "g++"}, []string{"-std=c++20", "-Iinclude", "--sysroot=/sysroot", "-O2"})
	want := []string{"ccache", "g++", "-std=c++20", "--sysroot=/sysroot", "-E", "-x", "c++", os.DevNull, "-v"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("gccutil.SearchDirsArgs: diff (-want +got):\n%s", diff)
	}
}

func TestParseSearchDirs(t *testing.T) {
	stderr := []byte(`Using built-in specs.
ignoring nonexistent directory "/usr/local/include/x86_64-linux-gnu"
#include "..." search starts here:
 /quote/dir
#include <...> search starts here:
 /usr/include/c++/13
 /usr/include/x86_64-linux-gnu/c++/13
 /usr/include
 /System/Library/Frameworks (framework directory)
End of search list.
 /not/a/dir
`)
	want := []string{
		"/usr/include/c++/13",
		"/usr/include/x86_64-linux-gnu/c++/13",
		"/usr/include",
	}
	if diff := cmp.Diff(want, gccutil.ParseSearchDirs(stderr)); diff != "" {
		t.Errorf("gccutil.ParseSearchDirs: diff (-want +got):\n%s", diff)
	}
}
