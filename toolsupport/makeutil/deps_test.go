// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package makeutil

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestParseDeps(t *testing.T) {
	for _, tc := range []struct {
		name     string
		depsfile []byte
		want     []string
	}{
		{
			name:     "simple",
			depsfile: []byte("foo.o:\tbar baz qux"),
			want: []string{
				"bar",
				"baz",
				"qux",
			},
		},
		{
			name:     "spaceinname",
			depsfile: []byte(`foo\ bar.o: baz\ qux`),
			want: []string{
				"baz qux",
			},
		},
		{
			name:     "newlinewhitespaces",
			depsfile: []byte("foo.o :\tbar\\\n\tbaz\\\r\n  qux"),
			want: []string{
				"bar",
				"baz",
				"qux",
			},
		},
		{
			name:     "backslashes",
			depsfile: []byte("foo\\bar.o: baz\\qux\\\n  quux\\corge"),
			want: []string{
				`baz\qux`,
				`quux\corge`,
			},
		},
		{
			name:     "windows-drive",
			depsfile: []byte("C:\\obj\\foo.o: C:\\src\\foo.cc \\\n C:\\src\\foo.h"),
			want: []string{
				"C:\\src\\foo.cc",
				"C:\\src\\foo.h",
			},
		},
		{
			name:     "dollar",
			depsfile: []byte("foo.o: a$$b.h"),
			want: []string{
				"a$b.h",
			},
		},
		{
			name:     "phony-targets",
			depsfile: []byte("foo.ddi: foo.cc \\\n  foo.h\nfoo.h:\n"),
			want: []string{
				"foo.cc",
				"foo.h",
			},
		},
		{
			name:     "no-rule",
			depsfile: []byte("foo.o"),
		},
		{
			name: "rust-multi",
			depsfile: []byte(`clang_x64_for_rust_host_build_tools/obj/third_party/rust/unicode_ident/v1/lib/libunicode_ident-unicode_ident-1.rlib: ../../third_party/rust/unicode_ident/v1/crate/src/lib.rs ../../third_party/rust/unicode_ident/v1/crate/src/tables.rs

../../third_party/rust/unicode_ident/v1/crate/src/lib.rs:
../../third_party/rust/unicode_ident/v1/crate/src/tables.rs:
`),
			want: []string{
				"../../third_party/rust/unicode_ident/v1/crate/src/lib.rs",
				"../../third_party/rust/unicode_ident/v1/crate/src/tables.rs",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseDeps(tc.depsfile)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseDeps(%q) -want +got:\n%s", tc.depsfile, diff)
			}
		})
	}
}

func TestParseRule(t *testing.T) {
	targets, inputs := ParseRule([]byte("obj/foo.ddi obj/foo.o: ../src/foo.cc\n"))
	if diff := cmp.Diff([]string{"obj/foo.ddi", "obj/foo.o"}, targets); diff != "" {
		t.Errorf("targets -want +got:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"../src/foo.cc"}, inputs); diff != "" {
		t.Errorf("inputs -want +got:\n%s", diff)
	}
}

func TestFormatDeps(t *testing.T) {
	inputs := []string{"src/foo.cc", "my dir/foo.h", "a$b.h"}
	buf := FormatDeps("obj/foo.ddi", inputs)
	want := "obj/foo.ddi: \\\n  src/foo.cc \\\n  my\\ dir/foo.h \\\n  a$$b.h\n"
	if got := string(buf); got != want {
		t.Errorf("FormatDeps=%q; want %q", got, want)
	}
	if diff := cmp.Diff(inputs, ParseDeps(buf)); diff != "" {
		t.Errorf("ParseDeps(FormatDeps) -want +got:\n%s", diff)
	}
}

func TestParseDepsFile(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"obj/foo.ddi.d": {Data: []byte("obj/foo.ddi: src/foo.cc src/foo.h\n")},
	}
	got, err := ParseDepsFile(ctx, fsys, "obj/foo.ddi.d")
	if err != nil {
		t.Fatalf("ParseDepsFile=_, %v; want nil err", err)
	}
	if diff := cmp.Diff([]string{"src/foo.cc", "src/foo.h"}, got); diff != "" {
		t.Errorf("ParseDepsFile -want +got:\n%s", diff)
	}
	got, err = ParseDepsFile(ctx, fsys, "")
	if err != nil || got != nil {
		t.Errorf("ParseDepsFile(\"\")=%q, %v; want nil, nil", got, err)
	}
}
