// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shutil

import "testing"

func TestJoin(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want string
	}{
		{
			args: []string{"g++", "-std=c++20", "-c", "foo.cc"},
			want: "g++ -std=c++20 -c foo.cc",
		},
		{
			args: []string{"g++", "-I", "my dir", `-DNAME="v"`, ""},
			want: `g++ -I "my dir" "-DNAME=\"v\"" ""`,
		},
		{
			args: []string{"echo", "$HOME"},
			want: `echo "\$HOME"`,
		},
	} {
		if got := Join(tc.args); got != tc.want {
			t.Errorf("Join(%q)=%q; want %q", tc.args, got, tc.want)
		}
	}
}
