// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import "testing"

func TestEditDistance(t *testing.T) {
	for _, tc := range []struct {
		s1, s2 string
		want   int
	}{
		{
			s1:   "",
			s2:   "toolkit",
			want: 7,
		},
		{
			s1:   "toolkit",
			s2:   "",
			want: 7,
		},
		{
			s1:   "",
			s2:   "",
			want: 0,
		},
		{
			s1:   "toolkit",
			s2:   "toolkjt",
			want: 1,
		},
		{
			s1:   "toolkjt",
			s2:   "toolkit",
			want: 1,
		},
		{
			s1:   "base_unittests",
			s2:   "base_unittests",
			want: 0,
		},
		{
			s1:   "base_unittest",
			s2:   "base_unittests",
			want: 1,
		},
		{
			s1:   "base_unittests",
			s2:   "base_unittest",
			want: 1,
		},
		{
			s1:   "modgraph",
			s2:   "mdograph",
			want: 2,
		},
		{
			s1:   "mdograph",
			s2:   "modgraph",
			want: 2,
		},
	} {
		got := editDistance(tc.s1, tc.s2, 0)
		if got != tc.want {
			t.Errorf("editDistance(%q, %q, 0)=%d; want=%d", tc.s1, tc.s2, got, tc.want)
		}
	}
}

func TestEditDistanceMax(t *testing.T) {
	const s1 = "abcdefghijklmnop"
	const s2 = "ponmlkjihgfedcba"
	for max := 1; max < 7; max++ {
		got := editDistance(s1, s2, max)
		if got != max+1 {
			t.Errorf("editDistance(%q, %q, %d)=%d; want=%d", s1, s2, max, got, max+1)
		}
	}
}
