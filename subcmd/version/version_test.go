// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package version

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrintBuildInfo(t *testing.T) {
	var buf bytes.Buffer
	printBuildInfo(&buf, &debug.BuildInfo{
		GoVersion: "go1.24.2",
		Settings: []debug.BuildSetting{
			{Key: "-compiler", Value: "gc"},
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "false"},
		},
	})
	want := "go\tgo1.24.2\nbuild\tvcs.revision=0123456789abcdef\nbuild\tvcs.modified=false\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("printBuildInfo diff -want +got:\n%s", diff)
	}
}
