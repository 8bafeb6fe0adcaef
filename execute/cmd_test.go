// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package execute

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	cmd := New("SCAN hello.cppm", []string{"clang-scan-deps", "-format=p1689"})
	if _, err := uuid.Parse(cmd.ID); err != nil {
		t.Errorf("ID=%q is not uuid: %v", cmd.ID, err)
	}
	other := New("SCAN hello.cppm", nil)
	if cmd.ID == other.ID {
		t.Errorf("ID=%q for both cmds; want unique", cmd.ID)
	}
	if got, want := cmd.String(), fmt.Sprintf("SCAN hello.cppm(%s)", cmd.ID); got != want {
		t.Errorf("String()=%q; want %q", got, want)
	}
}

func TestCommand(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want string
	}{
		{
			args: []string{"/bin/sh", "-c", "g++ -c foo.cc > foo.log"},
			want: "g++ -c foo.cc > foo.log",
		},
		{
			args: []string{"clang-scan-deps", "-format=p1689", "--", "clang++", "-I", "my dir", "foo.cc"},
			want: `clang-scan-deps -format=p1689 -- clang++ -I "my dir" foo.cc`,
		},
	} {
		cmd := &Cmd{Args: tc.args}
		if got := cmd.Command(); got != tc.want {
			t.Errorf("Command()=%q; want %q", got, tc.want)
		}
	}
}

func TestAllOutputs(t *testing.T) {
	cmd := &Cmd{
		Outputs:    []string{"obj/foo.ddi"},
		Depfile:    "obj/foo.ddi.d",
		StdoutFile: "obj/foo.ddi",
	}
	want := []string{"obj/foo.ddi", "obj/foo.ddi.d", "obj/foo.ddi"}
	if diff := cmp.Diff(want, cmd.AllOutputs()); diff != "" {
		t.Errorf("AllOutputs() diff -want +got:\n%s", diff)
	}
	if len(cmd.Outputs) != 1 {
		t.Errorf("AllOutputs modified Outputs: %q", cmd.Outputs)
	}
}

func TestStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	cmd := &Cmd{}
	cmd.SetStdoutWriter(&buf)
	fmt.Fprint(cmd.StdoutWriter(), "hello")
	if got := string(cmd.Stdout()); got != "hello" {
		t.Errorf("Stdout()=%q; want %q", got, "hello")
	}
	if got := buf.String(); got != "hello" {
		t.Errorf("writer=%q; want %q", got, "hello")
	}
}
