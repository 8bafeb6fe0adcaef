// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix

package localexec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.chromium.org/infra/build/modscan/execute"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cmd := execute.New("ECHO", []string{"/bin/sh", "-c", "echo hello; echo world >&2"})
	cmd.ExecRoot = dir
	cmd.StdoutFile = "out/hello.txt"
	err := Run(ctx, cmd)
	if err != nil {
		t.Fatalf("Run(ctx, cmd)=%v; want nil err", err)
	}
	if got, want := string(cmd.Stdout()), "hello\n"; got != want {
		t.Errorf("Stdout()=%q; want %q", got, want)
	}
	if got, want := string(cmd.Stderr()), "world\n"; got != want {
		t.Errorf("Stderr()=%q; want %q", got, want)
	}
	buf, err := os.ReadFile(filepath.Join(dir, "out/hello.txt"))
	if err != nil || string(buf) != "hello\n" {
		t.Errorf("stdout file=%q, %v; want %q, nil", buf, err, "hello\n")
	}
	if cmd.Result() == nil || cmd.Result().ExitCode != 0 {
		t.Errorf("Result()=%v; want exit=0", cmd.Result())
	}
}

func TestRun_ExitError(t *testing.T) {
	ctx := context.Background()
	cmd := execute.New("FAIL", []string{"/bin/sh", "-c", "exit 3"})
	cmd.ExecRoot = t.TempDir()
	cmd.StdoutFile = "out.txt"
	err := Run(ctx, cmd)
	var eerr *execute.ExitError
	if !errors.As(err, &eerr) || eerr.ExitCode != 3 {
		t.Fatalf("Run(ctx, cmd)=%v; want exit=3", err)
	}
	if _, err := os.Stat(filepath.Join(cmd.ExecRoot, "out.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("stdout file written for failed cmd: %v", err)
	}
}

func TestRun_NotFound(t *testing.T) {
	ctx := context.Background()
	cmd := execute.New("MISSING", []string{"/nonexistent/modscan-no-such-tool"})
	err := Run(ctx, cmd)
	if err == nil {
		t.Fatalf("Run(ctx, cmd)=nil; want err")
	}
	var eerr *execute.ExitError
	if errors.As(err, &eerr) {
		t.Errorf("Run(ctx, cmd)=%v; want non exit error", err)
	}
}
