// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package localexec implements local command execution.
package localexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"go.chromium.org/infra/build/modscan/execute"
	"go.chromium.org/infra/build/modscan/execute/retry"
	"go.chromium.org/infra/build/modscan/o11y/clog"
	"go.chromium.org/infra/build/modscan/runtimex"
	"go.chromium.org/infra/build/modscan/sync/semaphore"
)

// LocalExec implements execute.Executor interface that runs commands locally.
type LocalExec struct{}

// Run runs cmd with LocalExec.
func Run(ctx context.Context, cmd *execute.Cmd) error {
	return LocalExec{}.Run(ctx, cmd)
}

// Run runs a cmd.
func (LocalExec) Run(ctx context.Context, cmd *execute.Cmd) error {
	res, stdout, stderr, err := run(ctx, cmd)
	if err != nil {
		return err
	}
	cmd.StdoutWriter().Write(stdout)
	cmd.StderrWriter().Write(stderr)
	cmd.SetResult(res)

	clog.Infof(ctx, "%s exit=%d stdout=%d stderr=%d %s", cmd, res.ExitCode, len(stdout), len(stderr), res.Duration)

	if res.ExitCode != 0 {
		return &execute.ExitError{ExitCode: res.ExitCode}
	}
	if cmd.StdoutFile == "" {
		return nil
	}
	fname := filepath.Join(cmd.ExecRoot, cmd.StdoutFile)
	err = os.MkdirAll(filepath.Dir(fname), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(fname, stdout, 0644)
}

// fix for http://b/278658064 windows: fork/exec: Not enough memory resources are available to process this command.
var forkSema = semaphore.New("fork", runtimex.NumCPU())

func run(ctx context.Context, cmd *execute.Cmd) (*execute.Result, []byte, []byte, error) {
	if len(cmd.Args) == 0 {
		return nil, nil, nil, fmt.Errorf("no arguments in the command. ID: %s", cmd.ID)
	}
	var c *exec.Cmd
	var stdout, stderr bytes.Buffer
	s := time.Now()
	// exec.Cmd can't be reused after failed Start.
	err := retry.Do(ctx, func() error {
		c = exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
		c.Env = cmd.Env
		c.Dir = cmd.WorkDir()
		stdout.Reset()
		stderr.Reset()
		c.Stdout = &stdout
		c.Stderr = &stderr
		return forkSema.Do(ctx, func(ctx context.Context) error {
			return c.Start()
		})
	})
	if err == nil {
		err = c.Wait()
	}
	if clog.V(ctx) {
		clog.Debugf(ctx, "%s %q: %v", cmd, cmd.Args, err)
	}
	var eerr *exec.ExitError
	if err != nil && !errors.As(err, &eerr) {
		// failed to start. e.g. command not found.
		return nil, nil, nil, fmt.Errorf("failed to run %s: %w", cmd.Args[0], err)
	}
	result := &execute.Result{
		ExitCode: exitCode(err),
		Start:    s,
		Duration: time.Since(s),
	}
	if c.ProcessState != nil {
		result.Rusage = rusage(c)
	}
	if result.ExitCode != 0 {
		stderr.WriteString(fmt.Sprintf("\ncmd: %q env: %q dir: %q error: %v", cmd.Args, cmd.Env, cmd.Dir, err))
	}
	return result, stdout.Bytes(), stderr.Bytes(), nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var eerr *exec.ExitError
	if !errors.As(err, &eerr) {
		return 1
	}
	if w, ok := eerr.ProcessState.Sys().(syscall.WaitStatus); ok {
		return w.ExitStatus()
	}
	return 1
}
