// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package execute runs commands.
package execute

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"go.chromium.org/infra/build/modscan/toolsupport/shutil"
)

// Executor is an interface to run the cmd.
type Executor interface {
	Run(ctx context.Context, cmd *Cmd) error
}

// Cmd includes all the information required to run a scan command.
type Cmd struct {
	// ID is used as a unique identifier for this command in logs.
	// It does not have to be human-readable, so using a UUID is fine.
	ID string

	// Desc is a short, human-readable identifier that is shown to the
	// user when referencing this command in a log.
	// Example: "SCAN hello.cppm"
	Desc string

	// Args holds command line arguments.
	Args []string

	// Env specifies the environment of the process.
	Env []string

	// ExecRoot is an exec root directory of the cmd.
	ExecRoot string

	// Dir specifies the working directory of the cmd,
	// relative to ExecRoot.
	Dir string

	// Inputs are input files of the cmd, relative to ExecRoot.
	Inputs []string

	// Outputs are output files of the cmd, relative to ExecRoot.
	Outputs []string

	// Depfile specifies a filename for dep info, relative to ExecRoot.
	Depfile string

	// StdoutFile is a file to write stdout of the cmd, relative to ExecRoot.
	// It is used by the tools that write the output to stdout.
	StdoutFile string

	stdoutWriter, stderrWriter io.Writer
	stdoutBuffer, stderrBuffer bytes.Buffer

	result *Result
}

// Result is a result of the cmd execution.
type Result struct {
	ExitCode int
	Start    time.Time
	Duration time.Duration
	Rusage   *Rusage
}

// Rusage is a resource usage of the cmd.
type Rusage struct {
	MaxRSS int64
	Utime  time.Duration
	Stime  time.Duration
}

// New creates new cmd with new ID.
func New(desc string, args []string) *Cmd {
	return &Cmd{
		ID:   uuid.NewString(),
		Desc: desc,
		Args: args,
	}
}

// String returns an ID of the cmd.
func (c *Cmd) String() string {
	if c.Desc == "" {
		return c.ID
	}
	return fmt.Sprintf("%s(%s)", c.Desc, c.ID)
}

// Command returns a command line string.
func (c *Cmd) Command() string {
	if len(c.Args) == 3 && c.Args[0] == "/bin/sh" && c.Args[1] == "-c" {
		return c.Args[2]
	}
	return shutil.Join(c.Args)
}

// WorkDir returns working directory of the cmd.
func (c *Cmd) WorkDir() string {
	return filepath.Join(c.ExecRoot, c.Dir)
}

// AllOutputs returns all outputs of the cmd.
func (c *Cmd) AllOutputs() []string {
	outputs := append([]string(nil), c.Outputs...)
	if c.Depfile != "" {
		outputs = append(outputs, c.Depfile)
	}
	if c.StdoutFile != "" {
		outputs = append(outputs, c.StdoutFile)
	}
	return outputs
}

// SetStdoutWriter sets w for stdout.
func (c *Cmd) SetStdoutWriter(w io.Writer) {
	c.stdoutWriter = w
}

// SetStderrWriter sets w for stderr.
func (c *Cmd) SetStderrWriter(w io.Writer) {
	c.stderrWriter = w
}

// StdoutWriter returns a writer set for stdout.
func (c *Cmd) StdoutWriter() io.Writer {
	c.stdoutBuffer.Reset()
	if c.stdoutWriter == nil {
		return &c.stdoutBuffer
	}
	return io.MultiWriter(c.stdoutWriter, &c.stdoutBuffer)
}

// StderrWriter returns a writer set for stderr.
func (c *Cmd) StderrWriter() io.Writer {
	c.stderrBuffer.Reset()
	if c.stderrWriter == nil {
		return &c.stderrBuffer
	}
	return io.MultiWriter(c.stderrWriter, &c.stderrBuffer)
}

// Stdout returns stdout output of the cmd.
func (c *Cmd) Stdout() []byte {
	return c.stdoutBuffer.Bytes()
}

// Stderr returns stderr output of the cmd.
func (c *Cmd) Stderr() []byte {
	return c.stderrBuffer.Bytes()
}

// SetResult sets execution result of the cmd.
func (c *Cmd) SetResult(result *Result) {
	c.result = result
}

// Result returns execution result of the cmd.
// It returns nil if the cmd has not been executed.
func (c *Cmd) Result() *Result {
	return c.result
}

// ExitError is an error of cmd exit.
type ExitError struct {
	ExitCode int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit=%d", e.ExitCode)
}
