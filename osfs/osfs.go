// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package osfs provides OS Filesystem access.
package osfs

import (
	"context"
	"io/fs"
	"os"
	"runtime"
	"time"

	"go.chromium.org/infra/build/modscan/o11y/clog"
	"go.chromium.org/infra/build/modscan/o11y/iometrics"
)

// slowOp is the duration to report an operation as slow.
// e.g. cache dir on network filesystem.
const slowOp = 1 * time.Minute

// OSFS provides OS Filesystem access.
// It counts metrics by iometrics.
type OSFS struct {
	*iometrics.IOMetrics
}

// New creates new OSFS.
func New(name string) *OSFS {
	return &OSFS{IOMetrics: iometrics.New(name)}
}

func logSlow(ctx context.Context, name string, dur time.Duration, err error) {
	buf := make([]byte, 4*1024)
	n := runtime.Stack(buf, false)
	clog.Warningf(ctx, "slow op %s: %s %v\n%s", name, dur, err, buf[:n])
}

func (ofs *OSFS) opsDone(ctx context.Context, name string, started time.Time, err error) {
	ofs.OpsDone(err)
	if dur := time.Since(started); dur > slowOp {
		logSlow(ctx, name, dur, err)
	}
}

// Chtimes changes the access and modification times of the named file.
func (ofs *OSFS) Chtimes(ctx context.Context, name string, atime, mtime time.Time) error {
	started := time.Now()
	err := os.Chtimes(name, atime, mtime)
	ofs.opsDone(ctx, name, started, err)
	return err
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (ofs *OSFS) MkdirAll(ctx context.Context, dirname string, perm fs.FileMode) error {
	started := time.Now()
	err := os.MkdirAll(dirname, perm)
	ofs.opsDone(ctx, dirname, started, err)
	return err
}

// Remove removes the named file or directory.
func (ofs *OSFS) Remove(ctx context.Context, name string) error {
	started := time.Now()
	err := os.Remove(name)
	ofs.opsDone(ctx, name, started, err)
	return err
}

// Rename renames oldname to newname, replacing newname if exists.
func (ofs *OSFS) Rename(ctx context.Context, oldname, newname string) error {
	started := time.Now()
	err := os.Rename(oldname, newname)
	ofs.opsDone(ctx, newname, started, err)
	return err
}

// ReadFile reads the named file.
func (ofs *OSFS) ReadFile(ctx context.Context, name string) ([]byte, error) {
	started := time.Now()
	buf, err := os.ReadFile(name)
	ofs.ReadDone(len(buf), err)
	if dur := time.Since(started); dur > slowOp {
		logSlow(ctx, name, dur, err)
	}
	return buf, err
}

// WriteFile writes data to the named file, creating it if necessary.
func (ofs *OSFS) WriteFile(ctx context.Context, name string, data []byte, perm fs.FileMode) error {
	started := time.Now()
	err := os.WriteFile(name, data, perm)
	ofs.WriteDone(len(data), err)
	if dur := time.Since(started); dur > slowOp {
		logSlow(ctx, name, dur, err)
	}
	return err
}

// WriteFileAtomic writes data to a temporary file, and renames it
// to the named file, so readers never see partially written data.
func (ofs *OSFS) WriteFileAtomic(ctx context.Context, name string, data []byte, perm fs.FileMode) error {
	tmp := name + ".tmp"
	err := ofs.WriteFile(ctx, tmp, data, perm)
	if err != nil {
		ofs.Remove(ctx, tmp)
		return err
	}
	err = ofs.Rename(ctx, tmp, name)
	if err != nil {
		ofs.Remove(ctx, tmp)
		return err
	}
	return nil
}
