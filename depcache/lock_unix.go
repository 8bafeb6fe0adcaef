// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix

package depcache

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// lockFile serializes cache writers across processes.
type lockFile struct {
	f *os.File
}

func newLockFile(fname string) (*lockFile, error) {
	f, err := os.OpenFile(fname, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return &lockFile{f: f}, nil
}

func (l *lockFile) Close() error {
	return l.f.Close()
}

// Lock blocks until it gets the exclusive lock.
func (l *lockFile) Lock() error {
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_EX)
	if err != nil {
		return err
	}
	if err = l.f.Truncate(0); err != nil {
		return err
	}
	_, err = fmt.Fprintf(l.f, "pid=%d", os.Getpid())
	return err
}

func (l *lockFile) Unlock() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}
