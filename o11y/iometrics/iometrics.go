// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package iometrics counts file I/O done for ddi files and cache entries.
package iometrics

import (
	"fmt"
	"sync/atomic"
)

type counter struct {
	ops   atomic.Int64
	bytes atomic.Int64
	errs  atomic.Int64
}

func (c *counter) done(n int, err error) {
	c.ops.Add(1)
	c.bytes.Add(int64(n))
	if err != nil {
		c.errs.Add(1)
	}
}

// IOMetrics holds I/O counters of a file system user.
// A nil *IOMetrics is valid and counts nothing.
type IOMetrics struct {
	name string

	other counter
	read  counter
	write counter
}

// New returns new iometrics for name.
func New(name string) *IOMetrics {
	return &IOMetrics{name: name}
}

// OpsDone counts an operation other than read/write, e.g. mkdir, chtimes, rename.
func (m *IOMetrics) OpsDone(err error) {
	if m == nil {
		return
	}
	m.other.done(0, err)
}

// ReadDone counts a read of n bytes.
func (m *IOMetrics) ReadDone(n int, err error) {
	if m == nil {
		return
	}
	m.read.done(n, err)
}

// WriteDone counts a write of n bytes.
func (m *IOMetrics) WriteDone(n int, err error) {
	if m == nil {
		return
	}
	m.write.done(n, err)
}

// Name returns the name of the iometrics.
func (m *IOMetrics) Name() string {
	if m == nil {
		return "<nil>"
	}
	return m.name
}

// Stats is a snapshot of IOMetrics.
type Stats struct {
	Ops     int64
	OpsErrs int64

	ROps   int64
	RBytes int64
	RErrs  int64

	WOps   int64
	WBytes int64
	WErrs  int64
}

// Stats returns the snapshot of the iometrics.
func (m *IOMetrics) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		Ops:     m.other.ops.Load(),
		OpsErrs: m.other.errs.Load(),
		ROps:    m.read.ops.Load(),
		RBytes:  m.read.bytes.Load(),
		RErrs:   m.read.errs.Load(),
		WOps:    m.write.ops.Load(),
		WBytes:  m.write.bytes.Load(),
		WErrs:   m.write.errs.Load(),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("ops=%d(err=%d) read=%d(%dB err=%d) write=%d(%dB err=%d)", s.Ops, s.OpsErrs, s.ROps, s.RBytes, s.RErrs, s.WOps, s.WBytes, s.WErrs)
}
