// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package runtimex provides NumCPU that counts all processor groups on Windows.
package runtimex

import (
	"runtime"
	"sync"
)

var numCPU = sync.OnceValue(func() int {
	if n := activeProcessorCount(); n > 0 {
		return n
	}
	return runtime.NumCPU()
})

// NumCPU returns the number of logical CPUs usable by the process.
// It sizes scanner semaphores and scan worker pools.
// On Windows, runtime.NumCPU only sees a single processor group (up to 64 CPUs).
func NumCPU() int {
	return numCPU()
}
