// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build !windows

package runtimex

// activeProcessorCount returns 0 so runtime.NumCPU is used.
func activeProcessorCount() int { return 0 }
