// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build !windows

package buildconfig

import "go.chromium.org/infra/build/modscan/toolsupport/shutil"

// splitCommand splits compiler command line in shell syntax.
func splitCommand(cmdline string) ([]string, error) {
	return shutil.Split(cmdline)
}
