// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package gccutil

import (
	"path/filepath"
	"strings"
)

// IncludeParams parses args and returns include dirs and sysroots.
// It only parses major command line flags.
// full set of command line flags for include dirs can be found in
// https://clang.llvm.org/docs/ClangCommandLineReference.html#include-path-management
func IncludeParams(args []string) (dirs, sysroots []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-I", "--include-directory", "-isystem", "-iquote", "-idirafter":
			i++
			if i < len(args) {
				dirs = append(dirs, filepath.ToSlash(args[i]))
			}
			continue
		}
		switch {
		case strings.HasPrefix(arg, "-I"):
			dirs = append(dirs, filepath.ToSlash(strings.TrimPrefix(arg, "-I")))
		case strings.HasPrefix(arg, "--include-directory="):
			dirs = append(dirs, filepath.ToSlash(strings.TrimPrefix(arg, "--include-directory=")))
		case strings.HasPrefix(arg, "-iquote"):
			dirs = append(dirs, filepath.ToSlash(strings.TrimPrefix(arg, "-iquote")))
		case strings.HasPrefix(arg, "-isystem"):
			dirs = append(dirs, filepath.ToSlash(strings.TrimPrefix(arg, "-isystem")))
		case strings.HasPrefix(arg, "-idirafter"):
			dirs = append(dirs, filepath.ToSlash(strings.TrimPrefix(arg, "-idirafter")))
		case strings.HasPrefix(arg, "--sysroot="):
			sysroots = append(sysroots, filepath.ToSlash(strings.TrimPrefix(arg, "--sysroot=")))
		}
	}
	return dirs, sysroots
}
