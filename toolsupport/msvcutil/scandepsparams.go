// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package msvcutil

import (
	"os"
	"path/filepath"
	"strings"
)

// IncludeParams parses args and returns include dirs and sysroots.
// It only parses major command line flags.
// full set of command line flags for include dirs can be found in
// https://learn.microsoft.com/en-us/cpp/build/reference/compiler-options-listed-by-category?view=msvc-170
func IncludeParams(args []string) (dirs, sysroots []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-I", "/I", "/external:I", "-external:I", "-imsvc":
			i++
			if i < len(args) {
				dirs = append(dirs, filepath.ToSlash(args[i]))
			}
			continue
		}
		switch {
		case strings.HasPrefix(arg, "/external:I"):
			dirs = append(dirs, filepath.ToSlash(strings.TrimPrefix(arg, "/external:I")))
		case strings.HasPrefix(arg, "-imsvc"):
			dirs = append(dirs, filepath.ToSlash(strings.TrimPrefix(arg, "-imsvc")))
		case strings.HasPrefix(arg, "-I"):
			dirs = append(dirs, filepath.ToSlash(strings.TrimPrefix(arg, "-I")))
		case strings.HasPrefix(arg, "/I"):
			dirs = append(dirs, filepath.ToSlash(strings.TrimPrefix(arg, "/I")))
		case strings.HasPrefix(arg, "/winsysroot"):
			sysroots = append(sysroots, filepath.ToSlash(strings.TrimPrefix(arg, "/winsysroot")))
		}
	}
	return dirs, sysroots
}

// EnvIncludeDirs returns include dirs in INCLUDE environment variable.
// env is a list of "key=value". os.Environ() is used if env is nil.
func EnvIncludeDirs(env []string) []string {
	if env == nil {
		env = os.Environ()
	}
	var dirs []string
	for _, e := range env {
		k, v, ok := strings.Cut(e, "=")
		if !ok || !strings.EqualFold(k, "INCLUDE") {
			continue
		}
		for _, dir := range strings.Split(v, ";") {
			if dir == "" {
				continue
			}
			dirs = append(dirs, filepath.ToSlash(dir))
		}
	}
	return dirs
}
