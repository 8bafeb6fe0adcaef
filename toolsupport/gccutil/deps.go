// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gccutil provides utilities of gcc.
package gccutil

import (
	"bytes"
	"context"
	"os"
	"strings"
	"time"

	"go.chromium.org/infra/build/modscan/execute"
	"go.chromium.org/infra/build/modscan/o11y/clog"
	"go.chromium.org/infra/build/modscan/runtimex"
	"go.chromium.org/infra/build/modscan/sync/semaphore"
)

// Semaphore limits concurrent gcc invocations for scanning.
var Semaphore = semaphore.New("scan-gcc", runtimex.NumCPU()*2)

// ScanDepsArgs returns command line args to scan module deps of src
// with gcc's p1689 dependency output.
// ddi is dependency info file, and depfile is make deps file for ddi.
func ScanDepsArgs(args []string, src, obj, ddi, depfile string) []string {
	var dargs []string
	skip := false
	for i, arg := range args {
		if skip {
			skip = false
			continue
		}
		if i > 0 && isSource(arg) {
			continue
		}
		switch arg {
		case "-MD", "-MMD", "-c", "-M", "-MM":
			continue
		case "-MF", "-MT", "-MQ", "-o":
			skip = true
			continue
		}
		switch {
		case strings.HasPrefix(arg, "-MF"),
			strings.HasPrefix(arg, "-MT"),
			strings.HasPrefix(arg, "-MQ"),
			strings.HasPrefix(arg, "-o"),
			strings.HasPrefix(arg, "-fdeps-"):
			continue
		}
		dargs = append(dargs, arg)
	}
	dargs = append(dargs,
		"-E", "-x", "c++", src,
		"-fmodules-ts",
		"-fdeps-format=p1689r5",
		"-fdeps-file="+ddi,
		"-fdeps-target="+obj,
		"-MT", ddi,
		"-MD", "-MF", depfile,
		"-o", os.DevNull)
	return dargs
}

func isSource(arg string) bool {
	if strings.HasPrefix(arg, "-") {
		return false
	}
	for _, ext := range []string{".c", ".cc", ".cxx", ".cpp", ".c++", ".cppm", ".ixx", ".mpp", ".mxx", ".cxxm", ".ccm", ".c++m"} {
		if strings.HasSuffix(arg, ext) {
			return true
		}
	}
	return false
}

// SearchDirsArgs returns command line args to print include search dirs
// of the compiler.
func SearchDirsArgs(compiler []string, flags []string) []string {
	args := append([]string(nil), compiler...)
	for _, f := range flags {
		switch {
		case strings.HasPrefix(f, "-std="),
			strings.HasPrefix(f, "-stdlib="),
			strings.HasPrefix(f, "--sysroot"),
			strings.HasPrefix(f, "--target="),
			strings.HasPrefix(f, "-nostdinc"):
			args = append(args, f)
		}
	}
	return append(args, "-E", "-x", "c++", os.DevNull, "-v")
}

// SearchDirs runs compiler and returns its include search dirs.
func SearchDirs(ctx context.Context, ex execute.Executor, compiler, flags []string) ([]string, error) {
	s := time.Now()
	cmd := execute.New("SEARCHDIRS", SearchDirsArgs(compiler, flags))
	var wait time.Duration
	err := Semaphore.Do(ctx, func(ctx context.Context) error {
		wait = time.Since(s)
		return ex.Run(ctx, cmd)
	})
	if err != nil {
		clog.Warningf(ctx, "failed to run %q: %v\n%s\n%s", cmd.Args, err, cmd.Stdout(), cmd.Stderr())
		return nil, err
	}
	dirs := ParseSearchDirs(cmd.Stderr())
	clog.Infof(ctx, "search dirs %q -> %q: %s (wait:%s)", compiler, dirs, time.Since(s), wait)
	return dirs, nil
}

// ParseSearchDirs parses `-v` output of gcc or clang, and returns
// include dirs for `#include <...>`.
func ParseSearchDirs(b []byte) []string {
	// #include "..." search starts here:
	// #include <...> search starts here:
	//  /usr/include/c++/13
	//  /usr/include
	//  /System/Library/Frameworks (framework directory)
	// End of search list.
	var dirs []string
	in := false
	for _, line := range bytes.Split(b, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		switch {
		case bytes.HasPrefix(line, []byte("#include <...> search starts here:")):
			in = true
			continue
		case bytes.HasPrefix(line, []byte("End of search list.")):
			in = false
			continue
		}
		if !in || !bytes.HasPrefix(line, []byte(" ")) {
			continue
		}
		line = bytes.TrimSpace(line)
		if bytes.HasSuffix(line, []byte("(framework directory)")) {
			continue
		}
		dirs = append(dirs, string(line))
	}
	return dirs
}
