// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package msvcutil provides utilities of msvc.
package msvcutil

import (
	"bytes"
	"path/filepath"
	"runtime"
	"strings"

	"go.chromium.org/infra/build/modscan/runtimex"
	"go.chromium.org/infra/build/modscan/sync/semaphore"
)

// msvc may localized text, but we assume developers don't use that.
const depsPrefix = "Note: including file: "

// Semaphore limits concurrent cl invocations for scanning.
var Semaphore = semaphore.New("scan-msvc", runtimex.NumCPU()*2)

// ParseShowIncludes parses /showIncludes outputs, and returns a list of inputs and other outputs.
// The source filename that cl.exe prints at first is dropped.
func ParseShowIncludes(b []byte) ([]string, []byte) {
	// showIncludes contents
	//  Note: including file:  <pathname>\r\n
	//
	// other lines will be normal stdout/stderr (e.g. compiler error message)
	var deps []string
	var outs []byte
	s := b
	first := true
	for len(s) > 0 {
		line := s
		i := bytes.IndexAny(s, "\r\n")
		if i >= 0 {
			line = line[:i]
			s = s[i:]
		} else {
			s = nil
		}
		eol := func() []byte {
			var nl []byte
			if bytes.HasPrefix(s, []byte("\r")) {
				nl = append(nl, '\r')
				s = s[1:]
			}
			if bytes.HasPrefix(s, []byte("\n")) {
				nl = append(nl, '\n')
				s = s[1:]
			}
			return nl
		}
		if first && isSourceName(line) {
			first = false
			eol()
			continue
		}
		first = false
		if bytes.HasPrefix(line, []byte(depsPrefix)) {
			line = bytes.TrimPrefix(line, []byte(depsPrefix))
			line = bytes.TrimSpace(line)
			deps = append(deps, string(line))
			eol()
			continue
		}
		outs = append(outs, line...)
		outs = append(outs, eol()...)
	}
	return deps, outs
}

func isSourceName(line []byte) bool {
	if len(line) == 0 || bytes.ContainsAny(line, " \t") {
		return false
	}
	switch filepath.Ext(string(line)) {
	case ".c", ".cc", ".cxx", ".cpp", ".ixx", ".cppm":
		return true
	}
	return false
}

// ScanDepsArgs returns command line args to scan module deps of src
// with /scanDependencies.
func ScanDepsArgs(args []string, src, obj, ddi string) []string {
	var dargs []string
	for i, arg := range args {
		if i > 0 && !isFlag(arg) && isSourceName([]byte(arg)) {
			continue
		}
		switch arg {
		case "/c", "-c", "/showIncludes:user", "/showIncludes", "/nologo":
			continue
		}
		switch {
		case strings.HasPrefix(arg, "/Fo"), strings.HasPrefix(arg, "-Fo"):
			continue
		case strings.HasPrefix(arg, "/Fd"), strings.HasPrefix(arg, "-Fd"):
			continue
		case strings.HasPrefix(arg, "/scanDependencies"), strings.HasPrefix(arg, "/sourceDependencies"):
			continue
		}
		dargs = append(dargs, arg)
	}
	return append(dargs,
		"/nologo",
		"/TP",
		"/showIncludes",
		"/scanDependencies", ddi,
		"/Fo"+obj,
		"/c", src)
}

func isFlag(arg string) bool {
	if strings.HasPrefix(arg, "-") {
		return true
	}
	if runtime.GOOS == "windows" {
		return strings.HasPrefix(arg, "/") && !strings.Contains(arg[1:], "/")
	}
	// unix path may start with '/'.
	return strings.HasPrefix(arg, "/") && !strings.Contains(arg[1:], "/") && !strings.Contains(arg, ".")
}
