// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clangutil provides utilities of clang.
package clangutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.chromium.org/infra/build/modscan/runtimex"
	"go.chromium.org/infra/build/modscan/sync/semaphore"
)

// Semaphore limits concurrent clang-scan-deps invocations.
var Semaphore = semaphore.New("scan-clang", runtimex.NumCPU()*2)

// ScannerPath returns path of clang-scan-deps for the compiler.
// It prefers clang-scan-deps in the same dir as the compiler, and
// falls back to the one in PATH. It returns empty if not found.
func ScannerPath(compiler string) string {
	name := "clang-scan-deps"
	ext := filepath.Ext(compiler)
	if strings.EqualFold(ext, ".exe") {
		name += ext
	}
	base := strings.TrimSuffix(filepath.Base(compiler), ext)
	// e.g. clang++-17 -> clang-scan-deps-17
	if i := strings.LastIndex(base, "-"); i >= 0 && isVersion(base[i+1:]) {
		versioned := "clang-scan-deps" + base[i:] + ext
		if p := lookPath(compiler, versioned); p != "" {
			return p
		}
	}
	return lookPath(compiler, name)
}

func lookPath(compiler, name string) string {
	if strings.ContainsAny(compiler, `/\`) {
		p := filepath.Join(filepath.Dir(compiler), name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return p
}

func isVersion(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' {
			return false
		}
	}
	return true
}

// ScanDepsArgs returns command line args of clang-scan-deps to scan
// module deps of src with args.
// clang-scan-deps writes dependency info on stdout, and depfile for obj.
func ScanDepsArgs(scanner string, args []string, src, obj, depfile string) []string {
	dargs := []string{scanner, "-format=p1689", "--"}
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
			strings.HasPrefix(arg, "-o"):
			continue
		}
		dargs = append(dargs, arg)
	}
	return append(dargs,
		"-x", "c++",
		"-c", src,
		"-o", obj,
		"-MT", obj,
		"-MD", "-MF", depfile)
}

func isSource(arg string) bool {
	if strings.HasPrefix(arg, "-") {
		return false
	}
	switch filepath.Ext(arg) {
	case ".c", ".cc", ".cxx", ".cpp", ".c++", ".cppm", ".ixx", ".mpp", ".mxx", ".cxxm", ".ccm", ".c++m":
		return true
	}
	return false
}
