// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/infra/build/modscan/execute"
	"go.chromium.org/infra/build/modscan/o11y/clog"
	"go.chromium.org/infra/build/modscan/runtimex"
	"go.chromium.org/infra/build/modscan/scandeps"
	"go.chromium.org/infra/build/modscan/sync/semaphore"
	"go.chromium.org/infra/build/modscan/toolsupport/clangutil"
	"go.chromium.org/infra/build/modscan/toolsupport/gccutil"
	"go.chromium.org/infra/build/modscan/toolsupport/makeutil"
	"go.chromium.org/infra/build/modscan/toolsupport/msvcutil"
)

// adapter implements Adapter for all families.
// family specific parts are selected by family.
type adapter struct {
	family   Family
	compiler []string
	exec     execute.Executor
	fallback *scandeps.ScanDeps
	memo     Memo

	// scanner is clang-scan-deps path for Clang.
	scanner string
	clangCL bool
}

func isClangCL(compiler string) bool {
	name := compiler
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(strings.ToLower(name), ".exe")
	return trimVersion(name) == "clang-cl"
}

func (a *adapter) Family() Family { return a.family }

func (a *adapter) BMIExtension() string { return a.family.BMIExtension() }

func (a *adapter) msvcStyle() bool {
	return a.family == MSVC || a.clangCL
}

func (a *adapter) ToolchainIncludeDirs(ctx context.Context, owner Owner) ([]string, error) {
	dirs := append([]string(nil), owner.SystemIncludeDirs()...)
	var flagDirs []string
	if a.msvcStyle() {
		flagDirs, _ = msvcutil.IncludeParams(owner.Flags())
	} else {
		flagDirs, _ = gccutil.IncludeParams(owner.Flags())
	}
	for _, dir := range flagDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(owner.ExecRoot(), dir)
		}
		dirs = append(dirs, dir)
	}
	key := strings.Join(append(append([]string(nil), a.compiler...), owner.Flags()...), " ")
	if v, ok := a.memo.Get2(includeDirsNamespace, key); ok {
		return append(dirs, v.([]string)...), nil
	}
	var sysDirs []string
	if a.msvcStyle() {
		sysDirs = msvcutil.EnvIncludeDirs(nil)
	} else {
		var err error
		sysDirs, err = gccutil.SearchDirs(ctx, a.exec, a.compiler, owner.Flags())
		if err != nil {
			return dirs, fmt.Errorf("failed to get include dirs of %q: %w", a.compiler, err)
		}
	}
	a.memo.Set2(includeDirsNamespace, key, sysDirs)
	return append(dirs, sysDirs...), nil
}

func (a *adapter) ScanCommand(owner Owner, src string) *execute.Cmd {
	args, err := owner.CompilerArgs()
	if err != nil {
		return nil
	}
	args = append(append([]string(nil), args...), owner.Flags()...)
	obj := owner.ObjectFile(src)
	ddi := owner.DependFile(src)
	depfile := ddi + ".d"
	var cmd *execute.Cmd
	switch {
	case a.family == GCC:
		cmd = execute.New("SCAN "+src, gccutil.ScanDepsArgs(args, src, obj, ddi, depfile))
		cmd.Outputs = []string{ddi}
	case a.family == Clang && a.scanner != "" && !a.clangCL:
		cmd = execute.New("SCAN "+src, clangutil.ScanDepsArgs(a.scanner, args, src, obj, depfile))
		cmd.StdoutFile = ddi
	case a.family == MSVC:
		cmd = execute.New("SCAN "+src, msvcutil.ScanDepsArgs(args, src, obj, ddi))
		cmd.Outputs = []string{ddi}
	default:
		return nil
	}
	cmd.ExecRoot = owner.ExecRoot()
	cmd.Inputs = []string{src}
	cmd.Depfile = depfile
	return cmd
}

func (a *adapter) semaphore() *semaphore.Semaphore {
	switch a.family {
	case Clang:
		return clangutil.Semaphore
	case MSVC:
		return msvcutil.Semaphore
	}
	return gccutil.Semaphore
}

func (a *adapter) GenerateDependencies(ctx context.Context, owner Owner, batch []string) (bool, error) {
	var stale []string
	for _, src := range batch {
		ok, reason := a.isStale(ctx, owner, src)
		if !ok {
			continue
		}
		clog.Infof(ctx, "scan %s: %s", src, reason)
		stale = append(stale, src)
	}
	if len(stale) == 0 {
		return false, nil
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtimex.NumCPU())
	for _, src := range stale {
		eg.Go(func() error {
			return a.scan(ctx, owner, src)
		})
	}
	return true, eg.Wait()
}

// isStale checks whether dependency info of src needs to be regenerated.
// It is stale if it is missing, was generated by other scan configuration,
// or is older than the source or any input recorded in its depfile.
func (a *adapter) isStale(ctx context.Context, owner Owner, src string) (bool, string) {
	root := owner.ExecRoot()
	ddi := abs(root, owner.DependFile(src))
	fi, err := os.Stat(ddi)
	if err != nil {
		return true, fmt.Sprintf("no dependency info: %v", err)
	}
	mtime := fi.ModTime()
	buf, err := os.ReadFile(cmdHashFile(ddi))
	if err != nil {
		return true, fmt.Sprintf("no command hash: %v", err)
	}
	if string(buf) != a.cmdHash(owner, src) {
		return true, "scan command changed"
	}
	sfi, err := os.Stat(abs(root, src))
	if err != nil {
		return true, fmt.Sprintf("source: %v", err)
	}
	if sfi.ModTime().After(mtime) {
		return true, "source is newer"
	}
	depfile := ddi + ".d"
	inputs, err := makeutil.ParseDepsFile(ctx, os.DirFS(filepath.Dir(depfile)), filepath.Base(depfile))
	if err != nil {
		return true, fmt.Sprintf("depfile: %v", err)
	}
	for _, in := range inputs {
		ifi, err := os.Stat(abs(root, in))
		if err != nil {
			return true, fmt.Sprintf("input %s: %v", in, err)
		}
		if ifi.ModTime().After(mtime) {
			return true, fmt.Sprintf("input %s is newer", in)
		}
	}
	return false, ""
}

const (
	unitSeparator   = "\x1f"
	recordSeparator = "\x1e"
)

func cmdHashFile(ddi string) string {
	return ddi + ".cmdhash"
}

// cmdHash returns a hash of the scan configuration of src, i.e.
// scan command line and include dirs to resolve header units.
func (a *adapter) cmdHash(owner Owner, src string) string {
	d := xxhash.New()
	write := func(ss ...string) {
		for _, s := range ss {
			d.WriteString(s)
			d.WriteString(unitSeparator)
		}
		d.WriteString(recordSeparator)
	}
	if cmd := a.ScanCommand(owner, src); cmd != nil && !owner.FallbackScan() {
		write(cmd.Args...)
	} else {
		args, _ := owner.CompilerArgs()
		write(args...)
		write(owner.Flags()...)
		write("fallback", owner.ObjectFile(src))
	}
	write(owner.IncludeDirs()...)
	write(owner.SystemIncludeDirs()...)
	return strconv.FormatUint(d.Sum64(), 16)
}

func abs(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func (a *adapter) scan(ctx context.Context, owner Owner, src string) error {
	ctx = clog.With(ctx, "source", src)
	err := a.scanDeps(ctx, owner, src)
	if err != nil {
		return err
	}
	ddi := abs(owner.ExecRoot(), owner.DependFile(src))
	return os.WriteFile(cmdHashFile(ddi), []byte(a.cmdHash(owner, src)), 0644)
}

func (a *adapter) scanDeps(ctx context.Context, owner Owner, src string) error {
	if !owner.FallbackScan() {
		cmd := a.ScanCommand(owner, src)
		if cmd != nil {
			err := a.runNative(ctx, owner, cmd)
			var eerr *execute.ExitError
			switch {
			case err == nil:
				return nil
			case errors.As(err, &eerr):
				return fmt.Errorf("failed to scan %s: %w\n%s", src, err, cmd.Stderr())
			case ctx.Err() != nil:
				return err
			}
			clog.Warningf(ctx, "failed to run native scanner: %v. use fallback scanner", err)
		}
	}
	return a.scanFallback(ctx, owner, src)
}

func (a *adapter) runNative(ctx context.Context, owner Owner, cmd *execute.Cmd) error {
	for _, out := range cmd.AllOutputs() {
		err := os.MkdirAll(filepath.Dir(abs(cmd.ExecRoot, out)), 0755)
		if err != nil {
			return err
		}
	}
	err := a.semaphore().Do(ctx, func(ctx context.Context) error {
		return a.exec.Run(ctx, cmd)
	})
	if err != nil {
		return err
	}
	if res := cmd.Result(); res != nil && res.Rusage != nil {
		clog.Debugf(ctx, "%s: %s utime=%s stime=%s maxrss=%d", cmd, res.Duration, res.Rusage.Utime, res.Rusage.Stime, res.Rusage.MaxRSS)
	}
	if a.family != MSVC {
		return nil
	}
	// cl.exe reports includes with /showIncludes, not depfile.
	deps, _ := msvcutil.ParseShowIncludes(cmd.Stdout())
	ddi := owner.DependFile(cmd.Inputs[0])
	inputs := append([]string{cmd.Inputs[0]}, deps...)
	return os.WriteFile(abs(cmd.ExecRoot, cmd.Depfile), makeutil.FormatDeps(ddi, inputs), 0644)
}

func (a *adapter) scanFallback(ctx context.Context, owner Owner, src string) error {
	root := owner.ExecRoot()
	sysDirs, err := a.ToolchainIncludeDirs(ctx, owner)
	if err != nil {
		clog.Warningf(ctx, "toolchain include dirs: %v", err)
	}
	rule, err := a.fallback.Scan(ctx, scandeps.Request{
		Source:     abs(root, src),
		Output:     owner.ObjectFile(src),
		Dirs:       owner.IncludeDirs(),
		SystemDirs: sysDirs,
	})
	if err != nil {
		return err
	}
	ddi := owner.DependFile(src)
	inputs := []string{src}
	for _, r := range rule.Requires {
		if r.SourcePath != "" {
			inputs = append(inputs, r.SourcePath)
		}
	}
	depfile := abs(root, ddi) + ".d"
	err = os.MkdirAll(filepath.Dir(depfile), 0755)
	if err != nil {
		return err
	}
	err = os.WriteFile(depfile, makeutil.FormatDeps(ddi, inputs), 0644)
	if err != nil {
		return err
	}
	return scandeps.WriteFile(abs(root, ddi), rule)
}
