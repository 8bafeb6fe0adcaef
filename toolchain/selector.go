// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package toolchain

import (
	"context"
	"fmt"
	"sync"

	"go.chromium.org/infra/build/modscan/execute"
	"go.chromium.org/infra/build/modscan/execute/localexec"
	"go.chromium.org/infra/build/modscan/o11y/clog"
	"go.chromium.org/infra/build/modscan/scandeps"
	"go.chromium.org/infra/build/modscan/toolsupport/clangutil"
)

// Memo is a process-lifetime memo, e.g. depcache.Cache.
type Memo interface {
	Get2(namespace, key string) (any, bool)
	Set2(namespace, key string, v any)
}

const (
	adapterNamespace     = "toolchain/adapter"
	includeDirsNamespace = "toolchain/include-dirs"
)

// Selector selects an adapter for an owner.
// Selected adapters are memoized per owner identity in the memo.
type Selector struct {
	memo     Memo
	exec     execute.Executor
	fallback *scandeps.ScanDeps

	mu sync.Mutex
}

// NewSelector creates new selector.
// If ex is nil, commands run locally.
// If fallback is nil, new fallback scanner is used.
func NewSelector(memo Memo, ex execute.Executor, fallback *scandeps.ScanDeps) *Selector {
	if ex == nil {
		ex = localexec.LocalExec{}
	}
	if fallback == nil {
		fallback = scandeps.New()
	}
	return &Selector{
		memo:     memo,
		exec:     ex,
		fallback: fallback,
	}
}

// Select returns an adapter for the owner.
// It fails with ErrUnsupportedCompiler if the owner's compiler is not
// in any supported family.
func (s *Selector) Select(ctx context.Context, owner Owner) (Adapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.memo.Get2(adapterNamespace, owner.Name()); ok {
		return v.(Adapter), nil
	}
	args, err := owner.CompilerArgs()
	if err != nil {
		return nil, err
	}
	compiler := compilerPath(args)
	family, err := Detect(compiler)
	if err != nil {
		return nil, fmt.Errorf("scope %s: %w", owner.Name(), err)
	}
	a := &adapter{
		family:   family,
		compiler: args,
		exec:     s.exec,
		fallback: s.fallback,
		memo:     s.memo,
	}
	switch {
	case family == Clang && isClangCL(compiler):
		// clang-cl command line is not supported by clang-scan-deps
		// driver here. use fallback scanner.
		a.clangCL = true
	case family == Clang:
		a.scanner = clangutil.ScannerPath(compiler)
		if a.scanner == "" {
			clog.Warningf(ctx, "scope %s: clang-scan-deps not found for %s. use fallback scanner", owner.Name(), compiler)
		}
	}
	clog.Infof(ctx, "scope %s: compiler %s -> %s", owner.Name(), compiler, family)
	s.memo.Set2(adapterNamespace, owner.Name(), Adapter(a))
	return a, nil
}
