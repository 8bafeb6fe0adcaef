// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.chromium.org/infra/build/modscan/o11y/clog"
	"go.chromium.org/infra/build/modscan/runtimex"
	"go.chromium.org/infra/build/modscan/sync/semaphore"
	"go.chromium.org/infra/build/modscan/toolsupport/p1689util"
)

// ScanDeps is a simple C++ module dependency scanner.
type ScanDeps struct {
	fs   *filesystem
	sema *semaphore.Semaphore
}

// New creates new ScanDeps.
func New() *ScanDeps {
	return &ScanDeps{
		fs:   &filesystem{},
		sema: semaphore.New("scandeps", runtimex.NumCPU()*2),
	}
}

// Request is a request to scan module deps.
type Request struct {
	// Source is a source file.
	Source string

	// Output is the object file of the source.
	// It is used as primary-output of the dependency info.
	Output string

	// Dirs are include directories (search paths) for `import <foo.h>`,
	// i.e. own include dirs, dependency include dirs and package include
	// dirs, in search order.
	Dirs []string

	// SystemDirs are toolchain's system include directories.
	// They are searched after Dirs.
	SystemDirs []string
}

// ResolveError is an error when header unit in import is not found.
type ResolveError struct {
	Source string
	Header string
	Method p1689util.LookupMethod
	Dirs   []string
}

func (e ResolveError) Error() string {
	if e.Method == p1689util.IncludeQuote {
		return fmt.Sprintf("%s: import %q: not found in %s", e.Source, e.Header, filepath.Dir(e.Source))
	}
	return fmt.Sprintf("%s: import <%s>: not found in %q", e.Source, e.Header, e.Dirs)
}

func (e ResolveError) Unwrap() error {
	return fs.ErrNotExist
}

// Scan scans module deps of req.Source and returns dependency info rule.
func (s *ScanDeps) Scan(ctx context.Context, req Request) (*p1689util.Rule, error) {
	var rule *p1689util.Rule
	err := s.sema.Do(ctx, func(ctx context.Context) error {
		buf, err := os.ReadFile(req.Source)
		if err != nil {
			return err
		}
		rule, err = s.ScanBuf(ctx, req, buf)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// ScanBuf scans module deps in buf as content of req.Source.
func (s *ScanDeps) ScanBuf(ctx context.Context, req Request, buf []byte) (*p1689util.Rule, error) {
	if req.Output == "" {
		return nil, fmt.Errorf("no output for %s: %w", req.Source, p1689util.ErrMissingPrimaryOutput)
	}
	src, err := filepath.Abs(req.Source)
	if err != nil {
		return nil, err
	}
	mi := ModuleScan(ctx, req.Source, buf)
	rule := &p1689util.Rule{
		PrimaryOutput: req.Output,
	}
	if mi.Name != "" && (mi.Exported || mi.IsPartition()) {
		isInterface := mi.Exported
		rule.Provides = append(rule.Provides, p1689util.Provide{
			LogicalName: mi.Name,
			SourcePath:  src,
			IsInterface: &isInterface,
		})
	}
	if mi.Name != "" && !mi.Exported && !mi.IsPartition() {
		// module implementation unit implicitly imports
		// its primary module interface.
		rule.Requires = append(rule.Requires, p1689util.Require{
			LogicalName:  mi.Name,
			LookupMethod: p1689util.ByName,
		})
	}
	dirs := append(append([]string(nil), req.Dirs...), req.SystemDirs...)
	for _, name := range mi.Imports {
		r, err := s.resolve(src, mi, name, dirs)
		if err != nil {
			return nil, err
		}
		if clog.V(ctx) {
			clog.Debugf(ctx, "import %s -> %s %s %s", name, r.LookupMethod, r.LogicalName, r.SourcePath)
		}
		rule.Requires = append(rule.Requires, r)
	}
	return rule, nil
}

func (s *ScanDeps) resolve(src string, mi *ModuleInfo, name string, dirs []string) (p1689util.Require, error) {
	switch name[0] {
	case ':':
		return p1689util.Require{
			LogicalName:  mi.Primary() + name,
			LookupMethod: p1689util.ByName,
		}, nil
	case '"':
		header := strings.Trim(name, `"`)
		fname, err := s.fs.find(header, []string{filepath.Dir(src)})
		if err != nil {
			return p1689util.Require{}, ResolveError{Source: src, Header: header, Method: p1689util.IncludeQuote}
		}
		return p1689util.Require{
			LogicalName:        header,
			SourcePath:         fname,
			LookupMethod:       p1689util.IncludeQuote,
			UniqueOnSourcePath: true,
		}, nil
	case '<':
		header := strings.TrimSuffix(strings.TrimPrefix(name, "<"), ">")
		fname, err := s.fs.find(header, dirs)
		if err != nil {
			return p1689util.Require{}, ResolveError{Source: src, Header: header, Method: p1689util.IncludeAngle, Dirs: dirs}
		}
		return p1689util.Require{
			LogicalName:        header,
			SourcePath:         fname,
			LookupMethod:       p1689util.IncludeAngle,
			UniqueOnSourcePath: true,
		}, nil
	}
	return p1689util.Require{
		LogicalName:  name,
		LookupMethod: p1689util.ByName,
	}, nil
}

// Forget drops cached file existence of files, e.g. after they are
// generated.
func (s *ScanDeps) Forget(files ...string) {
	for _, f := range files {
		s.fs.forget(f)
	}
}

// Document returns dependency info document for the rules.
func Document(rules ...*p1689util.Rule) *p1689util.Document {
	doc := &p1689util.Document{
		Version: p1689util.MaxVersion,
	}
	for _, r := range rules {
		doc.Rules = append(doc.Rules, *r)
	}
	return doc
}

// WriteFile writes dependency info of rules in fname.
func WriteFile(fname string, rules ...*p1689util.Rule) error {
	buf, err := p1689util.Marshal(Document(rules...))
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(fname), 0755)
	if err != nil {
		return err
	}
	tmp := fname + ".tmp"
	err = os.WriteFile(tmp, buf, 0644)
	if err != nil {
		return errors.Join(err, os.Remove(tmp))
	}
	return os.Rename(tmp, fname)
}
