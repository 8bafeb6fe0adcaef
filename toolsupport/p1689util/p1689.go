// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package p1689util provides utilities of P1689 dependency information,
// the format emitted by C++ module dependency scanners
// (clang-scan-deps -format=p1689, gcc -fdeps-format=p1689r5,
// cl.exe /scanDependencies).
//
// See https://www.open-std.org/jtc1/sc22/wg21/docs/papers/2022/p1689r5.html
package p1689util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// MaxVersion is the highest format version this package understands.
const MaxVersion = 1

var (
	// ErrUnsupportedVersion is an error when the document's version is newer than MaxVersion.
	ErrUnsupportedVersion = errors.New("unsupported dependency info version")

	// ErrMissingPrimaryOutput is an error when a rule has no primary-output.
	ErrMissingPrimaryOutput = errors.New("missing primary-output")

	// ErrMissingLogicalName is an error when a provide has no logical-name.
	ErrMissingLogicalName = errors.New("missing logical-name in provides")

	// ErrDuplicateOutput is an error when the same primary-output is reported twice.
	ErrDuplicateOutput = errors.New("duplicate primary-output")
)

// SchemaError is an error in dependency info document.
type SchemaError struct {
	// File is the dependency info filename.
	File string
	Err  error
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e SchemaError) Unwrap() error {
	return e.Err
}

// LookupMethod is how a required name was spelled in the source.
type LookupMethod string

const (
	// ByName is `import foo;`.
	ByName LookupMethod = "by-name"
	// IncludeAngle is `import <foo.h>;`.
	IncludeAngle LookupMethod = "include-angle"
	// IncludeQuote is `import "foo.h";`.
	IncludeQuote LookupMethod = "include-quote"
)

// OrDefault returns m, or ByName if m is empty.
func (m LookupMethod) OrDefault() LookupMethod {
	if m == "" {
		return ByName
	}
	return m
}

// IsHeaderUnit reports whether m refers to a header unit.
func (m LookupMethod) IsHeaderUnit() bool {
	return m == IncludeAngle || m == IncludeQuote
}

// Document is a dependency info document.
type Document struct {
	// File is the filename the document was parsed from.
	File string `json:"-"`

	Version  int    `json:"version"`
	Revision int    `json:"revision"`
	Rules    []Rule `json:"rules"`
}

// Rule is a dependency info of one compile unit.
type Rule struct {
	// PrimaryOutput is the object file of the compile unit.
	PrimaryOutput string `json:"primary-output,omitempty"`
	// Outputs are other outputs of the scan, e.g. depfile.
	Outputs  []string  `json:"outputs,omitempty"`
	Provides []Provide `json:"provides,omitempty"`
	Requires []Require `json:"requires,omitempty"`
}

// Provide is a module provided by the compile unit.
type Provide struct {
	LogicalName        string `json:"logical-name"`
	SourcePath         string `json:"source-path,omitempty"`
	CompiledModulePath string `json:"compiled-module-path,omitempty"`
	IsInterface        *bool  `json:"is-interface,omitempty"`
}

// Require is a module or header unit required by the compile unit.
type Require struct {
	LogicalName        string       `json:"logical-name"`
	SourcePath         string       `json:"source-path,omitempty"`
	LookupMethod       LookupMethod `json:"lookup-method,omitempty"`
	UniqueOnSourcePath bool         `json:"unique-on-source-path,omitempty"`
}

// Parse parses dependency info in buf read from fname.
// Documents with a version older than MaxVersion are accepted
// as a subset of the current format.
func Parse(fname string, buf []byte) (*Document, error) {
	doc := &Document{File: fname}
	d := json.NewDecoder(bytes.NewReader(buf))
	err := d.Decode(doc)
	if err != nil {
		return nil, SchemaError{File: fname, Err: err}
	}
	if doc.Version > MaxVersion {
		return nil, SchemaError{File: fname, Err: fmt.Errorf("%w: version=%d > %d", ErrUnsupportedVersion, doc.Version, MaxVersion)}
	}
	for i, r := range doc.Rules {
		if r.PrimaryOutput == "" {
			return nil, SchemaError{File: fname, Err: fmt.Errorf("rules[%d]: %w", i, ErrMissingPrimaryOutput)}
		}
		for j, p := range r.Provides {
			if p.LogicalName == "" {
				return nil, SchemaError{File: fname, Err: fmt.Errorf("rules[%d] %s: provides[%d]: %w", i, r.PrimaryOutput, j, ErrMissingLogicalName)}
			}
		}
	}
	return doc, nil
}

// ParseFile parses dependency info file fname on fsys.
func ParseFile(fsys fs.FS, fname string) (*Document, error) {
	buf, err := fs.ReadFile(fsys, fname)
	if err != nil {
		return nil, err
	}
	return Parse(fname, buf)
}

// Marshal returns dependency info document in JSON.
func Marshal(doc *Document) ([]byte, error) {
	buf, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

// CanonicalPath returns a canonical form of path used as a key.
func CanonicalPath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// CanonicalOutput returns the canonical primary output of the rule.
func (r Rule) CanonicalOutput() string {
	return CanonicalPath(r.PrimaryOutput)
}

// BMIName returns filename for the module's binary module interface,
// without directory. ':' in partition names are replaced with '-'.
func BMIName(logicalName, bmiExt string) string {
	return strings.ReplaceAll(logicalName, ":", "-") + bmiExt
}

// ProvisionPath returns the artifact path of the provided module.
// It uses compiled-module-path if it is given (relative path is
// resolved against dir), or cacheDir/<name><bmiExt> otherwise.
func ProvisionPath(p Provide, dir, cacheDir, bmiExt string) string {
	if p.CompiledModulePath != "" {
		if filepath.IsAbs(p.CompiledModulePath) {
			return filepath.Clean(p.CompiledModulePath)
		}
		return filepath.Join(dir, p.CompiledModulePath)
	}
	return filepath.Join(cacheDir, BMIName(p.LogicalName, bmiExt))
}
