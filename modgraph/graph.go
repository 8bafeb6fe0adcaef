// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package modgraph builds C++ module dependency graph from dependency info,
// and derives the compile order of module units.
package modgraph

import (
	"fmt"
	"os"
	"slices"

	"go.chromium.org/infra/build/modscan/toolsupport/p1689util"
)

// Graph is a module dependency graph of one build scope, keyed by
// canonical primary output.
type Graph struct {
	// Order is primary outputs in scan order.
	Order []string
	Units map[string]*Unit

	// provisions indexes units by provided logical name.
	// first provider in scan order wins.
	provisions map[string]*Unit
}

// Unit is a compile unit in the graph.
type Unit struct {
	PrimaryOutput string
	Provides      []Provision
	Requires      []Requirement
}

// Provision is a module provided by a unit.
type Provision struct {
	LogicalName string
	SourcePath  string
	// Path is the artifact (BMI) path.
	Path string
}

// Requirement is a module or header unit required by a unit.
type Requirement struct {
	LogicalName string
	Method      p1689util.LookupMethod
	// Path is the resolved path of the requirement, i.e. header path
	// for header units, BMI path for project local modules.
	// Empty means it is satisfied externally.
	Path               string
	UniqueOnSourcePath bool
}

// Options is an option to build graph.
type Options struct {
	// CacheDir is the directory to put BMIs without explicit compiled-module-path.
	CacheDir string
	// BMIExtension is the extension of BMI, e.g. ".pcm".
	BMIExtension string
	// Dir is the directory to resolve relative compiled-module-path.
	// Current directory if empty.
	Dir string
}

// Build builds graph from dependency info documents.
// It cross-references requires to provides across all documents.
func Build(docs []*p1689util.Document, opt Options) (*Graph, error) {
	if opt.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opt.Dir = wd
	}
	g := &Graph{
		Units:      make(map[string]*Unit),
		provisions: make(map[string]*Unit),
	}
	var rules []p1689util.Rule
	// files[out] is the dependency info file that reported out.
	files := make(map[string]string)
	for _, doc := range docs {
		for _, r := range doc.Rules {
			out := r.CanonicalOutput()
			if out == "" {
				return nil, p1689util.SchemaError{File: doc.File, Err: p1689util.ErrMissingPrimaryOutput}
			}
			if f, ok := files[out]; ok {
				return nil, p1689util.SchemaError{File: doc.File, Err: fmt.Errorf("%w: %s (also in %s)", p1689util.ErrDuplicateOutput, out, f)}
			}
			files[out] = doc.File
			rules = append(rules, r)
		}
	}
	for _, r := range rules {
		out := r.CanonicalOutput()
		u := &Unit{PrimaryOutput: out}
		for _, p := range r.Provides {
			if p.LogicalName == "" {
				return nil, p1689util.SchemaError{File: files[out], Err: fmt.Errorf("%s: %w", out, p1689util.ErrMissingLogicalName)}
			}
			u.Provides = append(u.Provides, Provision{
				LogicalName: p.LogicalName,
				SourcePath:  p.SourcePath,
				Path:        p1689util.ProvisionPath(p, opt.Dir, opt.CacheDir, opt.BMIExtension),
			})
			if _, ok := g.provisions[p.LogicalName]; !ok {
				g.provisions[p.LogicalName] = u
			}
		}
		g.Units[out] = u
		g.Order = append(g.Order, out)
	}
	for _, r := range rules {
		u := g.Units[r.CanonicalOutput()]
		for _, req := range r.Requires {
			path := req.SourcePath
			if path == "" {
				path = g.ProvisionPath(req.LogicalName)
			}
			u.Requires = append(u.Requires, Requirement{
				LogicalName:        req.LogicalName,
				Method:             req.LookupMethod.OrDefault(),
				Path:               path,
				UniqueOnSourcePath: req.UniqueOnSourcePath,
			})
		}
	}
	return g, nil
}

// Unit returns a unit for the primary output.
func (g *Graph) Unit(out string) (*Unit, bool) {
	u, ok := g.Units[p1689util.CanonicalPath(out)]
	return u, ok
}

// Provider returns a unit that provides the logical name.
// A graph that is not indexed is searched in scan order, and is not
// modified, so it is safe to share without Index.
func (g *Graph) Provider(name string) (*Unit, bool) {
	if g.provisions != nil {
		u, ok := g.provisions[name]
		return u, ok
	}
	for _, out := range g.Order {
		u := g.Units[out]
		if _, ok := u.Provision(name); ok {
			return u, true
		}
	}
	return nil, false
}

// ProvisionPath returns the artifact path of the logical name provided
// in the graph, or empty if no unit in the graph provides it.
func (g *Graph) ProvisionPath(name string) string {
	u, ok := g.Provider(name)
	if !ok {
		return ""
	}
	p, _ := u.Provision(name)
	return p.Path
}

// Deps returns primary outputs of units that provide names required by
// the unit, in require order.
func (g *Graph) Deps(out string) []string {
	u, ok := g.Unit(out)
	if !ok {
		return nil
	}
	var deps []string
	for _, req := range u.Requires {
		p, ok := g.Provider(req.LogicalName)
		if !ok || p == u {
			continue
		}
		if slices.Contains(deps, p.PrimaryOutput) {
			continue
		}
		deps = append(deps, p.PrimaryOutput)
	}
	return deps
}

// Artifacts returns map of logical name to artifact path provided by the unit.
func (u *Unit) Artifacts() map[string]string {
	if len(u.Provides) == 0 {
		return nil
	}
	m := make(map[string]string, len(u.Provides))
	for _, p := range u.Provides {
		m[p.LogicalName] = p.Path
	}
	return m
}

// Provision returns the provision of the logical name.
func (u *Unit) Provision(name string) (Provision, bool) {
	for _, p := range u.Provides {
		if p.LogicalName == name {
			return p, true
		}
	}
	return Provision{}, false
}

// RequiresName reports whether the unit requires the logical name.
func (u *Unit) RequiresName(name string) bool {
	for _, r := range u.Requires {
		if r.LogicalName == name {
			return true
		}
	}
	return false
}

// Index rebuilds the index of provided names, e.g. for a graph restored
// from cache. It must be called before the graph is shared.
func (g *Graph) Index() {
	g.provisions = make(map[string]*Unit)
	for _, out := range g.Order {
		u := g.Units[out]
		for _, p := range u.Provides {
			if _, ok := g.provisions[p.LogicalName]; !ok {
				g.provisions[p.LogicalName] = u
			}
		}
	}
}
