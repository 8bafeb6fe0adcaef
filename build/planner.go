// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package build generates module graphs of build scopes and plans
// the compile order of their batches.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"go.chromium.org/infra/build/modscan/depcache"
	"go.chromium.org/infra/build/modscan/modgraph"
	"go.chromium.org/infra/build/modscan/o11y/clog"
	"go.chromium.org/infra/build/modscan/toolchain"
	"go.chromium.org/infra/build/modscan/toolsupport/p1689util"
)

// Scope is a build scope, e.g. *buildconfig.Scope.
type Scope interface {
	toolchain.Owner

	// Sources returns sources of the batch in order.
	Sources() []string

	// CacheDir returns the stable cache dir of the scope, where BMIs
	// are placed. It is created if needed.
	CacheDir() (string, error)
}

// Planner generates module graphs for build scopes.
// It owns the dependency cache, and failure of one scope doesn't
// affect other scopes.
type Planner struct {
	cache    *depcache.Cache
	selector *toolchain.Selector

	// disk is the persisted cache tier if opened by Open.
	disk *depcache.LocalCache
}

// NewPlanner creates new planner.
// If selector is nil, it uses a selector with local execution
// memoized in cache.
func NewPlanner(cache *depcache.Cache, selector *toolchain.Selector) *Planner {
	if selector == nil {
		selector = toolchain.NewSelector(cache, nil, nil)
	}
	return &Planner{
		cache:    cache,
		selector: selector,
	}
}

// Generate returns the module graph of the scope.
//
// It makes dependency info of the scope's sources up to date, and
// reuses the cached graph if no dependency info was regenerated and
// the cached entry was built from the same dependency info with the
// same BMI extension and cache dir.
// Otherwise, it parses dependency info, builds the graph and overwrites
// the cache.
func (p *Planner) Generate(ctx context.Context, scope Scope) (*modgraph.Graph, error) {
	ctx = clog.With(ctx, "scope", scope.Name())
	started := time.Now()
	a, err := p.selector.Select(ctx, scope)
	if err != nil {
		return nil, err
	}
	batch := scope.Sources()
	changed, err := a.GenerateDependencies(ctx, scope, batch)
	if err != nil {
		return nil, fmt.Errorf("scope %s: %w", scope.Name(), err)
	}
	bufs, err := readDependFiles(ctx, scope, batch)
	if err != nil {
		return nil, fmt.Errorf("scope %s: %w", scope.Name(), err)
	}
	cacheDir, err := scope.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("scope %s: %w", scope.Name(), err)
	}
	// artifact paths in the graph depend on these as well as
	// dependency info.
	fp := depcache.Fingerprint(append([][]byte{
		[]byte(a.BMIExtension()),
		[]byte(cacheDir),
		[]byte(scope.ExecRoot()),
	}, bufs...)...)
	key := scope.Name()
	if !changed {
		e, err := p.cache.Get(ctx, key)
		switch {
		case err == nil && e.Fingerprint == fp:
			clog.Infof(ctx, "reuse module graph: %d units", len(e.Graph.Order))
			return e.Graph, nil
		case err == nil:
			clog.Infof(ctx, "dependency info was modified")
		case !errors.Is(err, depcache.ErrNotFound):
			clog.Warningf(ctx, "failed to get module graph from cache: %v", err)
		}
	}
	docs := make([]*p1689util.Document, 0, len(bufs))
	for i, buf := range bufs {
		doc, err := p1689util.Parse(scope.DependFile(batch[i]), buf)
		if err != nil {
			return nil, fmt.Errorf("scope %s: %w", scope.Name(), err)
		}
		docs = append(docs, doc)
	}
	g, err := modgraph.Build(docs, modgraph.Options{
		CacheDir:     cacheDir,
		BMIExtension: a.BMIExtension(),
		Dir:          scope.ExecRoot(),
	})
	if err != nil {
		return nil, fmt.Errorf("scope %s: %w", scope.Name(), err)
	}
	err = p.cache.Set(ctx, key, &depcache.Entry{
		Fingerprint: fp,
		Graph:       g,
	})
	if err != nil {
		return nil, fmt.Errorf("scope %s: failed to cache module graph: %w", scope.Name(), err)
	}
	clog.Infof(ctx, "module graph: %d units in %s", len(g.Order), time.Since(started))
	return g, nil
}

// readDependFiles reads dependency info files of batch, in batch order.
func readDependFiles(ctx context.Context, scope Scope, batch []string) ([][]byte, error) {
	bufs := make([][]byte, len(batch))
	eg, ctx := errgroup.WithContext(ctx)
	for i, src := range batch {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fname := scope.DependFile(src)
			if !filepath.IsAbs(fname) {
				fname = filepath.Join(scope.ExecRoot(), fname)
			}
			buf, err := os.ReadFile(fname)
			if err != nil {
				return err
			}
			bufs[i] = buf
			return nil
		})
	}
	err := eg.Wait()
	if err != nil {
		return nil, err
	}
	return bufs, nil
}

// Save persists the cache.
func (p *Planner) Save(ctx context.Context) error {
	return p.cache.Save(ctx)
}

// Open opens a planner that persists module graphs in cacheDir,
// and runs scanners locally.
func Open(cacheDir string) (*Planner, error) {
	disk, err := depcache.NewLocalCache(cacheDir)
	if err != nil {
		return nil, err
	}
	p := NewPlanner(depcache.New(disk), nil)
	p.disk = disk
	return p, nil
}

// Close saves the cache, and removes old cache entries if needed.
func (p *Planner) Close(ctx context.Context) error {
	err := p.Save(ctx)
	if err != nil {
		return err
	}
	if p.disk == nil {
		return nil
	}
	p.disk.GarbageCollectIfRequired(ctx)
	clog.Infof(ctx, "cache io: %s", p.disk.IOStats())
	return nil
}
