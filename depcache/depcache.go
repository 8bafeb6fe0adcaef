// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package depcache provides caches of module graphs per build scope.
//
// A Cache has two tiers: a process-lifetime MemoryCache, and a persisted
// store (LocalCache) that survives across invocations.
package depcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/cespare/xxhash/v2"

	"go.chromium.org/infra/build/modscan/modgraph"
)

// ErrNotFound is returned when no entry is cached for the key.
var ErrNotFound = fmt.Errorf("cache entry not found: %w", fs.ErrNotExist)

// Entry is a cached module graph of a build scope.
type Entry struct {
	// Fingerprint is a fingerprint of the dependency info
	// the graph was built from.
	Fingerprint uint64

	Graph *modgraph.Graph
}

// Store is an interface of graph store.
type Store interface {
	// Get gets the entry for the key.
	// It returns ErrNotFound if the key is not cached.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set sets the entry for the key.
	// It replaces whole entry for the key.
	Set(ctx context.Context, key string, e *Entry) error

	// Save persists entries set so far.
	Save(ctx context.Context) error
}

// Fingerprint computes a fingerprint of the contents.
func Fingerprint(contents ...[]byte) uint64 {
	d := xxhash.New()
	var sep [1]byte
	for _, buf := range contents {
		d.Write(buf)
		d.Write(sep[:])
	}
	return d.Sum64()
}

// Cache is a two-tier cache. It reads from the memory tier first,
// then from the persisted tier, and writes both tiers.
type Cache struct {
	mem  *MemoryCache
	disk Store
}

// New creates new cache with persisted store.
// disk may be nil, then the cache works as memory only cache.
func New(disk Store) *Cache {
	return &Cache{
		mem:  NewMemoryCache(),
		disk: disk,
	}
}

// Get gets the entry for the key.
func (c *Cache) Get(ctx context.Context, key string) (*Entry, error) {
	e, err := c.mem.Get(ctx, key)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return e, err
	}
	if c.disk == nil {
		return nil, err
	}
	e, err = c.disk.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	err = c.mem.Set(ctx, key, e)
	return e, err
}

// Set sets the entry for the key in both tiers.
func (c *Cache) Set(ctx context.Context, key string, e *Entry) error {
	err := c.mem.Set(ctx, key, e)
	if err != nil {
		return err
	}
	if c.disk == nil {
		return nil
	}
	return c.disk.Set(ctx, key, e)
}

// Save persists the persisted tier.
func (c *Cache) Save(ctx context.Context) error {
	if c.disk == nil {
		return nil
	}
	return c.disk.Save(ctx)
}

// Get2 gets process-lifetime value for key in namespace.
func (c *Cache) Get2(namespace, key string) (any, bool) {
	return c.mem.Get2(namespace, key)
}

// Set2 sets process-lifetime value for key in namespace.
func (c *Cache) Set2(namespace, key string, v any) {
	c.mem.Set2(namespace, key, v)
}
