// Copyright 2024 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depcache

import (
	"context"
	"sync"
)

// MemoryCache is a process-lifetime cache.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	namespaces map[string]map[string]any
}

// NewMemoryCache creates new memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*Entry),
		namespaces: make(map[string]map[string]any),
	}
}

// Get gets the entry for the key.
func (c *MemoryCache) Get(ctx context.Context, key string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Set sets the entry for the key.
func (c *MemoryCache) Set(ctx context.Context, key string, e *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	return nil
}

// Save is no-op for memory cache.
func (c *MemoryCache) Save(ctx context.Context) error { return nil }

// Get2 gets value for key in namespace.
func (c *MemoryCache) Get2(namespace, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.namespaces[namespace][key]
	return v, ok
}

// Set2 sets value for key in namespace.
func (c *MemoryCache) Set2(namespace, key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.namespaces[namespace]
	if !ok {
		m = make(map[string]any)
		c.namespaces[namespace] = m
	}
	m[key] = v
}
