// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"go.chromium.org/infra/build/modscan/modgraph"
	"go.chromium.org/infra/build/modscan/o11y/clog"
	"go.chromium.org/infra/build/modscan/o11y/iometrics"
	"go.chromium.org/infra/build/modscan/osfs"
)

// schemaVersion is the version of the persisted entry format.
// Entries with other version are treated as not found.
const schemaVersion uint16 = 1

// There is an upper bound on lifespan of 2 * TTL, since something that's
// expired may not actually be picked up again until the next garbage
// collection, which may not be for TTL.
const localCacheTTL = 7 * 24 * time.Hour

// diskEntry is a persisted form of Entry.
type diskEntry struct {
	Schema uint16 `msgpack:"schema"`
	// Key is stored to detect filename collision.
	Key         string          `msgpack:"key"`
	Fingerprint uint64          `msgpack:"fingerprint"`
	Graph       *modgraph.Graph `msgpack:"graph"`
}

// LocalCache implements Store with local files.
type LocalCache struct {
	dir string
	fs  *osfs.OSFS

	singleflight singleflight.Group
	timestamp    time.Time

	mu      sync.Mutex
	pending map[string]*Entry
}

// NewLocalCache returns new local cache.
func NewLocalCache(dir string) (*LocalCache, error) {
	if dir == "" {
		return nil, errors.New("local cache is not configured")
	}
	return &LocalCache{
		dir: dir,
		fs:  osfs.New("depcache"),
		// Use the same timestamp throughout the invocation.
		timestamp: time.Now(),
		pending:   make(map[string]*Entry),
	}, nil
}

func (c *LocalCache) filename(key string) string {
	name := fmt.Sprintf("%016x.gz", xxhash.Sum64String(key))
	return filepath.Join(c.dir, "graphs", name[:2], name[2:])
}

// Get gets the entry for the key.
func (c *LocalCache) Get(ctx context.Context, key string) (*Entry, error) {
	c.mu.Lock()
	e, ok := c.pending[key]
	c.mu.Unlock()
	if ok {
		return e, nil
	}
	fname := c.filename(key)
	buf, err := c.readGzip(ctx, fname)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	var de diskEntry
	err = msgpack.Unmarshal(buf, &de)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", fname, err)
	}
	if de.Schema != schemaVersion {
		clog.Infof(ctx, "ignore cache %s: schema=%d want=%d", fname, de.Schema, schemaVersion)
		return nil, fmt.Errorf("%w: %s: schema mismatch", ErrNotFound, key)
	}
	if de.Graph == nil {
		return nil, fmt.Errorf("no graph in %s", fname)
	}
	if de.Key != key {
		clog.Warningf(ctx, "cache %s is for %q, not %q", fname, de.Key, key)
		return nil, fmt.Errorf("%w: %s: key mismatch", ErrNotFound, key)
	}
	de.Graph.Index()
	if err := c.fs.Chtimes(ctx, fname, c.timestamp, c.timestamp); err != nil {
		clog.Warningf(ctx, "Failed to update mtime for %s: %v", fname, err)
	}
	return &Entry{
		Fingerprint: de.Fingerprint,
		Graph:       de.Graph,
	}, nil
}

// Set sets the entry for the key.
// It will be written to the disk by Save.
func (c *LocalCache) Set(ctx context.Context, key string, e *Entry) error {
	if e == nil || e.Graph == nil {
		return fmt.Errorf("no graph for %s", key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[key] = e
	return nil
}

// Save writes pending entries to the disk.
// Each entry replaces the whole file.
func (c *LocalCache) Save(ctx context.Context) error {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]*Entry)
	c.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}
	err := c.fs.MkdirAll(ctx, c.dir, 0755)
	if err != nil {
		return err
	}
	lock, err := newLockFile(filepath.Join(c.dir, "lock"))
	switch {
	case errors.Is(err, errors.ErrUnsupported):
		clog.Debugf(ctx, "no lock file for %s", c.dir)
	case err != nil:
		return err
	default:
		defer lock.Close()
		err = lock.Lock()
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", c.dir, err)
		}
		defer lock.Unlock()
	}
	var errs []error
	for key, e := range pending {
		err := c.write(ctx, key, e)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to save %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (c *LocalCache) write(ctx context.Context, key string, e *Entry) error {
	buf, err := msgpack.Marshal(&diskEntry{
		Schema:      schemaVersion,
		Key:         key,
		Fingerprint: e.Fingerprint,
		Graph:       e.Graph,
	})
	if err != nil {
		return err
	}
	fname := c.filename(key)
	_, err, shared := c.singleflight.Do(fname, func() (any, error) {
		err := c.fs.MkdirAll(ctx, filepath.Dir(fname), 0755)
		if err != nil {
			return nil, err
		}
		return nil, c.writeGzip(ctx, fname, buf)
	})
	clog.Debugf(ctx, "write cache %s for %s shared:%t: %v", fname, key, shared, err)
	return err
}

func (c *LocalCache) readGzip(ctx context.Context, fname string) ([]byte, error) {
	buf, err := c.fs.ReadFile(ctx, fname)
	if err != nil {
		return nil, err
	}
	gr, err := gzip.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

// writeGzip writes buf gzipped to a temporary file first, and renames it,
// so readers never see partially written entry.
func (c *LocalCache) writeGzip(ctx context.Context, fname string, buf []byte) error {
	var b bytes.Buffer
	gw := gzip.NewWriter(&b)
	_, err := gw.Write(buf)
	if err != nil {
		return err
	}
	err = gw.Close()
	if err != nil {
		return err
	}
	return c.fs.WriteFileAtomic(ctx, fname, b.Bytes(), 0644)
}

// IOStats returns I/O metrics of the cache files.
func (c *LocalCache) IOStats() iometrics.Stats {
	return c.fs.Stats()
}

func garbageCollect(ctx context.Context, dir string, threshold time.Time) (nFiles int, spaceReclaimed int64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		clog.Warningf(ctx, "Failed to read %s: %v", dir, err)
		return 0, 0
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			n, s := garbageCollect(ctx, path, threshold)
			nFiles += n
			spaceReclaimed += s
			continue
		}
		// There's no OS-independent way to use atime, so we just use mtime and
		// ensure that when we read a file we also update the mtime.
		info, err := entry.Info()
		if err != nil {
			clog.Warningf(ctx, "Failed to stat file %s: %v", path, err)
			continue
		}
		if !info.ModTime().Before(threshold) {
			continue
		}
		if err := os.Remove(path); err != nil {
			clog.Warningf(ctx, "Failed to delete %s: %v", path, err)
			continue
		}
		nFiles++
		spaceReclaimed += info.Size()
	}
	return nFiles, spaceReclaimed
}

func (c *LocalCache) needsGarbageCollection(ttl time.Duration) bool {
	buf, err := os.ReadFile(filepath.Join(c.dir, "lastgc"))
	if err != nil {
		if _, err := os.Stat(c.dir); os.IsNotExist(err) {
			return false
		}
		return true
	}
	lastgc, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil {
		return true
	}
	return c.timestamp.After(time.Unix(0, lastgc).Add(ttl))
}

// GarbageCollectIfRequired removes entries not used within localCacheTTL,
// if garbage collection has not been performed within localCacheTTL.
func (c *LocalCache) GarbageCollectIfRequired(ctx context.Context) {
	if c == nil || !c.needsGarbageCollection(localCacheTTL) {
		return
	}
	clog.Infof(ctx, "Performing garbage collection on the local cache")
	threshold := c.timestamp.Add(-localCacheTTL)
	nFiles, spaceReclaimed := garbageCollect(ctx, filepath.Join(c.dir, "graphs"), threshold)
	if nFiles > 0 {
		clog.Infof(ctx, "Garbage collected local cache: Removed %d files totalling %d KB", nFiles, spaceReclaimed/1000)
	}
	if err := os.WriteFile(filepath.Join(c.dir, "lastgc"), []byte(strconv.FormatInt(c.timestamp.UnixNano(), 10)), 0644); err != nil {
		clog.Warningf(ctx, "Failed to record last garbage collection event: %v", err)
	}
}
