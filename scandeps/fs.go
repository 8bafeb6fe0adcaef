// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// filesystem caches file existence for header lookup.
// it is shared for all scans.
// without this, every scan stats the same non-existing header
// files for every include directory.
type filesystem struct {
	files sync.Map // filename -> bool (regular file exists)
}

// exists reports whether fname is an existing regular file.
func (fsys *filesystem) exists(fname string) bool {
	fname = filepath.Clean(fname)
	v, ok := fsys.files.Load(fname)
	if ok {
		return v.(bool)
	}
	fi, err := os.Stat(fname)
	exists := err == nil && fi.Mode().IsRegular()
	fsys.files.Store(fname, exists)
	return exists
}

// find finds name in dirs, and returns the first existing path.
func (fsys *filesystem) find(name string, dirs []string) (string, error) {
	if filepath.IsAbs(name) {
		if fsys.exists(name) {
			return filepath.Clean(name), nil
		}
		return "", fs.ErrNotExist
	}
	for _, dir := range dirs {
		fname := filepath.Join(dir, name)
		if fsys.exists(fname) {
			return fname, nil
		}
	}
	return "", fs.ErrNotExist
}

// forget drops cached state of fname.
func (fsys *filesystem) forget(fname string) {
	fsys.files.Delete(filepath.Clean(fname))
}
