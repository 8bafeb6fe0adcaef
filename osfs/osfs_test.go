// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package osfs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/infra/build/modscan/o11y/iometrics"
)

func TestOSFS(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ofs := New("test")

	fname := filepath.Join(dir, "sub", "file")
	err := ofs.MkdirAll(ctx, filepath.Dir(fname), 0755)
	if err != nil {
		t.Fatal(err)
	}
	err = ofs.WriteFileAtomic(ctx, fname, []byte("hello"), 0644)
	if err != nil {
		t.Fatalf("WriteFileAtomic(ctx, %q)=%v; want nil", fname, err)
	}
	if _, err := os.Stat(fname + ".tmp"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("tmp file exists: %v", err)
	}
	buf, err := ofs.ReadFile(ctx, fname)
	if err != nil || string(buf) != "hello" {
		t.Errorf("ReadFile(ctx, %q)=%q, %v; want %q, nil", fname, buf, err, "hello")
	}
	_, err = ofs.ReadFile(ctx, filepath.Join(dir, "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(ctx, missing)=_, %v; want %v", err, fs.ErrNotExist)
	}

	want := iometrics.Stats{
		// MkdirAll, Rename
		Ops:    2,
		ROps:   2,
		RBytes: 5,
		RErrs:  1,
		WOps:   1,
		WBytes: 5,
	}
	if diff := cmp.Diff(want, ofs.Stats()); diff != "" {
		t.Errorf("Stats() diff -want +got:\n%s", diff)
	}
}
