// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package clog_test is a test for clog package.
package clog_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"go.chromium.org/infra/build/modscan/o11y/clog"
)

func TestFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if got := clog.FromContext(ctx); got != log.Default() {
		t.Errorf("FromContext(background)=%p; want default logger %p", got, log.Default())
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	ctx := clog.NewContext(context.Background(), logger)

	var wg sync.WaitGroup
	for _, id := range []string{"id1", "id2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx := clog.With(ctx, "scope", id)
			clog.Infof(cctx, "child info")
		}()
	}
	wg.Wait()
	clog.Warningf(ctx, "parent warning")
	if !clog.V(ctx) {
		t.Errorf("V(ctx)=false; want true for debug level logger")
	}

	out := buf.String()
	for _, want := range []string{"scope=id1", "scope=id2", "child info", "parent warning"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q doesn't contain %q", out, want)
		}
	}
}

func TestV_InfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})
	ctx := clog.NewContext(context.Background(), logger)
	if clog.V(ctx) {
		t.Errorf("V(ctx)=true; want false for info level logger")
	}
	clog.Debugf(ctx, "hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug message was logged at info level: %q", buf.String())
	}
}
