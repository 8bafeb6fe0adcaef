// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package retry provides retrying functionalities.
package retry

import (
	"context"
	"errors"
	"syscall"
	"time"

	lucierrors "go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/retry"
	"go.chromium.org/luci/common/retry/transient"

	"go.chromium.org/infra/build/modscan/o11y/clog"
)

func retriableError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, syscall.ETXTBSY):
		// scanner binary was just written, e.g. by toolchain update.
		return true
	case errors.Is(err, syscall.EAGAIN):
		// fork: resource temporarily unavailable.
		return true
	}
	return false
}

// Do calls function `f` and retries with exponential backoff for errors that are known to be retriable.
func Do(ctx context.Context, f func() error) error {
	return retry.Retry(ctx, transient.Only(retry.Default), func() error {
		err := f()
		if retriableError(err) {
			return lucierrors.Annotate(err, "retriable error").Tag(transient.Tag).Err()
		}
		return err
	}, func(err error, backoff time.Duration) {
		clog.Warningf(ctx, "retry backoff:%s: %v", backoff, err)
	})
}
