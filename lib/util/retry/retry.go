// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	InfiniteCnt = 0
)

// NewBackOff returns a constant backoff bounded by ctx and retryCnt.
func NewBackOff(ctx context.Context, retryInterval time.Duration, retryCnt uint64) backoff.BackOff {
	var bo backoff.BackOff
	bo = backoff.NewConstantBackOff(retryInterval)
	if ctx != nil {
		bo = backoff.WithContext(bo, ctx)
	}
	if retryCnt != InfiniteCnt {
		bo = backoff.WithMaxRetries(bo, retryCnt)
	}
	return bo
}

// Retry runs o until it succeeds, returns a permanent error, or the backoff gives up.
func Retry(ctx context.Context, o backoff.Operation, retryInterval time.Duration, retryCnt uint64) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return backoff.Retry(o, NewBackOff(ctx, retryInterval, retryCnt))
}
