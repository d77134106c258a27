// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package retry

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pingcap/tirouter/lib/util/errors"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	errFail := errors.New("fail")
	cnt := 0
	err := Retry(context.Background(), func() error {
		cnt++
		return errFail
	}, time.Millisecond, 3)
	require.ErrorIs(t, err, errFail)
	require.Equal(t, 4, cnt)

	cnt = 0
	err = Retry(context.Background(), func() error {
		cnt++
		return backoff.Permanent(errFail)
	}, time.Millisecond, 3)
	require.ErrorIs(t, err, errFail)
	require.Equal(t, 1, cnt)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Retry(ctx, func() error { return nil }, time.Millisecond, 3), context.Canceled)
}
