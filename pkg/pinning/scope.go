// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package pinning

import "context"

// UsePrimary runs fn with reads forced to the primary. The pinned flag seen
// on entry is restored on exit, also when fn returns an error or panics, so
// nested scopes compose. If ctx carries no state, fn gets a context with a
// fresh one.
func UsePrimary(ctx context.Context, fn func(ctx context.Context) error) error {
	return withPinned(ctx, true, fn)
}

// UseReplica runs fn with reads allowed to go to replicas, for handlers that
// would otherwise be pinned but are known not to write.
func UseReplica(ctx context.Context, fn func(ctx context.Context) error) error {
	return withPinned(ctx, false, fn)
}

func withPinned(ctx context.Context, pinned bool, fn func(ctx context.Context) error) error {
	s := FromContext(ctx)
	if s == nil {
		s = NewState()
		ctx = WithState(ctx, s)
	}
	restore := s.Unpin
	if s.Pinned() {
		restore = s.Pin
	}
	defer restore()
	if pinned {
		s.Pin()
	} else {
		s.Unpin()
	}
	return fn(ctx)
}
