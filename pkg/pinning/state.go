// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package pinning keeps the per-request decision of whether reads must go to
// the primary. A State lives in the request context and dies with the request.
package pinning

import (
	"context"
	"strings"

	"go.uber.org/atomic"
)

// State is the stickiness state of one request. The zero value is unpinned.
// A nil *State behaves as an unpinned state that ignores updates.
type State struct {
	pinned        atomic.Bool
	writeDetected atomic.Bool
}

func NewState() *State {
	return &State{}
}

// Pinned reports whether reads go to the primary.
func (s *State) Pinned() bool {
	return s != nil && s.pinned.Load()
}

func (s *State) Pin() {
	if s != nil {
		s.pinned.Store(true)
	}
}

// Unpin lets reads go to replicas again. The override scopes use it to restore
// an unpinned state on exit.
func (s *State) Unpin() {
	if s != nil {
		s.pinned.Store(false)
	}
}

// WriteDetected reports whether the request wrote, or is assumed to have written.
func (s *State) WriteDetected() bool {
	return s != nil && s.writeDetected.Load()
}

// MarkWrite records a write and pins the state. It is never undone within a request.
func (s *State) MarkWrite() {
	if s != nil {
		s.writeDetected.Store(true)
		s.pinned.Store(true)
	}
}

type stateKey struct{}

func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, stateKey{}, s)
}

// FromContext returns the state attached to ctx, or nil.
func FromContext(ctx context.Context) *State {
	s, _ := ctx.Value(stateKey{}).(*State)
	return s
}

// IsPinned is a shorthand for FromContext(ctx).Pinned().
func IsPinned(ctx context.Context) bool {
	return FromContext(ctx).Pinned()
}

// MethodSet is a set of upper-case HTTP methods.
type MethodSet map[string]struct{}

func NewMethodSet(methods []string) MethodSet {
	set := make(MethodSet, len(methods))
	for _, m := range methods {
		set[strings.ToUpper(m)] = struct{}{}
	}
	return set
}

func (s MethodSet) Contains(method string) bool {
	_, ok := s[strings.ToUpper(method)]
	return ok
}
