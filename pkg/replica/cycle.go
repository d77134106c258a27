// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package replica

import (
	"math/rand"

	"go.uber.org/atomic"
)

// Cycle is an endless round robin over a fixed list of endpoints.
// Next is safe for concurrent use and never blocks.
type Cycle struct {
	endpoints []string
	primary   string
	pos       atomic.Uint64
}

// NewCycle shuffles a copy of endpoints once.
// An empty list degrades to always returning primary.
func NewCycle(endpoints []string, primary string) *Cycle {
	return newCycle(endpoints, primary, rand.Shuffle)
}

func newCycle(endpoints []string, primary string, shuffle func(n int, swap func(i, j int))) *Cycle {
	eps := make([]string, len(endpoints))
	copy(eps, endpoints)
	if shuffle != nil {
		shuffle(len(eps), func(i, j int) {
			eps[i], eps[j] = eps[j], eps[i]
		})
	}
	return &Cycle{
		endpoints: eps,
		primary:   primary,
	}
}

// Next returns the next endpoint in the rotation.
func (c *Cycle) Next() string {
	n := uint64(len(c.endpoints))
	if n == 0 {
		return c.primary
	}
	// Inc returns the new value, so the first call yields index 0.
	return c.endpoints[(c.pos.Inc()-1)%n]
}

func (c *Cycle) Len() int {
	return len(c.endpoints)
}

func (c *Cycle) Primary() string {
	return c.primary
}

// Endpoints returns the endpoints in rotation order.
func (c *Cycle) Endpoints() []string {
	eps := make([]string, len(c.endpoints))
	copy(eps, c.endpoints)
	return eps
}
