// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"context"
	"sync"
	"time"

	glist "github.com/bahlo/generic-list-go"
	"github.com/juju/clock"
)

var _ Cache = (*MemoryCache)(nil)

type memoryEntry struct {
	key      string
	expireAt time.Time
}

// MemoryCache is a bounded LRU cache local to the process.
// Entries expire lazily when they are read.
type MemoryCache struct {
	sync.Mutex
	capacity int
	clock    clock.Clock
	entries  map[string]*glist.Element[*memoryEntry]
	lru      *glist.List[*memoryEntry]
}

func NewMemoryCache(capacity int, clk clock.Clock) *MemoryCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryCache{
		capacity: capacity,
		clock:    clk,
		entries:  make(map[string]*glist.Element[*memoryEntry]),
		lru:      glist.New[*memoryEntry](),
	}
}

func (mc *MemoryCache) Get(_ context.Context, key string) (bool, error) {
	mc.Lock()
	defer mc.Unlock()
	e, ok := mc.entries[key]
	if !ok {
		return false, nil
	}
	if !mc.clock.Now().Before(e.Value.expireAt) {
		mc.remove(e)
		return false, nil
	}
	mc.lru.MoveToFront(e)
	return true, nil
}

func (mc *MemoryCache) Set(_ context.Context, key string, ttl time.Duration) error {
	mc.Lock()
	defer mc.Unlock()
	expireAt := mc.clock.Now().Add(ttl)
	if e, ok := mc.entries[key]; ok {
		e.Value.expireAt = expireAt
		mc.lru.MoveToFront(e)
		return nil
	}
	for mc.lru.Len() >= mc.capacity {
		mc.remove(mc.lru.Back())
	}
	mc.entries[key] = mc.lru.PushFront(&memoryEntry{key: key, expireAt: expireAt})
	return nil
}

func (mc *MemoryCache) Len() int {
	mc.Lock()
	defer mc.Unlock()
	return mc.lru.Len()
}

func (mc *MemoryCache) remove(e *glist.Element[*memoryEntry]) {
	mc.lru.Remove(e)
	delete(mc.entries, e.Value.key)
}
