// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var (
	ErrNoEtcdClient = errors.New("etcd is not configured")
)

// Cache remembers fingerprints of clients that wrote recently.
type Cache interface {
	// Get reports whether key exists and has not expired.
	Get(ctx context.Context, key string) (bool, error)
	// Set stores key for ttl.
	Set(ctx context.Context, key string, ttl time.Duration) error
}

// NewCache creates the cache named by the pinning config. It returns nil if cookieless mode is disabled.
func NewCache(cfg *config.Config, etcdCli *clientv3.Client) (Cache, error) {
	switch cfg.Pinning.CookielessCache {
	case config.CacheBackendNone:
		return nil, nil
	case config.CacheBackendMemory:
		return NewMemoryCache(cfg.Cache.Capacity, clock.WallClock), nil
	case config.CacheBackendEtcd:
		if etcdCli == nil {
			return nil, ErrNoEtcdClient
		}
		return NewEtcdCache(etcdCli, cfg.Cache.EtcdPrefix), nil
	default:
		return nil, errors.Wrapf(config.ErrInvalidConfigValue, "unknown cache backend %s", cfg.Pinning.CookielessCache)
	}
}
