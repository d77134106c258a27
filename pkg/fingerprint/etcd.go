// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"context"
	"math"
	"time"

	"github.com/pingcap/tirouter/lib/util/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	cachedValue = "y"
	// Bounds cache latency on the request path.
	etcdOpTimeout = 500 * time.Millisecond
)

var _ Cache = (*EtcdCache)(nil)

// EtcdCache shares fingerprints among router instances. Each entry is attached
// to a lease so that etcd expires it.
type EtcdCache struct {
	cli    *clientv3.Client
	prefix string
}

func NewEtcdCache(cli *clientv3.Client, prefix string) *EtcdCache {
	return &EtcdCache{
		cli:    cli,
		prefix: prefix,
	}
}

func (ec *EtcdCache) Get(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, etcdOpTimeout)
	defer cancel()
	resp, err := ec.cli.Get(ctx, ec.prefix+key, clientv3.WithCountOnly())
	if err != nil {
		return false, errors.Wrapf(err, "get fingerprint failed")
	}
	return resp.Count > 0, nil
}

func (ec *EtcdCache) Set(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, etcdOpTimeout)
	defer cancel()
	seconds := int64(math.Ceil(ttl.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	lease, err := ec.cli.Grant(ctx, seconds)
	if err != nil {
		return errors.Wrapf(err, "grant lease failed")
	}
	if _, err = ec.cli.Put(ctx, ec.prefix+key, cachedValue, clientv3.WithLease(lease.ID)); err != nil {
		return errors.Wrapf(err, "put fingerprint failed")
	}
	return nil
}
