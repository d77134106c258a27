// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package tenant

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pingcap/tirouter/lib/util/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var _ Fetcher = (*EtcdFetcher)(nil)

type etcdTenant struct {
	Subdomains []string `json:"subdomains"`
	Replicas   []string `json:"replicas,omitempty"`
}

// EtcdFetcher reads tenants stored as <prefix><tenant id> keys with JSON values.
type EtcdFetcher struct {
	cli    *clientv3.Client
	prefix string
}

func NewEtcdFetcher(cli *clientv3.Client, prefix string) *EtcdFetcher {
	return &EtcdFetcher{
		cli:    cli,
		prefix: prefix,
	}
}

func (ef *EtcdFetcher) FetchTenants(ctx context.Context) ([]Info, error) {
	resp, err := ef.cli.Get(ctx, ef.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrapf(err, "get tenants from etcd failed")
	}
	infos := make([]Info, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		id := strings.TrimPrefix(string(kv.Key), ef.prefix)
		if id == "" {
			continue
		}
		var et etcdTenant
		if err := json.Unmarshal(kv.Value, &et); err != nil {
			return nil, errors.Wrapf(err, "decode tenant %s failed", id)
		}
		infos = append(infos, Info{
			ID:         ID(id),
			Subdomains: et.Subdomains,
			Replicas:   et.Replicas,
		})
	}
	return infos, nil
}

// PutTenant stores info under the fetcher prefix.
func (ef *EtcdFetcher) PutTenant(ctx context.Context, info Info) error {
	value, err := json.Marshal(etcdTenant{Subdomains: info.Subdomains, Replicas: info.Replicas})
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = ef.cli.Put(ctx, ef.prefix+string(info.ID), string(value))
	return errors.Wrapf(err, "put tenant %s failed", info.ID)
}
