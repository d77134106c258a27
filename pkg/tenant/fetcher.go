// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package tenant

import (
	"context"

	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/errors"
	httputil "github.com/pingcap/tirouter/pkg/util/http"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

var (
	ErrNoEtcdClient = errors.New("etcd is not configured")
)

// Fetcher reads the tenant directory from its source.
type Fetcher interface {
	FetchTenants(ctx context.Context) ([]Info, error)
}

var _ Fetcher = (*StaticFetcher)(nil)

// StaticFetcher serves the tenants listed in the config file.
type StaticFetcher struct {
	infos []Info
}

func NewStaticFetcher(tenants []config.TenantInfo) *StaticFetcher {
	return &StaticFetcher{infos: infosFromConfig(tenants)}
}

func (sf *StaticFetcher) FetchTenants(context.Context) ([]Info, error) {
	return sf.infos, nil
}

// NewFetcher creates the fetcher for the configured tenant source.
func NewFetcher(cfg *config.Config, etcdCli *clientv3.Client, lg *zap.Logger) (Fetcher, error) {
	switch cfg.Tenant.Source {
	case config.TenantSourceStatic, "":
		return NewStaticFetcher(cfg.Tenant.Tenants), nil
	case config.TenantSourceHTTP:
		return NewHTTPFetcher(&cfg.Tenant, httputil.NewHTTPClient(), lg), nil
	case config.TenantSourceEtcd:
		if etcdCli == nil {
			return nil, ErrNoEtcdClient
		}
		return NewEtcdFetcher(etcdCli, cfg.Tenant.EtcdPrefix), nil
	default:
		return nil, errors.Wrapf(config.ErrInvalidConfigValue, "unknown tenant source %s", cfg.Tenant.Source)
	}
}
