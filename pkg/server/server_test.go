// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/logger"
	"github.com/pingcap/tirouter/pkg/sctx"
	"github.com/pingcap/tirouter/pkg/server/api"
	"github.com/pingcap/tirouter/pkg/tenant"
	"github.com/pingcap/tirouter/pkg/util/etcd"
	"github.com/stretchr/testify/require"
)

func TestServer(t *testing.T) {
	dir := t.TempDir()
	lg, _ := logger.CreateLoggerForTest(t)
	etcdServer, err := etcd.CreateEtcdServer("0.0.0.0:0", dir, lg)
	require.NoError(t, err)
	configFile := dir + "/config.toml"
	endpoint := etcdServer.Clients[0].Addr().String()
	cfg := etcd.ConfigForEtcdTest(endpoint)
	b, err := toml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configFile, b, 0o644))

	server, err := NewServer(context.Background(), &sctx.Context{
		ConfigFile: configFile,
	})
	require.NoError(t, err)
	require.Equal(t, 0, server.Directory.Resolver().Table().Len())
	require.NoError(t, server.Close())
	etcdServer.Close()
}

func TestServerWithEtcdSources(t *testing.T) {
	dir := t.TempDir()
	lg, _ := logger.CreateLoggerForTest(t)
	etcdServer, err := etcd.CreateEtcdServer("0.0.0.0:0", dir, lg)
	require.NoError(t, err)
	defer etcdServer.Close()
	endpoint := etcdServer.Clients[0].Addr().String()

	cfg := etcd.ConfigForEtcdTest(endpoint)
	cfg.Router.MultiTenant = true
	cfg.Tenant.Source = config.TenantSourceEtcd
	cfg.Pinning.CookielessCache = config.CacheBackendEtcd
	cli, err := etcd.InitEtcdClient(lg, cfg)
	require.NoError(t, err)
	fetcher := tenant.NewEtcdFetcher(cli, cfg.Tenant.EtcdPrefix)
	require.NoError(t, fetcher.PutTenant(context.Background(), tenant.Info{ID: "3", Subdomains: []string{"acme"}, Replicas: []string{"replica1"}}))
	require.NoError(t, cli.Close())

	configFile := dir + "/config.toml"
	b, err := toml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configFile, b, 0o644))

	server, err := NewServer(context.Background(), &sctx.Context{
		ConfigFile: configFile,
	})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, server.Close())
	}()
	require.Equal(t, []string{"replica1.3"}, server.Router.Replicas())

	route := func(method string) api.RouteInfo {
		req, err := http.NewRequest(method, fmt.Sprintf("http://%s/api/route", server.APIServer.Addr()), nil)
		require.NoError(t, err)
		req.Host = "acme.example.com"
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		all, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var info api.RouteInfo
		require.NoError(t, json.Unmarshal(all, &info))
		return info
	}

	require.Equal(t, api.RouteInfo{Tenant: "3", Read: "replica1.3", Write: "default.3"}, route(http.MethodGet))
	// The client drops cookies, so only the fingerprint stored in etcd pins it.
	require.True(t, route(http.MethodPost).Pinned)
	info := route(http.MethodGet)
	require.True(t, info.Pinned)
	require.Equal(t, "default.3", info.Read)
}
