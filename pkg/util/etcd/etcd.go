// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package etcd

import (
	"fmt"
	"net/url"
	"time"

	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/errors"
	"go.etcd.io/etcd/client/pkg/v3/transport"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/keepalive"
)

// InitEtcdClient initializes an etcd client. It returns nil if no etcd address is configured.
func InitEtcdClient(logger *zap.Logger, cfg *config.Config) (*clientv3.Client, error) {
	endpoints := cfg.Etcd.Endpoints()
	if len(endpoints) == 0 {
		return nil, nil
	}
	logger.Info("connect ETCD servers", zap.Strings("addrs", endpoints))
	etcdClient, err := clientv3.New(clientv3.Config{
		Endpoints:        endpoints,
		Logger:           logger.Named("etcdcli"),
		AutoSyncInterval: 30 * time.Second,
		DialTimeout:      5 * time.Second,
		DialOptions: []grpc.DialOption{
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:    10 * time.Second,
				Timeout: 3 * time.Second,
			}),
			grpc.WithConnectParams(grpc.ConnectParams{
				Backoff: backoff.Config{
					BaseDelay:  time.Second,
					Multiplier: 1.1,
					Jitter:     0.1,
					MaxDelay:   3 * time.Second,
				},
				MinConnectTimeout: 3 * time.Second,
			}),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "init etcd client failed")
	}
	return etcdClient, nil
}

// CreateEtcdServer creates an etcd server and is only used for testing.
func CreateEtcdServer(addr, dir string, lg *zap.Logger) (*embed.Etcd, error) {
	serverURL, err := url.Parse(fmt.Sprintf("http://%s", addr))
	if err != nil {
		return nil, err
	}
	cfg := embed.NewConfig()
	cfg.Dir = dir
	cfg.ListenClientUrls = []url.URL{*serverURL}
	cfg.ListenPeerUrls = []url.URL{*serverURL}
	cfg.ZapLoggerBuilder = embed.NewZapLoggerBuilder(lg)
	cfg.LogLevel = "fatal"
	// Reuse port so that it can reboot with the same port immediately.
	cfg.SocketOpts = transport.SocketOpts{
		ReuseAddress: true,
		ReusePort:    true,
	}
	etcd, err := embed.StartEtcd(cfg)
	if err != nil {
		return nil, err
	}
	<-etcd.Server.ReadyNotify()
	return etcd, nil
}

// ConfigForEtcdTest returns a config that connects to the etcd endpoint.
func ConfigForEtcdTest(endpoint string) *config.Config {
	cfg := config.NewConfig()
	cfg.Etcd.Addrs = endpoint
	cfg.API.Addr = "127.0.0.1:0"
	return cfg
}
