// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"runtime"

	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/errors"
	"github.com/pingcap/tirouter/lib/util/waitgroup"
	"github.com/pingcap/tirouter/pkg/fingerprint"
	mgrcfg "github.com/pingcap/tirouter/pkg/manager/config"
	"github.com/pingcap/tirouter/pkg/manager/logger"
	"github.com/pingcap/tirouter/pkg/metrics"
	"github.com/pingcap/tirouter/pkg/middleware"
	"github.com/pingcap/tirouter/pkg/router"
	"github.com/pingcap/tirouter/pkg/sctx"
	"github.com/pingcap/tirouter/pkg/server/api"
	"github.com/pingcap/tirouter/pkg/tenant"
	"github.com/pingcap/tirouter/pkg/util/etcd"
	"github.com/pingcap/tirouter/pkg/util/versioninfo"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const routerSubscriber = "router"

type Server struct {
	wg waitgroup.WaitGroup
	// managers
	ConfigManager  *mgrcfg.ConfigManager
	MetricsManager *metrics.MetricsManager
	LoggerManager  *logger.LoggerManager
	EtcdClient     *clientv3.Client
	// routing
	Directory *tenant.Directory
	Router    *router.Router
	Pinning   *middleware.Pinning
	// HTTP server
	APIServer *api.Server
}

func NewServer(ctx context.Context, sctx *sctx.Context) (srv *Server, err error) {
	srv = &Server{
		ConfigManager:  mgrcfg.NewConfigManager(),
		MetricsManager: metrics.NewMetricsManager(),
		wg:             waitgroup.WaitGroup{},
	}

	ready := atomic.NewBool(false)

	// set up logger
	var lg *zap.Logger
	if srv.LoggerManager, lg, err = logger.NewLoggerManager(&sctx.Overlay.Log); err != nil {
		return
	}
	srv.LoggerManager.Init(srv.ConfigManager.WatchConfig())

	// setup config manager
	if err = srv.ConfigManager.Init(ctx, lg.Named("config"), sctx.ConfigFile, &sctx.Overlay); err != nil {
		err = errors.WithStack(err)
		return
	}
	cfg := srv.ConfigManager.GetConfig()

	// The file logger is only enabled after the config manager is initialized.
	level := lg.Level()
	srv.LoggerManager.SetLoggerLevel(zap.InfoLevel)
	printInfo(lg)
	srv.LoggerManager.SetLoggerLevel(level)

	// setup metrics
	srv.MetricsManager.Init(ctx, lg.Named("metrics"))
	metrics.ServerEventCounter.WithLabelValues(metrics.EventStart).Inc()

	// setup etcd client, shared by the tenant directory and the fingerprint cache
	if srv.EtcdClient, err = etcd.InitEtcdClient(lg.Named("etcd"), cfg); err != nil {
		return
	}

	// setup router and tenant directory
	srv.Router = router.NewRouter(lg.Named("router"), &cfg.Router)
	{
		fetcher, ferr := tenant.NewFetcher(cfg, srv.EtcdClient, lg.Named("fetcher"))
		if ferr != nil {
			err = errors.WithStack(ferr)
			return
		}
		interval := cfg.Tenant.RefreshInterval
		if cfg.Tenant.Source == config.TenantSourceStatic {
			interval = 0
		}
		srv.Directory = tenant.NewDirectory(lg.Named("tenant"), tenant.NewResolver(nil), fetcher, cfg.Router.Separator, interval)
		srv.Directory.Subscribe(routerSubscriber, srv.Router.Rebuild)
		if ierr := srv.Directory.Init(ctx); ierr != nil {
			// A static table that fails to build is a config error. Other sources may recover later.
			if cfg.Tenant.Source == config.TenantSourceStatic {
				err = errors.WithStack(ierr)
				return
			}
			lg.Warn("initial tenant directory fetch failed, use the default tenant until the next refresh", zap.Error(ierr))
		}
		srv.Directory.Start(ctx)
	}

	// setup pinning middleware
	{
		cache, cerr := fingerprint.NewCache(cfg, srv.EtcdClient)
		if cerr != nil {
			err = errors.WithStack(cerr)
			return
		}
		var resolver *tenant.Resolver
		if srv.Router.MultiTenant() {
			resolver = srv.Directory.Resolver()
		}
		srv.Pinning = middleware.NewPinning(lg.Named("pinning"), &cfg.Pinning, cache, resolver)
		cfgch := srv.ConfigManager.WatchConfig()
		srv.wg.Run(func() {
			for newCfg := range cfgch {
				srv.Pinning.UpdateConfig(&newCfg.Pinning)
			}
		})
	}

	// setup http
	mgr := api.Managers{
		CfgMgr:    srv.ConfigManager,
		Directory: srv.Directory,
		Router:    srv.Router,
		Pinning:   srv.Pinning,
	}
	var handler api.HTTPHandler
	if sctx.Handler != nil {
		handler = sctx.Handler
	}
	if srv.APIServer, err = api.NewServer(cfg.API, lg.Named("api"), mgr, handler, ready); err != nil {
		return
	}

	ready.Toggle()
	return
}

func printInfo(lg *zap.Logger) {
	fields := []zap.Field{
		zap.String("Release Version", versioninfo.TiRouterVersion),
		zap.String("Git Commit Hash", versioninfo.TiRouterGitHash),
		zap.String("Git Branch", versioninfo.TiRouterGitBranch),
		zap.String("UTC Build Time", versioninfo.TiRouterBuildTS),
		zap.String("GoVersion", runtime.Version()),
		zap.String("OS", runtime.GOOS),
		zap.String("Arch", runtime.GOARCH),
	}
	lg.Info("Welcome to TiRouter.", fields...)
}

func (s *Server) Close() error {
	metrics.ServerEventCounter.WithLabelValues(metrics.EventClose).Inc()

	errs := make([]error, 0, 4)
	if s.APIServer != nil {
		s.APIServer.PreClose()
		errs = append(errs, s.APIServer.Close())
	}
	if s.Directory != nil {
		s.Directory.Close()
	}
	if s.ConfigManager != nil {
		errs = append(errs, s.ConfigManager.Close())
	}
	if s.EtcdClient != nil {
		errs = append(errs, errors.WithStack(s.EtcdClient.Close()))
	}
	if s.MetricsManager != nil {
		s.MetricsManager.Close()
	}
	if s.LoggerManager != nil {
		errs = append(errs, s.LoggerManager.Close())
	}
	s.wg.Wait()
	return errors.Collect(ErrCloseServer, errs...)
}
