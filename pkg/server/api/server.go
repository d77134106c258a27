// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/errors"
	"github.com/pingcap/tirouter/lib/util/waitgroup"
	mgrcfg "github.com/pingcap/tirouter/pkg/manager/config"
	"github.com/pingcap/tirouter/pkg/middleware"
	"github.com/pingcap/tirouter/pkg/router"
	"github.com/pingcap/tirouter/pkg/tenant"
	"go.uber.org/atomic"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefAPILimit is the global API limit per second.
	DefAPILimit = 100
	// DefConnTimeout is used as timeout duration in the HTTP server.
	DefConnTimeout = 30 * time.Second

	requestIDHeader = "X-Request-Id"
)

// HTTPHandler lets an embedding application mount handlers. The group runs the pinning middleware.
type HTTPHandler interface {
	RegisterHTTP(g *gin.RouterGroup) error
}

type Managers struct {
	CfgMgr    *mgrcfg.ConfigManager
	Directory *tenant.Directory
	Router    *router.Router
	Pinning   *middleware.Pinning
}

type Server struct {
	listener  net.Listener
	wg        waitgroup.WaitGroup
	limit     ratelimit.Limiter
	ready     *atomic.Bool
	lg        *zap.Logger
	isClosing atomic.Bool
	mgr       Managers
}

func NewServer(cfg config.API, lg *zap.Logger, mgr Managers, handler HTTPHandler, ready *atomic.Bool) (*Server, error) {
	h := &Server{
		limit: ratelimit.New(DefAPILimit),
		ready: ready,
		lg:    lg,
		mgr:   mgr,
	}

	var err error
	h.listener, err = net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		h.rateLimit,
		h.readyState,
		h.attachLogger,
	)

	h.registerAPI(engine.Group("/api"))
	// The paths are consistent with other components.
	h.registerMetrics(engine.Group("metrics"))
	h.registerDebug(engine.Group("debug"))

	if handler != nil {
		if err := handler.RegisterHTTP(engine.Group("/", mgr.Pinning.Handle)); err != nil {
			_ = h.listener.Close()
			return nil, errors.WithStack(err)
		}
	}

	hsrv := http.Server{
		Handler:           engine.Handler(),
		ReadHeaderTimeout: DefConnTimeout,
		IdleTimeout:       DefConnTimeout,
	}

	h.wg.RunWithRecover(func() {
		lg.Info("HTTP closed", zap.Error(hsrv.Serve(h.listener)))
	}, nil, h.lg)

	return h, nil
}

// Addr returns the listening address.
func (h *Server) Addr() string {
	return h.listener.Addr().String()
}

func (h *Server) rateLimit(c *gin.Context) {
	_ = h.limit.Take()
}

func (h *Server) attachLogger(c *gin.Context) {
	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header(requestIDHeader, requestID)

	start := time.Now()
	c.Next()
	latency := time.Since(start)

	fields := make([]zapcore.Field, 0, 8)
	fields = append(fields,
		zap.String("request-id", requestID),
		zap.Int("status", c.Writer.Status()),
		zap.String("method", c.Request.Method),
		zap.String("query", c.Request.URL.RawQuery),
		zap.String("ip", c.ClientIP()),
		zap.String("user-agent", c.Request.UserAgent()),
		zap.Duration("latency", latency),
	)

	path := c.Request.URL.Path
	switch {
	case len(c.Errors) > 0:
		errs := make([]error, 0, len(c.Errors))
		for _, e := range c.Errors {
			errs = append(errs, e)
		}
		fields = append(fields, zap.Errors("errs", errs))
		h.lg.Warn(path, fields...)
	default:
		h.lg.Debug(path, fields...)
	}
}

func (h *Server) readyState(c *gin.Context) {
	if !h.ready.Load() {
		c.Abort()
		c.JSON(http.StatusInternalServerError, "service not ready")
	}
}

func (h *Server) registerAPI(g *gin.RouterGroup) {
	{
		adminGroup := g.Group("admin")
		h.registerConfig(adminGroup.Group("config"))
	}

	h.registerMetrics(g.Group("metrics"))
	h.registerDebug(g.Group("debug"))
	h.registerTenant(g.Group("tenants"))
	h.registerRoute(g.Group("route", h.mgr.Pinning.Handle))
}

func (h *Server) PreClose() {
	h.isClosing.Store(true)
}

func (h *Server) Close() error {
	err := h.listener.Close()
	h.wg.Wait()
	return err
}
