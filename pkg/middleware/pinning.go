// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/pkg/fingerprint"
	"github.com/pingcap/tirouter/pkg/metrics"
	"github.com/pingcap/tirouter/pkg/pinning"
	"github.com/pingcap/tirouter/pkg/tenant"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	cookieValue = "y"
	// writeTagKey marks a gin context whose handler performed a write.
	writeTagKey = "tirouter/write"
)

type settings struct {
	cfg      config.Pinning
	readOnly pinning.MethodSet
	views    map[string]struct{}
}

func newSettings(cfg *config.Pinning) *settings {
	s := &settings{
		cfg:      *cfg,
		readOnly: pinning.NewMethodSet(cfg.ReadOnlyMethods),
		views:    make(map[string]struct{}, len(cfg.Views)),
	}
	for _, v := range cfg.Views {
		s.views[v] = struct{}{}
	}
	return s
}

// Pinning keeps a client on the primary for a while after it writes.
type Pinning struct {
	settings atomic.Pointer[settings]
	cache    fingerprint.Cache
	resolver *tenant.Resolver
	logger   *zap.Logger
}

// NewPinning creates the middleware. cache may be nil, which disables the fingerprint
// signal. resolver may be nil if multi-tenancy is disabled.
func NewPinning(logger *zap.Logger, cfg *config.Pinning, cache fingerprint.Cache, resolver *tenant.Resolver) *Pinning {
	p := &Pinning{
		cache:    cache,
		resolver: resolver,
		logger:   logger,
	}
	p.UpdateConfig(cfg)
	return p
}

// UpdateConfig applies a new pinning config to subsequent requests.
func (p *Pinning) UpdateConfig(cfg *config.Pinning) {
	p.settings.Store(newSettings(cfg))
}

// Handle is the gin handler of the middleware.
func (p *Pinning) Handle(c *gin.Context) {
	s := p.settings.Load()
	state := pinning.NewState()
	ctx := pinning.WithState(c.Request.Context(), state)
	if p.resolver != nil {
		ctx = tenant.WithTenant(ctx, p.resolver.ResolveHost(c.Request.Host))
	}
	c.Request = c.Request.WithContext(ctx)

	rs := &requestSignals{
		p:        p,
		s:        s,
		c:        c,
		state:    state,
		cookieOK: p.hasCookie(c, s.cfg.CookielessCookieName),
	}
	rs.evaluate(ctx)

	w := &responseWriter{ResponseWriter: c.Writer, beforeWrite: rs.emit}
	c.Writer = w
	c.Next()
	w.flushSignals()
}

func (p *Pinning) hasCookie(c *gin.Context, name string) bool {
	_, err := c.Request.Cookie(name)
	return err == nil
}

func (p *Pinning) cookielessEnabled(s *settings) bool {
	return s.cfg.CookielessEnabled() && p.cache != nil
}

// requestSignals is the pinning evaluation of one request.
type requestSignals struct {
	p     *Pinning
	s     *settings
	c     *gin.Context
	state *pinning.State
	// cookieOK is true if the client carries the cookieless marker, so it is known to keep cookies.
	cookieOK    bool
	fingerprint string
}

func (rs *requestSignals) evaluate(ctx context.Context) {
	p, s, state := rs.p, rs.s, rs.state
	switch {
	case p.hasCookie(rs.c, s.cfg.CookieName):
		state.Pin()
		metrics.PinnedRequestCounter.WithLabelValues(metrics.ReasonCookie).Inc()
	case p.cookielessEnabled(s) && !rs.cookieOK:
		cached, err := p.cache.Get(ctx, rs.clientFingerprint())
		if err != nil {
			metrics.CacheErrorCounter.WithLabelValues(metrics.OpGet).Inc()
			p.logger.Warn("read fingerprint cache failed", zap.Error(err))
		} else if cached {
			state.Pin()
			metrics.PinnedRequestCounter.WithLabelValues(metrics.ReasonFingerprint).Inc()
		}
	}
	if !s.readOnly.Contains(rs.c.Request.Method) {
		state.MarkWrite()
		metrics.PinnedRequestCounter.WithLabelValues(metrics.ReasonMethod).Inc()
	}
	if _, ok := s.views[rs.c.HandlerName()]; ok {
		state.MarkWrite()
		metrics.PinnedRequestCounter.WithLabelValues(metrics.ReasonView).Inc()
	}
}

func (rs *requestSignals) clientFingerprint() string {
	if rs.fingerprint == "" {
		rs.fingerprint = fingerprint.Fingerprint(rs.c.Request)
	}
	return rs.fingerprint
}

// emit sets the forward signals on the response headers.
func (rs *requestSignals) emit(header http.Header) {
	p, s := rs.p, rs.s
	cookieless := p.cookielessEnabled(s)
	if rs.state.WriteDetected() || rs.c.GetBool(writeTagKey) {
		addCookie(header, &http.Cookie{
			Name:     s.cfg.CookieName,
			Value:    cookieValue,
			Path:     "/",
			MaxAge:   s.cfg.Seconds,
			Secure:   s.cfg.SecureCookie,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		metrics.ForwardSignalCounter.WithLabelValues(metrics.SignalCookie).Inc()
		if cookieless && !rs.cookieOK {
			if err := p.cache.Set(rs.c.Request.Context(), rs.clientFingerprint(), s.cfg.Window()); err != nil {
				metrics.CacheErrorCounter.WithLabelValues(metrics.OpSet).Inc()
				p.logger.Warn("write fingerprint cache failed", zap.Error(err))
			} else {
				metrics.ForwardSignalCounter.WithLabelValues(metrics.SignalCache).Inc()
			}
		}
	}
	if cookieless {
		addCookie(header, &http.Cookie{
			Name:     s.cfg.CookielessCookieName,
			Value:    cookieValue,
			Path:     "/",
			Secure:   s.cfg.SecureCookie,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func addCookie(header http.Header, cookie *http.Cookie) {
	if v := cookie.String(); v != "" {
		header.Add("Set-Cookie", v)
	}
}

// MarkWrite tags the response as having written, so that the client is pinned afterwards.
func MarkWrite(c *gin.Context) {
	c.Set(writeTagKey, true)
}

// DBWrite runs h against the primary and tags the response as having written.
func DBWrite(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		MarkWrite(c)
		orig := c.Request
		_ = pinning.UsePrimary(orig.Context(), func(ctx context.Context) error {
			c.Request = orig.WithContext(ctx)
			h(c)
			return nil
		})
		c.Request = orig
	}
}
