// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock/testclock"
	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/errors"
	"github.com/pingcap/tirouter/lib/util/logger"
	"github.com/pingcap/tirouter/pkg/fingerprint"
	"github.com/pingcap/tirouter/pkg/metrics"
	"github.com/pingcap/tirouter/pkg/pinning"
	"github.com/pingcap/tirouter/pkg/router"
	"github.com/pingcap/tirouter/pkg/tenant"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	primary = "default"
	replica = "replica1"
)

type testEnv struct {
	engine *gin.Engine
	pin    *Pinning
	router *router.Router
}

type reqOpts struct {
	cookies []*http.Cookie
	host    string
	header  map[string]string
}

func newTestEnv(t *testing.T, cfg *config.Config, cache fingerprint.Cache, resolver *tenant.Resolver) *testEnv {
	lg, _ := logger.CreateLoggerForTest(t)
	gin.SetMode(gin.TestMode)
	env := &testEnv{
		engine: gin.New(),
		pin:    NewPinning(lg, &cfg.Pinning, cache, resolver),
		router: router.NewRouter(lg, &cfg.Router),
	}
	read := func(c *gin.Context) {
		c.String(http.StatusOK, env.router.ReadEndpoint(c.Request.Context()))
	}
	env.engine.Use(env.pin.Handle)
	env.engine.GET("/read", read)
	env.engine.POST("/write", func(c *gin.Context) {
		c.String(http.StatusOK, env.router.WriteEndpoint(c.Request.Context()))
	})
	env.engine.POST("/empty", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	env.engine.GET("/tagged", func(c *gin.Context) {
		MarkWrite(c)
		read(c)
	})
	env.engine.GET("/dbwrite", DBWrite(read))
	env.engine.GET("/view", writeView(env.router))
	return env
}

func writeView(rt *router.Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, rt.ReadEndpoint(c.Request.Context()))
	}
}

func (env *testEnv) do(method, path string, opts reqOpts) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if opts.host != "" {
		req.Host = opts.host
	}
	for _, c := range opts.cookies {
		req.AddCookie(c)
	}
	for k, v := range opts.header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func newConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Router.Replicas = []string{replica}
	return cfg
}

func TestWritePinsFollowingReads(t *testing.T) {
	env := newTestEnv(t, newConfig(), nil, nil)

	w := env.do(http.MethodGet, "/read", reqOpts{})
	require.Equal(t, replica, w.Body.String())
	require.Nil(t, findCookie(w, config.DefaultPinningCookie))

	w = env.do(http.MethodPost, "/write", reqOpts{})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, primary, w.Body.String())
	cookie := findCookie(w, config.DefaultPinningCookie)
	require.NotNil(t, cookie)
	require.Equal(t, "y", cookie.Value)
	require.Equal(t, 15, cookie.MaxAge)
	require.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=15")

	// Within the window the client sends the cookie back.
	w = env.do(http.MethodGet, "/read", reqOpts{cookies: []*http.Cookie{{Name: cookie.Name, Value: cookie.Value}}})
	require.Equal(t, primary, w.Body.String())
	// A pinned read does not refresh the cookie.
	require.Nil(t, findCookie(w, config.DefaultPinningCookie))

	// The browser dropped the expired cookie.
	w = env.do(http.MethodGet, "/read", reqOpts{})
	require.Equal(t, replica, w.Body.String())
}

func TestReadOnlyMethods(t *testing.T) {
	cfg := newConfig()
	env := newTestEnv(t, cfg, nil, nil)
	env.engine.Any("/any", func(c *gin.Context) {
		c.String(http.StatusOK, env.router.ReadEndpoint(c.Request.Context()))
	})
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
		w := env.do(method, "/any", reqOpts{})
		require.Nil(t, findCookie(w, config.DefaultPinningCookie), method)
	}
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		w := env.do(method, "/any", reqOpts{})
		require.Equal(t, primary, w.Body.String(), method)
		require.NotNil(t, findCookie(w, config.DefaultPinningCookie), method)
	}
}

func TestWriteWithoutBody(t *testing.T) {
	env := newTestEnv(t, newConfig(), nil, nil)
	w := env.do(http.MethodPost, "/empty", reqOpts{})
	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, findCookie(w, config.DefaultPinningCookie))
}

func TestWriteViews(t *testing.T) {
	cfg := newConfig()
	cfg.Pinning.Views = []string{"github.com/pingcap/tirouter/pkg/middleware.writeView.func1"}
	env := newTestEnv(t, cfg, nil, nil)
	w := env.do(http.MethodGet, "/view", reqOpts{})
	require.Equal(t, primary, w.Body.String())
	require.NotNil(t, findCookie(w, config.DefaultPinningCookie))

	w = env.do(http.MethodGet, "/read", reqOpts{})
	require.Equal(t, replica, w.Body.String())
}

func TestMarkWrite(t *testing.T) {
	env := newTestEnv(t, newConfig(), nil, nil)
	// Tagging pins following requests but not the current one.
	w := env.do(http.MethodGet, "/tagged", reqOpts{})
	require.Equal(t, replica, w.Body.String())
	require.NotNil(t, findCookie(w, config.DefaultPinningCookie))

	w = env.do(http.MethodGet, "/dbwrite", reqOpts{})
	require.Equal(t, primary, w.Body.String())
	require.NotNil(t, findCookie(w, config.DefaultPinningCookie))
}

func TestCookielessFlow(t *testing.T) {
	cfg := newConfig()
	cfg.Pinning.CookielessCache = config.CacheBackendMemory
	clk := testclock.NewClock(time.Now())
	env := newTestEnv(t, cfg, fingerprint.NewMemoryCache(10, clk), nil)
	client := reqOpts{header: map[string]string{"User-Agent": "legacy/1.0"}}

	w := env.do(http.MethodGet, "/read", client)
	require.Equal(t, replica, w.Body.String())
	marker := findCookie(w, config.DefaultCookielessCookie)
	require.NotNil(t, marker)
	require.Nil(t, findCookie(w, config.DefaultPinningCookie))

	w = env.do(http.MethodPost, "/write", client)
	require.NotNil(t, findCookie(w, config.DefaultPinningCookie))
	require.NotNil(t, findCookie(w, config.DefaultCookielessCookie))

	// The client ignores cookies, the fingerprint pins it.
	w = env.do(http.MethodGet, "/read", client)
	require.Equal(t, primary, w.Body.String())

	// A client with the same fingerprint that keeps cookies does not consult the cache.
	withMarker := client
	withMarker.cookies = []*http.Cookie{{Name: marker.Name, Value: marker.Value}}
	w = env.do(http.MethodGet, "/read", withMarker)
	require.Equal(t, replica, w.Body.String())

	// Other clients are not affected.
	w = env.do(http.MethodGet, "/read", reqOpts{header: map[string]string{"User-Agent": "modern/2.0"}})
	require.Equal(t, replica, w.Body.String())

	clk.Advance(16 * time.Second)
	w = env.do(http.MethodGet, "/read", client)
	require.Equal(t, replica, w.Body.String())
}

func TestMarkedClientSkipsCacheWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := NewMockCache(ctrl)
	cfg := newConfig()
	cfg.Pinning.CookielessCache = config.CacheBackendMemory
	env := newTestEnv(t, cfg, cache, nil)
	// No cache calls are expected for a client carrying the marker.
	w := env.do(http.MethodPost, "/write", reqOpts{cookies: []*http.Cookie{{Name: config.DefaultCookielessCookie, Value: "y"}}})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, findCookie(w, config.DefaultPinningCookie))
}

func TestCacheErrorsAreSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(false, errors.New("cache down")).Times(2)
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), 15*time.Second).Return(errors.New("cache down")).Times(1)
	cfg := newConfig()
	cfg.Pinning.CookielessCache = config.CacheBackendEtcd
	env := newTestEnv(t, cfg, cache, nil)

	getBefore, err := metrics.ReadCounter(metrics.CacheErrorCounter.WithLabelValues(metrics.OpGet))
	require.NoError(t, err)
	setBefore, err := metrics.ReadCounter(metrics.CacheErrorCounter.WithLabelValues(metrics.OpSet))
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/read", reqOpts{})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, replica, w.Body.String())

	w = env.do(http.MethodPost, "/write", reqOpts{})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, findCookie(w, config.DefaultPinningCookie))

	getAfter, err := metrics.ReadCounter(metrics.CacheErrorCounter.WithLabelValues(metrics.OpGet))
	require.NoError(t, err)
	setAfter, err := metrics.ReadCounter(metrics.CacheErrorCounter.WithLabelValues(metrics.OpSet))
	require.NoError(t, err)
	require.Equal(t, getBefore+2, getAfter)
	require.Equal(t, setBefore+1, setAfter)
}

func TestCachedFingerprintPins(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := NewMockCache(ctrl)
	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	cache.EXPECT().Get(gomock.Any(), fingerprint.Fingerprint(req)).Return(true, nil)
	cfg := newConfig()
	cfg.Pinning.CookielessCache = config.CacheBackendEtcd
	env := newTestEnv(t, cfg, cache, nil)
	w := env.do(http.MethodGet, "/read", reqOpts{})
	require.Equal(t, primary, w.Body.String())
}

func TestUpdateConfig(t *testing.T) {
	cfg := newConfig()
	env := newTestEnv(t, cfg, nil, nil)
	cfg.Pinning.CookieName = "pin"
	cfg.Pinning.Seconds = 30
	env.pin.UpdateConfig(&cfg.Pinning)

	w := env.do(http.MethodPost, "/write", reqOpts{})
	cookie := findCookie(w, "pin")
	require.NotNil(t, cookie)
	require.Equal(t, 30, cookie.MaxAge)
	w = env.do(http.MethodGet, "/read", reqOpts{cookies: []*http.Cookie{{Name: config.DefaultPinningCookie, Value: "y"}}})
	require.Equal(t, replica, w.Body.String())
}

func TestTenantFromHost(t *testing.T) {
	cfg := newConfig()
	cfg.Router.MultiTenant = true
	cfg.Router.Replicas = []string{"replica1.3"}
	table, err := tenant.NewTable([]tenant.Info{{ID: "3", Subdomains: []string{"acme"}}}, config.DefaultSeparator)
	require.NoError(t, err)
	env := newTestEnv(t, cfg, nil, tenant.NewResolver(table))

	w := env.do(http.MethodGet, "/read", reqOpts{host: "acme.example.com"})
	require.Equal(t, "replica1.3", w.Body.String())
	w = env.do(http.MethodPost, "/write", reqOpts{host: "acme.example.com"})
	require.Equal(t, "default.3", w.Body.String())
	w = env.do(http.MethodGet, "/read", reqOpts{host: "unknown.example.com"})
	require.Equal(t, "default.0", w.Body.String())
}

func TestRequestIsolation(t *testing.T) {
	env := newTestEnv(t, newConfig(), nil, nil)
	pinCookie := []*http.Cookie{{Name: config.DefaultPinningCookie, Value: "y"}}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				pinned := (i+j)%2 == 0
				opts := reqOpts{}
				expected := replica
				if pinned {
					opts.cookies = pinCookie
					expected = primary
				}
				w := env.do(http.MethodGet, "/read", opts)
				if w.Body.String() != expected {
					t.Errorf("request %d-%d: expected %s, got %s", i, j, expected, w.Body.String())
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestDBWriteRestoresContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	orig := c.Request
	var inner context.Context
	DBWrite(func(c *gin.Context) {
		inner = c.Request.Context()
	})(c)
	require.Same(t, orig, c.Request)
	require.NotNil(t, inner)
	require.True(t, pinning.IsPinned(inner))
	require.False(t, pinning.IsPinned(c.Request.Context()))
	require.True(t, c.GetBool(writeTagKey))
}
