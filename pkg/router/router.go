// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"

	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/pkg/metrics"
	"github.com/pingcap/tirouter/pkg/pinning"
	"github.com/pingcap/tirouter/pkg/replica"
	"github.com/pingcap/tirouter/pkg/tenant"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Router names the endpoint the data access layer should use for each operation.
type Router struct {
	primary     string
	replicas    []string
	multiTenant bool
	endpoints   tenant.EndpointResolver
	cycle       atomic.Pointer[replica.Cycle]
	logger      *zap.Logger
}

func NewRouter(logger *zap.Logger, cfg *config.Router) *Router {
	r := &Router{
		primary:     cfg.Primary,
		replicas:    append([]string(nil), cfg.Replicas...),
		multiTenant: cfg.MultiTenant,
		endpoints:   tenant.NewEndpointResolver(cfg.Separator),
		logger:      logger,
	}
	r.Rebuild(nil)
	return r
}

// Rebuild replaces the replica rotation with the configured replicas plus the
// replica roles of every tenant in table, qualified with the tenant id.
func (r *Router) Rebuild(table *tenant.Table) {
	eps := append([]string(nil), r.replicas...)
	for _, info := range table.Tenants() {
		for _, role := range info.Replicas {
			eps = append(eps, r.endpoints.Resolve(role, info.ID))
		}
	}
	cycle := replica.NewCycle(eps, r.primary)
	r.cycle.Store(cycle)
	metrics.ReplicaGauge.Set(float64(cycle.Len()))
	r.logger.Debug("rebuild replica rotation", zap.Strings("replicas", cycle.Endpoints()))
}

// EndpointForRead returns the primary when the request is pinned, otherwise the next
// replica owned by t. It falls back to the primary after one full rotation without a match.
func (r *Router) EndpointForRead(ctx context.Context, t tenant.ID) string {
	primary := r.endpoints.Resolve(r.primary, t)
	if pinning.IsPinned(ctx) {
		r.observe(metrics.KindRead, metrics.TargetPrimary, primary)
		return primary
	}
	cycle := r.cycle.Load()
	for i := 0; i < cycle.Len(); i++ {
		ep := cycle.Next()
		if r.endpoints.TenantOf(ep) == t {
			r.observe(metrics.KindRead, metrics.TargetReplica, ep)
			return ep
		}
	}
	r.observe(metrics.KindRead, metrics.TargetFallback, primary)
	return primary
}

// EndpointForWrite always returns the primary of t.
func (r *Router) EndpointForWrite(_ context.Context, t tenant.ID) string {
	primary := r.endpoints.Resolve(r.primary, t)
	r.observe(metrics.KindWrite, metrics.TargetPrimary, primary)
	return primary
}

// AllowRelation never blocks relations across endpoints.
func (r *Router) AllowRelation(_, _ string) bool {
	return true
}

// AllowSchemaChange allows DDL only on the primary of t.
func (r *Router) AllowSchemaChange(endpoint string, t tenant.ID) bool {
	return endpoint == r.endpoints.Resolve(r.primary, t)
}

// ReadEndpoint is EndpointForRead for the tenant carried by ctx.
func (r *Router) ReadEndpoint(ctx context.Context) string {
	return r.EndpointForRead(ctx, r.tenantOf(ctx))
}

// WriteEndpoint is EndpointForWrite for the tenant carried by ctx.
func (r *Router) WriteEndpoint(ctx context.Context) string {
	return r.EndpointForWrite(ctx, r.tenantOf(ctx))
}

// Replicas returns the current rotation.
func (r *Router) Replicas() []string {
	return r.cycle.Load().Endpoints()
}

func (r *Router) MultiTenant() bool {
	return r.multiTenant
}

func (r *Router) tenantOf(ctx context.Context) tenant.ID {
	if !r.multiTenant {
		return tenant.NoTenant
	}
	if id := tenant.FromContext(ctx); id != tenant.NoTenant {
		return id
	}
	return tenant.DefaultID
}

func (r *Router) observe(kind, target, endpoint string) {
	metrics.RouteCounter.WithLabelValues(kind, target).Inc()
	if ce := r.logger.Check(zap.DebugLevel, "route"); ce != nil {
		ce.Write(zap.String("kind", kind), zap.String("target", target), zap.String("endpoint", endpoint))
	}
}
