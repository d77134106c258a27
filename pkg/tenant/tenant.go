// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package tenant

import (
	"context"
	"net"
	"strings"
)

// ID identifies a tenant.
type ID string

const (
	// DefaultID is used when a request cannot be attributed to a known tenant.
	DefaultID ID = "0"
	// NoTenant means there is no tenant context at all, e.g. multi-tenancy is disabled.
	NoTenant ID = ""
)

type tenantKey struct{}

// WithTenant attaches the tenant of the current request to ctx.
func WithTenant(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, tenantKey{}, id)
}

// FromContext returns NoTenant if ctx carries no tenant.
func FromContext(ctx context.Context) ID {
	if ctx == nil {
		return NoTenant
	}
	id, _ := ctx.Value(tenantKey{}).(ID)
	return id
}

// SubdomainOf returns the lower-cased first label of host, ignoring any port.
func SubdomainOf(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSpace(host))
	if idx := strings.IndexByte(host, '.'); idx >= 0 {
		return host[:idx]
	}
	return host
}
