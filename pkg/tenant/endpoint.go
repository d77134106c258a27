// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package tenant

import (
	"strings"
)

// EndpointResolver composes database roles with tenant ids, e.g. "default" and "3" into "default.3".
type EndpointResolver struct {
	sep string
}

func NewEndpointResolver(sep string) EndpointResolver {
	return EndpointResolver{sep: sep}
}

// Resolve qualifies role with tenant. Already qualified roles, malformed roles and
// NoTenant leave role unchanged, so Resolve is idempotent.
func (r EndpointResolver) Resolve(role string, tenant ID) string {
	if tenant == NoTenant || role == "" || r.sep == "" {
		return role
	}
	if strings.HasPrefix(role, r.sep) || strings.HasSuffix(role, r.sep) {
		return role
	}
	if _, ok := r.split(role); ok {
		return role
	}
	return role + r.sep + string(tenant)
}

// TenantOf returns the tenant an endpoint is qualified with, or NoTenant for a bare role.
func (r EndpointResolver) TenantOf(endpoint string) ID {
	idx, ok := r.split(endpoint)
	if !ok {
		return NoTenant
	}
	return ID(endpoint[idx+len(r.sep):])
}

func (r EndpointResolver) split(endpoint string) (int, bool) {
	if r.sep == "" {
		return 0, false
	}
	idx := strings.LastIndex(endpoint, r.sep)
	if idx <= 0 || idx+len(r.sep) >= len(endpoint) {
		return 0, false
	}
	return idx, true
}
