// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package tenant

import (
	"go.uber.org/atomic"
)

// Resolver maps subdomains to tenants. The table is swapped as a whole, so readers
// never observe a partially updated directory.
type Resolver struct {
	table atomic.Pointer[Table]
}

func NewResolver(table *Table) *Resolver {
	r := &Resolver{}
	r.table.Store(table)
	return r
}

// Resolve returns DefaultID for unknown subdomains.
func (r *Resolver) Resolve(subdomain string) ID {
	if id, ok := r.table.Load().Lookup(subdomain); ok {
		return id
	}
	return DefaultID
}

// ResolveHost resolves the subdomain of a host header value.
func (r *Resolver) ResolveHost(host string) ID {
	return r.Resolve(SubdomainOf(host))
}

// Swap installs table and returns the previous one.
func (r *Resolver) Swap(table *Table) *Table {
	return r.table.Swap(table)
}

func (r *Resolver) Table() *Table {
	return r.table.Load()
}
