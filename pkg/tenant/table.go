// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package tenant

import (
	"strings"

	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/errors"
	"github.com/tidwall/btree"
)

var (
	ErrDuplicateTenant    = errors.New("duplicate tenant")
	ErrDuplicateSubdomain = errors.New("duplicate subdomain")
	ErrEmptyTenantID      = errors.New("empty tenant id")
	ErrInvalidTenant      = errors.New("invalid tenant")
)

// Info describes one tenant in the directory.
type Info struct {
	ID         ID       `json:"id"`
	Subdomains []string `json:"subdomains"`
	// Replicas are replica roles of the tenant, unqualified.
	Replicas []string `json:"replicas,omitempty"`
}

// Table is an immutable tenant directory. It is safe for concurrent reads.
type Table struct {
	tenants     btree.Map[ID, Info]
	bySubdomain map[string]ID
}

// NewTable builds a table. Subdomains are matched case-insensitively.
// Tenant ids and replica roles must not contain sep, otherwise qualified endpoints
// could not be split back into the role and the tenant.
func NewTable(infos []Info, sep string) (*Table, error) {
	t := &Table{
		bySubdomain: make(map[string]ID),
	}
	for _, info := range infos {
		if info.ID == NoTenant {
			return nil, ErrEmptyTenantID
		}
		if sep != "" && strings.Contains(string(info.ID), sep) {
			return nil, errors.Wrapf(ErrInvalidTenant, "tenant id %s contains the separator %q", info.ID, sep)
		}
		for _, role := range info.Replicas {
			if role == "" || (sep != "" && strings.Contains(role, sep)) {
				return nil, errors.Wrapf(ErrInvalidTenant, "replica role %q of tenant %s is empty or contains the separator %q", role, info.ID, sep)
			}
		}
		if _, ok := t.tenants.Get(info.ID); ok {
			return nil, errors.Wrapf(ErrDuplicateTenant, "tenant %s", info.ID)
		}
		subdomains := make([]string, 0, len(info.Subdomains))
		for _, sd := range info.Subdomains {
			sd = strings.ToLower(strings.TrimSpace(sd))
			if sd == "" {
				continue
			}
			if owner, ok := t.bySubdomain[sd]; ok {
				return nil, errors.Wrapf(ErrDuplicateSubdomain, "subdomain %s of tenant %s is owned by tenant %s", sd, info.ID, owner)
			}
			t.bySubdomain[sd] = info.ID
			subdomains = append(subdomains, sd)
		}
		info.Subdomains = subdomains
		info.Replicas = append([]string(nil), info.Replicas...)
		t.tenants.Set(info.ID, info)
	}
	return t, nil
}

func infosFromConfig(tenants []config.TenantInfo) []Info {
	infos := make([]Info, 0, len(tenants))
	for _, t := range tenants {
		infos = append(infos, Info{
			ID:         ID(t.ID),
			Subdomains: t.Subdomains,
			Replicas:   t.Replicas,
		})
	}
	return infos
}

// Lookup returns the tenant owning subdomain.
func (t *Table) Lookup(subdomain string) (ID, bool) {
	if t == nil {
		return NoTenant, false
	}
	id, ok := t.bySubdomain[strings.ToLower(subdomain)]
	return id, ok
}

func (t *Table) Get(id ID) (Info, bool) {
	if t == nil {
		return Info{}, false
	}
	return t.tenants.Get(id)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.tenants.Len()
}

// Tenants returns all tenants ordered by id.
func (t *Table) Tenants() []Info {
	if t == nil {
		return nil
	}
	infos := make([]Info, 0, t.tenants.Len())
	t.tenants.Scan(func(_ ID, info Info) bool {
		infos = append(infos, info)
		return true
	})
	return infos
}
