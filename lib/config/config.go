// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/tirouter/lib/util/errors"
)

var (
	ErrInvalidConfigValue = errors.New("invalid config value")
)

const (
	DefaultPrimary              = "default"
	DefaultSeparator            = "."
	DefaultPinningCookie        = "multidb_pin_writes"
	DefaultCookielessCookie     = "multidb_use_cookies"
	DefaultPinningSeconds       = 15
	DefaultTenantRefresh        = 5 * time.Minute
	DefaultMemoryCacheCapacity  = 100000
	DefaultEtcdCachePrefix      = "/tirouter/fingerprint/"
	DefaultEtcdTenantPrefix     = "/tirouter/tenant/"
	DefaultDirectoryHTTPTimeout = 5 * time.Second
)

// Cookieless cache backends.
const (
	CacheBackendNone   = ""
	CacheBackendMemory = "memory"
	CacheBackendEtcd   = "etcd"
)

// Tenant directory sources.
const (
	TenantSourceStatic = "static"
	TenantSourceHTTP   = "http"
	TenantSourceEtcd   = "etcd"
)

type Config struct {
	Pinning Pinning `yaml:"pinning,omitempty" toml:"pinning,omitempty" json:"pinning,omitempty"`
	Router  Router  `yaml:"router,omitempty" toml:"router,omitempty" json:"router,omitempty"`
	Tenant  Tenant  `yaml:"tenant,omitempty" toml:"tenant,omitempty" json:"tenant,omitempty"`
	Cache   Cache   `yaml:"cache,omitempty" toml:"cache,omitempty" json:"cache,omitempty"`
	Etcd    Etcd    `yaml:"etcd,omitempty" toml:"etcd,omitempty" json:"etcd,omitempty"`
	API     API     `yaml:"api,omitempty" toml:"api,omitempty" json:"api,omitempty"`
	Log     Log     `yaml:"log,omitempty" toml:"log,omitempty" json:"log,omitempty"`
}

// Pinning controls how long a client sticks to the primary after a write.
type Pinning struct {
	CookieName string `yaml:"cookie-name,omitempty" toml:"cookie-name,omitempty" json:"cookie-name,omitempty"`
	// Seconds is both the cookie Max-Age and the fingerprint cache TTL.
	Seconds              int    `yaml:"seconds,omitempty" toml:"seconds,omitempty" json:"seconds,omitempty"`
	CookielessCookieName string `yaml:"cookieless-cookie-name,omitempty" toml:"cookieless-cookie-name,omitempty" json:"cookieless-cookie-name,omitempty"`
	// CookielessCache names the cache backend for clients without cookies. Empty disables cookieless mode.
	CookielessCache string `yaml:"cookieless-cache,omitempty" toml:"cookieless-cache,omitempty" json:"cookieless-cache,omitempty"`
	// Views are fully qualified handler names that always count as writes.
	Views           []string `yaml:"views,omitempty" toml:"views,omitempty" json:"views,omitempty"`
	ReadOnlyMethods []string `yaml:"read-only-methods,omitempty" toml:"read-only-methods,omitempty" json:"read-only-methods,omitempty"`
	SecureCookie    bool     `yaml:"secure-cookie,omitempty" toml:"secure-cookie,omitempty" json:"secure-cookie,omitempty"`
}

func (p Pinning) Window() time.Duration {
	return time.Duration(p.Seconds) * time.Second
}

func (p Pinning) CookielessEnabled() bool {
	return p.CookielessCache != CacheBackendNone
}

type Router struct {
	Primary string `yaml:"primary,omitempty" toml:"primary,omitempty" json:"primary,omitempty"`
	// Replicas are endpoint identifiers, bare or tenant-qualified. Empty means always primary.
	Replicas    []string `yaml:"replicas,omitempty" toml:"replicas,omitempty" json:"replicas,omitempty"`
	Separator   string   `yaml:"separator,omitempty" toml:"separator,omitempty" json:"separator,omitempty"`
	MultiTenant bool     `yaml:"multi-tenant,omitempty" toml:"multi-tenant,omitempty" json:"multi-tenant,omitempty"`
}

type TenantInfo struct {
	ID         string   `yaml:"id" toml:"id" json:"id"`
	Subdomains []string `yaml:"subdomains" toml:"subdomains" json:"subdomains"`
	// Replicas are the replica roles owned by the tenant, qualified with its id at routing time.
	Replicas []string `yaml:"replicas,omitempty" toml:"replicas,omitempty" json:"replicas,omitempty"`
}

type Tenant struct {
	Source          string        `yaml:"source,omitempty" toml:"source,omitempty" json:"source,omitempty"`
	RefreshInterval time.Duration `yaml:"refresh-interval,omitempty" toml:"refresh-interval,omitempty" json:"refresh-interval,omitempty"`
	DirectoryAddr   string        `yaml:"directory-addr,omitempty" toml:"directory-addr,omitempty" json:"directory-addr,omitempty"`
	APIKey          string        `yaml:"api-key,omitempty" toml:"api-key,omitempty" json:"api-key,omitempty"`
	Timeout         time.Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"`
	EtcdPrefix      string        `yaml:"etcd-prefix,omitempty" toml:"etcd-prefix,omitempty" json:"etcd-prefix,omitempty"`
	Tenants         []TenantInfo  `yaml:"tenants,omitempty" toml:"tenants,omitempty" json:"tenants,omitempty"`
}

type Cache struct {
	Capacity   int    `yaml:"capacity,omitempty" toml:"capacity,omitempty" json:"capacity,omitempty"`
	EtcdPrefix string `yaml:"etcd-prefix,omitempty" toml:"etcd-prefix,omitempty" json:"etcd-prefix,omitempty"`
}

type Etcd struct {
	// Addrs is a comma separated endpoint list. Empty disables etcd.
	Addrs string `yaml:"addrs,omitempty" toml:"addrs,omitempty" json:"addrs,omitempty"`
}

func (e Etcd) Endpoints() []string {
	if e.Addrs == "" {
		return nil
	}
	var eps []string
	for _, addr := range strings.Split(e.Addrs, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			eps = append(eps, addr)
		}
	}
	return eps
}

type API struct {
	Addr string `yaml:"addr,omitempty" toml:"addr,omitempty" json:"addr,omitempty"`
}

type LogOnline struct {
	Level   string  `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	LogFile LogFile `yaml:"log-file,omitempty" toml:"log-file,omitempty" json:"log-file,omitempty"`
}

type Log struct {
	Encoder   string `yaml:"encoder,omitempty" toml:"encoder,omitempty" json:"encoder,omitempty"`
	LogOnline `yaml:",inline" toml:",inline" json:",inline"`
}

type LogFile struct {
	Filename   string `yaml:"filename,omitempty" toml:"filename,omitempty" json:"filename,omitempty"`
	MaxSize    int    `yaml:"max-size,omitempty" toml:"max-size,omitempty" json:"max-size,omitempty"`
	MaxDays    int    `yaml:"max-days,omitempty" toml:"max-days,omitempty" json:"max-days,omitempty"`
	MaxBackups int    `yaml:"max-backups,omitempty" toml:"max-backups,omitempty" json:"max-backups,omitempty"`
}

func DefaultReadOnlyMethods() []string {
	return []string{"GET", "TRACE", "HEAD", "OPTIONS"}
}

func NewConfig() *Config {
	var cfg Config

	cfg.Pinning.CookieName = DefaultPinningCookie
	cfg.Pinning.Seconds = DefaultPinningSeconds
	cfg.Pinning.CookielessCookieName = DefaultCookielessCookie
	cfg.Pinning.ReadOnlyMethods = DefaultReadOnlyMethods()

	cfg.Router.Primary = DefaultPrimary
	cfg.Router.Separator = DefaultSeparator

	cfg.Tenant.Source = TenantSourceStatic
	cfg.Tenant.RefreshInterval = DefaultTenantRefresh
	cfg.Tenant.Timeout = DefaultDirectoryHTTPTimeout
	cfg.Tenant.EtcdPrefix = DefaultEtcdTenantPrefix

	cfg.Cache.Capacity = DefaultMemoryCacheCapacity
	cfg.Cache.EtcdPrefix = DefaultEtcdCachePrefix

	cfg.API.Addr = "0.0.0.0:3090"

	cfg.Log.Level = "info"
	cfg.Log.Encoder = "console"
	cfg.Log.LogFile.MaxSize = 300
	cfg.Log.LogFile.MaxDays = 3
	cfg.Log.LogFile.MaxBackups = 3

	return &cfg
}

// Clone deep-copies the slices so that the copy can be mutated freely.
func (cfg *Config) Clone() *Config {
	newCfg := *cfg
	newCfg.Pinning.Views = append([]string(nil), cfg.Pinning.Views...)
	newCfg.Pinning.ReadOnlyMethods = append([]string(nil), cfg.Pinning.ReadOnlyMethods...)
	newCfg.Router.Replicas = append([]string(nil), cfg.Router.Replicas...)
	newCfg.Tenant.Tenants = make([]TenantInfo, 0, len(cfg.Tenant.Tenants))
	for _, t := range cfg.Tenant.Tenants {
		t.Subdomains = append([]string(nil), t.Subdomains...)
		t.Replicas = append([]string(nil), t.Replicas...)
		newCfg.Tenant.Tenants = append(newCfg.Tenant.Tenants, t)
	}
	return &newCfg
}

func (cfg *Config) Check() error {
	p := &cfg.Pinning
	if p.CookieName == "" {
		return errors.Wrapf(ErrInvalidConfigValue, "pinning.cookie-name must not be empty")
	}
	if p.Seconds <= 0 {
		return errors.Wrapf(ErrInvalidConfigValue, "pinning.seconds must be positive")
	}
	switch p.CookielessCache {
	case CacheBackendNone, CacheBackendMemory:
	case CacheBackendEtcd:
		if len(cfg.Etcd.Endpoints()) == 0 {
			return errors.Wrapf(ErrInvalidConfigValue, "pinning.cookieless-cache is etcd but etcd.addrs is empty")
		}
	default:
		return errors.Wrapf(ErrInvalidConfigValue, "unknown pinning.cookieless-cache %q", p.CookielessCache)
	}
	if p.CookielessEnabled() && p.CookielessCookieName == "" {
		return errors.Wrapf(ErrInvalidConfigValue, "pinning.cookieless-cookie-name must not be empty")
	}
	if len(p.ReadOnlyMethods) == 0 {
		p.ReadOnlyMethods = DefaultReadOnlyMethods()
	}
	for i, m := range p.ReadOnlyMethods {
		p.ReadOnlyMethods[i] = strings.ToUpper(m)
	}

	r := &cfg.Router
	if r.Primary == "" {
		return errors.Wrapf(ErrInvalidConfigValue, "router.primary must not be empty")
	}
	if r.Separator == "" {
		r.Separator = DefaultSeparator
	}
	if strings.Contains(r.Primary, r.Separator) {
		return errors.Wrapf(ErrInvalidConfigValue, "router.primary %q contains the separator %q", r.Primary, r.Separator)
	}
	for _, replica := range r.Replicas {
		if replica == "" {
			return errors.Wrapf(ErrInvalidConfigValue, "router.replicas contains an empty identifier")
		}
	}

	t := &cfg.Tenant
	switch t.Source {
	case "":
		t.Source = TenantSourceStatic
	case TenantSourceStatic:
	case TenantSourceHTTP:
		if t.DirectoryAddr == "" {
			return errors.Wrapf(ErrInvalidConfigValue, "tenant.directory-addr is required by the http source")
		}
	case TenantSourceEtcd:
		if len(cfg.Etcd.Endpoints()) == 0 {
			return errors.Wrapf(ErrInvalidConfigValue, "tenant.source is etcd but etcd.addrs is empty")
		}
	default:
		return errors.Wrapf(ErrInvalidConfigValue, "unknown tenant.source %q", t.Source)
	}
	if t.RefreshInterval <= 0 {
		t.RefreshInterval = DefaultTenantRefresh
	}
	if t.Timeout <= 0 {
		t.Timeout = DefaultDirectoryHTTPTimeout
	}
	for _, info := range t.Tenants {
		if info.ID == "" {
			return errors.Wrapf(ErrInvalidConfigValue, "tenant.tenants contains an empty id")
		}
		if strings.Contains(info.ID, r.Separator) {
			return errors.Wrapf(ErrInvalidConfigValue, "tenant id %q contains the separator %q", info.ID, r.Separator)
		}
		for _, role := range info.Replicas {
			if strings.Contains(role, r.Separator) {
				return errors.Wrapf(ErrInvalidConfigValue, "replica role %q of tenant %q contains the separator %q", role, info.ID, r.Separator)
			}
		}
	}

	if cfg.Cache.Capacity <= 0 {
		cfg.Cache.Capacity = DefaultMemoryCacheCapacity
	}
	if cfg.Cache.EtcdPrefix == "" {
		cfg.Cache.EtcdPrefix = DefaultEtcdCachePrefix
	}
	return nil
}

func (cfg *Config) ToBytes() ([]byte, error) {
	b := new(bytes.Buffer)
	err := toml.NewEncoder(b).Encode(cfg)
	return b.Bytes(), errors.WithStack(err)
}
