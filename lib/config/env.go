// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pingcap/tirouter/lib/util/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "TIROUTER"

// envKeys are the config keys that can be overridden by TIROUTER_<SECTION>_<KEY>,
// e.g. TIROUTER_PINNING_COOKIE_NAME for pinning.cookie-name.
var envKeys = []string{
	"pinning.cookie-name",
	"pinning.seconds",
	"pinning.cookieless-cookie-name",
	"pinning.cookieless-cache",
	"pinning.views",
	"pinning.read-only-methods",
	"pinning.secure-cookie",
	"router.primary",
	"router.replicas",
	"router.separator",
	"router.multi-tenant",
	"tenant.source",
	"tenant.refresh-interval",
	"tenant.directory-addr",
	"tenant.api-key",
	"tenant.timeout",
	"tenant.etcd-prefix",
	"cache.capacity",
	"cache.etcd-prefix",
	"etcd.addrs",
	"api.addr",
	"log.encoder",
	"log.level",
	"log.log-file.filename",
	"log.log-file.max-size",
	"log.log-file.max-days",
	"log.log-file.max-backups",
}

// ApplyEnv overrides config fields with the TIROUTER_* variables that are set and not empty.
// Values are decoded by the type of the field, never evaluated. Lists are comma separated.
func (cfg *Config) ApplyEnv() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return errors.WithStack(err)
		}
	}

	// Unset variables are skipped, so only the set fields are overwritten.
	err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.Squash = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToListHookFunc(),
		)
	})
	if err != nil {
		return errors.Wrapf(ErrInvalidConfigValue, "environment override: %v", err)
	}
	return nil
}

// stringToListHookFunc splits a comma separated value and drops empty items.
func stringToListHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf([]string{}) {
			return data, nil
		}
		var list []string
		for _, item := range strings.Split(data.(string), ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
		return list, nil
	}
}
