// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/errors"
	"github.com/pingcap/tirouter/lib/util/waitgroup"
	"go.uber.org/zap"
)

type ConfigManager struct {
	wg     waitgroup.WaitGroup
	cancel context.CancelFunc
	logger *zap.Logger

	overlay []byte
	sts     struct {
		sync.Mutex
		listeners []chan<- *config.Config
		current   *config.Config
		checksum  uint32
	}
}

func NewConfigManager() *ConfigManager {
	return &ConfigManager{}
}

// Init loads configFile, then overlay, then the environment. If configFile is set,
// later changes of the file are applied online.
func (e *ConfigManager) Init(ctx context.Context, logger *zap.Logger, configFile string, overlay *config.Config) error {
	var err error
	var nctx context.Context
	nctx, e.cancel = context.WithCancel(ctx)
	e.logger = logger

	if overlay != nil {
		if e.overlay, err = overlay.ToBytes(); err != nil {
			return errors.WithStack(err)
		}
	}

	if configFile != "" {
		if err := e.reloadConfigFile(configFile); err != nil {
			return err
		}
		if err := e.watchConfigFile(nctx, configFile); err != nil {
			return err
		}
	} else {
		if err := e.SetTOMLConfig(nil); err != nil {
			return err
		}
	}
	return nil
}

func (e *ConfigManager) watchConfigFile(ctx context.Context, configFile string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithStack(err)
	}
	// Watch the directory so that editors which replace the file are also observed.
	if err := watcher.Add(filepath.Dir(configFile)); err != nil {
		_ = watcher.Close()
		return errors.WithStack(err)
	}
	target := filepath.Clean(configFile)
	e.wg.Run(func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := e.reloadConfigFile(configFile); err != nil {
					e.logger.Warn("failed to reload config file", zap.String("file", configFile), zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				e.logger.Warn("watch config file encounters error", zap.Error(err))
			}
		}
	})
	return nil
}

func (e *ConfigManager) Close() error {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	e.sts.Lock()
	for _, ch := range e.sts.listeners {
		close(ch)
	}
	e.sts.listeners = nil
	e.sts.Unlock()
	return nil
}
