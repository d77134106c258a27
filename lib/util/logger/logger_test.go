// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pingcap/tirouter/lib/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildFileLogger(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewConfig().Log
	cfg.Encoder = "json"
	cfg.LogFile.Filename = filepath.Join(dir, "router.log")

	lg, syncer, level, err := BuildLogger(&cfg)
	require.NoError(t, err)
	require.Equal(t, zap.InfoLevel, level.Level())
	lg.Debug("hidden")
	lg.Info("visible", zap.String("tenant", "1"))
	require.NoError(t, syncer.Close())

	data, err := os.ReadFile(cfg.LogFile.Filename)
	require.NoError(t, err)
	require.Contains(t, string(data), `"tenant":"1"`)
	require.NotContains(t, string(data), "hidden")
}

func TestBuildLoggerErrors(t *testing.T) {
	cfg := config.NewConfig().Log
	cfg.Level = "loud"
	_, _, _, err := BuildLogger(&cfg)
	require.Error(t, err)

	cfg = config.NewConfig().Log
	cfg.LogFile.Filename = t.TempDir()
	_, _, _, err = BuildLogger(&cfg)
	require.Error(t, err)
}

func TestLoggerForTest(t *testing.T) {
	lg, text := CreateLoggerForTest(t)
	lg.Info("hello")
	require.Contains(t, text.String(), "hello")
}
