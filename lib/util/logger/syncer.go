// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"os"
	"sync"

	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogMaxSize = 300 // MB
)

var _ zapcore.WriteSyncer = (*AtomicWriteSyncer)(nil)

// lumberjack.Logger needs to be closed, stdout does not.
type closableSyncer interface {
	zapcore.WriteSyncer
	Close() error
}

type rotateLogger struct {
	*lumberjack.Logger
}

func (lg *rotateLogger) Sync() error {
	return nil
}

type stdoutLogger struct {
	zapcore.WriteSyncer
}

func (lg *stdoutLogger) Close() error {
	return nil
}

// AtomicWriteSyncer is a WriteSyncer whose output can be replaced online.
type AtomicWriteSyncer struct {
	sync.RWMutex
	output closableSyncer
}

// Rebuild creates a new output and replaces the current one.
func (ws *AtomicWriteSyncer) Rebuild(cfg *config.LogOnline) error {
	var output closableSyncer
	if len(cfg.LogFile.Filename) > 0 {
		if st, err := os.Stat(cfg.LogFile.Filename); err == nil && st.IsDir() {
			return errors.New("can't use directory as log file name")
		}
		maxSize := cfg.LogFile.MaxSize
		if maxSize == 0 {
			maxSize = defaultLogMaxSize
		}
		output = &rotateLogger{&lumberjack.Logger{
			Filename:   cfg.LogFile.Filename,
			MaxSize:    maxSize,
			MaxBackups: cfg.LogFile.MaxBackups,
			MaxAge:     cfg.LogFile.MaxDays,
			LocalTime:  true,
		}}
	} else {
		stdLogger, _, err := zap.Open("stdout")
		if err != nil {
			return err
		}
		output = &stdoutLogger{stdLogger}
	}
	return ws.setOutput(output)
}

func (ws *AtomicWriteSyncer) Write(p []byte) (n int, err error) {
	ws.RLock()
	if ws.output != nil {
		n, err = ws.output.Write(p)
	}
	ws.RUnlock()
	return
}

func (ws *AtomicWriteSyncer) Sync() error {
	var err error
	ws.RLock()
	if ws.output != nil {
		err = ws.output.Sync()
	}
	ws.RUnlock()
	return err
}

func (ws *AtomicWriteSyncer) setOutput(output closableSyncer) error {
	var err error
	ws.Lock()
	if ws.output != nil {
		err = ws.output.Close()
	}
	ws.output = output
	ws.Unlock()
	return err
}

func (ws *AtomicWriteSyncer) Close() error {
	return ws.setOutput(nil)
}
