// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package waitgroup

import (
	"sync"

	"go.uber.org/zap"
)

// WaitGroup is a wrapper for sync.WaitGroup
type WaitGroup struct {
	sync.WaitGroup
}

// Run runs a function in a goroutine, adds 1 to WaitGroup
// and calls done when function returns. Please DO NOT use panic
// in the cb function.
func (w *WaitGroup) Run(exec func()) {
	w.Add(1)
	go func() {
		defer w.Done()
		exec()
	}()
}

// RunWithRecover is Run with a recover that logs the panic and its stack.
// recoverFn is called after Done, nil means noop.
func (w *WaitGroup) RunWithRecover(exec func(), recoverFn func(r any), logger *zap.Logger) {
	w.Add(1)
	go func() {
		defer func() {
			r := recover()
			if r != nil && logger != nil {
				logger.Error("panic in the recoverable goroutine",
					zap.Reflect("r", r),
					zap.Stack("stack trace"))
			}
			// recoverFn normally calls Close, which may call Wait.
			w.Done()
			if r != nil && recoverFn != nil {
				recoverFn(r)
			}
		}()
		exec()
	}()
}
