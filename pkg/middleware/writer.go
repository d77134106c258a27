// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// responseWriter calls beforeWrite once, right before the headers are sent.
type responseWriter struct {
	gin.ResponseWriter
	beforeWrite func(http.Header)
	done        bool
}

func (w *responseWriter) flushSignals() {
	if w.done {
		return
	}
	w.done = true
	if !w.ResponseWriter.Written() {
		w.beforeWrite(w.ResponseWriter.Header())
	}
}

func (w *responseWriter) WriteHeaderNow() {
	w.flushSignals()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.flushSignals()
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.flushSignals()
	return w.ResponseWriter.WriteString(s)
}

func (w *responseWriter) Flush() {
	w.flushSignals()
	w.ResponseWriter.Flush()
}
