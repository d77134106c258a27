// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package sctx

import (
	"github.com/gin-gonic/gin"
	"github.com/pingcap/tirouter/lib/config"
)

type Context struct {
	Overlay    config.Config
	ConfigFile string
	Handler    ServerHandler
}

// ServerHandler mounts application handlers behind the pinning middleware.
type ServerHandler interface {
	RegisterHTTP(g *gin.RouterGroup) error
}
