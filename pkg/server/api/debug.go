// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// HealthInfo is the response of the health API.
type HealthInfo struct {
	ConfigChecksum uint32 `json:"config_checksum"`
	Tenants        int    `json:"tenants"`
	Replicas       int    `json:"replicas"`
}

func (h *Server) DebugHealth(c *gin.Context) {
	status := http.StatusOK
	if h.isClosing.Load() {
		status = http.StatusBadGateway
	}
	c.JSON(status, HealthInfo{
		ConfigChecksum: h.mgr.CfgMgr.GetConfigChecksum(),
		Tenants:        h.mgr.Directory.Resolver().Table().Len(),
		Replicas:       len(h.mgr.Router.Replicas()),
	})
}

func (h *Server) registerDebug(group *gin.RouterGroup) {
	group.GET("/health", h.DebugHealth)
	pprof.RouteRegister(group, "/pprof")
}
