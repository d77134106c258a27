// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pingcap/tirouter/pkg/pinning"
	"github.com/pingcap/tirouter/pkg/tenant"
)

// RouteInfo tells a client which endpoints its request would use.
type RouteInfo struct {
	Tenant tenant.ID `json:"tenant"`
	Pinned bool      `json:"pinned"`
	Read   string    `json:"read"`
	Write  string    `json:"write"`
}

// Route reports the routing decision for the calling client. Non read-only methods
// count as writes, so they pin the client like any other write.
func (h *Server) Route(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, RouteInfo{
		Tenant: tenant.FromContext(ctx),
		Pinned: pinning.IsPinned(ctx),
		Read:   h.mgr.Router.ReadEndpoint(ctx),
		Write:  h.mgr.Router.WriteEndpoint(ctx),
	})
}

func (h *Server) registerRoute(group *gin.RouterGroup) {
	group.Any("", h.Route)
}
