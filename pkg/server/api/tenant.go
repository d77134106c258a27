// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pingcap/tirouter/pkg/tenant"
)

type resolveResp struct {
	Subdomain string    `json:"subdomain"`
	Tenant    tenant.ID `json:"tenant"`
}

func (h *Server) TenantList(c *gin.Context) {
	infos := h.mgr.Directory.Resolver().Table().Tenants()
	if infos == nil {
		infos = []tenant.Info{}
	}
	c.JSON(http.StatusOK, infos)
}

func (h *Server) TenantRefresh(c *gin.Context) {
	if err := h.mgr.Directory.RefreshNow(c.Request.Context()); err != nil {
		c.Errors = append(c.Errors, &gin.Error{
			Type: gin.ErrorTypePrivate,
			Err:  err,
		})
		c.JSON(http.StatusInternalServerError, CreateJsonResp(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, CreateSuccessJsonResp())
}

// TenantResolve resolves the `host` query, or the request host if absent.
func (h *Server) TenantResolve(c *gin.Context) {
	host := c.Query("host")
	if host == "" {
		host = c.Request.Host
	}
	subdomain := tenant.SubdomainOf(host)
	c.JSON(http.StatusOK, resolveResp{
		Subdomain: subdomain,
		Tenant:    h.mgr.Directory.Resolver().Resolve(subdomain),
	})
}

func (h *Server) registerTenant(group *gin.RouterGroup) {
	group.GET("", h.TenantList)
	group.POST("/refresh", h.TenantRefresh)
	group.GET("/resolve", h.TenantResolve)
}
