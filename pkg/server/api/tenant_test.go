// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/pingcap/tirouter/pkg/tenant"
	"github.com/stretchr/testify/require"
)

func TestTenantAPI(t *testing.T) {
	_, doHTTP := createServer(t, nil)

	doHTTP(t, http.MethodGet, "/api/tenants", httpOpts{}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		all, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var infos []tenant.Info
		require.NoError(t, json.Unmarshal(all, &infos))
		require.Equal(t, []tenant.Info{{ID: "3", Subdomains: []string{"acme"}}}, infos)
	})

	doHTTP(t, http.MethodPost, "/api/tenants/refresh", httpOpts{}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
	})

	for host, expected := range map[string]tenant.ID{
		"acme.example.com":  "3",
		"other.example.com": tenant.DefaultID,
	} {
		doHTTP(t, http.MethodGet, "/api/tenants/resolve?host="+host, httpOpts{}, func(t *testing.T, r *http.Response) {
			require.Equal(t, http.StatusOK, r.StatusCode)
			all, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var resp resolveResp
			require.NoError(t, json.Unmarshal(all, &resp))
			require.Equal(t, expected, resp.Tenant, host)
		})
	}
}
