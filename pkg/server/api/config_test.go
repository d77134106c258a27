// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/tirouter/lib/config"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	srv, doHTTP := createServer(t, nil)

	doHTTP(t, http.MethodGet, "/api/admin/config", httpOpts{}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		all, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var cfg config.Config
		require.NoError(t, toml.Unmarshal(all, &cfg))
		require.Equal(t, []string{"replica1.3"}, cfg.Router.Replicas)
	})
	doHTTP(t, http.MethodGet, "/api/admin/config?format=json", httpOpts{}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
		all, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var cfg config.Config
		require.NoError(t, json.Unmarshal(all, &cfg))
		require.Equal(t, config.DefaultPrimary, cfg.Router.Primary)
	})

	doHTTP(t, http.MethodPut, "/api/admin/config", httpOpts{
		reader: strings.NewReader("[pinning]\nseconds = 60\n"),
	}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusOK, r.StatusCode)
	})
	require.Equal(t, 60, srv.mgr.CfgMgr.GetConfig().Pinning.Seconds)

	doHTTP(t, http.MethodPut, "/api/admin/config", httpOpts{
		reader: strings.NewReader("[pinning]\nseconds = 0\n"),
	}, func(t *testing.T, r *http.Response) {
		require.Equal(t, http.StatusBadRequest, r.StatusCode)
	})
	require.Equal(t, 60, srv.mgr.CfgMgr.GetConfig().Pinning.Seconds)
}
