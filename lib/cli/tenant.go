// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

const (
	tenantPrefix = "/api/tenants"
)

func GetTenantCmd(ctx *Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tenant",
		Short: "inspect the tenant directory",
	}

	// list tenants
	{
		listTenant := &cobra.Command{
			Use: "list",
		}
		listTenant.RunE = func(cmd *cobra.Command, args []string) error {
			resp, err := doRequest(cmd.Context(), ctx, http.MethodGet, tenantPrefix, nil, nil)
			if err != nil {
				return err
			}
			cmd.Println(resp)
			return nil
		}
		rootCmd.AddCommand(listTenant)
	}

	// refresh the directory
	{
		refreshTenant := &cobra.Command{
			Use: "refresh",
		}
		refreshTenant.RunE = func(cmd *cobra.Command, args []string) error {
			resp, err := doRequest(cmd.Context(), ctx, http.MethodPost, tenantPrefix+"/refresh", nil, nil)
			if err != nil {
				return err
			}
			cmd.Println(resp)
			return nil
		}
		rootCmd.AddCommand(refreshTenant)
	}

	// resolve a host
	{
		resolveTenant := &cobra.Command{
			Use:  "resolve HOST",
			Args: cobra.ExactArgs(1),
		}
		resolveTenant.RunE = func(cmd *cobra.Command, args []string) error {
			resp, err := doRequest(cmd.Context(), ctx, http.MethodGet, tenantPrefix+"/resolve?host="+url.QueryEscape(args[0]), nil, nil)
			if err != nil {
				return err
			}
			cmd.Println(resp)
			return nil
		}
		rootCmd.AddCommand(resolveTenant)
	}

	return rootCmd
}
