// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

const (
	configPrefix = "/api/admin/config"
)

func GetConfigCmd(ctx *Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "config",
		Short: "get or set the router config",
	}

	// set config
	{
		setConfig := &cobra.Command{
			Use: "set",
		}
		input := setConfig.Flags().String("input", "", "specify the input toml file for router config")
		setConfig.RunE = func(cmd *cobra.Command, args []string) error {
			b := cmd.InOrStdin()
			if *input != "" {
				f, err := os.Open(*input)
				if err != nil {
					return err
				}
				defer f.Close()
				b = f
			}

			resp, err := doRequest(cmd.Context(), ctx, http.MethodPut, configPrefix, b, nil)
			if err != nil {
				return err
			}

			cmd.Println(resp)
			return nil
		}
		rootCmd.AddCommand(setConfig)
	}

	// get config
	{
		getConfig := &cobra.Command{
			Use: "get",
		}
		format := getConfig.Flags().String("format", "toml", "output format, toml or json")
		getConfig.RunE = func(cmd *cobra.Command, args []string) error {
			url := configPrefix
			if *format == "json" {
				url += "?format=json"
			}
			resp, err := doRequest(cmd.Context(), ctx, http.MethodGet, url, nil, nil)
			if err != nil {
				return err
			}

			cmd.Println(resp)
			return nil
		}
		rootCmd.AddCommand(getConfig)
	}

	return rootCmd
}
