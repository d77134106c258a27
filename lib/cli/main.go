// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"net"
	"net/http"
	"os"
	"time"

	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/logger"
	"github.com/spf13/cobra"
)

func GetRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "tirouterctl",
		Short:        "cli",
		SilenceUsage: true,
	}
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	ctx := &Context{}

	curls := rootCmd.PersistentFlags().StringArray("curls", []string{"localhost:3090"}, "API gateway addresses")
	logEncoder := rootCmd.PersistentFlags().String("log_encoder", "console", "log in format of console or json")
	logLevel := rootCmd.PersistentFlags().String("log_level", "warn", "log level")
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		lg, _, _, err := logger.BuildLogger(&config.Log{
			Encoder: *logEncoder,
			LogOnline: config.LogOnline{
				Level: *logLevel,
			},
		})
		if err != nil {
			return err
		}
		ctx.Logger = lg.Named("cli")
		ctx.Client = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				IdleConnTimeout:       30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
		ctx.CUrls = *curls
		return nil
	}

	rootCmd.AddCommand(GetConfigCmd(ctx))
	rootCmd.AddCommand(GetTenantCmd(ctx))
	rootCmd.AddCommand(GetRouteCmd(ctx))
	rootCmd.AddCommand(GetHealthCmd(ctx))
	return rootCmd
}
