// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pingcap/tirouter/lib/util/cmd"
	"github.com/pingcap/tirouter/lib/util/errors"
	"github.com/pingcap/tirouter/pkg/sctx"
	"github.com/pingcap/tirouter/pkg/server"
	"github.com/pingcap/tirouter/pkg/util/versioninfo"
	"github.com/spf13/cobra"
)

// longFlags are the flags that may also be passed with a single dash.
var longFlags = map[string]struct{}{
	"config":      {},
	"log-level":   {},
	"log-encoder": {},
	"api-addr":    {},
	"etcd-addrs":  {},
}

func main() {
	rootCmd := &cobra.Command{
		Use:     os.Args[0],
		Short:   "start the router server",
		Version: fmt.Sprintf("%s, commit %s", versioninfo.TiRouterVersion, versioninfo.TiRouterGitHash),
	}
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
	rootCmd.SetArgs(rewriteSingleDashLongFlags(os.Args[1:]))

	sctx := &sctx.Context{}
	registerFlags(rootCmd, sctx)

	rootCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		srv, err := server.NewServer(cmd.Context(), sctx)
		if err != nil {
			return errors.Wrapf(err, "fail to create server")
		}

		<-cmd.Context().Done()
		if e := srv.Close(); e != nil {
			err = errors.Wrapf(e, "shutdown with errors")
		}

		return err
	}

	cmd.RunRootCommand(rootCmd)
}

// registerFlags binds the command line flags to the overlay, which overrides the config file.
func registerFlags(rootCmd *cobra.Command, sctx *sctx.Context) {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&sctx.ConfigFile, "config", "", "router config file path")
	flags.StringVar(&sctx.Overlay.Log.Level, "log-level", "", "log level")
	flags.StringVar(&sctx.Overlay.Log.Encoder, "log-encoder", "", "log in format of console or json")
	flags.StringVar(&sctx.Overlay.API.Addr, "api-addr", "", "HTTP API listening address")
	flags.StringVar(&sctx.Overlay.Etcd.Addrs, "etcd-addrs", "", "comma separated etcd endpoints")
}

// rewriteSingleDashLongFlags turns "-long_flag" into "--long-flag" for the known long flags.
// Short flags and unknown flags are left untouched.
func rewriteSingleDashLongFlags(args []string) []string {
	rewritten := make([]string, 0, len(args))
	for _, arg := range args {
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' {
			name, value, hasValue := strings.Cut(arg[1:], "=")
			name = strings.ReplaceAll(name, "_", "-")
			if _, ok := longFlags[name]; ok {
				arg = "--" + name
				if hasValue {
					arg += "=" + value
				}
			}
		}
		rewritten = append(rewritten, arg)
	}
	return rewritten
}
