// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/pingcap/tirouter/lib/cli"
	"github.com/pingcap/tirouter/lib/util/cmd"
	"github.com/pingcap/tirouter/pkg/util/versioninfo"
)

func main() {
	rootCmd := cli.GetRootCmd()
	rootCmd.Version = fmt.Sprintf("%s, commit %s", versioninfo.TiRouterVersion, versioninfo.TiRouterGitHash)
	cmd.RunRootCommand(rootCmd)
}
