// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package versioninfo

// These variables will be overwritten by -ldflags at build time.
var (
	TiRouterVersion   = "None"
	TiRouterGitBranch = "None"
	TiRouterGitHash   = "None"
	TiRouterBuildTS   = "None"
)
