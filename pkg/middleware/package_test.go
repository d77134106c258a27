// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package middleware

//go:generate go run go.uber.org/mock/mockgen -package middleware -destination cache_mock_test.go github.com/pingcap/tirouter/pkg/fingerprint Cache
