// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package testkit

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func StartListener(t *testing.T, addr string) (net.Listener, string) {
	if len(addr) == 0 {
		addr = "127.0.0.1:0"
	}
	listener, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	return listener, listener.Addr().String()
}

// FreeAddr returns a local address that was free when checked.
func FreeAddr(t *testing.T) string {
	listener, addr := StartListener(t, "")
	require.NoError(t, listener.Close())
	return addr
}
