// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// Fingerprint hashes the client identifying values of req. An absent value contributes
// an empty segment, so the result only depends on the values themselves.
func Fingerprint(req *http.Request) string {
	segments := []string{
		req.Header.Get("X-Forwarded-For"),
		remoteIP(req.RemoteAddr),
		req.Header.Get("Accept-Encoding"),
		req.Header.Get("Accept-Language"),
		req.Header.Get("User-Agent"),
	}
	sum := md5.Sum([]byte(strings.Join(segments, "\n")))
	return hex.EncodeToString(sum[:])
}

// remoteIP drops the port, which changes with every connection.
func remoteIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
