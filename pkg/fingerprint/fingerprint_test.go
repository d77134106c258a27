// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	req := httptest.NewRequest("GET", "/x", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req.Header.Set("User-Agent", "curl/8.0")
	req.Header.Set("Accept-Language", "en")
	sum := md5.Sum([]byte("\n10.0.0.1\n\nen\ncurl/8.0"))
	require.Equal(t, hex.EncodeToString(sum[:]), Fingerprint(req))

	// The client port does not matter.
	other := req.Clone(req.Context())
	other.RemoteAddr = "10.0.0.1:6000"
	require.Equal(t, Fingerprint(req), Fingerprint(other))

	// Every header takes part.
	for _, h := range []string{"X-Forwarded-For", "Accept-Encoding", "Accept-Language", "User-Agent"} {
		other := req.Clone(req.Context())
		other.Header.Set(h, "changed")
		require.NotEqual(t, Fingerprint(req), Fingerprint(other), h)
	}
	other = req.Clone(req.Context())
	other.RemoteAddr = "10.0.0.2:5000"
	require.NotEqual(t, Fingerprint(req), Fingerprint(other))

	// Moving a value to another header changes the hash.
	a := httptest.NewRequest("GET", "/", nil)
	a.Header.Set("Accept-Encoding", "gzip")
	b := httptest.NewRequest("GET", "/", nil)
	b.Header.Set("Accept-Language", "gzip")
	b.RemoteAddr = a.RemoteAddr
	require.NotEqual(t, Fingerprint(a), Fingerprint(b))
}
