// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"

	"github.com/pingcap/tirouter/lib/util/errors"
	"go.uber.org/zap"
)

type Context struct {
	Logger *zap.Logger
	Client *http.Client
	CUrls  []string
}

// doRequest sends the request to the API gateways in random order until one of them answers.
func doRequest(ctx context.Context, bctx *Context, method string, url string, rd io.Reader, header http.Header) (string, error) {
	var sep string
	if len(url) > 0 && url[0] != '/' {
		sep = "/"
	}
	var body []byte
	if rd != nil {
		var err error
		if body, err = io.ReadAll(rd); err != nil {
			return "", errors.WithStack(err)
		}
	}

	var rete string
	var lastErr error
	for _, i := range rand.Perm(len(bctx.CUrls)) {
		req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("http://%s%s%s", bctx.CUrls[i], sep, url), bytes.NewReader(body))
		if err != nil {
			return "", errors.WithStack(err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if host := header.Get("Host"); host != "" {
			req.Host = host
		}

		res, err := bctx.Client.Do(req)
		if err != nil {
			bctx.Logger.Debug("request failed", zap.String("addr", bctx.CUrls[i]), zap.Error(err))
			lastErr = err
			continue
		}
		resb, _ := io.ReadAll(res.Body)
		res.Body.Close()

		switch res.StatusCode {
		case http.StatusOK:
			return string(resb), nil
		case http.StatusBadRequest:
			return fmt.Sprintf("bad request: %s", string(resb)), nil
		case http.StatusInternalServerError:
			rete = fmt.Sprintf("internal error: %s", string(resb))
			continue
		default:
			rete = fmt.Sprintf("%s: %s", res.Status, string(resb))
			continue
		}
	}

	if rete == "" && lastErr != nil {
		return "", errors.WithStack(lastErr)
	}
	return rete, nil
}
