// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pingcap/tirouter/lib/util/errors"
)

var (
	ErrHTTPStatus = errors.New("unexpected http status")
)

type Client struct {
	cli *http.Client
}

func NewHTTPClient() *Client {
	return &Client{
		cli: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}
}

// Post sends body to url and returns the response body of a 200 response.
// 4xx responses are not retried.
func (client *Client) Post(ctx context.Context, url string, header http.Header, body []byte, b backoff.BackOff, timeout time.Duration) ([]byte, error) {
	// http cli is shared in the server, copy cli is to avoid concurrently setting http request timeout
	cli := *client.cli
	cli.Timeout = timeout
	var respBody []byte
	err := ConnectWithRetry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		resp, err := cli.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := errors.Wrapf(ErrHTTPStatus, "http status %d, url: %s", resp.StatusCode, url)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return errors.Errorf("read response body failed, url: %s, err: %s", url, err.Error())
		}
		return nil
	}, b)
	return respBody, err
}

func ConnectWithRetry(connect func() error, b backoff.BackOff) error {
	return backoff.Retry(connect, b)
}
