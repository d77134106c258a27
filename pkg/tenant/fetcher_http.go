// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package tenant

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pingcap/tirouter/lib/config"
	"github.com/pingcap/tirouter/lib/util/errors"
	"github.com/pingcap/tirouter/lib/util/retry"
	httputil "github.com/pingcap/tirouter/pkg/util/http"
	"go.uber.org/zap"
)

const (
	tenantsQuery = "query { tenants { id subdomains replicas } }"
	apiKeyHeader = "X-Api-Key"

	fetchRetryInterval = 500 * time.Millisecond
	fetchRetryCnt      = 3
)

var (
	ErrDirectory = errors.New("tenant directory returned errors")
)

var _ Fetcher = (*HTTPFetcher)(nil)

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse struct {
	Data struct {
		Tenants []Info `json:"tenants"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// HTTPFetcher queries the tenant directory service over GraphQL.
type HTTPFetcher struct {
	cfg    *config.Tenant
	cli    *httputil.Client
	logger *zap.Logger
}

func NewHTTPFetcher(cfg *config.Tenant, cli *httputil.Client, lg *zap.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		cfg:    cfg,
		cli:    cli,
		logger: lg,
	}
}

func (hf *HTTPFetcher) FetchTenants(ctx context.Context) ([]Info, error) {
	body, err := json.Marshal(graphQLRequest{Query: tenantsQuery})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if hf.cfg.APIKey != "" {
		header.Set(apiKeyHeader, hf.cfg.APIKey)
	}
	b := retry.NewBackOff(ctx, fetchRetryInterval, fetchRetryCnt)
	resp, err := hf.cli.Post(ctx, hf.cfg.DirectoryAddr, header, body, b, hf.cfg.Timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "query tenant directory %s failed", hf.cfg.DirectoryAddr)
	}
	var result graphQLResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, errors.Wrapf(err, "decode tenant directory response failed")
	}
	if len(result.Errors) > 0 {
		return nil, errors.Wrapf(ErrDirectory, "%s", result.Errors[0].Message)
	}
	hf.logger.Debug("fetched tenants", zap.Int("count", len(result.Data.Tenants)))
	return result.Data.Tenants, nil
}
