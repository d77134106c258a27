// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"net/http"

	"github.com/spf13/cobra"
)

const (
	routePrefix = "/api/route"
)

func GetRouteCmd(ctx *Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "route",
		Short: "show the endpoints a request would be routed to",
	}
	host := rootCmd.Flags().String("host", "", "host header of the request, which selects the tenant")
	cookies := rootCmd.Flags().StringArray("cookie", nil, "cookies sent with the request")
	write := rootCmd.Flags().Bool("write", false, "send a POST so that the request counts as a write")

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		method := http.MethodGet
		if *write {
			method = http.MethodPost
		}
		header := http.Header{}
		if *host != "" {
			header.Set("Host", *host)
		}
		for _, c := range *cookies {
			header.Add("Cookie", c)
		}
		resp, err := doRequest(cmd.Context(), ctx, method, routePrefix, nil, header)
		if err != nil {
			return err
		}
		cmd.Println(resp)
		return nil
	}

	return rootCmd
}
