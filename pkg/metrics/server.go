// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	LblType = "type"

	EventStart = "start"
	EventClose = "close"
)

var (
	ServerEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleRouter,
			Subsystem: LabelServer,
			Name:      "event",
			Help:      "Counter of server events.",
		}, []string{LblType})
)
