// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label constants.
const (
	LblKind   = "kind"
	LblTarget = "target"
	LblReason = "reason"
	LblSignal = "signal"
	LblOp     = "op"
	LblResult = "result"
)

// Label values.
const (
	KindRead  = "read"
	KindWrite = "write"

	TargetPrimary  = "primary"
	TargetReplica  = "replica"
	TargetFallback = "fallback"

	ReasonCookie      = "cookie"
	ReasonFingerprint = "fingerprint"
	ReasonMethod      = "method"
	ReasonView        = "view"

	SignalCookie = "cookie"
	SignalCache  = "cache"

	OpGet = "get"
	OpSet = "set"

	ResultSucceed = "succeed"
	ResultFail    = "fail"
)

var (
	RouteCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleRouter,
			Subsystem: LabelRoute,
			Name:      "decision_total",
			Help:      "Counter of routing decisions by kind and target.",
		}, []string{LblKind, LblTarget})

	ReplicaGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ModuleRouter,
			Subsystem: LabelRoute,
			Name:      "replicas",
			Help:      "Number of endpoints in the replica rotation.",
		})

	PinnedRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleRouter,
			Subsystem: LabelPinning,
			Name:      "pinned_requests_total",
			Help:      "Counter of requests pinned to the primary by reason.",
		}, []string{LblReason})

	ForwardSignalCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleRouter,
			Subsystem: LabelPinning,
			Name:      "forward_signal_total",
			Help:      "Counter of stickiness signals emitted on responses.",
		}, []string{LblSignal})

	CacheErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleRouter,
			Subsystem: LabelCache,
			Name:      "err_total",
			Help:      "Counter of swallowed fingerprint cache errors.",
		}, []string{LblOp})

	TenantRefreshCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ModuleRouter,
			Subsystem: LabelTenant,
			Name:      "refresh_total",
			Help:      "Counter of tenant directory refreshes by result.",
		}, []string{LblResult})

	TenantGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: ModuleRouter,
			Subsystem: LabelTenant,
			Name:      "tenants",
			Help:      "Number of tenants in the active directory table.",
		})
)
