// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

const (
	ModuleRouter = "tirouter"
)

// metrics subsystems.
const (
	LabelServer  = "server"
	LabelRoute   = "route"
	LabelPinning = "pinning"
	LabelTenant  = "tenant"
	LabelCache   = "cache"
)

var registerOnce sync.Once

// MetricsManager registers the collectors of the router.
type MetricsManager struct {
	logger *zap.Logger
}

func NewMetricsManager() *MetricsManager {
	return &MetricsManager{}
}

// Init registers all collectors to the default registry. Registering is done once per process.
func (mm *MetricsManager) Init(_ context.Context, logger *zap.Logger) {
	mm.logger = logger
	registerOnce.Do(registerRouterMetrics)
	logger.Debug("metrics registered")
}

func (mm *MetricsManager) Close() {
}

func registerRouterMetrics() {
	prometheus.DefaultRegisterer.Unregister(collectors.NewGoCollector())
	prometheus.MustRegister(collectors.NewGoCollector(collectors.WithGoCollections(collectors.GoRuntimeMetricsCollection | collectors.GoRuntimeMemStatsCollection)))

	for _, c := range colls {
		prometheus.MustRegister(c)
	}
}

var colls = []prometheus.Collector{
	ServerEventCounter,
	RouteCounter,
	ReplicaGauge,
	PinnedRequestCounter,
	ForwardSignalCounter,
	CacheErrorCounter,
	TenantRefreshCounter,
	TenantGauge,
}

// ReadCounter reads the value from the counter. It is only used for testing.
func ReadCounter(counter prometheus.Counter) (int, error) {
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		return 0, err
	}
	return int(metric.Counter.GetValue()), nil
}

// ReadGauge reads the value from the gauge. It is only used for testing.
func ReadGauge(gauge prometheus.Gauge) (float64, error) {
	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		return 0, err
	}
	return metric.Gauge.GetValue(), nil
}
