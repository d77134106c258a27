// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package tenant

import (
	"context"
	"sync"
	"time"

	"github.com/pingcap/tirouter/lib/util/errors"
	"github.com/pingcap/tirouter/lib/util/waitgroup"
	"github.com/pingcap/tirouter/pkg/metrics"
	"go.uber.org/zap"
)

var (
	ErrEmptyDirectory = errors.New("tenant directory is empty")
)

// Subscriber is called with the new table after every successful swap.
type Subscriber func(*Table)

// Directory keeps the resolver table in sync with the tenant source.
type Directory struct {
	sync.Mutex
	resolver    *Resolver
	fetcher     Fetcher
	sep         string
	interval    time.Duration
	subscribers map[string]Subscriber
	refreshChan chan struct{}
	wg          waitgroup.WaitGroup
	cancelFunc  context.CancelFunc
	logger      *zap.Logger
}

// NewDirectory creates a directory. sep is the tenant separator of endpoint identifiers;
// fetched tables whose ids or roles contain it are rejected. A non-positive interval
// disables periodic refresh, which suits the static source.
func NewDirectory(logger *zap.Logger, resolver *Resolver, fetcher Fetcher, sep string, interval time.Duration) *Directory {
	return &Directory{
		logger:      logger,
		resolver:    resolver,
		fetcher:     fetcher,
		sep:         sep,
		interval:    interval,
		subscribers: make(map[string]Subscriber),
		refreshChan: make(chan struct{}),
	}
}

// Init loads the first table synchronously. The error is returned but the directory
// still starts with an empty table, so requests resolve to the default tenant.
func (d *Directory) Init(ctx context.Context) error {
	return d.refresh(ctx)
}

// Start starts the refresh loop.
func (d *Directory) Start(ctx context.Context) {
	childCtx, cancelFunc := context.WithCancel(ctx)
	d.cancelFunc = cancelFunc
	d.wg.Run(func() {
		d.observe(childCtx)
	})
}

// Refresh indicates the directory to refresh immediately.
func (d *Directory) Refresh() {
	// If the directory happens to be refreshing, skip this round.
	select {
	case d.refreshChan <- struct{}{}:
	default:
	}
}

// RefreshNow fetches and swaps the table in the calling goroutine.
func (d *Directory) RefreshNow(ctx context.Context) error {
	return d.refresh(ctx)
}

func (d *Directory) Subscribe(name string, sub Subscriber) {
	d.Lock()
	d.subscribers[name] = sub
	d.Unlock()
}

func (d *Directory) Unsubscribe(name string) {
	d.Lock()
	delete(d.subscribers, name)
	d.Unlock()
}

func (d *Directory) Resolver() *Resolver {
	return d.resolver
}

func (d *Directory) observe(ctx context.Context) {
	for ctx.Err() == nil {
		var wait <-chan time.Time
		if d.interval > 0 {
			wait = time.After(d.interval)
		}
		select {
		case <-wait:
		case <-d.refreshChan:
		case <-ctx.Done():
			return
		}
		if err := d.refresh(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("refreshing tenant directory encounters error, keep the previous table", zap.Error(err))
		}
	}
}

// refresh replaces the table only when the fetched directory is usable.
func (d *Directory) refresh(ctx context.Context) error {
	d.Lock()
	defer d.Unlock()
	infos, err := d.fetcher.FetchTenants(ctx)
	if err == nil && len(infos) == 0 && d.resolver.Table().Len() > 0 {
		err = ErrEmptyDirectory
	}
	var table *Table
	if err == nil {
		table, err = NewTable(infos, d.sep)
	}
	if err != nil {
		metrics.TenantRefreshCounter.WithLabelValues(metrics.ResultFail).Inc()
		return err
	}
	metrics.TenantRefreshCounter.WithLabelValues(metrics.ResultSucceed).Inc()
	metrics.TenantGauge.Set(float64(table.Len()))
	prev := d.resolver.Swap(table)
	if prev.Len() != table.Len() {
		d.logger.Info("update tenant directory", zap.Int("prev", prev.Len()), zap.Int("cur", table.Len()))
	}
	for _, sub := range d.subscribers {
		sub(table)
	}
	return nil
}

// Close stops the refresh loop.
func (d *Directory) Close() {
	if d.cancelFunc != nil {
		d.cancelFunc()
	}
	d.wg.Wait()
}
