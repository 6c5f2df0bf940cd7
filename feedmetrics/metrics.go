// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package feedmetrics holds the counters and gauges the feed cache updates
// as it runs, plus an adapter exposing them through a [prometheus.Gatherer].
// Metrics live in a go-ethereum-style metrics.Registry rather than
// registering directly against client_golang's default registry.
package feedmetrics

import (
	"github.com/luxfi/geth/metrics"
)

// Metrics holds every counter/gauge the feed cache updates. A nil *Metrics
// is never passed around; New always returns a usable, unregistered set
// unless a Registry is supplied.
type Metrics struct {
	registry metrics.Registry

	// CacheMissTotal counts gets that found a resident block whose range
	// covered the id but whose slot was empty. Pool-closed and
	// partition-inactive results never increment it (see feed's error
	// handling rules).
	CacheMissTotal *metrics.Counter

	// ExhaustedTotal counts shared-pool checkouts that failed because the
	// pool was at its global capacity.
	ExhaustedTotal *metrics.Counter

	// BlocksInUse is the number of blocks currently checked out of the
	// shared pool across every partition.
	BlocksInUse *metrics.Gauge

	// CheckoutLatency times SharedPool.checkOut calls that fell through to
	// allocation or recycling (i.e. excludes the frontier/local-pool fast
	// paths, which never reach the shared pool).
	CheckoutLatency *metrics.Timer
}

// New returns a Metrics set registered against r. If r is nil, a private
// registry is created so the metrics are still usable (e.g. in tests) but
// invisible to any process-wide registry. The registry library gates its
// constructors on the process-global metrics.Enable; until that has been
// called, the returned counters are the nil implementations and record
// nothing.
func New(r ...metrics.Registry) *Metrics {
	var reg metrics.Registry
	if len(r) > 0 && r[0] != nil {
		reg = r[0]
	} else {
		reg = metrics.NewRegistry()
	}
	return &Metrics{
		registry:        reg,
		CacheMissTotal:  metrics.NewRegisteredCounter("feedcache/cacheMissTotal", reg),
		ExhaustedTotal:  metrics.NewRegisteredCounter("feedcache/exhaustedTotal", reg),
		BlocksInUse:     metrics.NewRegisteredGauge("feedcache/blocksInUse", reg),
		CheckoutLatency: metrics.NewRegisteredTimer("feedcache/checkoutLatency", reg),
	}
}

// Registry returns the underlying go-ethereum-style registry backing these
// metrics, for use by Gatherer or by a caller that wants to merge it into a
// larger registry tree.
func (m *Metrics) Registry() metrics.Registry {
	return m.registry
}
