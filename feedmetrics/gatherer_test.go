// Copyright (C) 2021-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feedmetrics

import (
	"testing"

	"github.com/luxfi/geth/metrics"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/feedcache/internal/testutils"
)

func TestGathererCounterAndGauge(t *testing.T) {
	require := require.New(t)
	testutils.WithMetrics(t)

	m := New()
	m.CacheMissTotal.Inc(3)
	m.BlocksInUse.Update(5)

	g := NewGatherer(m)
	mfs, err := g.Gather()
	require.NoError(err)

	byName := make(map[string]float64)
	for _, mf := range mfs {
		switch mf.GetType().String() {
		case "COUNTER":
			byName[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue()
		case "GAUGE":
			byName[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}

	require.Equal(float64(3), byName["feedcache_cacheMissTotal"])
	require.Equal(float64(5), byName["feedcache_blocksInUse"])
}

func TestGathererSkipsEmptyTimer(t *testing.T) {
	require := require.New(t)

	m := New()
	g := NewGatherer(m)

	mfs, err := g.Gather()
	require.NoError(err)
	for _, mf := range mfs {
		require.NotEqual("feedcache_checkoutLatency", mf.GetName())
	}
}

func TestGathererIncludesTimerAfterUpdate(t *testing.T) {
	require := require.New(t)
	testutils.WithMetrics(t)

	m := New()
	m.CheckoutLatency.Update(0)

	g := NewGatherer(m)
	mfs, err := g.Gather()
	require.NoError(err)

	var found bool
	for _, mf := range mfs {
		if mf.GetName() == "feedcache_checkoutLatency" {
			found = true
			require.Equal("SUMMARY", mf.GetType().String())
		}
	}
	require.True(found)
}

func TestGathererUnsupportedType(t *testing.T) {
	require := require.New(t)

	reg := metrics.NewRegistry()
	reg.Register("feedcache/sample", metrics.NewUniformSample(10))

	g := &Gatherer{registry: reg}
	_, err := g.Gather()
	require.Error(err)
}
