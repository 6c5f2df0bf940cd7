// Copyright (C) 2021-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feedmetrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/luxfi/geth/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Gatherer implements [prometheus.Gatherer] by walking a go-ethereum-style
// metrics.Registry and converting each entry to a metric family. Counter
// and Gauge become the obvious prometheus types; Timer becomes a summary
// of millisecond quantiles.
type Gatherer struct {
	registry metrics.Registry
}

var _ prometheus.Gatherer = (*Gatherer)(nil)

// NewGatherer returns a Gatherer reading from m's registry.
func NewGatherer(m *Metrics) *Gatherer {
	return &Gatherer{registry: m.Registry()}
}

func (g *Gatherer) Gather() ([]*dto.MetricFamily, error) {
	var names []string
	g.registry.Each(func(name string, _ any) {
		names = append(names, name)
	})
	sort.Strings(names)

	mfs := make([]*dto.MetricFamily, 0, len(names))
	for _, name := range names {
		mf, err := metricFamily(g.registry, name)
		switch {
		case errors.Is(err, errMetricSkip):
			continue
		case err != nil:
			return nil, err
		}
		mfs = append(mfs, mf)
	}
	return mfs, nil
}

var (
	errMetricSkip             = errors.New("metric skipped")
	errMetricTypeNotSupported = errors.New("metric type is not supported")
)

func ptrTo[T any](x T) *T { return &x }

func metricFamily(registry metrics.Registry, name string) (*dto.MetricFamily, error) {
	m := registry.Get(name)
	promName := strings.ReplaceAll(name, "/", "_")

	if m == nil {
		return nil, fmt.Errorf("%w: %q metric is nil", errMetricSkip, promName)
	}

	switch mv := m.(type) {
	case *metrics.Counter:
		return &dto.MetricFamily{
			Name: &promName,
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{{
				Counter: &dto.Counter{Value: ptrTo(float64(mv.Snapshot().Count()))},
			}},
		}, nil

	case *metrics.Gauge:
		return &dto.MetricFamily{
			Name: &promName,
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: ptrTo(float64(mv.Snapshot().Value()))},
			}},
		}, nil

	case *metrics.Timer:
		snapshot := mv.Snapshot()
		if snapshot.Count() == 0 {
			return nil, fmt.Errorf("%w: %q timer has no data", errMetricSkip, promName)
		}
		quantiles := []float64{.5, .75, .95, .99, .999, .9999}
		thresholds := snapshot.Percentiles(quantiles)
		dtoQuantiles := make([]*dto.Quantile, len(quantiles))
		for i, q := range quantiles {
			dtoQuantiles[i] = &dto.Quantile{
				Quantile: ptrTo(q),
				Value:    ptrTo(thresholds[i] / float64(time.Millisecond)),
			}
		}
		return &dto.MetricFamily{
			Name: &promName,
			Type: dto.MetricType_SUMMARY.Enum(),
			Metric: []*dto.Metric{{
				Summary: &dto.Summary{
					SampleCount: ptrTo(uint64(snapshot.Count())),
					SampleSum:   ptrTo(float64(snapshot.Sum())),
					Quantile:    dtoQuantiles,
				},
			}},
		}, nil

	default:
		return nil, fmt.Errorf("%w: metric %q type %T", errMetricTypeNotSupported, promName, m)
	}
}
