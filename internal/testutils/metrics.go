// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testutils

import (
	"sync"
	"testing"

	"github.com/luxfi/geth/metrics"
)

var metricsLock sync.Mutex

// WithMetrics enables go-ethereum-style metrics globally for the test, so
// that registered counters and gauges actually record instead of resolving
// to their nil implementations. The lock is held until the test finishes:
// enablement is process-global and cannot be reverted, so tests that assert
// on metric values must not interleave.
func WithMetrics(t *testing.T) {
	metricsLock.Lock()
	t.Cleanup(func() {
		metricsLock.Unlock()
	})
	if metrics.Enabled() {
		return
	}
	metrics.Enable()
}
