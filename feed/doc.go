// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package feed implements the per-partition feed cache that sits in front of
// a transaction log's persistent storage: a shared block pool plus a
// per-partition working set (PartitionCache) that pins recently touched
// blocks, tracks a write frontier, and returns blocks to the pool on
// eviction or teardown.
package feed
