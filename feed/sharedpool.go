// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feed

import (
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/luxfi/feedcache/feedmetrics"
	"github.com/luxfi/feedcache/log"
)

// SharedPool is the process-wide allocator and reservoir of Blocks. The
// methods a PartitionCache calls while holding its own lock (checkOut,
// checkIn, checkInAll, removePartition, markCacheMiss) return without
// calling back into any PartitionCache. Open is the exception: it calls a
// PartitionCache's open, and so takes that instance's lock, while holding
// partMu. No PartitionCache method takes partMu.
type SharedPool struct {
	blockSize    uint64
	maxBlocks    int // default per-partition capacity handed to new PartitionCaches
	capacity     int // global cap on blocks in circulation, 0 means unbounded

	log     log.Logger
	metrics *feedmetrics.Metrics

	mu        sync.Mutex
	free      []*Block // recycled, drained blocks ready for reuse
	allocated int      // total blocks ever allocated (recycled + outstanding)
	closed    bool

	partMu     sync.Mutex
	partitions sync.Map // int32 -> *PartitionCache
}

// SharedPoolConfig mirrors the pool-wide configuration named in the
// external interfaces: blockSize, maxBlocksPerPartition, sharedPoolCapacity.
type SharedPoolConfig struct {
	BlockSize             uint64
	MaxBlocksPerPartition int
	SharedPoolCapacity    int // 0 means unbounded

	Log     log.Logger
	Metrics *feedmetrics.Metrics
}

// NewSharedPool constructs a SharedPool. If cfg.Log or cfg.Metrics are nil,
// a root logger and a fresh unregistered metrics set are used.
func NewSharedPool(cfg SharedPoolConfig) *SharedPool {
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}
	m := cfg.Metrics
	if m == nil {
		m = feedmetrics.New()
	}
	return &SharedPool{
		blockSize: cfg.BlockSize,
		maxBlocks: cfg.MaxBlocksPerPartition,
		capacity:  cfg.SharedPoolCapacity,
		log:       logger,
		metrics:   m,
	}
}

// Open looks up the PartitionCache for partitionID, creating one if this is
// the first caller to ever reference it. Concurrent first-time Opens for
// the same partitionID race through a double-checked lock so only one
// instance is ever created. An instance found mid-teardown (its last
// subscriber's Close ran between our load and our open) is replaced with a
// fresh one rather than resurrected, so a caller can never observe a
// detached PartitionCache. Returns ErrPoolClosed once the pool has been
// shut down.
func (sp *SharedPool) Open(partitionID int32) (*PartitionCache, error) {
	sp.mu.Lock()
	closed := sp.closed
	sp.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	if v, ok := sp.partitions.Load(partitionID); ok {
		if pc := v.(*PartitionCache); pc.open() {
			return pc, nil
		}
	}

	sp.partMu.Lock()
	defer sp.partMu.Unlock()

	if v, ok := sp.partitions.Load(partitionID); ok {
		if pc := v.(*PartitionCache); pc.open() {
			return pc, nil
		}
	}

	pc := newPartitionCache(partitionID, sp, sp.blockSize, sp.maxBlocks, sp.log)
	pc.open()
	sp.partitions.Store(partitionID, pc)
	sp.log.Info("partition cache created", "partition", partitionID)
	return pc, nil
}

// checkOut returns a block bound to key: a recycled block if one is free, a
// freshly allocated block if the pool has capacity headroom, errExhausted
// if the pool is at capacity, or ErrPoolClosed if the pool has been shut
// down.
func (sp *SharedPool) checkOut(key BlockKey) (*Block, error) {
	start := time.Now()

	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.closed {
		return nil, ErrPoolClosed
	}

	var b *Block
	if n := len(sp.free); n > 0 {
		b = sp.free[n-1]
		sp.free = sp.free[:n-1]
	} else {
		if sp.capacity > 0 && sp.allocated >= sp.capacity {
			sp.metrics.ExhaustedTotal.Inc(1)
			sp.log.Warn("shared pool exhausted", "capacity", sp.capacity)
			return nil, errExhausted
		}
		b = newBlock(sp.blockSize)
		sp.allocated++
	}
	b.reset(key)
	sp.metrics.BlocksInUse.Inc(1)
	sp.metrics.CheckoutLatency.UpdateSince(start)
	return b, nil
}

// checkIn resets block and returns it to the free list. Blocks checked in
// after Close are dropped rather than pooled.
func (sp *SharedPool) checkIn(block *Block) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	block.reset(BlockKey{})
	sp.metrics.BlocksInUse.Dec(1)
	if sp.closed {
		return
	}
	sp.free = append(sp.free, block)
}

// checkInAll bulk-checks-in every block, used on partition teardown.
func (sp *SharedPool) checkInAll(blocks []*Block) {
	if len(blocks) == 0 {
		return
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.metrics.BlocksInUse.Dec(int64(len(blocks)))
	if sp.closed {
		return
	}
	for _, block := range blocks {
		block.reset(BlockKey{})
		sp.free = append(sp.free, block)
	}
}

// removePartition deregisters a PartitionCache whose refCount has hit zero.
// The compare-and-delete guards against deleting a successor: Open may have
// already replaced a mid-teardown instance under the same partitionID.
func (sp *SharedPool) removePartition(partitionID int32, pc *PartitionCache) {
	sp.partitions.CompareAndDelete(partitionID, pc)
	sp.log.Debug("partition cache deregistered", "partition", partitionID)
}

// markCacheMiss increments the pool-wide miss counter.
func (sp *SharedPool) markCacheMiss() {
	sp.metrics.CacheMissTotal.Inc(1)
}

// Close shuts the pool down permanently. Blocks already checked out stay
// with their partitions and keep serving; all future checkOut calls fail
// with ErrPoolClosed, so a PartitionCache drops any Add and answers absent
// to any Get that needs a block it does not already hold.
func (sp *SharedPool) Close() {
	sp.mu.Lock()
	sp.closed = true
	sp.free = nil
	sp.mu.Unlock()
	sp.log.Info("shared pool closed")
}

// registeredPartitions returns a snapshot of every currently-registered
// partitionID. It exists purely for debug/metrics introspection; the
// PartitionCache type never consults it.
func (sp *SharedPool) registeredPartitions() mapset.Set[int32] {
	ids := mapset.NewSet[int32]()
	sp.partitions.Range(func(k, _ any) bool {
		ids.Add(k.(int32))
		return true
	})
	return ids
}
