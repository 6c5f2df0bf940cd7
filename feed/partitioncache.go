// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feed

import (
	"sync"

	"github.com/luxfi/feedcache/log"
)

// PartitionCache is a single partition's working set of Blocks: an
// insertion-ordered local pool, a frontier pointer for the sequential-write
// fast path, and a reference count gating teardown. Every exported method
// is serialized under a single mutex covering the whole method body;
// correctness of the joint frontier/localPool/refCount state depends on
// that atomicity. The only thing PartitionCache calls out to while holding
// its lock is its SharedPool, which is a lock leaf and must never call back
// into a PartitionCache.
type PartitionCache struct {
	partitionID int32
	sharedPool  *SharedPool
	n           uint64 // block size, records per block

	log log.Logger

	mu          sync.Mutex
	refCount    int
	maxBlocks   int
	localPool   *orderedBlockPool
	frontier    *Block
	frontierKey BlockKey
	detached    bool
}

func newPartitionCache(partitionID int32, sp *SharedPool, n uint64, maxBlocks int, logger log.Logger) *PartitionCache {
	return &PartitionCache{
		partitionID: partitionID,
		sharedPool:  sp,
		n:           n,
		maxBlocks:   maxBlocks,
		localPool:   newOrderedBlockPool(),
		log:         logger,
	}
}

// PartitionID returns the partition this cache serves.
func (pc *PartitionCache) PartitionID() int32 {
	return pc.partitionID
}

// open increments refCount, refusing if the instance has already been torn
// down. It is invoked by SharedPool.Open, which folds factory
// lookup-or-create together with the subscriber's session-open into one
// call: there is no separately exported Open on PartitionCache itself,
// since a caller can only ever obtain an instance through the factory. The
// detached check closes the race where Open loads an instance from the
// registry just as its last subscriber's Close tears it down — the factory
// sees open fail and allocates a fresh instance instead.
func (pc *PartitionCache) open() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.detached {
		return false
	}
	pc.refCount++
	return true
}

// Close decrements refCount. If the result is <= 0 (over-close is
// tolerated), every held block is checked in and the partition is
// deregistered from the shared pool; a later lookup of the same
// partitionID allocates a fresh instance.
func (pc *PartitionCache) Close() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.refCount--
	if pc.refCount > 0 {
		return
	}
	pc.clearLocked()
	pc.detached = true
	pc.sharedPool.removePartition(pc.partitionID, pc)
}

// Clear checks in every block currently held, empties the local pool, and
// drops the frontier. It does not touch refCount.
func (pc *PartitionCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.clearLocked()
}

func (pc *PartitionCache) clearLocked() {
	if pc.localPool.len() == 0 {
		pc.frontier = nil
		pc.frontierKey = BlockKey{}
		return
	}
	blocks := make([]*Block, 0, pc.localPool.len())
	pc.localPool.each(func(_ BlockKey, block *Block) {
		blocks = append(blocks, block)
	})
	pc.sharedPool.checkInAll(blocks)
	pc.localPool = newOrderedBlockPool()
	pc.frontier = nil
	pc.frontierKey = BlockKey{}
}

// SetMaxBlocks sets the per-partition capacity and evicts down to n
// (not n-1: unlike the add path's transient overshoot, there is no
// installation immediately following this call to absorb one extra slot).
// Capacity is a property of the instance: it may be changed while
// refCount == 0, and takes effect the next time blocks are installed.
func (pc *PartitionCache) SetMaxBlocks(n int) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.maxBlocks = n
	pc.evictLocked(n)
	pc.log.Info("partition capacity changed", "partition", pc.partitionID, "maxBlocks", n)
}

// MaxBlocks returns the current per-partition capacity.
func (pc *PartitionCache) MaxBlocks() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.maxBlocks
}

// NumBlocks returns the number of blocks currently resident in the local
// pool.
func (pc *PartitionCache) NumBlocks() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.localPool.len()
}

// Add appends (tid, reqID, header) to the partition's feed. It is a no-op
// if the partition is inactive (refCount == 0). If the record needs a block
// that is not resident and the shared pool is closed or exhausted, the
// record is silently dropped, since the cache is a hint, not a source of
// truth; a record that fits a resident block is still stored after the
// shared pool is closed.
func (pc *PartitionCache) Add(tid uint64, reqID RequestID, header int32) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.refCount <= 0 {
		return
	}
	pc.addLocked(tid, reqID, header)
}

// AddAll bulk-appends records, assumed to already be in ascending
// transactionId order within each block's range. Each record runs through
// the same frontier-first fast path as Add, so consecutive records that
// land in the same block never re-resolve the BlockKey.
func (pc *PartitionCache) AddAll(records []Record) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.refCount <= 0 {
		return
	}
	for _, r := range records {
		pc.addLocked(r.TransactionID, r.ReqID, r.Header)
	}
}

// addLocked runs the add algorithm. It tries the current frontier first;
// on failure it retargets the frontier to the block covering tid (checking
// it out of the shared pool if not already resident) and tries once more.
// A second failure is a permanent rejection for this call (the id is
// already present, or the caller skipped ids) and the loop ends silently.
func (pc *PartitionCache) addLocked(tid uint64, reqID RequestID, header int32) {
	for i := 0; i < 2; i++ {
		if pc.frontier != nil && pc.frontier.add(tid, reqID, header) {
			return
		}

		key := keyFor(pc.partitionID, tid, pc.n)
		if pc.frontier != nil && pc.frontierKey == key {
			// The frontier already targets the right block and still
			// refused the record: it is a duplicate or out-of-order id.
			return
		}

		block, ok := pc.localPool.get(key)
		if !ok {
			var err error
			block, err = pc.checkoutAndInstallLocked(key)
			if err != nil {
				// Pool closed or exhausted: the cache is being torn down
				// or has no room; drop the record silently.
				return
			}
		}
		pc.frontier = block
		pc.frontierKey = key
	}
}

// Get returns the record for tid, or (zero, false) if the partition is
// inactive, the id's block is not resident and the pool is closed or
// exhausted, or the id was never recorded. Resident blocks keep serving
// after the shared pool is closed.
// Get never updates the frontier: it tracks the most recent write target,
// not read recency.
func (pc *PartitionCache) Get(tid uint64) (Record, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.refCount <= 0 {
		return Record{}, false
	}

	if pc.frontier != nil {
		if rec, ok := pc.frontier.get(tid); ok {
			return rec, true
		}
	}

	key := keyFor(pc.partitionID, tid, pc.n)
	block, ok := pc.localPool.get(key)
	if !ok {
		var err error
		block, err = pc.checkoutAndInstallLocked(key)
		if err != nil {
			return Record{}, false
		}
	}

	rec, ok := block.get(tid)
	if !ok {
		pc.sharedPool.markCacheMiss()
		return Record{}, false
	}
	return rec, true
}

// checkoutAndInstallLocked evicts down to maxBlocks-1, checks a block out
// of the shared pool under key, and installs it in the local pool. The
// eviction happens before the checkout so the one-slot overshoot window
// installation opens is always closed by the very next line.
func (pc *PartitionCache) checkoutAndInstallLocked(key BlockKey) (*Block, error) {
	pc.evictLocked(pc.maxBlocks - 1)

	block, err := pc.sharedPool.checkOut(key)
	if err != nil {
		return nil, err
	}
	pc.localPool.put(key, block)
	pc.log.Debug("block checked out", "partition", pc.partitionID, "base", key.BaseID)
	return block, nil
}

// evictLocked checks in blocks in insertion order, skipping the frontier,
// until the local pool's size is at most target.
func (pc *PartitionCache) evictLocked(target int) {
	if target < 0 {
		target = 0
	}
	hasFrontier := pc.frontier != nil
	for pc.localPool.len() > target {
		key, block, ok := pc.localPool.oldestExcept(pc.frontierKey, hasFrontier)
		if !ok {
			return
		}
		pc.localPool.remove(key)
		pc.sharedPool.checkIn(block)
		pc.log.Debug("block evicted", "partition", pc.partitionID, "base", key.BaseID)
	}
}
