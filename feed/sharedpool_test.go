// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feed

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestPool(blockSize uint64, maxBlocksPerPartition, capacity int) *SharedPool {
	return NewSharedPool(SharedPoolConfig{
		BlockSize:             blockSize,
		MaxBlocksPerPartition: maxBlocksPerPartition,
		SharedPoolCapacity:    capacity,
	})
}

func TestSharedPoolCheckOutRecyclesBlocks(t *testing.T) {
	require := require.New(t)

	sp := newTestPool(4, 2, 1)
	b1, err := sp.checkOut(BlockKey{PartitionID: 1, BaseID: 0})
	require.NoError(err)

	_, err = sp.checkOut(BlockKey{PartitionID: 1, BaseID: 4})
	require.ErrorIs(err, errExhausted)

	sp.checkIn(b1)

	b2, err := sp.checkOut(BlockKey{PartitionID: 2, BaseID: 0})
	require.NoError(err)
	require.Same(b1, b2, "the only block in circulation should have been recycled")
}

func TestSharedPoolCloseRejectsFutureCheckouts(t *testing.T) {
	require := require.New(t)

	sp := newTestPool(4, 2, 0)
	sp.Close()

	_, err := sp.checkOut(BlockKey{PartitionID: 1, BaseID: 0})
	require.ErrorIs(err, ErrPoolClosed)

	_, err = sp.Open(1)
	require.ErrorIs(err, ErrPoolClosed)
}

func TestSharedPoolOpenDeduplicatesConcurrentFirstOpen(t *testing.T) {
	require := require.New(t)

	sp := newTestPool(4, 2, 0)
	const n = 16
	results := make(chan *PartitionCache, n)
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			pc, err := sp.Open(42)
			require.NoError(err)
			results <- pc
		}()
	}
	go func() {
		for i := 0; i < n; i++ {
			<-results
		}
		close(done)
	}()
	<-done

	v, ok := sp.partitions.Load(int32(42))
	require.True(ok)
	pc := v.(*PartitionCache)

	pc.mu.Lock()
	refCount := pc.refCount
	pc.mu.Unlock()
	require.Equal(n, refCount)
}

func TestSharedPoolOpenAfterTeardownAllocatesFreshInstance(t *testing.T) {
	require := require.New(t)

	sp := newTestPool(4, 2, 0)
	pc1, err := sp.Open(7)
	require.NoError(err)
	pc1.Add(0, RequestID{0x01}, 1)
	pc1.Close()

	// The old handle is detached: inactive forever, even if reopened by id.
	pc2, err := sp.Open(7)
	require.NoError(err)
	require.NotSame(pc1, pc2)

	pc1.Add(0, RequestID{0x02}, 2)
	_, ok := pc1.Get(0)
	require.False(ok, "detached instance stays inactive")

	pc2.Add(0, RequestID{0x03}, 3)
	rec, ok := pc2.Get(0)
	require.True(ok)
	require.Equal(int32(3), rec.Header)
	pc2.Close()
}

func TestSharedPoolRegisteredPartitions(t *testing.T) {
	require := require.New(t)
	defer goleak.VerifyNone(t)

	sp := newTestPool(4, 2, 0)
	pc1, err := sp.Open(1)
	require.NoError(err)
	_, err = sp.Open(2)
	require.NoError(err)

	ids := sp.registeredPartitions()
	require.True(ids.Contains(int32(1)))
	require.True(ids.Contains(int32(2)))
	require.Equal(2, ids.Cardinality())

	pc1.Close()
	ids = sp.registeredPartitions()
	require.False(ids.Contains(int32(1)))
}
