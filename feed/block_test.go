// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockDenseFill(t *testing.T) {
	require := require.New(t)

	b := newBlock(4)
	b.reset(BlockKey{PartitionID: 7, BaseID: 0})

	require.True(b.add(0, RequestID{0x01}, 1))
	require.True(b.add(1, RequestID{0x02}, 2))

	// Re-adding an id already present fails.
	require.False(b.add(1, RequestID{0x99}, 9))

	// Skipping ahead fails (not baseID+fillLevel).
	require.False(b.add(3, RequestID{0x03}, 3))

	require.True(b.add(2, RequestID{0x03}, 3))
	require.True(b.add(3, RequestID{0x04}, 4))

	// Block is now full; any further add, including the next contiguous
	// id, fails because it is out of range.
	require.False(b.add(4, RequestID{0x05}, 5))
}

func TestBlockGetOnlyFilledRange(t *testing.T) {
	require := require.New(t)

	b := newBlock(4)
	b.reset(BlockKey{PartitionID: 7, BaseID: 8})
	require.True(b.add(8, RequestID{0xAA}, 100))

	rec, ok := b.get(8)
	require.True(ok)
	require.Equal(uint64(8), rec.TransactionID)
	require.Equal(int32(100), rec.Header)

	_, ok = b.get(9)
	require.False(ok, "slot 9 not yet filled")

	_, ok = b.get(7)
	require.False(ok, "7 is below the block's base")
}

func TestBlockResetRebinds(t *testing.T) {
	require := require.New(t)

	b := newBlock(4)
	b.reset(BlockKey{PartitionID: 1, BaseID: 0})
	require.True(b.add(0, RequestID{}, 0))
	require.Equal(uint64(1), b.fillLevel)

	b.reset(BlockKey{PartitionID: 2, BaseID: 100})
	require.Equal(uint64(0), b.fillLevel)
	require.False(b.full())
	_, ok := b.get(0)
	require.False(ok, "stale data from the previous binding must not leak through")
}
