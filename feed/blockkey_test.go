// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feed

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestBaseID(t *testing.T) {
	require := require.New(t)

	require.Equal(uint64(0), baseID(0, 4))
	require.Equal(uint64(0), baseID(3, 4))
	require.Equal(uint64(4), baseID(4, 4))
	require.Equal(uint64(8), baseID(11, 4))
}

func TestBlockKeyValueEquality(t *testing.T) {
	require := require.New(t)

	a := BlockKey{PartitionID: 7, BaseID: 4}
	b := BlockKey{PartitionID: 7, BaseID: 4}
	c := BlockKey{PartitionID: 7, BaseID: 8}

	require.Equal(a, b)
	require.NotEqual(a, c)

	m := map[BlockKey]int{a: 1}
	v, ok := m[b]
	require.True(ok)
	require.Equal(1, v)
}

func TestDecodeTransactionID(t *testing.T) {
	require := require.New(t)

	id, err := DecodeTransactionID([]byte{0x01, 0x00})
	require.NoError(err)
	require.Equal(uint64(256), id)

	maxU64 := new(uint256.Int).SetUint64(math.MaxUint64)
	id, err = DecodeTransactionID(maxU64.Bytes())
	require.NoError(err)
	require.Equal(uint64(math.MaxUint64), id)

	overflow := new(uint256.Int).SetUint64(math.MaxUint64)
	overflow.AddUint64(overflow, 1)
	_, err = DecodeTransactionID(overflow.Bytes())
	require.ErrorIs(err, errTransactionIDOverflow)
}
