// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/feedcache/feed"
)

func TestStorePutGet(t *testing.T) {
	require := require.New(t)

	s := New(7, 64*1024)
	rec := feed.Record{TransactionID: 42, Header: 7}
	rec.ReqID[0] = 0xAB

	_, ok := s.Get(42)
	require.False(ok)

	s.Put(rec)
	got, ok := s.Get(42)
	require.True(ok)
	require.Equal(rec, got)

	gets, hits := s.Stats()
	require.Equal(uint64(2), gets)
	require.Equal(uint64(1), hits)
}

func TestStoreIsolatesPartitions(t *testing.T) {
	require := require.New(t)

	s1 := New(1, 64*1024)
	s2 := New(2, 64*1024)

	s1.Put(feed.Record{TransactionID: 1, Header: 1})
	_, ok := s2.Get(1)
	require.False(ok)
}
