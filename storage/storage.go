// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage is a stand-in for the persistent storage engine the feed
// cache falls through to on a miss. The real engine is out of scope for
// this module; this package exists so tests and cmd/feedcachebench can
// exercise the "miss -> storage -> caller" path end-to-end without the feed
// package itself ever importing it.
package storage

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/luxfi/feedcache/feed"
)

// Store is a RAM-only stand-in for the durable record store, backed by a
// fastcache.Cache: a fixed-size, GC-pressure-free map of small values
// keyed by partitionID and transactionId.
type Store struct {
	partitionID int32
	cache       *fastcache.Cache

	gets, hits uint64
}

// New returns a Store for partitionID sized to hold roughly maxBytes of
// feed records.
func New(partitionID int32, maxBytes int) *Store {
	return &Store{
		partitionID: partitionID,
		cache:       fastcache.New(maxBytes),
	}
}

// Put records (tid, reqID, header) in memory. Real storage would append to
// a log segment; this stand-in simply indexes it for retrieval.
func (s *Store) Put(rec feed.Record) {
	s.cache.Set(s.key(rec.TransactionID), encodeRecord(rec))
}

// Get retrieves a previously Put record by transactionId.
func (s *Store) Get(tid uint64) (feed.Record, bool) {
	atomic.AddUint64(&s.gets, 1)
	v := s.cache.Get(nil, s.key(tid))
	if v == nil {
		return feed.Record{}, false
	}
	atomic.AddUint64(&s.hits, 1)
	return decodeRecord(v), true
}

// Stats reports cumulative get/hit counts since the Store was created.
func (s *Store) Stats() (gets, hits uint64) {
	return atomic.LoadUint64(&s.gets), atomic.LoadUint64(&s.hits)
}

func (s *Store) key(tid uint64) []byte {
	b := make([]byte, 12)
	binary.BigEndian.PutUint32(b, uint32(s.partitionID))
	binary.BigEndian.PutUint64(b[4:], tid)
	return b
}

func encodeRecord(rec feed.Record) []byte {
	b := make([]byte, 8+len(rec.ReqID)+4)
	binary.BigEndian.PutUint64(b, rec.TransactionID)
	copy(b[8:], rec.ReqID[:])
	binary.BigEndian.PutUint32(b[8+len(rec.ReqID):], uint32(rec.Header))
	return b
}

func decodeRecord(b []byte) feed.Record {
	var rec feed.Record
	rec.TransactionID = binary.BigEndian.Uint64(b)
	copy(rec.ReqID[:], b[8:8+len(rec.ReqID)])
	rec.Header = int32(binary.BigEndian.Uint32(b[8+len(rec.ReqID):]))
	return rec
}
