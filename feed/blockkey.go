// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feed

import (
	"github.com/holiman/uint256"
)

// RequestID is the opaque 24-byte identifier carried alongside every feed
// record.
type RequestID [24]byte

// Record is the immutable feed-data triple the cache stores: the
// transaction's identifier, its request id, and a small header-flags word.
type Record struct {
	TransactionID uint64
	ReqID         RequestID
	Header        int32
}

// BlockKey identifies a block: the partition it belongs to and the base
// transactionId of the range it covers. Go structs with comparable fields
// are already value-comparable, so BlockKey needs no interning step to be
// usable as a map key — two keys with equal fields compare equal and hash
// identically.
type BlockKey struct {
	PartitionID int32
	BaseID      uint64
}

// baseID returns the BlockKey.BaseID for tid under a block size of n:
// tid - (tid mod n). n must be a positive power of two for the pool's
// typical configuration, but the arithmetic itself does not require it.
func baseID(tid uint64, n uint64) uint64 {
	return tid - (tid % n)
}

// keyFor returns the BlockKey covering tid on the given partition.
func keyFor(partitionID int32, tid uint64, n uint64) BlockKey {
	return BlockKey{PartitionID: partitionID, BaseID: baseID(tid, n)}
}

// DecodeTransactionID parses a transactionId off the wire, where the
// encoded width is not guaranteed to fit a native machine word (unlike the
// process-local uint64 counters the cache's hot path deals with directly).
// It reports an error if the decoded value overflows uint64, rather than
// silently truncating.
func DecodeTransactionID(b []byte) (uint64, error) {
	// SetBytes keeps only the last 32 bytes, so reject any non-zero byte
	// ahead of them here.
	if len(b) > 32 {
		for _, c := range b[:len(b)-32] {
			if c != 0 {
				return 0, errTransactionIDOverflow
			}
		}
	}
	v := new(uint256.Int).SetBytes(b)
	if !v.IsUint64() {
		return 0, errTransactionIDOverflow
	}
	return v.Uint64(), nil
}
