// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feed

import "errors"

var (
	// ErrPoolClosed is returned by SharedPool.Open once the pool has been
	// shut down, and internally by checkOut. PartitionCache never surfaces
	// it through Add/Get: an Add or Get that needs a block the partition
	// does not already hold drops the record or returns absent. Blocks
	// already resident keep serving Get and accepting Add into their range
	// until the partition is torn down.
	ErrPoolClosed = errors.New("feed: shared pool closed")

	// errExhausted is returned internally by the shared pool when it is at
	// its global block cap. PartitionCache treats it exactly like a miss:
	// the caller falls through to storage.
	errExhausted = errors.New("feed: shared pool exhausted")

	errTransactionIDOverflow = errors.New("feed: transactionId overflows uint64")
)
