// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feed

// Block is a fixed-capacity, contiguous container for feed-data records
// covering the transactionId range [key.BaseID, key.BaseID+N). Blocks are
// owned by a SharedPool and reused across partitions and BlockKeys over
// their lifetime; a Block only ever belongs to one partition's local pool
// at a time.
//
// Slots fill strictly in ascending order from offset 0: there are no holes
// below fillLevel. This mirrors the log's own commit order, so any attempt
// to add a non-contiguous transactionId is refused rather than silently
// creating a gap.
type Block struct {
	key       BlockKey
	n         uint64
	records   []Record
	fillLevel uint64
}

// newBlock allocates a Block of capacity n, initially unbound to any key.
func newBlock(n uint64) *Block {
	return &Block{
		n:       n,
		records: make([]Record, n),
	}
}

// add stores (tid, reqID, header) if tid is exactly the block's next
// expected slot (key.BaseID + fillLevel) and within range. It returns false
// without mutating anything otherwise — including when tid is already
// present, since Block treats writes as append-only within its range.
func (b *Block) add(tid uint64, reqID RequestID, header int32) bool {
	if tid < b.key.BaseID || tid >= b.key.BaseID+b.n {
		return false
	}
	if tid != b.key.BaseID+b.fillLevel {
		return false
	}
	b.records[b.fillLevel] = Record{TransactionID: tid, ReqID: reqID, Header: header}
	b.fillLevel++
	return true
}

// get returns the record for tid and true if tid falls within the filled
// portion of the block, or the zero Record and false otherwise. get never
// mutates block state.
func (b *Block) get(tid uint64) (Record, bool) {
	if tid < b.key.BaseID || tid >= b.key.BaseID+b.fillLevel {
		return Record{}, false
	}
	return b.records[tid-b.key.BaseID], true
}

// full reports whether the block has no remaining capacity.
func (b *Block) full() bool {
	return b.fillLevel >= b.n
}

// reset clears fillLevel and rebinds the block to key, making it ready for
// reuse by the shared pool. Pool-internal: called on check-in, before the
// block is handed out again.
func (b *Block) reset(key BlockKey) {
	b.key = key
	b.fillLevel = 0
}
