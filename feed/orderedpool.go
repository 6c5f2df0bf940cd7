// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feed

import "container/list"

// orderedBlockPool is an insertion-ordered BlockKey -> *Block map with O(1)
// lookup and O(1) ordered eviction. It is the local pool's backing
// structure.
//
// A recency-reordering LRU map is the wrong structure here: the frontier,
// not read recency, decides what stays resident, and moving an entry on
// lookup would defeat the sequential-write fast path. orderedBlockPool
// therefore never reorders on lookup, and its only eviction primitive is
// "oldest entry that is not the given skip key" rather than "least
// recently used."
type orderedBlockPool struct {
	order *list.List               // insertion order, oldest at Front
	elems map[BlockKey]*list.Element
}

type poolEntry struct {
	key   BlockKey
	block *Block
}

func newOrderedBlockPool() *orderedBlockPool {
	return &orderedBlockPool{
		order: list.New(),
		elems: make(map[BlockKey]*list.Element),
	}
}

func (p *orderedBlockPool) get(key BlockKey) (*Block, bool) {
	el, ok := p.elems[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*poolEntry).block, true
}

// put installs block under key at the back of insertion order. Callers must
// ensure key is not already present.
func (p *orderedBlockPool) put(key BlockKey, block *Block) {
	el := p.order.PushBack(&poolEntry{key: key, block: block})
	p.elems[key] = el
}

// remove drops key from the pool, returning its block.
func (p *orderedBlockPool) remove(key BlockKey) (*Block, bool) {
	el, ok := p.elems[key]
	if !ok {
		return nil, false
	}
	p.order.Remove(el)
	delete(p.elems, key)
	return el.Value.(*poolEntry).block, true
}

func (p *orderedBlockPool) len() int {
	return p.order.Len()
}

// oldestExcept returns the key and block of the oldest entry other than
// skip, or ok=false if the pool is empty or its only entry is skip itself.
// hasSkip distinguishes "no frontier pinned" from a frontier that happens
// to equal the zero BlockKey.
func (p *orderedBlockPool) oldestExcept(skip BlockKey, hasSkip bool) (BlockKey, *Block, bool) {
	for el := p.order.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*poolEntry)
		if hasSkip && entry.key == skip {
			continue
		}
		return entry.key, entry.block, true
	}
	return BlockKey{}, nil, false
}

// each calls fn for every entry in insertion order.
func (p *orderedBlockPool) each(fn func(key BlockKey, block *Block)) {
	for el := p.order.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*poolEntry)
		fn(entry.key, entry.block)
	}
}
