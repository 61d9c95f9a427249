package domain

import "github.com/ethereum/go-ethereum/common"

// Sentinel is the reserved marker address that serves as both the head
// pointer and the terminator of every relation list. It is never a valid
// principal address.
var Sentinel = common.HexToAddress("0x0000000000000000000000000000000000000001")

// RelationIndex maintains, per owner address, an ordered set of counterpart
// addresses as a sentinel-terminated singly linked list of next-pointers:
// next[owner][Sentinel] is the head, and the chain ends when it reaches
// Sentinel again. An owner with no entry, or whose sentinel points at
// itself, is treated identically as empty.
//
// Insertion is O(1) at the head; removal is O(n) by traversal. The
// asymmetry is deliberate: inserts happen once per escrow, removals once
// per escrow lifetime, and lists stay short in practice.
type RelationIndex struct {
	next map[common.Address]map[common.Address]common.Address
}

// NewRelationIndex creates an empty index.
func NewRelationIndex() *RelationIndex {
	return &RelationIndex{next: make(map[common.Address]map[common.Address]common.Address)}
}

// Insert links value as the new head of owner's list.
// The caller must ensure value is not already linked to owner.
func (ix *RelationIndex) Insert(owner, value common.Address) {
	links, ok := ix.next[owner]
	if !ok {
		links = map[common.Address]common.Address{Sentinel: Sentinel}
		ix.next[owner] = links
	}
	links[value] = links[Sentinel]
	links[Sentinel] = value
}

// Remove unlinks value from owner's list by splicing the predecessor to
// value's successor and clearing value's own link. Removing an absent value
// is a no-op, which keeps cascading cleanup simple.
func (ix *RelationIndex) Remove(owner, value common.Address) {
	links, ok := ix.next[owner]
	if !ok {
		return
	}
	prev := Sentinel
	for cur := links[Sentinel]; cur != Sentinel && cur != (common.Address{}); cur = links[cur] {
		if cur == value {
			links[prev] = links[cur]
			delete(links, cur)
			return
		}
		prev = cur
	}
}

// Contains reports whether value is currently linked to owner.
func (ix *RelationIndex) Contains(owner, value common.Address) bool {
	links, ok := ix.next[owner]
	if !ok {
		return false
	}
	_, linked := links[value]
	return linked && value != Sentinel
}

// Enumerate returns all values linked to owner in most-recently-inserted
// first order. The result is a fresh slice; callers may mutate the index
// while iterating over it.
func (ix *RelationIndex) Enumerate(owner common.Address) []common.Address {
	links, ok := ix.next[owner]
	if !ok {
		return nil
	}
	var out []common.Address
	for cur := links[Sentinel]; cur != Sentinel && cur != (common.Address{}); cur = links[cur] {
		out = append(out, cur)
	}
	return out
}
