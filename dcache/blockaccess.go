// Package dcache implements the data-cache Must/May/Persistence
// categorization of §4.G: an address-analysis collaborator resolves
// each memory instruction to a block access, which is then run through
// the same age-domain machinery as icache, adjusted for range/any
// accesses and write-through/write-back store semantics.
package dcache

import (
	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/platform"
)

// AccessKind distinguishes the three shapes an address analysis can
// resolve a memory access to (§4.G step 1).
type AccessKind int

const (
	// Exact: the access touches exactly one cache block.
	Exact AccessKind = iota
	// Range: the access is known to fall within [FirstSet, LastSet].
	Range
	// Any: the address analysis could not bound the access at all.
	Any
)

// BlockAccess is the resolved form of one memory instruction's address,
// as reported by the address-analysis collaborator.
//
// A Range whose span exceeds the cache's associativity is treated as
// Any by Resolve: a range that wide can evict every way of every set it
// touches regardless of access order, so no useful Must/May information
// survives narrowing it further (§9 Open Question: data-cache range
// semantics).
type BlockAccess struct {
	Kind     AccessKind
	Line     uint64 // valid for Exact: the cache-line-aligned address
	FirstSet uint64 // valid for Range
	LastSet  uint64 // valid for Range (inclusive)
	IsStore  bool
}

// AddressAnalysis is the external collaborator (§6) that resolves a
// memory instruction's address to a BlockAccess.
type AddressAnalysis interface {
	Resolve(cfg *cfgmodel.CFG, block cfgmodel.BlockID, instrIdx int) (BlockAccess, bool)
}

// ExactAddress is a minimal AddressAnalysis backed by a fixed known
// address per instruction, used by the S1-S6 fixtures and by any
// frontend precise enough to resolve every access statically.
type ExactAddress struct {
	Addresses map[cfgmodel.BlockID]map[int]addr.Address
	Stores    map[cfgmodel.BlockID]map[int]bool
}

func (e ExactAddress) Resolve(cfg *cfgmodel.CFG, block cfgmodel.BlockID, instrIdx int) (BlockAccess, bool) {
	addrs, ok := e.Addresses[block]
	if !ok {
		return BlockAccess{}, false
	}
	a, ok := addrs[instrIdx]
	if !ok {
		return BlockAccess{}, false
	}
	return BlockAccess{Kind: Exact, Line: a.Flat(), IsStore: e.Stores[block][instrIdx]}, true
}

// Resolve narrows a raw BlockAccess against the cache shape, folding a
// too-wide range down to Any per the rule documented on BlockAccess.
func Resolve(raw BlockAccess, c platform.Cache) BlockAccess {
	if raw.Kind != Range {
		return raw
	}
	span := raw.LastSet - raw.FirstSet + 1
	if span > uint64(c.Associativity()) {
		return BlockAccess{Kind: Any, IsStore: raw.IsStore}
	}
	return raw
}
