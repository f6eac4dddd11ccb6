// Package cfgmodel is the owned, arena-indexed control-flow graph data
// model (§3): CFGs, blocks, and edges referenced by small integer ids
// rather than pointers, so that the caller/callee cycle between a
// synthetic call block and its callee CFG (and back again through the
// callee's caller list) needs no cyclic ownership (§9 design notes).
package cfgmodel

import "github.com/otawa-go/wcetcore/addr"

// BlockID indexes a block within its owning CFG.
type BlockID int

// CFGID indexes a CFG within a Collection.
type CFGID int

// NoCFG is the sentinel id (-1) meaning "no callee" for a call block that
// could not be resolved to a known callee.
const NoCFG CFGID = -1

// BlockKind distinguishes the three shapes of block listed in §3.
type BlockKind uint8

const (
	BlockBasic BlockKind = iota
	BlockCall
	BlockEntry
	BlockExit
	BlockUnknown
)

// Block is one node of a CFG. Exactly one field group below is
// meaningful depending on Kind.
type Block struct {
	ID   BlockID
	Kind BlockKind

	// Basic block fields.
	Instructions []Instruction

	// Call block fields.
	Callee CFGID // NoCFG if unresolved

	// OriginalCFG/OriginalID, when HasOriginal is set (by Virtualize or
	// UnrollFirstIteration), point back to the block in
	// the pre-virtualization CFG this one was duplicated from, so
	// analysis results computed before virtualization can still be
	// looked up for the duplicate.
	OriginalCFG CFGID
	OriginalID  BlockID
	HasOriginal bool
}

// Instruction is the minimal per-instruction data the CFG model keeps
// inline on a basic block: its address and size, enough to look the
// full inst.Instruction back up from a Provider, plus the fields the
// CFG builder needs without re-decoding (kind, target).
type Instruction struct {
	Address     addr.Address
	Size        uint32
	IsBranch    bool
	IsCall      bool
	IsReturn    bool
	Target      addr.Address
	TargetKnown bool
}

// Address returns the entry address of a basic block, or the null
// address for non-basic blocks.
func (b *Block) Address() addr.Address {
	if len(b.Instructions) == 0 {
		return addr.Null
	}
	return b.Instructions[0].Address
}

// EndAddress returns the address one past the last instruction of a
// basic block.
func (b *Block) EndAddress() addr.Address {
	if len(b.Instructions) == 0 {
		return addr.Null
	}
	last := b.Instructions[len(b.Instructions)-1]
	end, _ := last.Address.Add(uint64(last.Size))
	return end
}
