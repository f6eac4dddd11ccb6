// Package icache implements the instruction-cache Must/May/Persistence
// categorization of §4.F: L-block construction, then the three age
// domains run per cache set via the absint driver, sharing the driver's
// iteration by packing Must/May/Persistence into one product state.
package icache

import (
	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/platform"
)

// LBlock is the (block, cache line) pair identifying a maximal
// contiguous run of instructions belonging to one basic block that
// lies in a single cache line (§3).
type LBlock struct {
	Block    cfgmodel.BlockID
	LineAddr uint64 // line-aligned address
	Position int    // index within the block's ordered L-block sequence
	StartIdx int    // first instruction index (within the block) covered
	EndIdx   int    // one past the last instruction index covered
}

// Set returns the cache-set index this L-block's line maps to.
func (l LBlock) Set(c platform.Cache) uint64 {
	return (l.LineAddr / uint64(c.LineSize())) % uint64(c.SetCount())
}

// Partition splits every basic block of cfg into its ordered L-block
// sequence for the given instruction cache. Instructions are identified
// by their Address; the result is deterministic in block and
// instruction order.
func Partition(cfg *cfgmodel.CFG, c platform.Cache) map[cfgmodel.BlockID][]LBlock {
	out := make(map[cfgmodel.BlockID][]LBlock)
	lineSize := uint64(c.LineSize())
	for _, b := range cfg.Blocks() {
		if b.Kind != cfgmodel.BlockBasic || len(b.Instructions) == 0 {
			continue
		}
		var lblocks []LBlock
		start := 0
		curLine := lineAddr(b.Instructions[0].Address, lineSize)
		for i := 1; i <= len(b.Instructions); i++ {
			var thisLine uint64
			atEnd := i == len(b.Instructions)
			if !atEnd {
				thisLine = lineAddr(b.Instructions[i].Address, lineSize)
			}
			if atEnd || thisLine != curLine {
				lblocks = append(lblocks, LBlock{
					Block:    b.ID,
					LineAddr: curLine,
					Position: len(lblocks),
					StartIdx: start,
					EndIdx:   i,
				})
				if !atEnd {
					start = i
					curLine = thisLine
				}
			}
		}
		out[b.ID] = lblocks
	}
	return out
}

func lineAddr(a addr.Address, lineSize uint64) uint64 {
	return a.Flat() / lineSize * lineSize
}
