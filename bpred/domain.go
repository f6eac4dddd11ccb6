package bpred

import (
	"github.com/otawa-go/wcetcore/absint"
	"github.com/otawa-go/wcetcore/cacheage"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/inst"
	"github.com/otawa-go/wcetcore/platform"
)

// State is the per-BHT-row product lattice, structurally identical to
// icache's: a branch's history-table entry is "retained" across
// executions in exactly the same aliasing/eviction sense a cache line
// is, so the same Must/May/Persistence rules from cacheage apply,
// keyed by BHT row instead of cache line.
type State struct {
	Must cacheage.ACS
	May  cacheage.ACS
	Pers cacheage.Persistence
}

// rowDomain implements absint.Domain[State] for one BHT row.
type rowDomain struct {
	row           uint64
	associativity int
	branches      map[cfgmodel.BlockID]uint64 // block -> branch identity, for blocks whose terminator maps to this row
	li            *domloop.LoopInfo
}

func newRowDomain(row uint64, associativity int, branches map[cfgmodel.BlockID]uint64, li *domloop.LoopInfo) *rowDomain {
	return &rowDomain{row: row, associativity: associativity, branches: branches, li: li}
}

func (d *rowDomain) Bottom() State {
	return State{Must: cacheage.ACS{}, May: cacheage.ACS{}, Pers: cacheage.Persistence{}}
}

func (d *rowDomain) Initial() State { return d.Bottom() }

func (d *rowDomain) Join(a, b State) State {
	return State{
		Must: cacheage.JoinMust(a.Must, b.Must),
		May:  cacheage.JoinMay(a.May, b.May),
		Pers: joinPersistence(a.Pers, b.Pers),
	}
}

func joinPersistence(a, b cacheage.Persistence) cacheage.Persistence {
	out := make(cacheage.Persistence, len(a))
	for depth, acsA := range a {
		if acsB, ok := b[depth]; ok {
			out[depth] = joinFurthest(acsA, acsB)
		} else {
			out[depth] = acsA
		}
	}
	for depth, acsB := range b {
		if _, ok := out[depth]; !ok {
			out[depth] = acsB
		}
	}
	return out
}

func joinFurthest(a, b cacheage.ACS) cacheage.ACS {
	out := make(cacheage.ACS, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if cur, ok := out[k]; !ok || v > cur {
			out[k] = v
		}
	}
	return out
}

func (d *rowDomain) Equal(a, b State) bool {
	return cacheage.Equal(a.Must, b.Must) && cacheage.Equal(a.May, b.May) && cacheage.EqualPersistence(a.Pers, b.Pers)
}

func (d *rowDomain) UpdateBlock(cfg *cfgmodel.CFG, block cfgmodel.BlockID, in State) State {
	branch, ok := d.branches[block]
	if !ok {
		return in
	}
	return d.access(in, block, branch)
}

func (d *rowDomain) access(s State, block cfgmodel.BlockID, branch uint64) State {
	newMust := cacheage.Access(s.Must, d.associativity, branch)
	newMay := cacheage.Access(s.May, d.associativity, branch)
	newAge, ok := newMust[branch]
	if !ok {
		newAge = newMay[branch]
	}

	pers := s.Pers
	for _, depth := range enclosingDepths(d.li, block) {
		if _, tracked := pers[depth]; !tracked {
			pers = pers.Enter(depth)
		}
	}
	newPers := pers.Access(d.associativity, branch, newAge)
	return State{Must: newMust, May: newMay, Pers: newPers}
}

func enclosingDepths(li *domloop.LoopInfo, block cfgmodel.BlockID) []int {
	if li == nil {
		return nil
	}
	h, ok := li.Header[block]
	if !ok {
		return nil
	}
	var depths []int
	for {
		depths = append(depths, li.Depth[h])
		parent, hasParent := li.Parent[h]
		if !hasParent {
			break
		}
		h = parent
	}
	return depths
}

func (d *rowDomain) EnterContext(header cfgmodel.BlockID) {}
func (d *rowDomain) LeaveContext(header cfgmodel.BlockID) {}

var _ absint.Domain[State] = (*rowDomain)(nil)
var _ absint.LoopContext[State] = (*rowDomain)(nil)

// row computes the BHT row a branch at pc maps to, mirroring the
// teacher's bhtIndex (PC shifted to drop alignment bits, masked to the
// table size).
func row(addrFlat uint64, bht platform.BHT) uint64 {
	return (addrFlat >> 2) & uint64(bht.Rows()-1)
}

// conditionalBranches collects, per block ending in a conditional
// branch, the branch's identity (its address) and BHT row.
func conditionalBranches(cfg *cfgmodel.CFG, p inst.Provider, bht platform.BHT) (map[cfgmodel.BlockID]uint64, map[cfgmodel.BlockID]uint64) {
	identity := map[cfgmodel.BlockID]uint64{}
	rowOf := map[cfgmodel.BlockID]uint64{}
	for _, b := range cfg.Blocks() {
		if b.Kind != cfgmodel.BlockBasic || len(b.Instructions) == 0 {
			continue
		}
		last := b.Instructions[len(b.Instructions)-1]
		full, err := p.InstructionAt(last.Address)
		if err != nil || !full.Kind.Has(inst.KindBranch) || !full.Kind.Has(inst.KindConditional) {
			continue
		}
		flat := last.Address.Flat()
		identity[b.ID] = flat
		rowOf[b.ID] = row(flat, bht)
	}
	return identity, rowOf
}
