package icache

import (
	"github.com/otawa-go/wcetcore/absint"
	"github.com/otawa-go/wcetcore/cacheage"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/domloop"
)

// State is the per-cache-set product lattice: Must, May, and
// Persistence share one absint.Run so the driver only iterates the CFG
// once per set instead of three times (§4.F step 2).
type State struct {
	Must  cacheage.ACS
	May   cacheage.ACS
	Pers  cacheage.Persistence
}

// setDomain implements absint.Domain[State] for one cache set: it only
// updates state for the L-blocks of the given set, passing every other
// block through unchanged.
type setDomain struct {
	set           uint64
	associativity int
	lblocks       map[cfgmodel.BlockID][]LBlock
	li            *domloop.LoopInfo
}

func newSetDomain(set uint64, associativity int, lblocks map[cfgmodel.BlockID][]LBlock, li *domloop.LoopInfo) *setDomain {
	return &setDomain{set: set, associativity: associativity, lblocks: lblocks, li: li}
}

func (d *setDomain) Bottom() State {
	return State{Must: cacheage.ACS{}, May: cacheage.ACS{}, Pers: cacheage.Persistence{}}
}

func (d *setDomain) Initial() State { return d.Bottom() }

func (d *setDomain) Join(a, b State) State {
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

func (d *setDomain) Equal(a, b State) bool {
	return cacheage.Equal(a.Must, b.Must) && cacheage.Equal(a.May, b.May) && cacheage.EqualPersistence(a.Pers, b.Pers)
}

func (d *setDomain) UpdateBlock(cfg *cfgmodel.CFG, block cfgmodel.BlockID, in State) State {
	lbs := d.lblocks[block]
	state := in
	for _, lb := range lbs {
		state = d.accessLine(state, block, lb.LineAddr)
	}
	return state
}

// enclosingDepths returns the nesting depth of every loop header that
// encloses block, innermost first, by walking from block's innermost
// header up the Parent chain recorded by domloop.Analyze.
func (d *setDomain) enclosingDepths(block cfgmodel.BlockID) []int {
	if d.li == nil {
		return nil
	}
	h, ok := d.li.Header[block]
	if !ok {
		return nil
	}
	var depths []int
	for {
		depths = append(depths, d.li.Depth[h])
		parent, hasParent := d.li.Parent[h]
		if !hasParent {
			break
		}
		h = parent
	}
	return depths
}

func (d *setDomain) accessLine(s State, block cfgmodel.BlockID, line uint64) State {
	newMust := cacheage.Access(s.Must, d.associativity, line)
	newMay := cacheage.Access(s.May, d.associativity, line)
	newAge, ok := newMust[line]
	if !ok {
		newAge = newMay[line]
	}

	pers := s.Pers
	for _, depth := range d.enclosingDepths(block) {
		if _, tracked := pers[depth]; !tracked {
			pers = pers.Enter(depth)
		}
	}
	newPers := pers.Access(d.associativity, line, newAge)
	return State{Must: newMust, May: newMay, Pers: newPers}
}

// EnterContext and LeaveContext are no-ops here: accessLine derives the
// enclosing loop depths directly from LoopInfo and lazily initializes
// Persistence tracking per depth, so no state needs to flow through the
// driver's loop-context hooks.
func (d *setDomain) EnterContext(header cfgmodel.BlockID) {}

func (d *setDomain) LeaveContext(header cfgmodel.BlockID) {}

var _ absint.Domain[State] = (*setDomain)(nil)
var _ absint.LoopContext[State] = (*setDomain)(nil)
