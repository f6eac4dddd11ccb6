package dcache

import (
	"github.com/otawa-go/wcetcore/absint"
	"github.com/otawa-go/wcetcore/cacheage"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/platform"
)

// setState is one cache set's Must/May/Persistence, identical in shape
// to icache.State but kept private here since dcache's State must
// cover every set at once (a range or any access spans more than one
// set in a single transfer step, so the sets cannot be analyzed
// independently the way icache's per-set domains are).
type setState struct {
	Must cacheage.ACS
	May  cacheage.ACS
	Pers cacheage.Persistence
}

// State is the abstract data-cache state: every set's setState, keyed
// by set index. Sets never touched stay absent (equivalent to bottom).
type State struct {
	Sets map[uint64]setState
}

type domain struct {
	cache    platform.Cache
	resolver AddressAnalysis
	li       *domloop.LoopInfo
	setCount uint64
}

func newDomain(cache platform.Cache, resolver AddressAnalysis, li *domloop.LoopInfo) *domain {
	return &domain{cache: cache, resolver: resolver, li: li, setCount: uint64(cache.SetCount())}
}

func (d *domain) Bottom() State  { return State{Sets: map[uint64]setState{}} }
func (d *domain) Initial() State { return d.Bottom() }

func (d *domain) setOf(s State, set uint64) setState {
	if ss, ok := s.Sets[set]; ok {
		return ss
	}
	return setState{Must: cacheage.ACS{}, May: cacheage.ACS{}, Pers: cacheage.Persistence{}}
}

func (d *domain) Join(a, b State) State {
	out := State{Sets: make(map[uint64]setState, len(a.Sets)+len(b.Sets))}
	for set := range a.Sets {
		out.Sets[set] = setState{}
	}
	for set := range b.Sets {
		out.Sets[set] = setState{}
	}
	for set := range out.Sets {
		sa, sb := d.setOf(a, set), d.setOf(b, set)
		out.Sets[set] = setState{
			Must: cacheage.JoinMust(sa.Must, sb.Must),
			May:  cacheage.JoinMay(sa.May, sb.May),
			Pers: joinPersistence(sa.Pers, sb.Pers),
		}
	}
	return out
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

func (d *domain) Equal(a, b State) bool {
	sets := map[uint64]bool{}
	for s := range a.Sets {
		sets[s] = true
	}
	for s := range b.Sets {
		sets[s] = true
	}
	for s := range sets {
		sa, sb := d.setOf(a, s), d.setOf(b, s)
		if !cacheage.Equal(sa.Must, sb.Must) || !cacheage.Equal(sa.May, sb.May) || !cacheage.EqualPersistence(sa.Pers, sb.Pers) {
			return false
		}
	}
	return true
}

func (d *domain) UpdateBlock(cfg *cfgmodel.CFG, block cfgmodel.BlockID, in State) State {
	b := cfg.Block(block)
	state := in
	for idx := range b.Instructions {
		raw, ok := d.resolver.Resolve(cfg, block, idx)
		if !ok {
			continue
		}
		access := Resolve(raw, d.cache)
		if access.IsStore && d.cache.Write == platform.WriteThrough {
			continue // write-through stores never bring data into cache
		}
		state = d.apply(state, block, access)
	}
	return state
}

func (d *domain) apply(s State, block cfgmodel.BlockID, a BlockAccess) State {
	switch a.Kind {
	case Exact:
		return d.accessSet(s, block, a.Line%d.setCount, a.Line)
	case Range:
		key := rangeKey(a.FirstSet, a.LastSet)
		out := s
		for set := a.FirstSet; set <= a.LastSet; set++ {
			out = d.accessSet(out, block, set, key)
		}
		return out
	default: // Any
		return d.invalidateAll(s)
	}
}

func rangeKey(first, last uint64) uint64 {
	return (first << 32) ^ last ^ 0x5bd1e995
}

func (d *domain) accessSet(s State, block cfgmodel.BlockID, set uint64, line uint64) State {
	ss := d.setOf(s, set)
	newMust := cacheage.Access(ss.Must, d.cache.Associativity(), line)
	newMay := cacheage.Access(ss.May, d.cache.Associativity(), line)
	newAge, ok := newMust[line]
	if !ok {
		newAge = newMay[line]
	}

	pers := ss.Pers
	for _, depth := range enclosingDepths(d.li, block) {
		if _, tracked := pers[depth]; !tracked {
			pers = pers.Enter(depth)
		}
	}
	newPers := pers.Access(d.cache.Associativity(), line, newAge)

	out := State{Sets: make(map[uint64]setState, len(s.Sets)+1)}
	for k, v := range s.Sets {
		out.Sets[k] = v
	}
	out.Sets[set] = setState{Must: newMust, May: newMay, Pers: newPers}
	return out
}

// invalidateAll implements the §4.G "any access" rule: every tracked
// block in every set ages straight to the associativity boundary,
// i.e. is evicted from Must and May alike, and its persistence
// guarantee (if any) is broken for every enclosing depth.
func (d *domain) invalidateAll(s State) State {
	out := State{Sets: make(map[uint64]setState, len(s.Sets))}
	for set, ss := range s.Sets {
		pers := make(cacheage.Persistence, len(ss.Pers))
		for depth, acs := range ss.Pers {
			broken := make(cacheage.ACS, len(acs))
			for k := range acs {
				broken[k] = d.cache.Associativity()
			}
			pers[depth] = broken
		}
		out.Sets[set] = setState{Must: cacheage.ACS{}, May: cacheage.ACS{}, Pers: pers}
	}
	return out
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

func (d *domain) EnterContext(header cfgmodel.BlockID) {}
func (d *domain) LeaveContext(header cfgmodel.BlockID) {}

var _ absint.Domain[State] = (*domain)(nil)
var _ absint.LoopContext[State] = (*domain)(nil)
