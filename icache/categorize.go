package icache

import (
	"github.com/otawa-go/wcetcore/absint"
	"github.com/otawa-go/wcetcore/cacheage"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/platform"
)

// AccessResult is the final §4.F step 3 verdict for one L-block access:
// its cache category, and (for FirstMiss) the loop header whose first
// entry the single guaranteed miss is charged to.
type AccessResult struct {
	Category cacheage.Category
	Header   cfgmodel.BlockID // valid only when Category == FirstMiss
}

// Categorize runs the Must/May/Persistence domains for cfg over every
// cache set its L-blocks touch, then classifies every L-block access
// per §4.F step 3: Always-Hit wins first, else Always-Miss, else
// FirstMiss at the innermost loop where persistence holds, else
// Not-Classified.
func Categorize(cfg *cfgmodel.CFG, li *domloop.LoopInfo, cache platform.Cache) (map[cfgmodel.BlockID]map[int]AccessResult, error) {
	lblocks := Partition(cfg, cache)

	bySet := make(map[uint64]map[cfgmodel.BlockID][]LBlock)
	for block, lbs := range lblocks {
		for _, lb := range lbs {
			set := lb.Set(cache)
			if bySet[set] == nil {
				bySet[set] = make(map[cfgmodel.BlockID][]LBlock)
			}
			bySet[set][block] = append(bySet[set][block], lb)
		}
	}

	results := make(map[cfgmodel.BlockID]map[int]AccessResult, len(lblocks))
	for block, lbs := range lblocks {
		results[block] = make(map[int]AccessResult, len(lbs))
	}

	for set, setLblocks := range bySet {
		d := newSetDomain(set, cache.Associativity(), setLblocks, li)
		res, err := absint.Run(cfg, li, d, absint.Options{Mode: absint.FirstIterationUnrolling})
		if err != nil {
			return nil, err
		}
		for block, lbs := range setLblocks {
			state := res.BlockIn[block]
			for _, lb := range lbs {
				// Classify against the state reaching this access, before
				// the access itself makes its line the youngest.
				results[block][lb.Position] = classify(d, li, block, lb.LineAddr, state)
				state = d.accessLine(state, block, lb.LineAddr)
			}
		}
	}

	return results, nil
}

func classify(d *setDomain, li *domloop.LoopInfo, block cfgmodel.BlockID, line uint64, state State) AccessResult {
	switch cacheage.ClassifyBasic(state.Must, state.May, line) {
	case cacheage.AlwaysHit:
		return AccessResult{Category: cacheage.AlwaysHit}
	case cacheage.AlwaysMiss:
		return AccessResult{Category: cacheage.AlwaysMiss}
	}

	for _, depth := range d.enclosingDepths(block) {
		if state.Pers.HoldsAt(depth, d.associativity, line) {
			return AccessResult{Category: cacheage.FirstMiss, Header: headerAtDepth(li, block, depth)}
		}
	}
	return AccessResult{Category: cacheage.NotClassified}
}

// headerAtDepth walks up block's enclosing-header chain to find the
// header whose own Depth equals depth.
func headerAtDepth(li *domloop.LoopInfo, block cfgmodel.BlockID, depth int) cfgmodel.BlockID {
	h, ok := li.Header[block]
	for ok {
		if li.Depth[h] == depth {
			return h
		}
		h, ok = li.Parent[h]
	}
	return h
}
