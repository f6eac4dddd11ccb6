package dcache

import (
	"github.com/otawa-go/wcetcore/absint"
	"github.com/otawa-go/wcetcore/cacheage"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/platform"
)

// AccessResult is the §4.G step 2-3 verdict for one memory instruction:
// its cache category, and (for FirstMiss) the loop header the single
// guaranteed miss is charged to.
type AccessResult struct {
	Category cacheage.Category
	Header   cfgmodel.BlockID
}

// Categorize runs the combined Must/May/Persistence domain over every
// data-cache access in cfg and classifies each per §4.G step 2-3.
func Categorize(cfg *cfgmodel.CFG, li *domloop.LoopInfo, cache platform.Cache, resolver AddressAnalysis) (map[cfgmodel.BlockID]map[int]AccessResult, error) {
	d := newDomain(cache, resolver, li)
	res, err := absint.Run(cfg, li, d, absint.Options{Mode: absint.FirstIterationUnrolling})
	if err != nil {
		return nil, err
	}

	results := make(map[cfgmodel.BlockID]map[int]AccessResult)
	for _, b := range cfg.Blocks() {
		if b.Kind != cfgmodel.BlockBasic || len(b.Instructions) == 0 {
			continue
		}
		state := res.BlockIn[b.ID]
		perBlock := make(map[int]AccessResult, len(b.Instructions))
		for idx := range b.Instructions {
			raw, ok := resolver.Resolve(cfg, b.ID, idx)
			if !ok {
				continue
			}
			access := Resolve(raw, cache)
			if access.IsStore && cache.Write == platform.WriteThrough {
				perBlock[idx] = AccessResult{Category: cacheage.NotClassified}
				continue
			}
			perBlock[idx] = classify(d, li, b.ID, state, access)
			state = d.apply(state, b.ID, access)
		}
		results[b.ID] = perBlock
	}
	return results, nil
}

func classify(d *domain, li *domloop.LoopInfo, block cfgmodel.BlockID, state State, a BlockAccess) AccessResult {
	if a.Kind == Any {
		return AccessResult{Category: cacheage.NotClassified}
	}

	set := a.Line % d.setCount
	line := a.Line
	if a.Kind == Range {
		set = a.FirstSet
		line = rangeKey(a.FirstSet, a.LastSet)
	}
	ss := d.setOf(state, set)

	switch cacheage.ClassifyBasic(ss.Must, ss.May, line) {
	case cacheage.AlwaysHit:
		return AccessResult{Category: cacheage.AlwaysHit}
	case cacheage.AlwaysMiss:
		return AccessResult{Category: cacheage.AlwaysMiss}
	}

	for _, depth := range enclosingDepths(li, block) {
		if ss.Pers.HoldsAt(depth, d.cache.Associativity(), line) {
			return AccessResult{Category: cacheage.FirstMiss, Header: headerAtDepth(li, block, depth)}
		}
	}
	return AccessResult{Category: cacheage.NotClassified}
}

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
