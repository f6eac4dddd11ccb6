package bpred

import (
	"github.com/otawa-go/wcetcore/absint"
	"github.com/otawa-go/wcetcore/cacheage"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/inst"
	"github.com/otawa-go/wcetcore/platform"
)

// Category is the §4.H branch-prediction verdict, a renaming of
// cacheage.Category to the branch vocabulary (the underlying
// Must/May/Persistence machinery is identical; only what the category
// means to a caller differs).
type Category int

const (
	AlwaysCorrect Category = iota
	AlwaysMispredict
	FirstMispredict
	NotClassified
)

func (c Category) String() string {
	switch c {
	case AlwaysCorrect:
		return "always-correct"
	case AlwaysMispredict:
		return "always-mispredict"
	case FirstMispredict:
		return "first-mispredict"
	default:
		return "not-classified"
	}
}

func fromCacheCategory(c cacheage.Category) Category {
	switch c {
	case cacheage.AlwaysHit:
		return AlwaysCorrect
	case cacheage.AlwaysMiss:
		return AlwaysMispredict
	case cacheage.FirstMiss:
		return FirstMispredict
	default:
		return NotClassified
	}
}

// EdgeResult is the §4.H verdict for one conditional-branch edge: its
// category, and (for FirstMispredict) the loop header the guaranteed
// single misprediction is charged to.
type EdgeResult struct {
	Category Category
	Header   cfgmodel.BlockID
}

// Categorize runs the Must/May/Persistence domain over every BHT row
// touched by cfg's conditional branches and classifies each branch's
// edges per §4.H.
func Categorize(cfg *cfgmodel.CFG, li *domloop.LoopInfo, p inst.Provider, bht platform.BHT) (map[cfgmodel.BlockID]EdgeResult, error) {
	identity, rowOf := conditionalBranches(cfg, p, bht)

	byRow := make(map[uint64]map[cfgmodel.BlockID]uint64)
	for block, r := range rowOf {
		if byRow[r] == nil {
			byRow[r] = make(map[cfgmodel.BlockID]uint64)
		}
		byRow[r][block] = identity[block]
	}

	results := make(map[cfgmodel.BlockID]EdgeResult, len(identity))
	assoc := bht.Associativity()

	for r, branches := range byRow {
		d := newRowDomain(r, assoc, branches, li)
		res, err := absint.Run(cfg, li, d, absint.Options{Mode: absint.FirstIterationUnrolling})
		if err != nil {
			return nil, err
		}
		for block, branch := range branches {
			// Classify against the state reaching the branch, before
			// its own access ages the row.
			in := res.BlockIn[block]
			results[block] = classify(d, li, block, branch, in)
		}
	}
	return results, nil
}

func classify(d *rowDomain, li *domloop.LoopInfo, block cfgmodel.BlockID, branch uint64, state State) EdgeResult {
	basic := cacheage.ClassifyBasic(state.Must, state.May, branch)
	if basic == cacheage.AlwaysHit || basic == cacheage.AlwaysMiss {
		return EdgeResult{Category: fromCacheCategory(basic)}
	}

	for _, depth := range enclosingDepths(li, block) {
		if state.Pers.HoldsAt(depth, d.associativity, branch) {
			return EdgeResult{Category: FirstMispredict, Header: headerAtDepth(li, block, depth)}
		}
	}
	return EdgeResult{Category: NotClassified}
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
