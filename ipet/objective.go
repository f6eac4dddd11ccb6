package ipet

import (
	"github.com/otawa-go/wcetcore/bpred"
	"github.com/otawa-go/wcetcore/cacheage"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/platform"
)

func fromICache(r icacheResult) cacheCategory {
	k := catNotClassified
	switch r.Category {
	case cacheage.AlwaysHit:
		k = catAlwaysHit
	case cacheage.AlwaysMiss:
		k = catAlwaysMiss
	case cacheage.FirstMiss:
		k = catFirstMiss
	}
	return cacheCategory{kind: k, header: r.Header}
}

// icacheResult aliases the shape both packages' AccessResult types
// share ({Category cacheage.Category; Header cfgmodel.BlockID}), so
// cacheMissVars converts icache and dcache results alike through the
// one fromICache body.
type icacheResult = struct {
	Category cacheage.Category
	Header   cfgmodel.BlockID
}

// cacheMissVars adds a miss variable (and its constraint) for every
// non-Always-Hit L-block access in a's icache and dcache results, and
// accumulates its penalty into the objective (§4.I).
func (b *Builder) cacheMissVars(a *CFGAnalysis) {
	icachePenalty := 0.0
	if b.plat.ICache != nil {
		icachePenalty = float64(b.plat.ICache.MissPenalty)
	}
	dcachePenalty := 0.0
	if b.plat.DCache != nil {
		dcachePenalty = float64(b.plat.DCache.MissPenalty)
	}

	for block, perPos := range a.ICache {
		for pos, r := range perPos {
			cat := fromICache(icacheResult{Category: r.Category, Header: r.Header})
			name := a.CFG.Label + ":im" + blockName(block) + "_" + blockName(cfgmodel.BlockID(pos))
			if v, ok := b.missVarConstraint(a.CFG, block, name, cat); ok {
				b.sys.SetObjectiveTerm(icachePenalty, v)
			}
		}
	}
	for block, perIdx := range a.DCache {
		for idx, r := range perIdx {
			cat := fromICache(icacheResult{Category: r.Category, Header: r.Header})
			name := a.CFG.Label + ":dm" + blockName(block) + "_" + blockName(cfgmodel.BlockID(idx))
			if v, ok := b.missVarConstraint(a.CFG, block, name, cat); ok {
				b.sys.SetObjectiveTerm(dcachePenalty, v)
			}
		}
	}
}

// branchMispredictVars mirrors cacheMissVars for bpred's per-edge
// categorization, using the taken/not-taken penalty from the BHT
// description depending on the branch's predicted edge kind.
func (b *Builder) branchMispredictVars(a *CFGAnalysis) {
	if b.plat.BHT == nil {
		return
	}
	bht := *b.plat.BHT
	for block, r := range a.BPred {
		k := catNotClassified
		switch r.Category {
		case bpred.AlwaysCorrect:
			k = catAlwaysHit
		case bpred.AlwaysMispredict:
			k = catAlwaysMiss
		case bpred.FirstMispredict:
			k = catFirstMiss
		}
		cat := cacheCategory{kind: k, header: r.Header}
		name := a.CFG.Label + ":bp" + blockName(block)
		v, ok := b.missVarConstraint(a.CFG, block, name, cat)
		if !ok {
			continue
		}
		penalty := penaltyFor(a.CFG, block, bht)
		b.sys.SetObjectiveTerm(penalty, v)
	}
}

// penaltyFor picks the misprediction penalty for the branch terminating
// block: IncorrectTaken if the block has a Taken out-edge, else
// IncorrectNotTaken.
func penaltyFor(cfg *cfgmodel.CFG, block cfgmodel.BlockID, bht platform.BHT) float64 {
	for _, eid := range cfg.Succ(block) {
		if cfg.Edge(eid).Kind == cfgmodel.EdgeTaken {
			return float64(bht.IncorrectTaken)
		}
	}
	return float64(bht.IncorrectNotTaken)
}

// objectiveBlocks adds Σ t_b · x_b to the objective for every basic
// block, using the wired block-timing collaborator.
func (b *Builder) objectiveBlocks(a *CFGAnalysis) {
	for _, blk := range a.CFG.Blocks() {
		if blk.Kind != cfgmodel.BlockBasic {
			continue
		}
		t := a.Timing.BlockTime(a.CFG, blk.ID)
		if t == 0 {
			continue
		}
		xb, _ := b.vars.BlockVar(a.CFG.ID, blk.ID)
		b.sys.SetObjectiveTerm(float64(t), xb)
	}
}
