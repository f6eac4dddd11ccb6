package ipet

import (
	"strconv"

	"github.com/otawa-go/wcetcore/blocktiming"
	"github.com/otawa-go/wcetcore/bpred"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/dcache"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/flowfact"
	"github.com/otawa-go/wcetcore/icache"
	"github.com/otawa-go/wcetcore/ilp"
	"github.com/otawa-go/wcetcore/platform"
	"github.com/otawa-go/wcetcore/wceterr"
)

// CFGAnalysis bundles, for one CFG, the results every upstream pass
// (domloop, icache, dcache, bpred, blocktiming) already computed, which
// the IPET builder only reads.
type CFGAnalysis struct {
	CFG    *cfgmodel.CFG
	Loop   *domloop.LoopInfo
	ICache map[cfgmodel.BlockID]map[int]icache.AccessResult
	DCache map[cfgmodel.BlockID]map[int]dcache.AccessResult
	BPred  map[cfgmodel.BlockID]bpred.EdgeResult
	Timing blocktiming.Collaborator
}

// Builder accumulates the ilp.System for a whole program.
type Builder struct {
	col      *cfgmodel.Collection
	root     cfgmodel.CFGID
	analyses map[cfgmodel.CFGID]*CFGAnalysis
	flow     flowfact.Collaborator
	plat     *platform.Description

	sys  *ilp.System
	vars *Vars
}

// NewBuilder creates a Builder for the collection rooted at root (the
// task entry CFG), with flow and plat supplying the external
// collaborators (§6) and analyses supplying each CFG's precomputed
// loop/cache/branch categorization.
func NewBuilder(col *cfgmodel.Collection, root cfgmodel.CFGID, analyses map[cfgmodel.CFGID]*CFGAnalysis, flow flowfact.Collaborator, plat *platform.Description) *Builder {
	return &Builder{
		col:      col,
		root:     root,
		analyses: analyses,
		flow:     flow,
		plat:     plat,
		sys:      ilp.NewSystem(true),
		vars:     newVars(),
	}
}

// Build constructs the complete ILP system per §4.I: execution-count
// variables, structural constraints, cache-miss/mispredict variables,
// and the objective function.
func (b *Builder) Build() (*ilp.System, *Vars, error) {
	// Iterate the collection's own CFG order rather than ranging over
	// the analyses map directly, so variable and constraint creation
	// order is deterministic across runs (§4.B's determinism
	// requirement extends to every downstream pass over the same
	// collection).
	ordered := make([]*CFGAnalysis, 0, len(b.analyses))
	for _, cfg := range b.col.CFGs() {
		if a, ok := b.analyses[cfg.ID]; ok {
			ordered = append(ordered, a)
		}
	}

	for _, a := range ordered {
		b.declareVars(a)
	}
	for _, a := range ordered {
		b.flowConservation(a)
	}
	root, ok := b.analyses[b.root]
	if !ok {
		return nil, nil, wceterr.NewCfgError("", "root CFG not registered with ipet builder", 0)
	}
	entry, ok := b.vars.BlockVar(b.root, root.CFG.EntryBlock())
	if !ok {
		return nil, nil, wceterr.NewCfgError(root.CFG.Label, "root CFG entry block has no variable", 0)
	}
	ec := b.sys.NewConstraint("entry", ilp.Equal, 1)
	b.sys.AddTerm(ec, 1, entry)

	for _, a := range ordered {
		b.callCoupling(a)
		b.loopBounds(a)
		b.cacheMissVars(a)
		b.branchMispredictVars(a)
		b.objectiveBlocks(a)
	}

	return b.sys, b.vars, nil
}

func (b *Builder) declareVars(a *CFGAnalysis) {
	for _, blk := range a.CFG.Blocks() {
		name := a.CFG.Label + ":b" + blockName(blk.ID)
		v := b.sys.NewVariable(name)
		b.vars.Block[cfgmodel.FlatBlock{CFG: a.CFG.ID, Block: blk.ID}] = v
	}
	for _, e := range a.CFG.Edges() {
		name := a.CFG.Label + ":e" + blockName(cfgmodel.BlockID(e.ID))
		v := b.sys.NewVariable(name)
		b.vars.Edge[edgeKey{CFG: a.CFG.ID, Edge: e.ID}] = v
	}
}

func blockName(id cfgmodel.BlockID) string {
	return strconv.Itoa(int(id))
}

// flowConservation adds, per block, `x_b = Σ x_e(in) = Σ x_e(out)` as a
// pair of equality constraints (§4.I structural constraints), skipped
// for whichever side has no edges (entry has no in-edges, exit no
// out-edges).
func (b *Builder) flowConservation(a *CFGAnalysis) {
	cfg := a.CFG
	for _, blk := range cfg.Blocks() {
		xb, _ := b.vars.BlockVar(cfg.ID, blk.ID)

		if in := cfg.Pred(blk.ID); len(in) > 0 {
			c := b.sys.NewConstraint(cfg.Label+" in-flow", ilp.Equal, 0)
			b.sys.AddTerm(c, 1, xb)
			for _, eid := range in {
				xe, _ := b.vars.EdgeVar(cfg.ID, eid)
				b.sys.AddTerm(c, -1, xe)
			}
		}
		if out := cfg.Succ(blk.ID); len(out) > 0 {
			c := b.sys.NewConstraint(cfg.Label+" out-flow", ilp.Equal, 0)
			b.sys.AddTerm(c, 1, xb)
			for _, eid := range out {
				xe, _ := b.vars.EdgeVar(cfg.ID, eid)
				b.sys.AddTerm(c, -1, xe)
			}
		}
	}
}

// callCoupling adds `x_{C.entry} = Σ x_{call-site}` for every CFG that
// has callers (§4.I).
func (b *Builder) callCoupling(a *CFGAnalysis) {
	cfg := a.CFG
	if len(cfg.Callers) == 0 {
		return
	}
	entry, _ := b.vars.BlockVar(cfg.ID, cfg.EntryBlock())
	c := b.sys.NewConstraint(cfg.Label+" call-coupling", ilp.Equal, 0)
	b.sys.AddTerm(c, 1, entry)
	for _, site := range cfg.Callers {
		xc, ok := b.vars.BlockVar(site.CallerCFG, site.Block)
		if !ok {
			continue
		}
		b.sys.AddTerm(c, -1, xc)
	}
}

// loopBounds adds `Σ x_back-edge(h) <= N * Σ x_entering-edge(h)` for
// every header with a declared flow-fact bound (§4.I).
func (b *Builder) loopBounds(a *CFGAnalysis) {
	if a.Loop == nil {
		return
	}
	cfg := a.CFG
	for header, backs := range a.Loop.BackEdges {
		n, ok := b.flow.LoopBound(cfg.Block(header).Address())
		if !ok {
			continue // unbounded loop: no constraint, conservative (may be unbounded WCET)
		}
		c := b.sys.NewConstraint(cfg.Label+" loop-bound", ilp.LessEqual, 0)
		for _, eid := range backs {
			xe, _ := b.vars.EdgeVar(cfg.ID, eid)
			b.sys.AddTerm(c, 1, xe)
		}
		for _, eid := range cfg.Pred(header) {
			if cfg.Edge(eid).BackEdge {
				continue
			}
			xe, _ := b.vars.EdgeVar(cfg.ID, eid)
			b.sys.AddTerm(c, -float64(n), xe)
		}
	}
}

// enteringEdges returns the non-back edges reaching header, the
// denominator side of both the loop-bound and Persistent-category
// constraints.
func enteringEdges(cfg *cfgmodel.CFG, header cfgmodel.BlockID) []cfgmodel.EdgeID {
	var out []cfgmodel.EdgeID
	for _, eid := range cfg.Pred(header) {
		if !cfg.Edge(eid).BackEdge {
			out = append(out, eid)
		}
	}
	return out
}

// missVarConstraint adds the §4.I cache-miss/mispredict variable
// constraint matching category, returning the new variable (or the
// zero VarID and false for Always-Hit, which contributes nothing and
// gets no variable at all).
func (b *Builder) missVarConstraint(cfg *cfgmodel.CFG, block cfgmodel.BlockID, name string, category cacheCategory) (ilp.VarID, bool) {
	xb, _ := b.vars.BlockVar(cfg.ID, block)

	switch category.kind {
	case catAlwaysHit:
		return 0, false
	case catAlwaysMiss:
		v := b.sys.NewVariable(name)
		c := b.sys.NewConstraint(name, ilp.Equal, 0)
		b.sys.AddTerm(c, 1, v)
		b.sys.AddTerm(c, -1, xb)
		return v, true
	case catFirstMiss:
		v := b.sys.NewVariable(name)
		c := b.sys.NewConstraint(name, ilp.LessEqual, 0)
		b.sys.AddTerm(c, 1, v)
		for _, eid := range enteringEdges(cfg, category.header) {
			xe, _ := b.vars.EdgeVar(cfg.ID, eid)
			b.sys.AddTerm(c, -1, xe)
		}
		return v, true
	default: // not classified
		v := b.sys.NewVariable(name)
		c := b.sys.NewConstraint(name, ilp.LessEqual, 0)
		b.sys.AddTerm(c, 1, v)
		b.sys.AddTerm(c, -1, xb)
		return v, true
	}
}

// cacheCategory is the common shape icache/dcache/bpred categories are
// normalized to before missVarConstraint, so one constraint-builder
// serves all three passes (§4.I: "symmetric treatment").
type cacheCategory struct {
	kind   int
	header cfgmodel.BlockID
}

const (
	catAlwaysHit = iota
	catAlwaysMiss
	catFirstMiss
	catNotClassified
)
