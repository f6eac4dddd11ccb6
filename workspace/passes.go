package workspace

import (
	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/bpred"
	"github.com/otawa-go/wcetcore/cfgbuild"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/cfgxform"
	"github.com/otawa-go/wcetcore/dcache"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/icache"
	"github.com/otawa-go/wcetcore/ipet"
	"github.com/otawa-go/wcetcore/wceterr"
)

// Feature names agreed on between the built-in passes. A caller
// composing a custom pipeline out of its own Pass implementations is
// free to use different names, as long as Requires/Provides line up.
const (
	FeatureCFG      = "cfg"
	FeatureNormal   = "normalized"
	FeatureUnrolled = "unrolled" // loop info + first-iteration-unrolled CFG
	FeatureICache   = "icache-categories"
	FeatureDCache   = "dcache-categories"
	FeatureBPred    = "bpred-categories"
	FeatureWCET     = "wcet"
)

// BuildPass runs cfgbuild.Builder over the task entry address, giving
// the workspace its initial Col/Root (§4.B). Only needed when the
// caller did not already pass a built Collection to New.
type BuildPass struct {
	Entry addr.Address
}

func (BuildPass) Name() string          { return "build" }
func (BuildPass) Requires() []string    { return nil }
func (BuildPass) Provides() []string    { return []string{FeatureCFG} }
func (BuildPass) Invalidates() []string { return nil }

func (p BuildPass) Run(ws *Workspace) error {
	builder := cfgbuild.New(ws.Provider, ws.Flow, ws.Logger)
	col, err := builder.Build(p.Entry)
	if err != nil {
		return err
	}
	root, ok := col.FindByLabel(p.Entry.String())
	if !ok {
		// The builder labels by hex address unless told otherwise; fall
		// back to CFG 0, the entry function discovery always starts at.
		root = col.CFG(0)
	}
	ws.Col = col
	ws.Root = root.ID
	return nil
}

// NormalizePass removes dead blocks from every CFG in the collection
// (§4.C), replacing each with its normalized form.
type NormalizePass struct{}

func (NormalizePass) Name() string          { return "normalize" }
func (NormalizePass) Requires() []string    { return []string{FeatureCFG} }
func (NormalizePass) Provides() []string    { return []string{FeatureNormal} }
func (NormalizePass) Invalidates() []string { return nil }

func (NormalizePass) Run(ws *Workspace) error {
	for _, cfg := range ws.Col.CFGs() {
		nc, err := cfgxform.Normalize(cfg, false)
		if err != nil {
			return err
		}
		ws.Col.Replace(cfg.ID, nc)
	}
	return nil
}

// UnrollPass computes dominance/loop info for every CFG, then applies
// UnrollFirstIteration and recomputes loop info over the unrolled
// result, so every later pass sees the structurally context-split CFG
// the persistence analyses require (§4.C, §9 Open Question on
// branch-prediction × loop-unrolled CFGs).
type UnrollPass struct{}

func (UnrollPass) Name() string          { return "unroll" }
func (UnrollPass) Requires() []string    { return []string{FeatureNormal} }
func (UnrollPass) Provides() []string    { return []string{FeatureUnrolled} }
func (UnrollPass) Invalidates() []string { return nil }

func (UnrollPass) Run(ws *Workspace) error {
	for _, cfg := range ws.Col.CFGs() {
		if ws.Cancelled() {
			return wceterr.ErrCancelled
		}
		li := analyzeLoops(cfg)
		unrolled := cfgxform.UnrollFirstIteration(cfg, li)
		ws.Col.Replace(cfg.ID, unrolled)
		ws.Loop[cfg.ID] = analyzeLoops(unrolled)
	}
	return nil
}

func analyzeLoops(cfg *cfgmodel.CFG) *domloop.LoopInfo {
	dom := domloop.Compute(cfg)
	return domloop.Analyze(cfg, dom)
}

// ICachePass categorizes every L-block access in every CFG (§4.F).
// A no-op (with a logged warning) when the platform has no icache.
type ICachePass struct{}

func (ICachePass) Name() string          { return "icache" }
func (ICachePass) Requires() []string    { return []string{FeatureUnrolled} }
func (ICachePass) Provides() []string    { return []string{FeatureICache} }
func (ICachePass) Invalidates() []string { return nil }

func (ICachePass) Run(ws *Workspace) error {
	if ws.Platform.ICache == nil {
		ws.Logger.Printf("wcetcore: no icache configured, skipping instruction-cache categorization")
		return nil
	}
	for _, cfg := range ws.Col.CFGs() {
		if ws.Cancelled() {
			return wceterr.ErrCancelled
		}
		res, err := icache.Categorize(cfg, ws.Loop[cfg.ID], *ws.Platform.ICache)
		if err != nil {
			return err
		}
		ws.ICache[cfg.ID] = res
	}
	return nil
}

// DCachePass categorizes every resolved memory access in every CFG
// (§4.G). A no-op when the platform has no dcache or no address
// analysis collaborator was wired in.
type DCachePass struct{}

func (DCachePass) Name() string          { return "dcache" }
func (DCachePass) Requires() []string    { return []string{FeatureUnrolled} }
func (DCachePass) Provides() []string    { return []string{FeatureDCache} }
func (DCachePass) Invalidates() []string { return nil }

func (DCachePass) Run(ws *Workspace) error {
	if ws.Platform.DCache == nil || ws.Address == nil {
		ws.Logger.Printf("wcetcore: no dcache or address analysis configured, skipping data-cache categorization")
		return nil
	}
	for _, cfg := range ws.Col.CFGs() {
		if ws.Cancelled() {
			return wceterr.ErrCancelled
		}
		res, err := dcache.Categorize(cfg, ws.Loop[cfg.ID], *ws.Platform.DCache, ws.Address)
		if err != nil {
			return err
		}
		ws.DCache[cfg.ID] = res
	}
	return nil
}

// BPredPass categorizes every conditional-branch edge in every CFG
// (§4.H). A no-op when the platform has no BHT.
type BPredPass struct{}

func (BPredPass) Name() string          { return "bpred" }
func (BPredPass) Requires() []string    { return []string{FeatureUnrolled} }
func (BPredPass) Provides() []string    { return []string{FeatureBPred} }
func (BPredPass) Invalidates() []string { return nil }

func (BPredPass) Run(ws *Workspace) error {
	if ws.Platform.BHT == nil {
		ws.Logger.Printf("wcetcore: no BHT configured, skipping branch-prediction categorization")
		return nil
	}
	for _, cfg := range ws.Col.CFGs() {
		if ws.Cancelled() {
			return wceterr.ErrCancelled
		}
		res, err := bpred.Categorize(cfg, ws.Loop[cfg.ID], ws.Provider, *ws.Platform.BHT)
		if err != nil {
			return err
		}
		ws.BPred[cfg.ID] = res
	}
	return nil
}

// WCETPass builds and solves the whole-program IPET system (§4.I,
// §4.J) and stores the result on the workspace.
type WCETPass struct{}

func (WCETPass) Name() string          { return "wcet" }
func (WCETPass) Requires() []string    { return []string{FeatureUnrolled} }
func (WCETPass) Provides() []string    { return []string{FeatureWCET} }
func (WCETPass) Invalidates() []string { return nil }

func (ws *Workspace) cfgAnalyses() map[cfgmodel.CFGID]*ipet.CFGAnalysis {
	out := make(map[cfgmodel.CFGID]*ipet.CFGAnalysis, ws.Col.NumCFGs())
	for _, cfg := range ws.Col.CFGs() {
		out[cfg.ID] = &ipet.CFGAnalysis{
			CFG:    cfg,
			Loop:   ws.Loop[cfg.ID],
			ICache: ws.ICache[cfg.ID],
			DCache: ws.DCache[cfg.ID],
			BPred:  ws.BPred[cfg.ID],
			Timing: ws.Timing,
		}
	}
	return out
}

func (WCETPass) Run(ws *Workspace) error {
	result, err := ipet.Analyze(ws.Col, ws.Root, ws.cfgAnalyses(), ws.Flow, ws.Platform)
	if err != nil {
		return err
	}
	ws.Result = result
	return nil
}

// DefaultPipeline returns the pass list a caller with an already-built
// Collection runs by default: normalize, unroll, the three
// categorizers, then the IPET solve (§2's leaves-first dependency
// order, B already done by the caller).
func DefaultPipeline() []Pass {
	return []Pass{
		NormalizePass{},
		UnrollPass{},
		ICachePass{},
		DCachePass{},
		BPredPass{},
		WCETPass{},
	}
}
