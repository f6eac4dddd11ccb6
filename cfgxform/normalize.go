// Package cfgxform provides the idempotent CFG rewrites of §4.C, each
// producing a fresh CFG rather than mutating its input.
package cfgxform

import (
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/wceterr"
)

// Normalize removes every block not co-reachable to exit. It fails with
// a *wceterr.CfgError if doing so would disconnect the entry block,
// unless force is true (in which case the entry is kept even if it can
// no longer reach exit — used by callers that want a best-effort
// result, e.g. error reporting).
func Normalize(cfg *cfgmodel.CFG, force bool) (*cfgmodel.CFG, error) {
	coReachable := coReachableToExit(cfg)
	if !coReachable[cfg.EntryBlock()] && !force {
		return nil, wceterr.NewCfgError(cfg.Label, "entry is not co-reachable to exit after normalization", 0)
	}

	nc := cfgmodel.New(cfg.ID, cfg.Label, cfg.Entry)
	remap := map[cfgmodel.BlockID]cfgmodel.BlockID{
		cfg.EntryBlock(): nc.EntryBlock(),
		cfg.ExitBlock():  nc.ExitBlock(),
	}
	for _, b := range cfg.Blocks() {
		if b.ID == cfg.EntryBlock() || b.ID == cfg.ExitBlock() {
			continue
		}
		if !coReachable[b.ID] {
			continue
		}
		cp := *b
		nid := nc.AddBlock(&cp)
		remap[b.ID] = nid
	}
	for _, e := range cfg.Edges() {
		src, okSrc := remap[e.Source]
		dst, okDst := remap[e.Sink]
		if !okSrc || !okDst {
			continue
		}
		nc.AddEdge(src, dst, e.Kind)
	}
	nc.Callers = append([]cfgmodel.CallSite(nil), cfg.Callers...)
	return nc, nil
}

// coReachableToExit computes, via backward BFS from the exit block,
// which blocks can reach exit.
func coReachableToExit(cfg *cfgmodel.CFG) map[cfgmodel.BlockID]bool {
	seen := map[cfgmodel.BlockID]bool{cfg.ExitBlock(): true}
	queue := []cfgmodel.BlockID{cfg.ExitBlock()}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, p := range cfg.PredBlocks(b) {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return seen
}

// ReachableFromEntry computes, via forward BFS, which blocks are
// reachable from entry — the dual invariant check used alongside
// coReachableToExit (§8 Testable Property 1).
func ReachableFromEntry(cfg *cfgmodel.CFG) map[cfgmodel.BlockID]bool {
	seen := map[cfgmodel.BlockID]bool{cfg.EntryBlock(): true}
	queue := []cfgmodel.BlockID{cfg.EntryBlock()}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, s := range cfg.SuccBlocks(b) {
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	return seen
}
