package cfgxform

import (
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/domloop"
)

// UnrollFirstIteration duplicates the body of every reducible loop once,
// so that all back-edges in the duplicate target the original header
// and the original header is entered only through non-back edges
// (§4.C). This transformation is required by the persistence cache
// analysis to be sound: it lets "first access in the loop" and "access
// on a later iteration" be distinguished structurally instead of by a
// context tag in the abstract domain.
func UnrollFirstIteration(cfg *cfgmodel.CFG, li *domloop.LoopInfo) *cfgmodel.CFG {
	nc := cfg.Clone()

	for header, backs := range li.BackEdges {
		body := loopBody(cfg, header, backs)
		dup := map[cfgmodel.BlockID]cfgmodel.BlockID{}
		for b := range body {
			if b == header {
				continue
			}
			orig := nc.Block(b)
			cp := *orig
			cp.HasOriginal = true
			cp.OriginalCFG = cfg.ID
			cp.OriginalID = b
			nid := nc.AddBlock(&cp)
			dup[b] = nid
		}

		// Duplicate intra-body edges (between non-header blocks) and
		// edges leaving the body, redirected from the peeled copy.
		for _, e := range cfg.Edges() {
			if e.Source == header || !body[e.Source] || e.Source == e.Sink && e.BackEdge {
				continue
			}
			newSrc, hasSrc := dup[e.Source]
			if !hasSrc {
				continue
			}
			if e.Sink == header {
				if e.BackEdge {
					// Back-edge in the peeled copy re-enters the
					// ORIGINAL header's steady-state body, not the
					// peeled copy, per §4.C. Mark it a back edge
					// itself so the entering-edge redirect below
					// doesn't also try to reroute it onto the peeled
					// copy's entry.
					beID := nc.AddEdge(newSrc, header, e.Kind)
					nc.Edge(beID).BackEdge = true
				}
				continue
			}
			if newDst, ok := dup[e.Sink]; ok {
				nc.AddEdge(newSrc, newDst, e.Kind)
			} else {
				nc.AddEdge(newSrc, e.Sink, e.Kind)
			}
		}

		// Redirect the header's entering (non-back) edges onto the
		// peeled copy's first block(s) instead of the header, and
		// remove the originals so header is reachable only through
		// the peeled copy (§4.C). nc.Pred(header) is snapshotted
		// first since RemoveEdge mutates it in place.
		headerSuccessors := cfg.SuccBlocks(header)
		entering := append([]cfgmodel.EdgeID(nil), nc.Pred(header)...)
		for _, eid := range entering {
			e := nc.Edge(eid)
			if e.BackEdge {
				continue
			}
			for _, s := range headerSuccessors {
				if !body[s] {
					continue
				}
				if dupS, ok := dup[s]; ok {
					nc.AddEdge(e.Source, dupS, e.Kind)
				}
			}
			nc.RemoveEdge(eid)
		}
	}

	return nc
}

func loopBody(cfg *cfgmodel.CFG, header cfgmodel.BlockID, backs []cfgmodel.EdgeID) map[cfgmodel.BlockID]bool {
	body := map[cfgmodel.BlockID]bool{header: true}
	var stack []cfgmodel.BlockID
	for _, beID := range backs {
		t := cfg.Edge(beID).Source
		if !body[t] {
			body[t] = true
			stack = append(stack, t)
		}
	}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range cfg.PredBlocks(b) {
			if !body[p] {
				body[p] = true
				stack = append(stack, p)
			}
		}
	}
	return body
}
