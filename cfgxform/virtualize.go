package cfgxform

import "github.com/otawa-go/wcetcore/cfgmodel"

// Virtualize replaces every resolvable call edge with an inlined copy
// of the callee CFG, producing a context-sensitive, call-free CFG
// (§4.C). Recursive calls — calls whose callee is already on the
// current inlining stack — are detected and left as ordinary call
// blocks rather than inlined, since inlining them would not terminate.
func Virtualize(col *cfgmodel.Collection, root cfgmodel.CFGID) *cfgmodel.CFG {
	v := &virtualizer{col: col}
	return v.inline(root, nil)
}

type virtualizer struct {
	col *cfgmodel.Collection
}

func (v *virtualizer) inline(id cfgmodel.CFGID, stack []cfgmodel.CFGID) *cfgmodel.CFG {
	src := v.col.CFG(id)
	out := cfgmodel.New(id, src.Label, src.Entry)

	remap := map[cfgmodel.BlockID]cfgmodel.BlockID{
		src.EntryBlock(): out.EntryBlock(),
		src.ExitBlock():  out.ExitBlock(),
	}

	onStack := append(append([]cfgmodel.CFGID(nil), stack...), id)

	for _, b := range src.Blocks() {
		if b.ID == src.EntryBlock() || b.ID == src.ExitBlock() {
			continue
		}
		if b.Kind != cfgmodel.BlockCall || b.Callee == cfgmodel.NoCFG || contains(onStack, b.Callee) {
			cp := *b
			cp.HasOriginal = true
			cp.OriginalCFG = src.ID
			cp.OriginalID = b.ID
			nid := out.AddBlock(&cp)
			remap[b.ID] = nid
			continue
		}

		// Inline the callee: splice its (recursively virtualized) body
		// between a virtual-call and virtual-return edge pair.
		calleeCFG := v.inline(b.Callee, onStack)
		innerRemap := map[cfgmodel.BlockID]cfgmodel.BlockID{}
		for _, ib := range calleeCFG.Blocks() {
			if ib.ID == calleeCFG.EntryBlock() || ib.ID == calleeCFG.ExitBlock() {
				continue
			}
			cp := *ib
			nid := out.AddBlock(&cp)
			innerRemap[ib.ID] = nid
		}
		for _, ie := range calleeCFG.Edges() {
			srcID, srcOK := innerRemap[ie.Source]
			dstID, dstOK := innerRemap[ie.Sink]
			if !srcOK {
				srcID = out.EntryBlock() // placeholder, fixed below
			}
			if !dstOK {
				dstID = out.ExitBlock()
			}
			if srcOK && dstOK {
				out.AddEdge(srcID, dstID, ie.Kind)
			}
		}
		// Remember a synthetic "call placeholder" block id mapping to
		// the callee's inlined entry/exit successors/predecessors.
		calleeEntrySuccessors := calleeCFG.SuccBlocks(calleeCFG.EntryBlock())
		calleeExitPreds := calleeCFG.PredBlocks(calleeCFG.ExitBlock())

		// Basic, not Call: the call site is gone, replaced by the
		// inlined body above. This keeps the virtualized CFG call-free
		// (§4.C); the placeholder is only a glue node splicing the
		// caller's edges onto the virtual-call/virtual-return pair.
		placeholder := &cfgmodel.Block{Kind: cfgmodel.BlockBasic}
		ph := out.AddBlock(placeholder)
		remap[b.ID] = ph
		for _, s := range calleeEntrySuccessors {
			if mapped, ok := innerRemap[s]; ok {
				out.AddEdge(ph, mapped, cfgmodel.EdgeVirtualCall)
			}
		}
		// the virtual-return successor is wired once the caller's own
		// out-edges are processed below; store it for lookup.
		v.pendingReturns(out, ph, calleeExitPreds, innerRemap)
	}

	for _, e := range src.Edges() {
		srcID, okSrc := remap[e.Source]
		dstID, okDst := remap[e.Sink]
		if !okSrc || !okDst {
			continue
		}
		out.AddEdge(srcID, dstID, e.Kind)
	}

	return out
}

func (v *virtualizer) pendingReturns(out *cfgmodel.CFG, placeholder cfgmodel.BlockID, calleeExitPreds []cfgmodel.BlockID, innerRemap map[cfgmodel.BlockID]cfgmodel.BlockID) {
	for _, p := range calleeExitPreds {
		if mapped, ok := innerRemap[p]; ok {
			out.AddEdge(mapped, placeholder, cfgmodel.EdgeVirtualReturn)
		}
	}
}

func contains(xs []cfgmodel.CFGID, x cfgmodel.CFGID) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
