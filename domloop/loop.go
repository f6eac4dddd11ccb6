package domloop

import "github.com/otawa-go/wcetcore/cfgmodel"

// LoopInfo holds, per block, its enclosing loop header (if any) and, per
// header, its nesting depth and loop-exit edges (§4.D).
type LoopInfo struct {
	// Header maps a block to its innermost enclosing loop header. A
	// block with no enclosing loop is absent from the map.
	Header map[cfgmodel.BlockID]cfgmodel.BlockID

	// Depth maps a loop header to its nesting depth (1 = outermost).
	Depth map[cfgmodel.BlockID]int

	// Parent maps a loop header to the header of the loop immediately
	// enclosing it. A header with no enclosing loop is absent.
	Parent map[cfgmodel.BlockID]cfgmodel.BlockID

	// BackEdges lists, per header, the ids of its back-edges.
	BackEdges map[cfgmodel.BlockID][]cfgmodel.EdgeID

	// ExitEdges lists, per header, the edges that leave the loop (a
	// source inside the loop body whose sink is outside it).
	ExitEdges map[cfgmodel.BlockID][]cfgmodel.EdgeID
}

// IsHeader reports whether b is a loop header.
func (li *LoopInfo) IsHeader(b cfgmodel.BlockID) bool {
	_, ok := li.Depth[b]
	return ok
}

// Analyze identifies back-edges (t->h where h dominates t, per the §4.D
// invariant for reducible CFGs after normalization), marks them on the
// CFG's edges, and computes nesting depth and loop-exit edges.
func Analyze(cfg *cfgmodel.CFG, dom *Dominators) *LoopInfo {
	li := &LoopInfo{
		Header:    map[cfgmodel.BlockID]cfgmodel.BlockID{},
		Depth:     map[cfgmodel.BlockID]int{},
		Parent:    map[cfgmodel.BlockID]cfgmodel.BlockID{},
		BackEdges: map[cfgmodel.BlockID][]cfgmodel.EdgeID{},
		ExitEdges: map[cfgmodel.BlockID][]cfgmodel.EdgeID{},
	}

	// Step 1: find back-edges and mark them.
	for _, e := range cfg.Edges() {
		if dom.Dominates(e.Sink, e.Source) {
			e.BackEdge = true
			li.BackEdges[e.Sink] = append(li.BackEdges[e.Sink], e.ID)
		}
	}

	// Step 2: natural-loop body of each header = set of blocks that can
	// reach the back-edge source without going through the header again.
	bodies := map[cfgmodel.BlockID]map[cfgmodel.BlockID]bool{}
	for header, backs := range li.BackEdges {
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
		bodies[header] = body
	}

	// Step 3: assign each block its innermost header (the header whose
	// body contains it and is smallest), and record exit edges.
	for header, body := range bodies {
		for b := range body {
			cur, has := li.Header[b]
			if !has || len(bodies[cur]) > len(body) {
				li.Header[b] = header
			}
		}
		for b := range body {
			for _, eid := range cfg.Succ(b) {
				e := cfg.Edge(eid)
				if !body[e.Sink] {
					e.LoopExit = true
					li.ExitEdges[header] = append(li.ExitEdges[header], eid)
				}
			}
		}
	}

	// Step 4: find each header's immediate enclosing loop, the smallest
	// body strictly containing it among the other headers' bodies.
	for header := range bodies {
		var parent cfgmodel.BlockID
		found := false
		for other, obody := range bodies {
			if other == header || !obody[header] {
				continue
			}
			if !found || len(obody) < len(bodies[parent]) {
				parent = other
				found = true
			}
		}
		if found {
			li.Parent[header] = parent
		}
	}

	// Step 5: nesting depth = number of enclosing headers, walking the
	// Parent chain (1 = outermost).
	var depthOf func(cfgmodel.BlockID) int
	depthOf = func(h cfgmodel.BlockID) int {
		if d, ok := li.Depth[h]; ok {
			return d
		}
		parent, ok := li.Parent[h]
		d := 1
		if ok {
			d = depthOf(parent) + 1
		}
		li.Depth[h] = d
		return d
	}
	for header := range bodies {
		depthOf(header)
	}

	return li
}
