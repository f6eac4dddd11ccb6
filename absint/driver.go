package absint

import (
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/wceterr"
)

// LoopMode selects how the driver handles loop headers (§4.E).
type LoopMode int

const (
	// FirstIterationUnrolling: the first visit to a header uses only
	// the join over entering (non-back) edges; subsequent visits also
	// join the back-edges, converging when the header's stored value
	// stops changing. Sound for finite-height lattices.
	FirstIterationUnrolling LoopMode = iota
	// Widening: after WideningThreshold visits without convergence, the
	// header's value is coarsened via Domain.(Widener).Widen.
	Widening
)

// Result holds the converged per-block state, and optionally per-edge
// state when the domain implements EdgeUpdater.
type Result[S any] struct {
	BlockOut map[cfgmodel.BlockID]S
	BlockIn  map[cfgmodel.BlockID]S
	EdgeOut  map[cfgmodel.EdgeID]S
}

// Options configures a Run.
type Options struct {
	Mode              LoopMode
	WideningThreshold int // only used in Widening mode; default 3 if 0

	// Cancel is polled between block visits (§5): when it returns true,
	// Run returns wceterr.ErrCancelled and the partial Result computed
	// so far, tagged by the caller as partial.
	Cancel func() bool
}

// Run drains a deterministic FIFO worklist, seeded with the blocks in
// reverse postorder and fed with the successors of every block whose
// output changed, until every block's stored output state stops
// changing (§4.E steps 1-3). Loop headers get no special scheduling;
// they differ only in how their back-edges are joined (see LoopMode).
func Run[S any](cfg *cfgmodel.CFG, li *domloop.LoopInfo, dom Domain[S], opts Options) (*Result[S], error) {
	n := cfg.NumBlocks()
	order := reversePostorder(cfg)

	out := make([]S, n)
	in := make([]S, n)
	visited := make([]bool, n)
	for i := range out {
		out[i] = dom.Bottom()
	}

	headerVisits := map[cfgmodel.BlockID]int{}

	edgeUpdater, hasEdgeUpdater := dom.(EdgeUpdater[S])
	loopCtx, hasLoopCtx := dom.(LoopContext[S])
	widener, hasWidener := dom.(Widener[S])

	threshold := opts.WideningThreshold
	if threshold <= 0 {
		threshold = 3
	}

	queue := append([]cfgmodel.BlockID(nil), order...)
	inQueue := make([]bool, n)
	for _, b := range queue {
		inQueue[b] = true
	}

	for len(queue) > 0 {
		if opts.Cancel != nil && opts.Cancel() {
			return partialResult(out, in, cfg, edgeUpdater, hasEdgeUpdater), wceterr.ErrCancelled
		}

		b := queue[0]
		queue = queue[1:]
		inQueue[b] = false

		preds := cfg.PredBlocks(b)
		isHeader := li != nil && li.IsHeader(b)

		var inState S
		first := true
		for _, eid := range cfg.Pred(b) {
			e := cfg.Edge(eid)
			if isHeader && e.BackEdge {
				if opts.Mode == FirstIterationUnrolling && headerVisits[b] == 0 {
					continue // first visit: ignore back-edges
				}
			}
			pState := out[e.Source]
			if hasEdgeUpdater {
				pState = edgeUpdater.UpdateEdge(cfg, eid, pState)
			}
			if first {
				inState = pState
				first = false
			} else {
				inState = dom.Join(inState, pState)
			}
		}
		if first {
			if b == cfg.EntryBlock() {
				inState = dom.Initial()
			} else if len(preds) == 0 {
				inState = dom.Bottom()
			}
		}

		if isHeader {
			headerVisits[b]++
			if hasLoopCtx {
				loopCtx.EnterContext(b)
			}
			if opts.Mode == Widening && headerVisits[b] > threshold && hasWidener {
				inState = widener.Widen(in[b], inState)
			}
		}

		in[b] = inState
		newOut := dom.UpdateBlock(cfg, b, inState)

		changed := !visited[b] || !dom.Equal(newOut, out[b])
		visited[b] = true
		out[b] = newOut

		if isHeader && hasLoopCtx {
			loopCtx.LeaveContext(b)
		}

		if changed {
			for _, s := range cfg.SuccBlocks(b) {
				if !inQueue[s] {
					queue = append(queue, s)
					inQueue[s] = true
				}
			}
		}
	}

	return buildResult(out, in, cfg, edgeUpdater, hasEdgeUpdater), nil
}

func buildResult[S any](out, in []S, cfg *cfgmodel.CFG, eu EdgeUpdater[S], has bool) *Result[S] {
	r := &Result[S]{
		BlockOut: make(map[cfgmodel.BlockID]S, len(out)),
		BlockIn:  make(map[cfgmodel.BlockID]S, len(in)),
	}
	for i := range out {
		r.BlockOut[cfgmodel.BlockID(i)] = out[i]
		r.BlockIn[cfgmodel.BlockID(i)] = in[i]
	}
	if has {
		r.EdgeOut = make(map[cfgmodel.EdgeID]S)
		for _, e := range cfg.Edges() {
			r.EdgeOut[e.ID] = eu.UpdateEdge(cfg, e.ID, out[e.Source])
		}
	}
	return r
}

func partialResult[S any](out, in []S, cfg *cfgmodel.CFG, eu EdgeUpdater[S], has bool) *Result[S] {
	return buildResult(out, in, cfg, eu, has)
}

func reversePostorder(cfg *cfgmodel.CFG) []cfgmodel.BlockID {
	seen := make([]bool, cfg.NumBlocks())
	var post []cfgmodel.BlockID
	var visit func(cfgmodel.BlockID)
	visit = func(b cfgmodel.BlockID) {
		if seen[b] {
			return
		}
		seen[b] = true
		for _, s := range cfg.SuccBlocks(b) {
			visit(s)
		}
		post = append(post, b)
	}
	visit(cfg.EntryBlock())
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}
