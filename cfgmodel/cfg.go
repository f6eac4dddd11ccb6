package cfgmodel

import "github.com/otawa-go/wcetcore/addr"

// CallSite identifies a call block in a specific caller CFG, used by
// CFG.Callers so that a synthetic call block can be coupled to its
// callee's entry flow-conservation constraint (§4.I) without the
// callee holding a pointer back to its callers.
type CallSite struct {
	CallerCFG CFGID
	Block     BlockID
}

// CFG is one procedure's control-flow graph: an ordered, arena-owned
// collection of blocks and edges, numbered in discovery order (§4.B).
type CFG struct {
	ID    CFGID
	Label string
	Entry addr.Address

	blocks []*Block
	edges  []*Edge

	entryBlock BlockID
	exitBlock  BlockID

	// adjacency, kept in sync by AddEdge
	succ map[BlockID][]EdgeID
	pred map[BlockID][]EdgeID

	// Callers lists every call site across the whole collection that
	// targets this CFG; non-owning back-references by (cfg id, block id).
	Callers []CallSite
}

// New creates an empty CFG with just its entry and exit sentinel
// blocks, ready for the builder to append basic/call blocks to.
func New(id CFGID, label string, entry addr.Address) *CFG {
	c := &CFG{
		ID:    id,
		Label: label,
		Entry: entry,
		succ:  make(map[BlockID][]EdgeID),
		pred:  make(map[BlockID][]EdgeID),
	}
	c.entryBlock = c.addBlock(&Block{Kind: BlockEntry})
	c.exitBlock = c.addBlock(&Block{Kind: BlockExit})
	return c
}

func (c *CFG) addBlock(b *Block) BlockID {
	b.ID = BlockID(len(c.blocks))
	c.blocks = append(c.blocks, b)
	return b.ID
}

// AddBlock appends a new block (basic, call, or unknown) in discovery
// order and returns its id.
func (c *CFG) AddBlock(b *Block) BlockID {
	return c.addBlock(b)
}

// EntryBlock and ExitBlock return the ids of the two sentinel blocks
// created by New. Every CFG has exactly one of each (§3 invariant).
func (c *CFG) EntryBlock() BlockID { return c.entryBlock }
func (c *CFG) ExitBlock() BlockID  { return c.exitBlock }

// Block returns the block with the given id.
func (c *CFG) Block(id BlockID) *Block { return c.blocks[id] }

// NumBlocks returns the number of blocks currently in the CFG.
func (c *CFG) NumBlocks() int { return len(c.blocks) }

// Blocks returns the blocks in discovery order. Callers must not
// retain the slice across further mutation of the CFG.
func (c *CFG) Blocks() []*Block { return c.blocks }

// Edge returns the edge with the given id.
func (c *CFG) Edge(id EdgeID) *Edge { return c.edges[id] }

// Edges returns every live (non-removed) edge in the CFG in creation
// order.
func (c *CFG) Edges() []*Edge {
	out := make([]*Edge, 0, len(c.edges))
	for _, e := range c.edges {
		if !e.Removed {
			out = append(out, e)
		}
	}
	return out
}

// AddEdge creates a directed edge and updates adjacency.
func (c *CFG) AddEdge(source, sink BlockID, kind EdgeKind) EdgeID {
	e := &Edge{ID: EdgeID(len(c.edges)), Source: source, Sink: sink, Kind: kind}
	c.edges = append(c.edges, e)
	c.succ[source] = append(c.succ[source], e.ID)
	c.pred[sink] = append(c.pred[sink], e.ID)
	return e.ID
}

// RemoveEdge deletes an edge, unlinking it from its source's and sink's
// adjacency lists. Used by cfgxform passes that rewrite edges in place,
// e.g. loop unrolling redirecting a header's entering edges onto the
// peeled copy.
func (c *CFG) RemoveEdge(id EdgeID) {
	e := c.edges[id]
	if e.Removed {
		return
	}
	e.Removed = true
	c.succ[e.Source] = dropEdgeID(c.succ[e.Source], id)
	c.pred[e.Sink] = dropEdgeID(c.pred[e.Sink], id)
}

func dropEdgeID(ids []EdgeID, target EdgeID) []EdgeID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Succ returns the ids of edges leaving b, in creation order.
func (c *CFG) Succ(b BlockID) []EdgeID { return c.succ[b] }

// Pred returns the ids of edges entering b, in creation order.
func (c *CFG) Pred(b BlockID) []EdgeID { return c.pred[b] }

// SuccBlocks returns the sink block ids of b's out-edges.
func (c *CFG) SuccBlocks(b BlockID) []BlockID {
	es := c.succ[b]
	out := make([]BlockID, len(es))
	for i, e := range es {
		out[i] = c.edges[e].Sink
	}
	return out
}

// PredBlocks returns the source block ids of b's in-edges.
func (c *CFG) PredBlocks(b BlockID) []BlockID {
	es := c.pred[b]
	out := make([]BlockID, len(es))
	for i, e := range es {
		out[i] = c.edges[e].Source
	}
	return out
}

// Clone produces a deep, independent copy of the CFG with its own block
// and edge arrays (but blocks keep their OriginalCFG/OriginalID
// unchanged, or the caller sets it) — the building block used by every
// cfgxform rewrite, each of which must produce a fresh CFG (§4.C).
func (c *CFG) Clone() *CFG {
	nc := &CFG{
		ID:         c.ID,
		Label:      c.Label,
		Entry:      c.Entry,
		entryBlock: c.entryBlock,
		exitBlock:  c.exitBlock,
		succ:       make(map[BlockID][]EdgeID, len(c.succ)),
		pred:       make(map[BlockID][]EdgeID, len(c.pred)),
		Callers:    append([]CallSite(nil), c.Callers...),
	}
	nc.blocks = make([]*Block, len(c.blocks))
	for i, b := range c.blocks {
		cp := *b
		cp.Instructions = append([]Instruction(nil), b.Instructions...)
		nc.blocks[i] = &cp
	}
	nc.edges = make([]*Edge, len(c.edges))
	for i, e := range c.edges {
		cp := *e
		nc.edges[i] = &cp
	}
	for k, v := range c.succ {
		nc.succ[k] = append([]EdgeID(nil), v...)
	}
	for k, v := range c.pred {
		nc.pred[k] = append([]EdgeID(nil), v...)
	}
	return nc
}
