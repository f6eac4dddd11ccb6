package cfgmodel

import "github.com/otawa-go/wcetcore/addr"

// FlatBlock is the flat (cfg-id, block-id) index handed out by
// Collection.Flatten, used as the dense index bit-vector analyses need
// (§3: "a flat index used by bit-vector analyses").
type FlatBlock struct {
	CFG   CFGID
	Block BlockID
}

// Collection owns every CFG reachable from the task entry, numbered in
// discovery order (§4.B determinism requirement). It is the sole owner
// of CFGs; a synthetic call block's Callee field and a CFG's Callers
// list are both non-owning references into this arena.
type Collection struct {
	cfgs []*CFG
	// flat assigns each (cfg, block) pair a dense index, built lazily by
	// Flatten and invalidated by AddCFG.
	flat    []FlatBlock
	flatIdx map[FlatBlock]int
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// AddCFG appends a new, empty CFG for the given label/entry and returns
// it. The caller (cfgbuild) populates its blocks/edges.
func (col *Collection) AddCFG(label string, entry addr.Address) *CFG {
	id := CFGID(len(col.cfgs))
	c := New(id, label, entry)
	col.cfgs = append(col.cfgs, c)
	col.flat = nil
	return c
}

// CFG returns the CFG with the given id.
func (col *Collection) CFG(id CFGID) *CFG { return col.cfgs[id] }

// Replace substitutes the CFG at id with cfg, keeping cfg.ID == id. Used
// by the pipeline orchestrator to install the result of an idempotent
// cfgxform rewrite (Normalize, UnrollFirstIteration, ...) back into the
// arena the rest of the pipeline reads from.
func (col *Collection) Replace(id CFGID, cfg *CFG) {
	cfg.ID = id
	col.cfgs[id] = cfg
	col.flat = nil
}

// CFGs returns every CFG in discovery order.
func (col *Collection) CFGs() []*CFG { return col.cfgs }

// NumCFGs returns how many CFGs are in the collection.
func (col *Collection) NumCFGs() int { return len(col.cfgs) }

// FindByLabel returns the CFG with the given label, if any.
func (col *Collection) FindByLabel(label string) (*CFG, bool) {
	for _, c := range col.cfgs {
		if c.Label == label {
			return c, true
		}
	}
	return nil, false
}

// Flatten builds (or reuses) the global (cfg,block) -> dense index
// numbering described in §3, in CFG discovery order and block discovery
// order within each CFG.
func (col *Collection) Flatten() []FlatBlock {
	if col.flat != nil {
		return col.flat
	}
	col.flatIdx = make(map[FlatBlock]int)
	for _, c := range col.cfgs {
		for _, b := range c.Blocks() {
			fb := FlatBlock{CFG: c.ID, Block: b.ID}
			col.flatIdx[fb] = len(col.flat)
			col.flat = append(col.flat, fb)
		}
	}
	return col.flat
}

// Index returns the dense flat index of (cfg,block), computing the
// numbering first if necessary.
func (col *Collection) Index(cfg CFGID, block BlockID) int {
	if col.flat == nil {
		col.Flatten()
	}
	return col.flatIdx[FlatBlock{CFG: cfg, Block: block}]
}
