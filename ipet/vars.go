// Package ipet implements the §4.I IPET builder: it consumes a whole
// program's cfgmodel.Collection plus the loop, cache, and branch
// categorizations already computed for each CFG, and produces the
// ilp.System whose optimal objective value is the WCET estimate.
package ipet

import (
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/ilp"
)

// edgeKey identifies an edge across the whole collection, since
// cfgmodel.EdgeID is only unique within its own CFG.
type edgeKey struct {
	CFG  cfgmodel.CFGID
	Edge cfgmodel.EdgeID
}

// Vars records the ilp.VarID assigned to every block and edge
// execution-count variable, so a solved System's assignment can be
// mapped back onto the CFG for reporting.
type Vars struct {
	Block map[cfgmodel.FlatBlock]ilp.VarID
	Edge  map[edgeKey]ilp.VarID
}

func newVars() *Vars {
	return &Vars{
		Block: make(map[cfgmodel.FlatBlock]ilp.VarID),
		Edge:  make(map[edgeKey]ilp.VarID),
	}
}

// BlockVar returns the execution-count variable for a block, or false
// if that CFG/block was never registered with the builder.
func (v *Vars) BlockVar(cfg cfgmodel.CFGID, block cfgmodel.BlockID) (ilp.VarID, bool) {
	id, ok := v.Block[cfgmodel.FlatBlock{CFG: cfg, Block: block}]
	return id, ok
}

// EdgeVar returns the execution-count variable for an edge.
func (v *Vars) EdgeVar(cfg cfgmodel.CFGID, edge cfgmodel.EdgeID) (ilp.VarID, bool) {
	id, ok := v.Edge[edgeKey{CFG: cfg, Edge: edge}]
	return id, ok
}
