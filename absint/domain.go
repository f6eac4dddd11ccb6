// Package absint provides the generic abstract-interpretation driver of
// §4.E: a worklist fixpoint iterator over a cfgmodel.CFG, monomorphized
// per domain via Go generics instead of the teacher's absent (m2sim has
// no AI pass) virtual-dispatch equivalent — following the §9 design
// note to express the "template-heavy generic abstract interpreter" as
// a trait (here, a generic interface) with bounded iteration.
package absint

import "github.com/otawa-go/wcetcore/cfgmodel"

// Domain is the lattice plus transfer function a caller supplies to
// Run. S is the abstract state type (e.g. a per-cache-set ACS array).
type Domain[S any] interface {
	// Bottom is the lattice's least element, the initial stored value
	// for every block before the first visit.
	Bottom() S

	// Initial is the state flowing into the entry block's first visit.
	Initial() S

	// Join combines two states reaching the same program point from
	// different predecessors (or iterations).
	Join(a, b S) S

	// Equal reports whether two states are the same abstract value,
	// used to detect fixpoint convergence.
	Equal(a, b S) bool

	// UpdateBlock computes the outgoing state for a block from its
	// incoming (joined) state.
	UpdateBlock(cfg *cfgmodel.CFG, block cfgmodel.BlockID, in S) S
}

// EdgeUpdater is an optional extension a Domain may also implement when
// edges themselves transform the abstract state (e.g. a branch
// narrowing a value domain); absent, edges pass their source block's
// out state through unchanged.
type EdgeUpdater[S any] interface {
	UpdateEdge(cfg *cfgmodel.CFG, edge cfgmodel.EdgeID, in S) S
}

// LoopContext is an optional extension for domains that need to know
// when the driver enters/leaves a loop header's widening or
// first-iteration-unrolling context (e.g. persistence domains tracking
// per-depth "furthest age").
type LoopContext[S any] interface {
	EnterContext(header cfgmodel.BlockID)
	LeaveContext(header cfgmodel.BlockID)
}

// Widener is an optional extension for domains run in widening mode
// (§4.E): after WideningThreshold visits to a header without
// convergence, Widen coarsens the accumulated value instead of
// iterating forever. Domains that are naturally finite-height (the
// Must/May/Persistence cache domains bounded by associativity) do not
// need this and can rely on first-iteration-unrolling convergence
// instead.
type Widener[S any] interface {
	Widen(old, new S) S
}
