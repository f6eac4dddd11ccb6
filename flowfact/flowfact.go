// Package flowfact defines the external flow-fact collaborator (§6):
// externally supplied constraints that the core cannot derive on its
// own — declared indirect-branch targets and loop iteration bounds.
// Flow-fact textual parsing is an explicit non-goal of the core; this
// package only states the contract an already-parsed source must meet.
package flowfact

import "github.com/otawa-go/wcetcore/addr"

// Collaborator is the minimal flow-fact contract the CFG builder and
// the IPET builder depend on.
type Collaborator interface {
	// IndirectTargets returns the declared possible targets of the
	// indirect branch at addr, or (nil, false) if none were declared.
	IndirectTargets(branch addr.Address) ([]addr.Address, bool)

	// LoopBound returns the declared maximum iteration count for the
	// loop headed at header, or (0, false) if none was declared.
	LoopBound(header addr.Address) (int, bool)
}

// Empty is a Collaborator with no declared facts at all; every lookup
// returns "not found". It is useful as a default when the caller has no
// flow-fact source, and matches the builder's documented fallback
// behavior (warn, treat as unresolved/unbounded).
type Empty struct{}

func (Empty) IndirectTargets(addr.Address) ([]addr.Address, bool) { return nil, false }
func (Empty) LoopBound(addr.Address) (int, bool)                  { return 0, false }

// Static is a simple in-memory Collaborator, the shape a flow-fact text
// parser (outside the core) would populate and hand in.
type Static struct {
	Indirect map[addr.Address][]addr.Address
	Bounds   map[addr.Address]int
}

// NewStatic creates an empty Static collaborator ready to be filled in.
func NewStatic() *Static {
	return &Static{
		Indirect: make(map[addr.Address][]addr.Address),
		Bounds:   make(map[addr.Address]int),
	}
}

func (s *Static) IndirectTargets(branch addr.Address) ([]addr.Address, bool) {
	t, ok := s.Indirect[branch]
	return t, ok
}

func (s *Static) LoopBound(header addr.Address) (int, bool) {
	b, ok := s.Bounds[header]
	return b, ok
}
