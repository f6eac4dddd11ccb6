// Package ilp implements the §3 ILP System / §4.J solver-adapter
// contract: a narrow, solver-agnostic variable/constraint builder, and
// a concrete backend that solves it.
//
// Shape grounded on OTAWA's ilp::AbstractSystem (original_source,
// include/otawa/ilp/AbstractSystem.h): vars and constraints are
// allocated from the system and referenced by handle, the objective is
// a separate term list, and solving is a single explicit call rather
// than something triggered implicitly by adding constraints.
//
// No ILP or LP library appears anywhere in the example pack, so the
// backend (Solve, in solver.go) is a from-scratch Big-M simplex
// plus branch-and-bound over integer variables, built on the standard
// library only; see DESIGN.md for why nothing in the pack could be
// wired in here instead.
package ilp

import "fmt"

// Comparator is a constraint's relational operator.
type Comparator int

const (
	LessEqual Comparator = iota
	Equal
	GreaterEqual
)

// VarID identifies a variable within one System.
type VarID int

// ConstraintID identifies a constraint within one System.
type ConstraintID int

// term is one coefficient*variable addend of a constraint or the
// objective row.
type term struct {
	Coef float64
	Var  VarID
}

// Constraint is one linear inequality/equality: Σ coef·var `Comp` Const.
type Constraint struct {
	Label string
	Comp  Comparator
	Const float64
	Terms []term
}

// System is the mutable ILP problem being built: variables, a list of
// constraints, and one objective row. Maximize selects the sense the
// objective is optimized in (§4.I always maximizes WCET).
type System struct {
	Maximize    bool
	varNames    []string
	constraints []Constraint
	objective   []term
}

// NewSystem creates an empty system in the given optimization sense.
func NewSystem(maximize bool) *System {
	return &System{Maximize: maximize}
}

// NewVariable allocates a new non-negative integer variable, named for
// diagnostics (see VarName) (§4.I execution-count and
// cache-miss/mispredict variables are all non-negative integers).
func (s *System) NewVariable(name string) VarID {
	s.varNames = append(s.varNames, name)
	return VarID(len(s.varNames) - 1)
}

// VarName returns the diagnostic name a variable was created with.
func (s *System) VarName(v VarID) string {
	if int(v) < 0 || int(v) >= len(s.varNames) {
		return fmt.Sprintf("v%d", v)
	}
	return s.varNames[v]
}

func (s *System) NumVars() int { return len(s.varNames) }

// NewConstraint allocates a new constraint `Σ coef·var Comp constant`,
// with no terms yet; AddTerm appends to it.
func (s *System) NewConstraint(label string, comp Comparator, constant float64) ConstraintID {
	s.constraints = append(s.constraints, Constraint{Label: label, Comp: comp, Const: constant})
	return ConstraintID(len(s.constraints) - 1)
}

// AddTerm appends coef*var to constraint c's left-hand side.
func (s *System) AddTerm(c ConstraintID, coef float64, v VarID) {
	s.constraints[c].Terms = append(s.constraints[c].Terms, term{Coef: coef, Var: v})
}

// SetObjectiveTerm appends coef*var to the objective function.
func (s *System) SetObjectiveTerm(coef float64, v VarID) {
	s.objective = append(s.objective, term{Coef: coef, Var: v})
}

func (s *System) Constraints() []Constraint { return s.constraints }
func (s *System) Objective() []term         { return s.objective }
