// Package inst provides the uniform, architecture-neutral view of a
// machine instruction that every analysis in the WCET core is built
// against (§4.A). It mirrors the field layout of the teacher's ARM64
// insts.Op/Format decoding, generalized into a kind bit mask plus a
// lowered semantic micro-op sequence instead of one struct per
// instruction family.
package inst

import (
	"fmt"

	"github.com/otawa-go/wcetcore/addr"
)

// Kind is a bit mask describing the coarse category of an instruction.
// Several bits may be set at once (e.g. a conditional call).
type Kind uint16

const (
	KindBranch Kind = 1 << iota
	KindConditional
	KindCall
	KindReturn
	KindLoad
	KindStore
	KindInt
	KindFloat
	KindTrap
	KindIntern // pseudo-instruction internal to the analysis, never executed
)

func (k Kind) Has(bit Kind) bool { return k&bit != 0 }

// Reg identifies an architectural or virtual register. Virtual registers
// (used only in the semantic sequence) are negative.
type Reg int32

// Instruction is the immutable record produced by an inst.Provider for a
// given address.
type Instruction struct {
	Address addr.Address
	Size    uint32
	Kind    Kind

	// Target is the direct branch/call destination, valid only when Kind
	// has KindBranch or KindCall set and the branch is direct. Indirect
	// branches leave Target as addr.Null and TargetKnown false.
	Target      addr.Address
	TargetKnown bool

	Reads  []Reg
	Writes []Reg

	// Semantic is the lowered micro-op sequence used by data-flow
	// analyses (e.g. the data-cache address analysis collaborator).
	Semantic []Op
}

func (i Instruction) String() string {
	return fmt.Sprintf("[%s +%d k=%016b]", i.Address, i.Size, i.Kind)
}

// Provider is the external "instruction abstraction" collaborator
// (§6): given an address, it returns the instruction record there, or
// signals that there is no code at that address. It is implemented
// outside the core (see the fixture package for a reference/test
// implementation); the core only ever calls this interface.
type Provider interface {
	// InstructionAt decodes the instruction at addr, or returns
	// ErrNoCode if addr is not inside an executable segment.
	InstructionAt(a addr.Address) (Instruction, error)

	// IterateInSegment calls fn for every instruction address in
	// discovery order within the segment containing start, stopping
	// early if fn returns false.
	IterateInSegment(start addr.Address, fn func(addr.Address) bool)

	// FindLabel resolves a symbolic function name to its entry
	// address. Returns false if the label is unknown.
	FindLabel(name string) (addr.Address, bool)

	// InitialSP returns the initial stack pointer value for the task,
	// used as the abstract address-analysis seed for the data cache.
	InitialSP() uint64
}

// ErrNoCode is returned by Provider.InstructionAt when the address does
// not fall within an executable segment.
var ErrNoCode = errNoCode{}

type errNoCode struct{}

func (errNoCode) Error() string { return "inst: no code at address" }
