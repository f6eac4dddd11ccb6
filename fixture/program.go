// Package fixture provides a literal, test-only inst.Provider: a
// Program assembled directly from inst.Instruction values instead of
// decoded from a binary. Binary loading and disassembly are explicit
// non-goals of the core (§1); this package exists only so tests can
// drive cfgbuild/cfgxform/icache/dcache/bpred/ipet against concrete,
// hand-built instruction streams, including the literal S1-S6 fixtures.
//
// Shape grounded on the teacher's loader.Program (EntryPoint/Segments/
// InitialSP) and insts/decoder.go's per-opcode Kind classification; the
// actual ELF parsing and ARM64 decode tables have no home here since
// nothing in the core calls them.
package fixture

import (
	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/inst"
)

// segment is one executable region's instructions in address
// (equivalently, program) order, mirroring the teacher's
// loader.Segment without the file-backed Data/MemSize fields a literal
// fixture has no use for.
type segment struct {
	order []addr.Address
}

// Program is a hand-assembled instruction stream implementing
// inst.Provider.
type Program struct {
	instrs   map[addr.Address]inst.Instruction
	segments []segment
	labels   map[string]addr.Address
	sp       uint64
}

// NewProgram creates an empty Program with the given initial stack
// pointer (the teacher's loader.Program.InitialSP equivalent).
func NewProgram(initialSP uint64) *Program {
	return &Program{
		instrs: make(map[addr.Address]inst.Instruction),
		labels: make(map[string]addr.Address),
		sp:     initialSP,
	}
}

// StartSegment opens a new executable segment; subsequent Add calls
// append to it until the next StartSegment. Fixtures that model a
// single function need not call this explicitly: Add opens the first
// segment lazily.
func (p *Program) StartSegment() {
	p.segments = append(p.segments, segment{})
}

// Add appends ins to the current segment (opening one if none exists
// yet) and indexes it by address for InstructionAt.
func (p *Program) Add(ins inst.Instruction) {
	if len(p.segments) == 0 {
		p.StartSegment()
	}
	p.instrs[ins.Address] = ins
	seg := &p.segments[len(p.segments)-1]
	seg.order = append(seg.order, ins.Address)
}

// Label records a as the entry address resolvable by name, for
// FindLabel and for cfgbuild.Builder's additional-entries callers.
func (p *Program) Label(name string, a addr.Address) {
	p.labels[name] = a
}

// InstructionAt implements inst.Provider.
func (p *Program) InstructionAt(a addr.Address) (inst.Instruction, error) {
	ins, ok := p.instrs[a]
	if !ok {
		return inst.Instruction{}, inst.ErrNoCode
	}
	return ins, nil
}

// IterateInSegment implements inst.Provider: it walks the segment
// containing start in the order instructions were Added, stopping
// early if fn returns false.
func (p *Program) IterateInSegment(start addr.Address, fn func(addr.Address) bool) {
	for _, seg := range p.segments {
		if !segContains(seg, start) {
			continue
		}
		for _, a := range seg.order {
			if !fn(a) {
				return
			}
		}
		return
	}
}

func segContains(seg segment, a addr.Address) bool {
	for _, candidate := range seg.order {
		if candidate == a {
			return true
		}
	}
	return false
}

// FindLabel implements inst.Provider.
func (p *Program) FindLabel(name string) (addr.Address, bool) {
	a, ok := p.labels[name]
	return a, ok
}

// InitialSP implements inst.Provider.
func (p *Program) InitialSP() uint64 { return p.sp }
