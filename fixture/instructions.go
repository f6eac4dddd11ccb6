package fixture

import (
	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/inst"
)

// instructionSize is the fixed instruction width fixtures assume, the
// same as the teacher's ARM64 target (every insts/decoder.go opcode is
// 4 bytes).
const instructionSize = 4

// ALU builds a non-branching integer instruction writing dst from src,
// classified inst.KindInt (the bulk of insts/decoder.go's OpADD/OpSUB/
// OpAND/OpORR/OpEOR family).
func ALU(a addr.Address, dst inst.Reg, src ...inst.Reg) inst.Instruction {
	return inst.Instruction{
		Address:  a,
		Size:     instructionSize,
		Kind:     inst.KindInt,
		Writes:   []inst.Reg{dst},
		Reads:    append([]inst.Reg(nil), src...),
		Semantic: []inst.Op{{Code: inst.OpAdd, D: dst, A: firstReg(src), B: secondReg(src)}},
	}
}

// Load builds a memory read instruction, the fixture analog of
// insts/decoder.go's OpLDR/OpLDRB/OpLDP family.
func Load(a addr.Address, dst, base inst.Reg) inst.Instruction {
	return inst.Instruction{
		Address:  a,
		Size:     instructionSize,
		Kind:     inst.KindLoad,
		Writes:   []inst.Reg{dst},
		Reads:    []inst.Reg{base},
		Semantic: []inst.Op{{Code: inst.OpLoad, D: dst, A: base}},
	}
}

// Store builds a memory write instruction (OpSTR/OpSTRB/OpSTP analog).
func Store(a addr.Address, src, base inst.Reg) inst.Instruction {
	return inst.Instruction{
		Address:  a,
		Size:     instructionSize,
		Kind:     inst.KindStore,
		Reads:    []inst.Reg{src, base},
		Semantic: []inst.Op{{Code: inst.OpStore, A: base, B: src}},
	}
}

// Branch builds an unconditional direct branch (OpB analog).
func Branch(a addr.Address, target addr.Address) inst.Instruction {
	return inst.Instruction{
		Address:     a,
		Size:        instructionSize,
		Kind:        inst.KindBranch,
		Target:      target,
		TargetKnown: true,
		Semantic:    []inst.Op{{Code: inst.OpBranch, Target: 0}},
	}
}

// CondBranch builds a conditional direct branch (OpBCond analog), the
// kind of instruction §4.H's branch-prediction categorization is
// defined over.
func CondBranch(a addr.Address, target addr.Address, cond inst.Reg) inst.Instruction {
	return inst.Instruction{
		Address:     a,
		Size:        instructionSize,
		Kind:        inst.KindBranch | inst.KindConditional,
		Target:      target,
		TargetKnown: true,
		Reads:       []inst.Reg{cond},
		Semantic:    []inst.Op{{Code: inst.OpIf, A: cond, Target: 1}, {Code: inst.OpBranch}},
	}
}

// IndirectBranch builds a conditional or unconditional branch whose
// target is not statically known (OpBR analog): §8 scenario S6's
// unresolved indirect branch.
func IndirectBranch(a addr.Address, conditional bool, reg inst.Reg) inst.Instruction {
	k := inst.KindBranch
	if conditional {
		k |= inst.KindConditional
	}
	return inst.Instruction{
		Address:  a,
		Size:     instructionSize,
		Kind:     k,
		Reads:    []inst.Reg{reg},
		Semantic: []inst.Op{{Code: inst.OpBranch}},
	}
}

// Call builds a direct call instruction (OpBL analog).
func Call(a addr.Address, target addr.Address) inst.Instruction {
	return inst.Instruction{
		Address:     a,
		Size:        instructionSize,
		Kind:        inst.KindCall,
		Target:      target,
		TargetKnown: true,
		Semantic:    []inst.Op{{Code: inst.OpBranch}},
	}
}

// Return builds a return instruction (OpRET analog).
func Return(a addr.Address) inst.Instruction {
	return inst.Instruction{
		Address:  a,
		Size:     instructionSize,
		Kind:     inst.KindReturn,
		Semantic: []inst.Op{{Code: inst.OpBranch}},
	}
}

func firstReg(rs []inst.Reg) inst.Reg {
	if len(rs) > 0 {
		return rs[0]
	}
	return 0
}

func secondReg(rs []inst.Reg) inst.Reg {
	if len(rs) > 1 {
		return rs[1]
	}
	return 0
}
