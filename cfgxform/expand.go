package cfgxform

import "github.com/otawa-go/wcetcore/cfgmodel"

// Expander performs the two architecture-dependent rewrites named in
// §4.C. Both are no-ops on architectures without the corresponding
// feature (predication, branch delay slots); a concrete inst.Provider
// for such an architecture supplies a no-op Expander.
type Expander interface {
	// ExpandConditional rewrites one predicated instruction into
	// equivalent explicit control flow, returning the replacement
	// instruction list for that single slot (length 1 if nothing
	// changed).
	ExpandConditional(cfgmodel.Instruction) []cfgmodel.Instruction

	// HasDelaySlot reports whether the given branch has a delay slot,
	// i.e. whether the instruction right after it in the block executes
	// before the branch takes effect (MIPS/SPARC delay-slot semantics);
	// ExpandDelaySlots then hoists that instruction above the branch.
	HasDelaySlot(cfgmodel.Instruction) bool
}

// NopExpander performs neither rewrite; it is the default for
// architectures without predication or delay slots (e.g. the ARM64
// reference provider used by the fixtures).
type NopExpander struct{}

func (NopExpander) ExpandConditional(i cfgmodel.Instruction) []cfgmodel.Instruction {
	return []cfgmodel.Instruction{i}
}
func (NopExpander) HasDelaySlot(cfgmodel.Instruction) bool { return false }

// ExpandConditionals rewrites every basic block's instruction list by
// running ExpandConditional over each instruction and concatenating the
// results, producing a fresh CFG. It is idempotent: running it twice on
// an already-expanded CFG with a NopExpander (or any expander whose
// ExpandConditional is itself idempotent on its own output) returns an
// equal CFG.
func ExpandConditionals(cfg *cfgmodel.CFG, ex Expander) *cfgmodel.CFG {
	nc := cfg.Clone()
	for _, b := range nc.Blocks() {
		if b.Kind != cfgmodel.BlockBasic {
			continue
		}
		var out []cfgmodel.Instruction
		for _, ins := range b.Instructions {
			out = append(out, ex.ExpandConditional(ins)...)
		}
		b.Instructions = out
	}
	return nc
}

// ExpandDelaySlots moves any instruction occupying a branch's delay
// slot to execute before the branch, matching the architecture's
// defined delay-slot semantics, so that later analyses can treat every
// branch as taking effect immediately after its own instruction.
func ExpandDelaySlots(cfg *cfgmodel.CFG, ex Expander) *cfgmodel.CFG {
	nc := cfg.Clone()
	for _, b := range nc.Blocks() {
		if b.Kind != cfgmodel.BlockBasic {
			continue
		}
		insns := b.Instructions
		for i := 0; i < len(insns)-1; i++ {
			if insns[i].IsBranch && ex.HasDelaySlot(insns[i]) {
				insns[i], insns[i+1] = insns[i+1], insns[i]
				i++
			}
		}
		b.Instructions = insns
	}
	return nc
}
