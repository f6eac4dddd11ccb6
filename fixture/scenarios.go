package fixture

import (
	"errors"

	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/blocktiming"
	"github.com/otawa-go/wcetcore/cfgbuild"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/dcache"
	"github.com/otawa-go/wcetcore/flowfact"
	"github.com/otawa-go/wcetcore/inst"
	"github.com/otawa-go/wcetcore/platform"
)

// Scenario bundles everything workspace.New (or a bare cfgbuild +
// workspace.Run) needs to reproduce one of the literal end-to-end
// fixtures, plus the WCET this package's own construction guarantees,
// so tests can assert on it without re-deriving the arithmetic.
type Scenario struct {
	Col          *cfgmodel.Collection
	Root         cfgmodel.CFGID
	Platform     *platform.Description
	Flow         flowfact.Collaborator
	Timing       blocktiming.Collaborator
	Address      dcache.AddressAnalysis
	ExpectedWCET uint64
}

func build(prog *Program, entry addr.Address, flow flowfact.Collaborator) (*cfgmodel.Collection, cfgmodel.CFGID, error) {
	builder := cfgbuild.New(prog, flow, nil)
	col, err := builder.Build(entry)
	if err != nil {
		return nil, 0, err
	}
	root, _ := col.FindByLabel(entry.String())
	return col, root.ID, nil
}

// blockAt returns the id of cfg's basic block whose first instruction
// is at a.
func blockAt(cfg *cfgmodel.CFG, a addr.Address) cfgmodel.BlockID {
	for _, b := range cfg.Blocks() {
		if b.Kind == cfgmodel.BlockBasic && b.Address() == a {
			return b.ID
		}
	}
	return cfg.EntryBlock()
}

func off(n uint64) addr.Address { return addr.Address{Offset: n} }

// S1 is §8's linear-program scenario: one basic block of 4
// instructions, t_b = 4, no loops, no cache. Expected WCET = 4.
func S1() (*Scenario, error) {
	prog := NewProgram(0x10000)
	a0 := off(0)
	prog.Add(ALU(a0, 1, 2, 3))
	a1 := off(4)
	prog.Add(ALU(a1, 1, 2))
	a2 := off(8)
	prog.Add(ALU(a2, 1, 2))
	a3 := off(12)
	prog.Add(Return(a3))

	col, root, err := build(prog, a0, flowfact.Empty{})
	if err != nil {
		return nil, err
	}
	cfg := col.CFG(root)
	blk := blockAt(cfg, a0)

	return &Scenario{
		Col:          col,
		Root:         root,
		Platform:     &platform.Description{},
		Flow:         flowfact.Empty{},
		Timing:       blocktiming.Fixed{Times: map[cfgmodel.BlockID]uint64{blk: 4}},
		ExpectedWCET: 4,
	}, nil
}

// S2 is §8's simple-loop scenario: entry E, header H (t=1), body B
// (t=3), back-edge bounded to 10 iterations. Expected WCET = 42 (1 for
// entry, 10*(1+3) for the bounded iterations, 1 more header check).
func S2() (*Scenario, error) {
	prog := NewProgram(0x10000)
	e := off(0)
	h := off(4)
	b := off(8)
	b1 := off(12)
	b2 := off(16)
	b3 := off(20)
	x := off(24)

	prog.Add(ALU(e, 1, 2))
	prog.Add(CondBranch(h, b, 3))
	prog.Add(ALU(b, 4, 1))
	prog.Add(ALU(b1, 4, 1))
	prog.Add(ALU(b2, 4, 1))
	prog.Add(Branch(b3, h))
	prog.Add(Return(x))

	flow := flowfact.NewStatic()
	flow.Bounds[h] = 10

	col, root, err := build(prog, e, flow)
	if err != nil {
		return nil, err
	}
	cfg := col.CFG(root)
	eBlk := blockAt(cfg, e)
	hBlk := blockAt(cfg, h)
	bBlk := blockAt(cfg, b)

	times := map[cfgmodel.BlockID]uint64{eBlk: 1, hBlk: 1, bBlk: 3}
	return &Scenario{
		Col:          col,
		Root:         root,
		Platform:     &platform.Description{},
		Flow:         flow,
		Timing:       blocktiming.Fixed{Times: times},
		ExpectedWCET: 42,
	}, nil
}

// S3 is §8's call-site scenario: main calls f once per iteration of a
// 5-bound loop; f is a single S1-shaped block with t=7. main's own
// blocks contribute 1 (entry) + 5 (loop-back branch, once per
// iteration); f contributes 5*7 = 35. Expected WCET(main) = 41.
func S3() (*Scenario, error) {
	callee := NewProgram(0x10000)
	fa0 := off(0)
	callee.Add(Return(fa0))

	main := NewProgram(0x10000)
	e := off(100)
	h := off(104)
	call := off(108)
	loopback := off(112)
	x := off(116)

	main.Add(ALU(e, 1, 2))
	main.Add(CondBranch(h, call, 3))
	main.Add(Call(call, fa0))
	main.Add(Branch(loopback, h))
	main.Add(Return(x))
	main.StartSegment()
	for _, ins := range callee.instrs {
		main.Add(ins)
	}

	flow := flowfact.NewStatic()
	flow.Bounds[h] = 5

	col, root, err := build(main, e, flow)
	if err != nil {
		return nil, err
	}
	cfg := col.CFG(root)
	eBlk := blockAt(cfg, e)
	hBlk := blockAt(cfg, h)
	loopbackBlk := blockAt(cfg, loopback)

	calleeCFG, ok := col.FindByLabel(fa0.String())
	if !ok {
		return nil, errNoCallee
	}
	fBlk := blockAt(calleeCFG, fa0)

	times := map[cfgmodel.BlockID]uint64{eBlk: 1, hBlk: 0, loopbackBlk: 1}
	fTimes := map[cfgmodel.BlockID]uint64{fBlk: 7}

	return &Scenario{
		Col:      col,
		Root:     root,
		Platform: &platform.Description{},
		Flow:     flow,
		Timing: combinedTiming{
			byCFG: map[cfgmodel.CFGID]map[cfgmodel.BlockID]uint64{
				root:         times,
				calleeCFG.ID: fTimes,
			},
		},
		ExpectedWCET: 41,
	}, nil
}

// S4 is §8's instruction-cache scenario: a 2-way, 2-set cache where the
// loop body's L-block is categorized First-Miss, contributing one
// guaranteed miss at loop entry (1*10) rather than one per iteration
// (10*10). Block times alone give 1 + 11 + 10 = 22 (entry once, header
// 11 times, body 10 times); +10 for the single entry miss = 32.
func S4() (*Scenario, error) {
	prog := NewProgram(0x10000)
	e := off(0)
	h := off(4)
	b := off(8)
	b1 := off(12)
	x := off(16)

	prog.Add(ALU(e, 1, 2))
	prog.Add(CondBranch(h, b, 3))
	prog.Add(ALU(b, 4, 1))
	prog.Add(Branch(b1, h))
	prog.Add(Return(x))

	flow := flowfact.NewStatic()
	flow.Bounds[h] = 10

	col, root, err := build(prog, e, flow)
	if err != nil {
		return nil, err
	}
	cfg := col.CFG(root)
	eBlk := blockAt(cfg, e)
	hBlk := blockAt(cfg, h)
	bBlk := blockAt(cfg, b)

	times := map[cfgmodel.BlockID]uint64{eBlk: 1, hBlk: 1, bBlk: 1}
	return &Scenario{
		Col:      col,
		Root:     root,
		// 4-byte lines put every instruction on its own line; e's line
		// and b's line alias into the same set but nothing is ever
		// inserted into that set after the loop starts, so b's line is
		// never evicted once warm (§8 S4's First-Miss property).
		Platform: &platform.Description{
			ICache: &platform.Cache{BlockBits: 2, RowBits: 1, WayBits: 1, Replacement: platform.ReplacementLRU, Write: platform.WriteThrough, MissPenalty: 10},
		},
		Flow:         flow,
		Timing:       blocktiming.Fixed{Times: times},
		ExpectedWCET: 32,
	}, nil
}

// S5 is §8's nested-loop persistence scenario: outer header OH bounded
// to 5 iterations, inner header IH (nested in OH) bounded to 3. IB's
// line aliases OH's and OH-BACK's line (both only ever touched once
// per outer iteration, outside the inner loop), while IH's own line
// never aliases IB's. Within one activation of the inner loop nothing
// else competes for IB's line, so only the activation's first access
// misses; crossing into the next outer iteration always evicts it, so
// IB contributes exactly 5 misses (one per activation), never 15 (one
// per total inner iteration).
//
// Block counts: e executes once, OH six times (entering once, looping
// back five times), IH twenty times (entering five times, looping back
// up to fifteen times), IB fifteen times, the inner-exit stub five
// times. Base time = 1*1 + 1*6 + 1*20 + 2*15 + 1*5 = 62. OH and
// OH-BACK alias IB's set and are themselves always evicted before
// their next use (6 + 5 misses); IH and IB's branch instruction settle
// into the cache after their first use and never alias anything else
// (1 + 1 misses, plus e's and the final return's own compulsory misses,
// 1 + 1 more); IB itself misses 5 times. 20 misses * 10 = 200, giving
// ExpectedWCET = 262.
func S5() (*Scenario, error) {
	prog := NewProgram(0x10000)
	e := off(0)
	oh := off(4)
	ih := off(8)
	ib := off(12)
	ibBranch := off(16)
	ohBack := off(20)
	x := off(24)

	prog.Add(ALU(e, 1, 2))
	prog.Add(CondBranch(oh, x, 3))
	prog.Add(CondBranch(ih, ohBack, 4))
	prog.Add(ALU(ib, 5, 1))
	prog.Add(Branch(ibBranch, ih))
	prog.Add(Branch(ohBack, oh))
	prog.Add(Return(x))

	flow := flowfact.NewStatic()
	flow.Bounds[oh] = 5
	flow.Bounds[ih] = 3

	col, root, err := build(prog, e, flow)
	if err != nil {
		return nil, err
	}
	cfg := col.CFG(root)
	eBlk := blockAt(cfg, e)
	ohBlk := blockAt(cfg, oh)
	ihBlk := blockAt(cfg, ih)
	ibBlk := blockAt(cfg, ib)
	ohBackBlk := blockAt(cfg, ohBack)

	times := map[cfgmodel.BlockID]uint64{eBlk: 1, ohBlk: 1, ihBlk: 1, ibBlk: 2, ohBackBlk: 1}
	return &Scenario{
		Col:      col,
		Root:     root,
		// 4-byte lines, 2 sets, 2-way: OH/IB/OH-BACK's lines fall in
		// the same set (their addresses are all odd multiples of the
		// line size) while IH's and IB's branch instruction's lines
		// fall in the other, giving IB exactly the aliasing the
		// comment above depends on.
		Platform: &platform.Description{
			ICache: &platform.Cache{BlockBits: 2, RowBits: 1, WayBits: 1, Replacement: platform.ReplacementLRU, Write: platform.WriteThrough, MissPenalty: 10},
		},
		Flow:         flow,
		Timing:       blocktiming.Fixed{Times: times},
		ExpectedWCET: 262,
	}, nil
}

// S6 is §8's unresolved-indirect-branch scenario: an indirect branch
// with two flow-facted targets, both of which must appear in the CFG as
// successors of the branch block, with flow-conservation holding across
// both. ind is not a branch target, so it shares e's basic block; no
// block starts at ind, so blockAt(cfg, ind) falls back to the entry
// sentinel, whose time the IPET objective does not count.
func S6() (*Scenario, error) {
	prog := NewProgram(0x10000)
	e := off(0)
	ind := off(4)
	t1 := off(8)
	t2 := off(12)
	reg := inst.Reg(7)

	prog.Add(ALU(e, 1, 2))
	prog.Add(IndirectBranch(ind, false, reg))
	prog.Add(Return(t1))
	prog.Add(Return(t2))

	flow := flowfact.NewStatic()
	flow.Indirect[ind] = []addr.Address{t1, t2}

	col, root, err := build(prog, e, flow)
	if err != nil {
		return nil, err
	}
	cfg := col.CFG(root)
	eBlk := blockAt(cfg, e)
	indBlk := blockAt(cfg, ind)
	t1Blk := blockAt(cfg, t1)
	t2Blk := blockAt(cfg, t2)

	times := map[cfgmodel.BlockID]uint64{eBlk: 1, indBlk: 1, t1Blk: 2, t2Blk: 5}
	return &Scenario{
		Col:          col,
		Root:         root,
		Platform:     &platform.Description{},
		Flow:         flow,
		Timing:       blocktiming.Fixed{Times: times},
		ExpectedWCET: 6, // block [e, ind](1) + the heavier of t1(2)/t2(5)
	}, nil
}

// combinedTiming is a blocktiming.Collaborator that dispatches to a
// per-CFG blocktiming.Fixed table, used by S3 to give main and its
// callee independent literal block times without a shared BlockID
// namespace.
type combinedTiming struct {
	byCFG map[cfgmodel.CFGID]map[cfgmodel.BlockID]uint64
}

func (c combinedTiming) BlockTime(cfg *cfgmodel.CFG, id cfgmodel.BlockID) uint64 {
	return c.byCFG[cfg.ID][id]
}

var errNoCallee = errors.New("fixture: callee cfg not discovered")
