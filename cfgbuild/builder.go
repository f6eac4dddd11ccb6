// Package cfgbuild implements the CFG collection algorithm of §4.B:
// forward reachability from a set of entry addresses, splitting basic
// blocks at branch targets and after branches/calls, and recursively
// discovering callee CFGs behind call sites.
package cfgbuild

import (
	"log"

	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/flowfact"
	"github.com/otawa-go/wcetcore/inst"
)

// Builder discovers CFGs by forward reachability from a task entry
// address plus any additional callable entry addresses.
type Builder struct {
	Provider inst.Provider
	Facts    flowfact.Collaborator
	Logger   *log.Logger

	col      *cfgmodel.Collection
	byEntry  map[addr.Address]cfgmodel.CFGID
	labelFor func(addr.Address) string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLabeler sets how a discovered entry address is named; defaults to
// its hex address.
func WithLabeler(f func(addr.Address) string) Option {
	return func(b *Builder) { b.labelFor = f }
}

// New creates a Builder reading instructions from p and consulting
// facts for indirect-branch targets.
func New(p inst.Provider, facts flowfact.Collaborator, logger *log.Logger, opts ...Option) *Builder {
	if facts == nil {
		facts = flowfact.Empty{}
	}
	b := &Builder{
		Provider: p,
		Facts:    facts,
		Logger:   logger,
		byEntry:  make(map[addr.Address]cfgmodel.CFGID),
	}
	b.labelFor = func(a addr.Address) string { return a.String() }
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build constructs the transitive closure of CFGs reachable from entry,
// returning the collection. CFGs are numbered in discovery order
// starting at entry (§4.B determinism requirement).
func (b *Builder) Build(entry addr.Address) (*cfgmodel.Collection, error) {
	b.col = cfgmodel.NewCollection()
	b.byEntry = make(map[addr.Address]cfgmodel.CFGID)
	if _, err := b.discover(entry); err != nil {
		return nil, err
	}
	return b.col, nil
}

// discover returns the id of the CFG rooted at entry, building it (and
// recursively any callees) the first time it is seen.
func (b *Builder) discover(entry addr.Address) (cfgmodel.CFGID, error) {
	if id, ok := b.byEntry[entry]; ok {
		return id, nil
	}
	cfg := b.col.AddCFG(b.labelFor(entry), entry)
	b.byEntry[entry] = cfg.ID

	if err := b.buildOne(cfg); err != nil {
		return cfg.ID, err
	}
	return cfg.ID, nil
}

func (b *Builder) buildOne(cfg *cfgmodel.CFG) error {
	starts := map[addr.Address]cfgmodel.BlockID{}
	var order []addr.Address
	boundary := map[addr.Address]bool{cfg.Entry: true}

	// First pass: walk forward from the entry, splitting at every
	// instruction that begins a new block per the §4.B rule, and
	// recording call/branch targets as further boundaries to visit.
	visited := map[addr.Address]bool{}
	var worklist []addr.Address
	worklist = append(worklist, cfg.Entry)

	type rawBlock struct {
		insns []cfgmodel.Instruction
	}
	raw := map[addr.Address]*rawBlock{}
	var discoveryOrder []addr.Address

	for len(worklist) > 0 {
		start := worklist[0]
		worklist = worklist[1:]
		if visited[start] {
			continue
		}
		visited[start] = true
		boundary[start] = true
		discoveryOrder = append(discoveryOrder, start)

		rb := &rawBlock{}
		cur := start
		for {
			ins, err := b.Provider.InstructionAt(cur)
			if err != nil {
				return err
			}
			rb.insns = append(rb.insns, toModelInstruction(ins))

			next, _ := cur.Add(uint64(ins.Size))

			isBoundaryEnd := ins.Kind.Has(inst.KindBranch) || ins.Kind.Has(inst.KindCall) ||
				ins.Kind.Has(inst.KindReturn) || ins.Kind.Has(inst.KindTrap)

			if isBoundaryEnd {
				if ins.Kind.Has(inst.KindBranch) {
					if ins.TargetKnown {
						if !visited[ins.Target] {
							worklist = append(worklist, ins.Target)
						}
						boundary[ins.Target] = true
					} else if ins.Kind.Has(inst.KindConditional) || ins.Kind.Has(inst.KindBranch) {
						targets, ok := b.Facts.IndirectTargets(ins.Address)
						if ok {
							for _, t := range targets {
								if !visited[t] {
									worklist = append(worklist, t)
								}
								boundary[t] = true
							}
						} else if b.Logger != nil {
							b.Logger.Printf("cfgbuild: unresolved indirect branch at %s, no flow facts declared", ins.Address)
						}
					}
				}
				if !ins.Kind.Has(inst.KindCall) && !ins.Kind.Has(inst.KindReturn) {
					// fallthrough successor of a conditional/unconditional
					// branch still starts a new block.
					if !visited[next] {
						worklist = append(worklist, next)
					}
					boundary[next] = true
				}
				if ins.Kind.Has(inst.KindCall) {
					if !visited[next] {
						worklist = append(worklist, next)
					}
					boundary[next] = true
				}
				break
			}
			if boundary[next] && next != start {
				if !visited[next] {
					worklist = append(worklist, next)
				}
				break
			}
			cur = next
		}
		raw[start] = rb
	}

	// Second pass: re-walk from entry cutting each rawBlock at any
	// interior address that turned out to be a boundary (a later
	// discovered branch target landing inside an earlier-built block).
	// Iterate discoveryOrder rather than ranging over raw directly: map
	// iteration order is randomized, and §4.B requires blocks to be
	// numbered in discovery order across runs.
	for _, start := range discoveryOrder {
		rb := raw[start]
		cut := splitAtBoundaries(start, rb.insns, boundary)
		for _, piece := range cut {
			if len(piece.insns) == 0 {
				continue
			}
			blk := &cfgmodel.Block{Kind: cfgmodel.BlockBasic, Instructions: piece.insns}
			id := cfg.AddBlock(blk)
			starts[piece.insns[0].Address] = id
			order = append(order, piece.insns[0].Address)
		}
	}

	// Third pass: materialize edges, expanding calls into synthetic
	// call blocks that reference (and recursively discover) the callee.
	for _, start := range order {
		id := starts[start]
		blk := cfg.Block(id)
		last := blk.Instructions[len(blk.Instructions)-1]
		end, _ := last.Address.Add(uint64(last.Size))

		switch {
		case last.IsCall:
			calleeID, err := b.resolveCallee(last)
			if err != nil {
				return err
			}
			callBlk := &cfgmodel.Block{Kind: cfgmodel.BlockCall, Callee: calleeID}
			cid := cfg.AddBlock(callBlk)
			cfg.AddEdge(id, cid, cfgmodel.EdgeCall)
			if fallthroughID, ok := starts[end]; ok {
				cfg.AddEdge(cid, fallthroughID, cfgmodel.EdgeNotTaken)
			} else {
				cfg.AddEdge(cid, cfg.ExitBlock(), cfgmodel.EdgeNotTaken)
			}
			if calleeID != cfgmodel.NoCFG {
				callee := b.col.CFG(calleeID)
				callee.Callers = append(callee.Callers, cfgmodel.CallSite{CallerCFG: cfg.ID, Block: cid})
			}

		case last.IsReturn:
			cfg.AddEdge(id, cfg.ExitBlock(), cfgmodel.EdgeNotTaken)

		case last.IsBranch:
			if last.TargetKnown {
				if tid, ok := starts[last.Target]; ok {
					cfg.AddEdge(id, tid, cfgmodel.EdgeTaken)
				}
			} else {
				targets, ok := b.Facts.IndirectTargets(last.Address)
				if ok {
					for _, t := range targets {
						if tid, ok := starts[t]; ok {
							cfg.AddEdge(id, tid, cfgmodel.EdgeTaken)
						}
					}
				} else {
					unk := &cfgmodel.Block{Kind: cfgmodel.BlockUnknown}
					uid := cfg.AddBlock(unk)
					cfg.AddEdge(id, uid, cfgmodel.EdgeTaken)
					cfg.AddEdge(uid, cfg.ExitBlock(), cfgmodel.EdgeNotTaken)
				}
			}
			if fallthroughID, ok := starts[end]; ok {
				cfg.AddEdge(id, fallthroughID, cfgmodel.EdgeNotTaken)
			}

		default:
			if fallthroughID, ok := starts[end]; ok {
				cfg.AddEdge(id, fallthroughID, cfgmodel.EdgeNotTaken)
			} else {
				cfg.AddEdge(id, cfg.ExitBlock(), cfgmodel.EdgeNotTaken)
			}
		}
	}

	if len(order) > 0 {
		cfg.AddEdge(cfg.EntryBlock(), starts[order[0]], cfgmodel.EdgeNotTaken)
	} else {
		cfg.AddEdge(cfg.EntryBlock(), cfg.ExitBlock(), cfgmodel.EdgeNotTaken)
	}

	return nil
}

func (b *Builder) resolveCallee(last cfgmodel.Instruction) (cfgmodel.CFGID, error) {
	if !last.TargetKnown {
		if b.Logger != nil {
			b.Logger.Printf("cfgbuild: unresolved call target at %s", last.Address)
		}
		return cfgmodel.NoCFG, nil
	}
	return b.discover(last.Target)
}

func toModelInstruction(i inst.Instruction) cfgmodel.Instruction {
	return cfgmodel.Instruction{
		Address:     i.Address,
		Size:        i.Size,
		IsBranch:    i.Kind.Has(inst.KindBranch),
		IsCall:      i.Kind.Has(inst.KindCall),
		IsReturn:    i.Kind.Has(inst.KindReturn),
		Target:      i.Target,
		TargetKnown: i.TargetKnown,
	}
}

type piece struct {
	insns []cfgmodel.Instruction
}

// splitAtBoundaries cuts a contiguous raw instruction run into pieces at
// every address (other than its own start) that is a known block
// boundary, so that a branch target discovered after a block was first
// built still gets its own block.
func splitAtBoundaries(start addr.Address, insns []cfgmodel.Instruction, boundary map[addr.Address]bool) []piece {
	var pieces []piece
	var cur []cfgmodel.Instruction
	for _, ins := range insns {
		if len(cur) > 0 && boundary[ins.Address] {
			pieces = append(pieces, piece{insns: cur})
			cur = nil
		}
		cur = append(cur, ins)
	}
	if len(cur) > 0 {
		pieces = append(pieces, piece{insns: cur})
	}
	return pieces
}
