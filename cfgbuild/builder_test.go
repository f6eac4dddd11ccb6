package cfgbuild_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/cfgbuild"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/fixture"
	"github.com/otawa-go/wcetcore/flowfact"
)

func TestCfgbuild(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cfgbuild Suite")
}

var _ = Describe("Builder", func() {
	It("builds a single basic block for straight-line code", func() {
		prog := fixture.NewProgram(0x1000)
		a0 := addr.Address{Offset: 0}
		prog.Add(fixture.ALU(a0, 1, 2, 3))
		a1 := addr.Address{Offset: 4}
		prog.Add(fixture.ALU(a1, 1, 2))
		a2 := addr.Address{Offset: 8}
		prog.Add(fixture.Return(a2))

		b := cfgbuild.New(prog, flowfact.Empty{}, nil)
		col, err := b.Build(a0)
		Expect(err).NotTo(HaveOccurred())

		cfg, ok := col.FindByLabel(a0.String())
		Expect(ok).To(BeTrue())

		var basic int
		for _, blk := range cfg.Blocks() {
			if blk.Kind == cfgmodel.BlockBasic {
				basic++
			}
		}
		Expect(basic).To(Equal(1))
	})

	It("splits into taken/not-taken blocks at a conditional branch", func() {
		prog := fixture.NewProgram(0x1000)
		e := addr.Address{Offset: 0}
		h := addr.Address{Offset: 4}
		t := addr.Address{Offset: 8}
		prog.Add(fixture.CondBranch(e, t, 1))
		prog.Add(fixture.ALU(h, 1, 2))
		prog.Add(fixture.Return(t))

		b := cfgbuild.New(prog, flowfact.Empty{}, nil)
		col, err := b.Build(e)
		Expect(err).NotTo(HaveOccurred())
		cfg, _ := col.FindByLabel(e.String())

		entryEdges := cfg.Succ(cfg.EntryBlock())
		Expect(entryEdges).To(HaveLen(1))
		firstBlk := cfg.Edge(entryEdges[0]).Sink
		Expect(cfg.Succ(firstBlk)).To(HaveLen(2))
	})

	It("recursively discovers a callee CFG behind a call site", func() {
		prog := fixture.NewProgram(0x1000)
		callee := addr.Address{Offset: 200}
		prog.Add(fixture.Return(callee))

		main := addr.Address{Offset: 0}
		after := addr.Address{Offset: 4}
		prog.Add(fixture.Call(main, callee))
		prog.Add(fixture.Return(after))

		b := cfgbuild.New(prog, flowfact.Empty{}, nil)
		col, err := b.Build(main)
		Expect(err).NotTo(HaveOccurred())

		Expect(col.NumCFGs()).To(Equal(2))
		calleeCFG, ok := col.FindByLabel(callee.String())
		Expect(ok).To(BeTrue())
		Expect(calleeCFG.Callers).To(HaveLen(1))
	})

	It("numbers CFGs starting at the task entry", func() {
		prog := fixture.NewProgram(0x1000)
		callee := addr.Address{Offset: 200}
		prog.Add(fixture.Return(callee))
		main := addr.Address{Offset: 0}
		prog.Add(fixture.Call(main, callee))
		after := addr.Address{Offset: 4}
		prog.Add(fixture.Return(after))

		b := cfgbuild.New(prog, flowfact.Empty{}, nil)
		col, err := b.Build(main)
		Expect(err).NotTo(HaveOccurred())

		mainCFG, _ := col.FindByLabel(main.String())
		Expect(mainCFG.ID).To(Equal(cfgmodel.CFGID(0)))
	})

	It("uses a custom labeler when WithLabeler is given", func() {
		prog := fixture.NewProgram(0x1000)
		a0 := addr.Address{Offset: 0}
		prog.Add(fixture.Return(a0))

		b := cfgbuild.New(prog, flowfact.Empty{}, nil, cfgbuild.WithLabeler(func(a addr.Address) string {
			return "entry_" + a.String()
		}))
		col, err := b.Build(a0)
		Expect(err).NotTo(HaveOccurred())

		_, ok := col.FindByLabel("entry_" + a0.String())
		Expect(ok).To(BeTrue())
	})
})
