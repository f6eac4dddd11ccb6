package cfgxform_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/cfgbuild"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/cfgxform"
	"github.com/otawa-go/wcetcore/fixture"
	"github.com/otawa-go/wcetcore/flowfact"
)

var _ = Describe("Virtualize", func() {
	It("inlines a resolvable call site into a call-free CFG", func() {
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

		mainCFG, _ := col.FindByLabel(main.String())
		virtual := cfgxform.Virtualize(col, mainCFG.ID)

		for _, blk := range virtual.Blocks() {
			Expect(blk.Kind).NotTo(Equal(cfgmodel.BlockCall))
		}
	})

	It("leaves a recursive call as an ordinary call block rather than looping forever", func() {
		prog := fixture.NewProgram(0x1000)
		self := addr.Address{Offset: 0}
		next := addr.Address{Offset: 4}
		prog.Add(fixture.Call(self, self))
		prog.Add(fixture.Return(next))

		b := cfgbuild.New(prog, flowfact.Empty{}, nil)
		col, err := b.Build(self)
		Expect(err).NotTo(HaveOccurred())

		root, _ := col.FindByLabel(self.String())
		virtual := cfgxform.Virtualize(col, root.ID)

		var sawCall bool
		for _, blk := range virtual.Blocks() {
			if blk.Kind == cfgmodel.BlockCall {
				sawCall = true
			}
		}
		Expect(sawCall).To(BeTrue())
	})
})
