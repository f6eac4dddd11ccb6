package cfgmodel_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/cfgmodel"
)

var _ = Describe("CFG", func() {
	It("creates exactly one entry and one exit sentinel block", func() {
		c := cfgmodel.New(0, "f", addr.Address{})

		Expect(c.NumBlocks()).To(Equal(2))
		Expect(c.Block(c.EntryBlock()).Kind).To(Equal(cfgmodel.BlockEntry))
		Expect(c.Block(c.ExitBlock()).Kind).To(Equal(cfgmodel.BlockExit))
	})

	It("numbers blocks in discovery order and records edge endpoints", func() {
		c := cfgmodel.New(0, "f", addr.Address{})
		b1 := c.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		b2 := c.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})

		Expect(b1).To(Equal(cfgmodel.BlockID(2)))
		Expect(b2).To(Equal(cfgmodel.BlockID(3)))

		e1 := c.AddEdge(b1, b2, cfgmodel.EdgeNotTaken)
		Expect(c.Edge(e1).Source).To(Equal(b1))
		Expect(c.Edge(e1).Sink).To(Equal(b2))
	})

	It("keeps adjacency in sync across AddEdge", func() {
		c := cfgmodel.New(0, "f", addr.Address{})
		a := c.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		b := c.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		d := c.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})

		c.AddEdge(a, b, cfgmodel.EdgeNotTaken)
		c.AddEdge(a, d, cfgmodel.EdgeTaken)

		Expect(c.SuccBlocks(a)).To(ConsistOf(b, d))
		Expect(c.PredBlocks(b)).To(ConsistOf(a))
		Expect(c.PredBlocks(d)).To(ConsistOf(a))
	})

	It("clones blocks, edges, and adjacency independently of the original", func() {
		c := cfgmodel.New(0, "f", addr.Address{})
		a := c.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic, Instructions: []cfgmodel.Instruction{{Address: addr.Address{Offset: 4}}}})
		b := c.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		c.AddEdge(a, b, cfgmodel.EdgeNotTaken)

		clone := c.Clone()
		clone.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		clone.Block(a).Instructions[0].Address = addr.Address{Offset: 99}

		Expect(c.NumBlocks()).To(Equal(4))
		Expect(clone.NumBlocks()).To(Equal(5))
		Expect(c.Block(a).Instructions[0].Address).To(Equal(addr.Address{Offset: 4}))
	})

	It("computes a basic block's address from its first instruction", func() {
		b := &cfgmodel.Block{Instructions: []cfgmodel.Instruction{
			{Address: addr.Address{Offset: 100}, Size: 4},
			{Address: addr.Address{Offset: 104}, Size: 4},
		}}
		Expect(b.Address()).To(Equal(addr.Address{Offset: 100}))
		Expect(b.EndAddress()).To(Equal(addr.Address{Offset: 108}))
	})

	It("returns the null address for a block with no instructions", func() {
		b := &cfgmodel.Block{Kind: cfgmodel.BlockEntry}
		Expect(b.Address()).To(Equal(addr.Null))
		Expect(b.EndAddress()).To(Equal(addr.Null))
	})
})
