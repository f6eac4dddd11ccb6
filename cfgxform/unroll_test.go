package cfgxform_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/cfgxform"
	"github.com/otawa-go/wcetcore/domloop"
)

var _ = Describe("UnrollFirstIteration", func() {
	It("duplicates the loop body and keeps the header shared", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		h := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		body := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		cfg.AddEdge(cfg.EntryBlock(), h, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(h, body, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(h, cfg.ExitBlock(), cfgmodel.EdgeTaken)
		cfg.AddEdge(body, h, cfgmodel.EdgeNotTaken)

		dom := domloop.Compute(cfg)
		li := domloop.Analyze(cfg, dom)

		before := cfg.NumBlocks()
		unrolled := cfgxform.UnrollFirstIteration(cfg, li)

		Expect(unrolled.NumBlocks()).To(BeNumerically(">", before))
	})

	It("routes the peeled copy's back-edge into the original header", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		h := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		body := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		cfg.AddEdge(cfg.EntryBlock(), h, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(h, body, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(h, cfg.ExitBlock(), cfgmodel.EdgeTaken)
		cfg.AddEdge(body, h, cfgmodel.EdgeNotTaken)

		dom := domloop.Compute(cfg)
		li := domloop.Analyze(cfg, dom)
		unrolled := cfgxform.UnrollFirstIteration(cfg, li)

		// every edge into h that isn't from the original body is one of
		// the entry edge or a peeled-copy edge; h must still be reachable.
		Expect(unrolled.PredBlocks(h)).NotTo(BeEmpty())
	})

	It("no longer lets entry reach the header directly, bypassing the peeled copy", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		h := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		body := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		cfg.AddEdge(cfg.EntryBlock(), h, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(h, body, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(h, cfg.ExitBlock(), cfgmodel.EdgeTaken)
		cfg.AddEdge(body, h, cfgmodel.EdgeNotTaken)

		dom := domloop.Compute(cfg)
		li := domloop.Analyze(cfg, dom)
		unrolled := cfgxform.UnrollFirstIteration(cfg, li)

		for _, p := range unrolled.PredBlocks(h) {
			Expect(p).NotTo(Equal(unrolled.EntryBlock()))
		}

		for _, blk := range unrolled.Blocks() {
			if blk.HasOriginal && blk.OriginalID == body {
				for _, s := range unrolled.SuccBlocks(blk.ID) {
					Expect(s).NotTo(Equal(blk.ID))
				}
			}
		}
	})
})
