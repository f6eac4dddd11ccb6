package dcache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/cacheage"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/dcache"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/platform"
)

var _ = Describe("Categorize", func() {
	It("categorizes a loop body's single load as FirstMiss", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		h := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic, Instructions: []cfgmodel.Instruction{
			{Address: addr.Address{Offset: 0}, Size: 4},
		}})
		body := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic, Instructions: []cfgmodel.Instruction{
			{Address: addr.Address{Offset: 4}, Size: 4},
		}})
		cfg.AddEdge(cfg.EntryBlock(), h, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(h, body, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(h, cfg.ExitBlock(), cfgmodel.EdgeTaken)
		cfg.AddEdge(body, h, cfgmodel.EdgeNotTaken)

		dom := domloop.Compute(cfg)
		li := domloop.Analyze(cfg, dom)

		loadLine := addr.Address{Offset: 4096}
		resolver := dcache.ExactAddress{
			Addresses: map[cfgmodel.BlockID]map[int]addr.Address{body: {0: loadLine}},
		}
		cache := platform.Cache{BlockBits: 6, RowBits: 2, WayBits: 2}

		results, err := dcache.Categorize(cfg, li, cache, resolver)
		Expect(err).NotTo(HaveOccurred())

		res := results[body][0]
		Expect(res.Category).To(Equal(cacheage.FirstMiss))
		Expect(li.IsHeader(res.Header)).To(BeTrue())
	})

	It("skips a write-through store from cache categorization entirely", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		blk := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic, Instructions: []cfgmodel.Instruction{
			{Address: addr.Address{Offset: 0}, Size: 4},
		}})
		cfg.AddEdge(cfg.EntryBlock(), blk, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(blk, cfg.ExitBlock(), cfgmodel.EdgeNotTaken)

		dom := domloop.Compute(cfg)
		li := domloop.Analyze(cfg, dom)

		resolver := dcache.ExactAddress{
			Addresses: map[cfgmodel.BlockID]map[int]addr.Address{blk: {0: {Offset: 64}}},
			Stores:    map[cfgmodel.BlockID]map[int]bool{blk: {0: true}},
		}
		cache := platform.Cache{BlockBits: 6, RowBits: 2, WayBits: 2, Write: platform.WriteThrough}

		results, err := dcache.Categorize(cfg, li, cache, resolver)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[blk][0].Category).To(Equal(cacheage.NotClassified))
	})
})
