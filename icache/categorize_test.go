package icache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/cacheage"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/fixture"
	"github.com/otawa-go/wcetcore/icache"
	"github.com/otawa-go/wcetcore/platform"
)

var _ = Describe("Categorize", func() {
	It("classifies the S4 loop body as FirstMiss, charged to the header", func() {
		s, err := fixture.S4()
		Expect(err).NotTo(HaveOccurred())
		cfg := s.Col.CFG(s.Root)

		dom := domloop.Compute(cfg)
		li := domloop.Analyze(cfg, dom)

		results, err := icache.Categorize(cfg, li, *s.Platform.ICache)
		Expect(err).NotTo(HaveOccurred())

		var sawFirstMiss bool
		for _, accesses := range results {
			for _, res := range accesses {
				if res.Category == cacheage.FirstMiss {
					sawFirstMiss = true
					Expect(li.IsHeader(res.Header)).To(BeTrue())
				}
			}
		}
		Expect(sawFirstMiss).To(BeTrue())
	})

	It("categorizes the L-blocks of a straight-line program", func() {
		s, err := fixture.S1()
		Expect(err).NotTo(HaveOccurred())
		cfg := s.Col.CFG(s.Root)

		dom := domloop.Compute(cfg)
		li := domloop.Analyze(cfg, dom)

		cache := s.Platform.ICache
		if cache == nil {
			cache = &platform.Cache{BlockBits: 6, RowBits: 4, WayBits: 2}
		}
		results, err := icache.Categorize(cfg, li, *cache)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).NotTo(BeEmpty())
	})
})
