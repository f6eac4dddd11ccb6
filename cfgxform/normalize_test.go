package cfgxform_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/cfgxform"
)

func TestCfgxform(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cfgxform Suite")
}

var _ = Describe("Normalize", func() {
	It("keeps every block co-reachable to exit unchanged in count", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		a := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		cfg.AddEdge(cfg.EntryBlock(), a, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(a, cfg.ExitBlock(), cfgmodel.EdgeNotTaken)

		nc, err := cfgxform.Normalize(cfg, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(nc.NumBlocks()).To(Equal(3))
	})

	It("removes a dead block that can never reach exit", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		live := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		dead := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		cfg.AddEdge(cfg.EntryBlock(), live, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(live, cfg.ExitBlock(), cfgmodel.EdgeNotTaken)
		cfg.AddEdge(dead, dead, cfgmodel.EdgeNotTaken) // unreachable self-loop, never hits exit

		nc, err := cfgxform.Normalize(cfg, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(nc.NumBlocks()).To(Equal(3))
	})

	It("fails when the entry itself cannot reach exit", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		dead := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		cfg.AddEdge(cfg.EntryBlock(), dead, cfgmodel.EdgeNotTaken)
		// no edge from dead to exit at all

		_, err := cfgxform.Normalize(cfg, false)
		Expect(err).To(HaveOccurred())
	})

	It("keeps the disconnected entry when force is true", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		dead := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		cfg.AddEdge(cfg.EntryBlock(), dead, cfgmodel.EdgeNotTaken)

		nc, err := cfgxform.Normalize(cfg, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(nc).NotTo(BeNil())
	})
})

var _ = Describe("ReachableFromEntry", func() {
	It("marks only blocks forward-reachable from entry", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		reachable := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		unreachable := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		cfg.AddEdge(cfg.EntryBlock(), reachable, cfgmodel.EdgeNotTaken)

		seen := cfgxform.ReachableFromEntry(cfg)
		Expect(seen[reachable]).To(BeTrue())
		Expect(seen[unreachable]).To(BeFalse())
	})
})
