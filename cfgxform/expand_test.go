package cfgxform_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/cfgxform"
)

var _ = Describe("ExpandConditionals with NopExpander", func() {
	It("leaves instruction lists unchanged", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		b := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic, Instructions: []cfgmodel.Instruction{
			{Address: addr.Address{Offset: 0}, Size: 4},
			{Address: addr.Address{Offset: 4}, Size: 4},
		}})

		nc := cfgxform.ExpandConditionals(cfg, cfgxform.NopExpander{})
		Expect(nc.Block(b).Instructions).To(HaveLen(2))
	})
})

var _ = Describe("ExpandDelaySlots with NopExpander", func() {
	It("never reorders instructions", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		a0 := addr.Address{Offset: 0}
		a1 := addr.Address{Offset: 4}
		b := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic, Instructions: []cfgmodel.Instruction{
			{Address: a0, Size: 4, IsBranch: true, Target: a1, TargetKnown: true},
			{Address: a1, Size: 4},
		}})

		nc := cfgxform.ExpandDelaySlots(cfg, cfgxform.NopExpander{})
		Expect(nc.Block(b).Instructions[0].Address).To(Equal(a0))
		Expect(nc.Block(b).Instructions[1].Address).To(Equal(a1))
	})
})
