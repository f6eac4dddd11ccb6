package bpred_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/bpred"
	"github.com/otawa-go/wcetcore/cfgbuild"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/fixture"
	"github.com/otawa-go/wcetcore/flowfact"
	"github.com/otawa-go/wcetcore/platform"
)

func TestBpred(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bpred Suite")
}

var _ = Describe("Category", func() {
	It("renders every category's diagnostic name", func() {
		cases := map[bpred.Category]string{
			bpred.AlwaysCorrect:    "always-correct",
			bpred.AlwaysMispredict: "always-mispredict",
			bpred.FirstMispredict:  "first-mispredict",
			bpred.NotClassified:    "not-classified",
		}
		for cat, want := range cases {
			Expect(cat.String()).To(Equal(want))
		}
	})
})

var _ = Describe("Categorize", func() {
	It("categorizes a loop-bound conditional branch as first-mispredict, charged to the header", func() {
		prog := fixture.NewProgram(0x1000)
		e := addr.Address{Offset: 0}  // header: conditional branch out of the loop
		h := addr.Address{Offset: 4}  // body
		back := addr.Address{Offset: 8}
		t := addr.Address{Offset: 12} // exit

		prog.Add(fixture.CondBranch(e, t, 1))
		prog.Add(fixture.ALU(h, 1, 2))
		prog.Add(fixture.Branch(back, e))
		prog.Add(fixture.Return(t))

		b := cfgbuild.New(prog, flowfact.Empty{}, nil)
		col, err := b.Build(e)
		Expect(err).NotTo(HaveOccurred())
		cfg, ok := col.FindByLabel(e.String())
		Expect(ok).To(BeTrue())

		dom := domloop.Compute(cfg)
		li := domloop.Analyze(cfg, dom)

		bht := platform.BHT{RowBits: 4, WayBits: 1}
		results, err := bpred.Categorize(cfg, li, prog, bht)
		Expect(err).NotTo(HaveOccurred())

		var headerBlock cfgmodel.BlockID
		var found int
		for _, blk := range cfg.Blocks() {
			if len(blk.Instructions) > 0 && blk.Instructions[0].Address == e {
				headerBlock = blk.ID
				found++
			}
		}
		Expect(found).To(Equal(1))

		res, ok := results[headerBlock]
		Expect(ok).To(BeTrue())
		Expect(res.Category).To(Equal(bpred.FirstMispredict))
		Expect(li.IsHeader(res.Header)).To(BeTrue())
	})
})
