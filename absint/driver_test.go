package absint_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/absint"
	"github.com/otawa-go/wcetcore/addr"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/domloop"
)

func TestAbsint(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Absint Suite")
}

// reachDomain is a minimal Domain[bool] computing "is this block
// reachable at all": bottom is false, join is OR, every block that sees
// any true input becomes true.
type reachDomain struct{}

func (reachDomain) Bottom() bool                 { return false }
func (reachDomain) Initial() bool                { return true }
func (reachDomain) Join(a, b bool) bool           { return a || b }
func (reachDomain) Equal(a, b bool) bool          { return a == b }
func (reachDomain) UpdateBlock(_ *cfgmodel.CFG, _ cfgmodel.BlockID, in bool) bool { return in }

var _ = Describe("Run", func() {
	It("propagates the entry's initial state to every reachable block", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		a := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		b := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		cfg.AddEdge(cfg.EntryBlock(), a, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(a, b, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(b, cfg.ExitBlock(), cfgmodel.EdgeNotTaken)

		res, err := absint.Run[bool](cfg, nil, reachDomain{}, absint.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.BlockOut[a]).To(BeTrue())
		Expect(res.BlockOut[b]).To(BeTrue())
	})

	It("converges over a loop without an explicit bound", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		h := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		body := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		cfg.AddEdge(cfg.EntryBlock(), h, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(h, body, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(h, cfg.ExitBlock(), cfgmodel.EdgeTaken)
		cfg.AddEdge(body, h, cfgmodel.EdgeNotTaken)

		dom := domloop.Compute(cfg)
		li := domloop.Analyze(cfg, dom)

		res, err := absint.Run[bool](cfg, li, reachDomain{}, absint.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.BlockOut[h]).To(BeTrue())
		Expect(res.BlockOut[body]).To(BeTrue())
	})

	It("stops early and reports cancellation when Cancel returns true", func() {
		cfg := cfgmodel.New(0, "f", addr.Address{})
		a := cfg.AddBlock(&cfgmodel.Block{Kind: cfgmodel.BlockBasic})
		cfg.AddEdge(cfg.EntryBlock(), a, cfgmodel.EdgeNotTaken)
		cfg.AddEdge(a, cfg.ExitBlock(), cfgmodel.EdgeNotTaken)

		_, err := absint.Run[bool](cfg, nil, reachDomain{}, absint.Options{Cancel: func() bool { return true }})
		Expect(err).To(HaveOccurred())
	})
})
