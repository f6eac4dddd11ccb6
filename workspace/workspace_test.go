package workspace_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/platform"
	"github.com/otawa-go/wcetcore/workspace"
)

var errBoom = errors.New("boom")

var _ = Describe("Workspace", func() {
	It("starts with FeatureCFG already provided when given a non-nil collection", func() {
		col := &cfgmodel.Collection{}
		ws := workspace.New(col, 0, nil, nil, &platform.Description{}, nil, nil, nil)
		a := stubPass{name: "a", requires: []string{workspace.FeatureCFG}, ran: new([]string)}

		Expect(workspace.Run(ws, []workspace.Pass{a})).To(Succeed())
	})

	It("does not provide FeatureCFG when constructed with a nil collection", func() {
		ws := workspace.New(nil, 0, nil, nil, &platform.Description{}, nil, nil, nil)
		a := stubPass{name: "a", requires: []string{workspace.FeatureCFG}, ran: new([]string)}

		Expect(workspace.Run(ws, []workspace.Pass{a})).NotTo(Succeed())
	})

	It("records warnings on the flat block's side-table", func() {
		ws := workspace.New(nil, 0, nil, nil, &platform.Description{}, nil, nil, nil)
		ws.Warn(7, 3, "unresolved indirect branch at block %d", 3)

		fb := cfgmodel.FlatBlock{CFG: 7, Block: 3}
		Expect(ws.Warnings[fb]).To(HaveLen(1))
		Expect(ws.Warnings[fb][0]).To(ContainSubstring("unresolved indirect branch"))
	})

	It("accumulates multiple warnings against the same block in order", func() {
		ws := workspace.New(nil, 0, nil, nil, &platform.Description{}, nil, nil, nil)
		ws.Warn(1, 1, "first warning")
		ws.Warn(1, 1, "second warning")

		fb := cfgmodel.FlatBlock{CFG: 1, Block: 1}
		Expect(ws.Warnings[fb]).To(Equal([]string{"first warning", "second warning"}))
	})

	It("reports Cancelled only after Cancel is called", func() {
		ws := workspace.New(nil, 0, nil, nil, &platform.Description{}, nil, nil, nil)
		Expect(ws.Cancelled()).To(BeFalse())

		ws.Cancel()
		Expect(ws.Cancelled()).To(BeTrue())
	})

	It("reports Failed only once Run has seen a pass error", func() {
		ws := workspace.New(nil, 0, nil, nil, &platform.Description{}, nil, nil, nil)
		Expect(ws.Failed()).To(BeFalse())

		bad := stubPass{name: "bad", ran: new([]string), err: errBoom}
		Expect(workspace.Run(ws, []workspace.Pass{bad})).NotTo(Succeed())
		Expect(ws.Failed()).To(BeTrue())
	})
})
