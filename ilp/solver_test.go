package ilp_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/otawa-go/wcetcore/ilp"
)

func TestIlp(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ilp Suite")
}

var _ = Describe("Solve", func() {
	It("maximizes a simple single-constraint objective", func() {
		sys := ilp.NewSystem(true)
		x := sys.NewVariable("x")
		c := sys.NewConstraint("bound", ilp.LessEqual, 10)
		sys.AddTerm(c, 1, x)
		sys.SetObjectiveTerm(1, x)

		status, sol, err := ilp.Solve(sys)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(ilp.Optimal))
		Expect(sol.Objective).To(BeNumerically("~", 10, 1e-6))
	})

	It("respects flow-conservation-style equality constraints", func() {
		sys := ilp.NewSystem(true)
		entering := sys.NewVariable("entering")
		body := sys.NewVariable("body")

		eq := sys.NewConstraint("conserve", ilp.Equal, 0)
		sys.AddTerm(eq, 1, entering)
		sys.AddTerm(eq, -1, body)

		bound := sys.NewConstraint("bound", ilp.LessEqual, 5)
		sys.AddTerm(bound, 1, entering)

		sys.SetObjectiveTerm(1, body)

		status, sol, err := ilp.Solve(sys)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(ilp.Optimal))
		Expect(sol.Objective).To(BeNumerically("~", 5, 1e-6))
	})

	It("reports Infeasible for contradictory constraints", func() {
		sys := ilp.NewSystem(true)
		x := sys.NewVariable("x")
		c1 := sys.NewConstraint("upper", ilp.LessEqual, 1)
		sys.AddTerm(c1, 1, x)
		c2 := sys.NewConstraint("lower", ilp.GreaterEqual, 5)
		sys.AddTerm(c2, 1, x)
		sys.SetObjectiveTerm(1, x)

		status, _, err := ilp.Solve(sys)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(ilp.Infeasible))
	})

	It("errors on a system with no variables", func() {
		sys := ilp.NewSystem(true)
		_, _, err := ilp.Solve(sys)
		Expect(err).To(HaveOccurred())
	})

	It("branches to an integer solution when a fractional bound would otherwise win", func() {
		sys := ilp.NewSystem(true)
		x := sys.NewVariable("x")
		c := sys.NewConstraint("bound", ilp.LessEqual, 2.5)
		sys.AddTerm(c, 1, x)
		sys.SetObjectiveTerm(1, x)

		status, sol, err := ilp.Solve(sys)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(ilp.Optimal))
		Expect(sol.Value[x]).To(BeNumerically("~", 2, 1e-6))
	})
})

var _ = Describe("System", func() {
	It("names variables for diagnostics in creation order", func() {
		sys := ilp.NewSystem(true)
		a := sys.NewVariable("a")
		b := sys.NewVariable("b")

		Expect(sys.VarName(a)).To(Equal("a"))
		Expect(sys.VarName(b)).To(Equal("b"))
		Expect(sys.NumVars()).To(Equal(2))
	})
})
