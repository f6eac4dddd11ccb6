package ipet

import (
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/flowfact"
	"github.com/otawa-go/wcetcore/ilp"
	"github.com/otawa-go/wcetcore/platform"
	"github.com/otawa-go/wcetcore/wceterr"
)

// Result is the §4.I outcome: the WCET estimate and the worst-case
// execution count of every block, for reporting and statistics export.
type Result struct {
	WCET       uint64
	BlockCount map[cfgmodel.FlatBlock]uint64
}

// Analyze builds and solves the whole-program IPET system for the
// given root CFG, returning the WCET estimate (§4.I "Result").
func Analyze(col *cfgmodel.Collection, root cfgmodel.CFGID, analyses map[cfgmodel.CFGID]*CFGAnalysis, flow flowfact.Collaborator, plat *platform.Description) (*Result, error) {
	builder := NewBuilder(col, root, analyses, flow, plat)
	sys, vars, err := builder.Build()
	if err != nil {
		return nil, err
	}

	status, sol, err := ilp.Solve(sys)
	if err != nil {
		return nil, err
	}
	switch status {
	case ilp.Infeasible:
		return nil, wceterr.NewSolverError("infeasible", "ipet system has no feasible execution-count assignment")
	case ilp.Unbounded:
		return nil, wceterr.NewSolverError("unbounded", "ipet objective is unbounded (missing loop bound?)")
	}

	result := &Result{
		WCET:       uint64(sol.Objective + 0.5),
		BlockCount: make(map[cfgmodel.FlatBlock]uint64),
	}
	for _, cfg := range col.CFGs() {
		if _, ok := analyses[cfg.ID]; !ok {
			continue
		}
		for _, blk := range cfg.Blocks() {
			v, ok := vars.BlockVar(cfg.ID, blk.ID)
			if !ok {
				continue
			}
			fb := cfgmodel.FlatBlock{CFG: cfg.ID, Block: blk.ID}
			result.BlockCount[fb] = uint64(sol.Value[v] + 0.5)
		}
	}
	return result, nil
}
