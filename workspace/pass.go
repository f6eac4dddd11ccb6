package workspace

import "github.com/otawa-go/wcetcore/wceterr"

// Pass is the §9 replacement for the source's deep processor/feature
// class hierarchy: a trait capturing the scheduling contract instead of
// a virtual-call chain. Requires/Provides/Invalidates name abstract
// "features" (arbitrary strings agreed on between passes, e.g.
// "cfg", "loop-info", "icache-categories"); Run does the actual work.
type Pass interface {
	// Name identifies the pass for error messages and logging.
	Name() string

	// Requires lists the features that must already be provided before
	// this pass can run.
	Requires() []string

	// Provides lists the features this pass makes available once it
	// completes successfully.
	Provides() []string

	// Invalidates lists features this pass's output supersedes (e.g. a
	// CFG rewrite invalidates "loop-info" computed over the pre-rewrite
	// CFG); the orchestrator un-marks them as provided.
	Invalidates() []string

	// Run executes the pass against ws, reading and writing its
	// side-tables. A returned error (including wceterr.ErrCancelled)
	// stops the orchestrator.
	Run(ws *Workspace) error
}

// Run executes passes in an order consistent with their declared
// Requires/Provides dependencies (§5: "the orchestrator runs them in
// topological order"), checking the workspace's cancellation flag
// between passes. On the first pass error or cancellation, ws is marked
// failed and Run returns the wrapped error; no further passes run.
func Run(ws *Workspace, passes []Pass) error {
	order, err := topoSort(ws, passes)
	if err != nil {
		ws.failed = true
		return err
	}

	for _, p := range order {
		if ws.Cancelled() {
			ws.failed = true
			return wceterr.ErrCancelled
		}
		for _, missing := range missingRequires(ws, p) {
			ws.failed = true
			return wceterr.NewCfgError("", "pass "+p.Name()+" requires unmet feature "+missing, 0)
		}
		if err := p.Run(ws); err != nil {
			ws.failed = true
			return err
		}
		for _, f := range p.Invalidates() {
			delete(ws.provided, f)
		}
		for _, f := range p.Provides() {
			ws.provided[f] = true
		}
	}
	return nil
}

func missingRequires(ws *Workspace, p Pass) []string {
	var missing []string
	for _, r := range p.Requires() {
		if !ws.provided[r] {
			missing = append(missing, r)
		}
	}
	return missing
}

// topoSort orders passes so that every pass's Requires are satisfied by
// some earlier pass's Provides or by a feature ws already has (e.g.
// FeatureCFG, when the caller handed New an already-built Collection
// instead of running BuildPass), using Kahn's algorithm over the
// feature-name dependency graph. Ties (independent passes) keep their
// input order, so a caller listing passes in the natural pipeline order
// gets that order back when it already satisfies the dependencies.
func topoSort(ws *Workspace, passes []Pass) ([]Pass, error) {
	placed := make([]bool, len(passes))
	available := make(map[string]bool, len(ws.provided))
	for f := range ws.provided {
		available[f] = true
	}
	var order []Pass

	for len(order) < len(passes) {
		progressed := false
		for i, p := range passes {
			if placed[i] {
				continue
			}
			if !allAvailable(p.Requires(), available) {
				continue
			}
			order = append(order, p)
			placed[i] = true
			for _, f := range p.Provides() {
				available[f] = true
			}
			progressed = true
		}
		if !progressed {
			return nil, wceterr.NewCfgError("", "pass dependency cycle or unsatisfiable requirement", 0)
		}
	}
	return order, nil
}

func allAvailable(features []string, available map[string]bool) bool {
	for _, f := range features {
		if !available[f] {
			return false
		}
	}
	return true
}
