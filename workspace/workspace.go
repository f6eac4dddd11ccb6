// Package workspace implements the §3 Workspace / §5 pipeline
// orchestrator: the root container that owns the instruction provider,
// the CFG collection, the platform description, and one statically
// typed side-table per analysis — the §9 design note's replacement for
// the original source's heterogeneous per-object property map.
package workspace

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/otawa-go/wcetcore/blocktiming"
	"github.com/otawa-go/wcetcore/bpred"
	"github.com/otawa-go/wcetcore/cfgmodel"
	"github.com/otawa-go/wcetcore/dcache"
	"github.com/otawa-go/wcetcore/domloop"
	"github.com/otawa-go/wcetcore/flowfact"
	"github.com/otawa-go/wcetcore/icache"
	"github.com/otawa-go/wcetcore/inst"
	"github.com/otawa-go/wcetcore/ipet"
	"github.com/otawa-go/wcetcore/platform"
)

// Workspace is the root container. It is created from a loaded binary
// (an inst.Provider plus the external collaborators) and destroyed at
// the end of the analysis; it owns the CFG collection exclusively, per
// §3's ownership rule.
type Workspace struct {
	Col      *cfgmodel.Collection
	Provider inst.Provider
	Flow     flowfact.Collaborator
	Platform *platform.Description
	Timing   blocktiming.Collaborator
	Address  dcache.AddressAnalysis
	Root     cfgmodel.CFGID

	// Logger receives warnings about conservative over-approximations
	// (§7): unresolved indirect branches, register writes assumed on an
	// unresolved call target, addresses treated as top. Defaults to
	// log.Default() when nil is passed to New.
	Logger *log.Logger

	// Loop, ICache, DCache, BPred are the per-analysis side-tables of
	// §9: each keyed by the CFG it was computed for, holding the same
	// statically typed value every pass of that kind produces. This is
	// the direct replacement for the source's dynamically-cast
	// per-object property map.
	Loop   map[cfgmodel.CFGID]*domloop.LoopInfo
	ICache map[cfgmodel.CFGID]map[cfgmodel.BlockID]map[int]icache.AccessResult
	DCache map[cfgmodel.CFGID]map[cfgmodel.BlockID]map[int]dcache.AccessResult
	BPred  map[cfgmodel.CFGID]map[cfgmodel.BlockID]bpred.EdgeResult

	// Result holds the final IPET outcome once the WCET pass has run.
	Result *ipet.Result

	// Warnings records every warning passed to Warn against the flat
	// block it was raised on, so tests can assert on them
	// without scraping log output (§10 ambient-stack logging detail).
	Warnings map[cfgmodel.FlatBlock][]string

	provided map[string]bool
	cancel   int32
	failed   bool
}

// New creates an empty Workspace over col, rooted at root, wired to the
// given external collaborators. logger may be nil, in which case
// log.Default() is used.
func New(col *cfgmodel.Collection, root cfgmodel.CFGID, provider inst.Provider, flow flowfact.Collaborator, plat *platform.Description, timing blocktiming.Collaborator, addresses dcache.AddressAnalysis, logger *log.Logger) *Workspace {
	if logger == nil {
		logger = log.Default()
	}
	ws := &Workspace{
		Col:      col,
		Provider: provider,
		Flow:     flow,
		Platform: plat,
		Timing:   timing,
		Address:  addresses,
		Root:     root,
		Logger:   logger,

		Loop:   make(map[cfgmodel.CFGID]*domloop.LoopInfo),
		ICache: make(map[cfgmodel.CFGID]map[cfgmodel.BlockID]map[int]icache.AccessResult),
		DCache: make(map[cfgmodel.CFGID]map[cfgmodel.BlockID]map[int]dcache.AccessResult),
		BPred:  make(map[cfgmodel.CFGID]map[cfgmodel.BlockID]bpred.EdgeResult),

		Warnings: make(map[cfgmodel.FlatBlock][]string),
		provided: make(map[string]bool),
	}
	// A caller that already built the Collection (rather than handing
	// New a nil col and running BuildPass) starts with FeatureCFG
	// already satisfied, so DefaultPipeline's NormalizePass can run
	// first without an explicit BuildPass.
	if col != nil {
		ws.provided[FeatureCFG] = true
	}
	return ws
}

// Cancel requests cooperative cancellation (§5): UnrollPass and the
// three categorizer passes check the flag before each CFG and return
// wceterr.ErrCancelled, and the orchestrator checks it before each pass
// and runs no further passes.
func (ws *Workspace) Cancel() { atomic.StoreInt32(&ws.cancel, 1) }

// Cancelled reports whether Cancel was called. Passes that embed an
// absint.Run should wire this directly as absint.Options.Cancel.
func (ws *Workspace) Cancelled() bool { return atomic.LoadInt32(&ws.cancel) != 0 }

// Failed reports whether the last Run call ended with a pass error.
func (ws *Workspace) Failed() bool { return ws.failed }

// Warn records a conservative-approximation warning (§7) against the
// given block, both on the Warnings side-table and through Logger.
func (ws *Workspace) Warn(cfg cfgmodel.CFGID, block cfgmodel.BlockID, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fb := cfgmodel.FlatBlock{CFG: cfg, Block: block}
	ws.Warnings[fb] = append(ws.Warnings[fb], msg)
	ws.Logger.Printf("wcetcore: warning: cfg=%d block=%d: %s", cfg, block, msg)
}
