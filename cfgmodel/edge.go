package cfgmodel

// EdgeKind classifies an edge as specified in §3.
type EdgeKind uint8

const (
	EdgeTaken EdgeKind = iota
	EdgeNotTaken
	EdgeCall
	EdgeVirtualCall
	EdgeVirtualReturn
)

// EdgeID indexes an edge within its owning CFG.
type EdgeID int

// Edge is a directed source->sink arc. BackEdge and LoopExit are set by
// domloop.Analyze and left false until then.
type Edge struct {
	ID       EdgeID
	Source   BlockID
	Sink     BlockID
	Kind     EdgeKind
	BackEdge bool
	LoopExit bool

	// Removed marks an edge deleted by CFG.RemoveEdge. Its EdgeID stays
	// reserved (so ids issued before the removal stay valid) but it is
	// hidden from Edges() and unlinked from its endpoints' adjacency.
	Removed bool
}
