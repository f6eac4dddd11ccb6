// Package domloop computes dominance, post-dominance, and loop structure
// over a cfgmodel.CFG (§4.D) via iterative bit-vector fixpoint, using
// github.com/bits-and-blooms/bitset for the per-block dominator sets.
package domloop

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/otawa-go/wcetcore/cfgmodel"
)

// Dominators maps each block to the bitset of blocks that dominate it
// (including itself).
type Dominators struct {
	n    int
	sets []*bitset.BitSet
}

// Dominates reports whether a dominates b.
func (d *Dominators) Dominates(a, b cfgmodel.BlockID) bool {
	return d.sets[b].Test(uint(a))
}

// Set returns the raw dominator bitset for b; callers must not mutate
// it.
func (d *Dominators) Set(b cfgmodel.BlockID) *bitset.BitSet { return d.sets[b] }

// Compute runs the standard iterative forward-dominance fixpoint: the
// entry dominates only itself, and every other block's dominator set is
// the intersection of its predecessors' sets plus itself, iterated to a
// fixpoint in reverse-postorder.
func Compute(cfg *cfgmodel.CFG) *Dominators {
	n := cfg.NumBlocks()
	rpo := reversePostorder(cfg)

	full := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		full.Set(uint(i))
	}

	sets := make([]*bitset.BitSet, n)
	entry := cfg.EntryBlock()
	for i := 0; i < n; i++ {
		if cfgmodel.BlockID(i) == entry {
			sets[i] = bitset.New(uint(n)).Set(uint(i))
		} else {
			sets[i] = full.Clone()
		}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == entry {
				continue
			}
			preds := cfg.PredBlocks(b)
			if len(preds) == 0 {
				continue
			}
			newSet := sets[preds[0]].Clone()
			for _, p := range preds[1:] {
				newSet = newSet.Intersection(sets[p])
			}
			newSet.Set(uint(b))
			if !newSet.Equal(sets[b]) {
				sets[b] = newSet
				changed = true
			}
		}
	}
	return &Dominators{n: n, sets: sets}
}

// ComputePost runs the same fixpoint over the reverse graph (successors
// in place of predecessors), computing post-dominance from the exit
// block.
func ComputePost(cfg *cfgmodel.CFG) *Dominators {
	n := cfg.NumBlocks()
	po := postorderFromExit(cfg)

	full := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		full.Set(uint(i))
	}

	sets := make([]*bitset.BitSet, n)
	exit := cfg.ExitBlock()
	for i := 0; i < n; i++ {
		if cfgmodel.BlockID(i) == exit {
			sets[i] = bitset.New(uint(n)).Set(uint(i))
		} else {
			sets[i] = full.Clone()
		}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range po {
			if b == exit {
				continue
			}
			succs := cfg.SuccBlocks(b)
			if len(succs) == 0 {
				continue
			}
			newSet := sets[succs[0]].Clone()
			for _, s := range succs[1:] {
				newSet = newSet.Intersection(sets[s])
			}
			newSet.Set(uint(b))
			if !newSet.Equal(sets[b]) {
				sets[b] = newSet
				changed = true
			}
		}
	}
	return &Dominators{n: n, sets: sets}
}

func reversePostorder(cfg *cfgmodel.CFG) []cfgmodel.BlockID {
	seen := make([]bool, cfg.NumBlocks())
	var post []cfgmodel.BlockID
	var visit func(cfgmodel.BlockID)
	visit = func(b cfgmodel.BlockID) {
		if seen[b] {
			return
		}
		seen[b] = true
		for _, s := range cfg.SuccBlocks(b) {
			visit(s)
		}
		post = append(post, b)
	}
	visit(cfg.EntryBlock())
	// reverse
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

func postorderFromExit(cfg *cfgmodel.CFG) []cfgmodel.BlockID {
	seen := make([]bool, cfg.NumBlocks())
	var post []cfgmodel.BlockID
	var visit func(cfgmodel.BlockID)
	visit = func(b cfgmodel.BlockID) {
		if seen[b] {
			return
		}
		seen[b] = true
		for _, p := range cfg.PredBlocks(b) {
			visit(p)
		}
		post = append(post, b)
	}
	visit(cfg.ExitBlock())
	return post
}
