// Package bpred implements the branch-prediction categorization of
// §4.H: a per-BHT-row Must/May/Persistence age domain, run by the same
// absint driver as icache/dcache, classifying every conditional-branch
// edge into Always-Correct, Always-Mispredict, First-Mispredict, or
// Not-Classified.
//
// Predictor adapted from the teacher's timing/pipeline.BranchPredictor:
// a 2-bit saturating counter indexed by PC, plus a BTB. Oracle here is a
// concrete simulator used only by property tests to cross-check the
// abstract categorization's soundness.
package bpred

import "github.com/otawa-go/wcetcore/addr"

// counterState is the 2-bit saturating counter: 0=Strongly Not Taken,
// 1=Weakly Not Taken, 2=Weakly Taken, 3=Strongly Taken.
type counterState uint8

const (
	stronglyNotTaken counterState = iota
	weaklyNotTaken
	weaklyTaken
	stronglyTaken
)

// Oracle is a concrete BHT simulator: the ground truth a property test
// replays a trace against to check the abstract categorization never
// claims Always-Correct for a branch the oracle actually mispredicts.
type Oracle struct {
	rows    []counterState
	rowMask uint32
}

// NewOracle creates an oracle with 2^rowBits rows, each initialized to
// weakly taken (matches the teacher's bias-towards-taken default).
func NewOracle(rowBits int) *Oracle {
	n := 1 << rowBits
	rows := make([]counterState, n)
	for i := range rows {
		rows[i] = weaklyTaken
	}
	return &Oracle{rows: rows, rowMask: uint32(n - 1)}
}

func (o *Oracle) row(pc addr.Address) uint32 {
	return uint32(pc.Flat()>>2) & o.rowMask
}

// Predict reports whether the branch at pc is predicted taken.
func (o *Oracle) Predict(pc addr.Address) bool {
	return o.rows[o.row(pc)] >= weaklyTaken
}

// Update folds the actual outcome into the 2-bit counter and reports
// whether the prior Predict call for this pc would have been correct.
func (o *Oracle) Update(pc addr.Address, taken bool) (correct bool) {
	idx := o.row(pc)
	c := o.rows[idx]
	correct = (c >= weaklyTaken) == taken
	if taken {
		if c < stronglyTaken {
			o.rows[idx] = c + 1
		}
	} else if c > stronglyNotTaken {
		o.rows[idx] = c - 1
	}
	return correct
}
