package cacheage_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/otawa-go/wcetcore/cacheage"
)

func genACS(t *rapid.T, label string) cacheage.ACS {
	m := rapid.MapOf(rapid.Uint64Range(0, 7), rapid.IntRange(0, 7)).Draw(t, label)
	return cacheage.ACS(m)
}

// TestJoinMustIsMeet checks §4.F's Must join is the idempotent,
// commutative, intersecting-at-the-worse-age operation the analysis
// relies on to stay sound across a forward fixpoint.
func TestJoinMustIsMeet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genACS(t, "a")
		b := genACS(t, "b")

		if !cacheage.Equal(cacheage.JoinMust(a, a), a) {
			t.Fatalf("JoinMust not idempotent: JoinMust(a,a) = %v, want %v", cacheage.JoinMust(a, a), a)
		}
		if !cacheage.Equal(cacheage.JoinMust(a, b), cacheage.JoinMust(b, a)) {
			t.Fatalf("JoinMust not commutative: JoinMust(a,b) = %v, JoinMust(b,a) = %v", cacheage.JoinMust(a, b), cacheage.JoinMust(b, a))
		}

		m := cacheage.JoinMust(a, b)
		for k, age := range m {
			av, aok := a[k]
			bv, bok := b[k]
			if !aok || !bok {
				t.Fatalf("JoinMust kept block %d not present on both sides", k)
			}
			want := av
			if bv > want {
				want = bv
			}
			if age != want {
				t.Fatalf("JoinMust age for block %d = %d, want max(%d,%d) = %d", k, age, av, bv, want)
			}
		}
	})
}

// TestJoinMayIsJoin checks §4.F's May join is idempotent, commutative,
// and keeps every block present on either side at the better age.
func TestJoinMayIsJoin(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genACS(t, "a")
		b := genACS(t, "b")

		if !cacheage.Equal(cacheage.JoinMay(a, a), a) {
			t.Fatalf("JoinMay not idempotent: JoinMay(a,a) = %v, want %v", cacheage.JoinMay(a, a), a)
		}
		if !cacheage.Equal(cacheage.JoinMay(a, b), cacheage.JoinMay(b, a)) {
			t.Fatalf("JoinMay not commutative: JoinMay(a,b) = %v, JoinMay(b,a) = %v", cacheage.JoinMay(a, b), cacheage.JoinMay(b, a))
		}

		for k, av := range a {
			age, ok := cacheage.JoinMay(a, b)[k]
			if !ok {
				t.Fatalf("JoinMay dropped block %d present in a", k)
			}
			if bv, bok := b[k]; bok && bv < av {
				if age != bv {
					t.Fatalf("JoinMay age for block %d = %d, want min(%d,%d) = %d", k, age, av, bv, bv)
				}
			} else if age != av {
				t.Fatalf("JoinMay age for block %d = %d, want %d", k, age, av)
			}
		}
	})
}

// TestMustImpliesMay checks the soundness relation the categorization
// step depends on: every block Must proves cached must also be a block
// May proves possibly cached, at an age no worse than Must's.
func TestMustImpliesMay(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genACS(t, "a")
		b := genACS(t, "b")

		must := cacheage.JoinMust(a, b)
		may := cacheage.JoinMay(a, b)
		for k, mustAge := range must {
			mayAge, ok := may[k]
			if !ok {
				t.Fatalf("block %d present in Must but absent from May", k)
			}
			if mayAge > mustAge {
				t.Fatalf("block %d: May age %d worse than Must age %d", k, mayAge, mustAge)
			}
		}
	})
}

// TestAccessRespectsAssociativity checks §4.F step 2's eviction rule:
// Access never leaves a tracked block at or beyond the set's
// associativity.
func TestAccessRespectsAssociativity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := genACS(t, "s")
		assoc := rapid.IntRange(1, 8).Draw(t, "assoc")
		accessed := rapid.Uint64Range(0, 7).Draw(t, "accessed")

		out := cacheage.Access(s, assoc, accessed)
		for k, age := range out {
			if age >= assoc {
				t.Fatalf("Access left block %d at age %d, assoc %d", k, age, assoc)
			}
		}
		if age, ok := out[accessed]; !ok || age != 0 {
			t.Fatalf("Access did not reset accessed block %d to age 0, got %v,%v", accessed, age, ok)
		}
	})
}
