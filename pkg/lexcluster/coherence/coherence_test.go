package coherence

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// counts: 6 docs, 4 terms. Terms 0 and 1 always co-occur; terms 2 and 3
// never appear together.
func testCounts() *mat.Dense {
	return mat.NewDense(6, 4, []float64{
		1, 2, 1, 0,
		2, 1, 0, 1,
		1, 1, 1, 0,
		1, 3, 0, 1,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

func TestNPMIRange(t *testing.T) {
	calc := NewCalculator(1.0)
	for _, tc := range []struct{ nAB, nA, nB, n int }{
		{4, 4, 4, 6},
		{0, 4, 4, 6},
		{1, 5, 5, 6},
	} {
		got := calc.NPMI(tc.nAB, tc.nA, tc.nB, tc.n)
		if got < -1 || got > 1 {
			t.Errorf("NPMI(%+v) = %v outside [-1, 1]", tc, got)
		}
	}
}

func TestCoherentTopicScoresHigher(t *testing.T) {
	calc := NewCalculator(1.0)
	counts := testCounts()

	coOccurring := calc.TopicCoherence(counts, []int{0, 1})
	disjoint := calc.TopicCoherence(counts, []int{2, 3})
	if coOccurring <= disjoint {
		t.Fatalf("co-occurring terms scored %v, disjoint terms %v; expected higher coherence for co-occurrence",
			coOccurring, disjoint)
	}
}

func TestSingleTermTopicIsZero(t *testing.T) {
	calc := NewCalculator(1.0)
	if got := calc.TopicCoherence(testCounts(), []int{0}); got != 0 {
		t.Fatalf("single-term topic coherence = %v, want 0", got)
	}
}

func TestDefaultEpsilon(t *testing.T) {
	calc := NewCalculator(0)
	// Epsilon must be clamped to a positive value so zero co-occurrence
	// never produces -Inf.
	got := calc.NPMI(0, 3, 3, 6)
	if got != 0 {
		t.Fatalf("NPMI with zero co-occurrence = %v, want 0", got)
	}
}
