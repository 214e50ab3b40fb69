package cluster

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// twoGroups builds 2*size rows in dim dimensions: rows [0,size) near the
// origin, rows [size,2*size) near offset. Small deterministic jitter keeps
// rows distinct.
func twoGroups(size, dim int, offset float64) *mat.Dense {
	n := 2 * size
	m := mat.NewDense(n, dim, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < dim; j++ {
			jitter := 0.01 * float64((i+j)%5)
			m.Set(i, j, jitter)
			m.Set(size+i, j, offset+jitter)
		}
	}
	return m
}

// sameSide reports whether an assignment splits rows exactly at the group
// boundary (in either label order).
func sameSide(a Assignment, size int) bool {
	first := a[0]
	for i := 0; i < size; i++ {
		if a[i] != first {
			return false
		}
	}
	second := a[size]
	if second == first {
		return false
	}
	for i := size; i < 2*size; i++ {
		if a[i] != second {
			return false
		}
	}
	return true
}

func equalAssignments(a, b Assignment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAssignmentHelpers(t *testing.T) {
	a := Assignment{1, 2, 2, 3}
	if a.NumClusters() != 3 {
		t.Errorf("NumClusters = %d, want 3", a.NumClusters())
	}
	sizes := a.Sizes()
	if sizes[1] != 1 || sizes[2] != 2 || sizes[3] != 1 {
		t.Errorf("Sizes = %v", sizes)
	}
}

func TestCheckComplete(t *testing.T) {
	if err := checkComplete(Assignment{1, 2, 1}, 2); err != nil {
		t.Errorf("complete assignment rejected: %v", err)
	}
	if err := checkComplete(Assignment{1, 1, 1}, 2); err == nil {
		t.Error("assignment missing cluster 2 accepted")
	}
	if err := checkComplete(Assignment{1, 3}, 2); err == nil {
		t.Error("out-of-range cluster id accepted")
	}
}
