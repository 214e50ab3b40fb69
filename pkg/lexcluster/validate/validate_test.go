package validate

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/lexcluster/pkg/lexcluster/cluster"
	"github.com/cognicore/lexcluster/pkg/lexcluster/internalerr"
)

// separated builds four 1-D points in two tight pairs.
func separated() *mat.Dense {
	return mat.NewDense(4, 1, []float64{0, 0.1, 10, 10.1})
}

func TestSilhouetteWellSeparated(t *testing.T) {
	dist, err := Pairwise(context.Background(), separated(), Euclidean)
	if err != nil {
		t.Fatalf("Pairwise: %v", err)
	}
	sil, err := Silhouette(dist, cluster.Assignment{1, 1, 2, 2})
	if err != nil {
		t.Fatalf("Silhouette: %v", err)
	}
	if sil < 0.9 {
		t.Fatalf("expected silhouette > 0.9 for tight separated pairs, got %v", sil)
	}
	if sil > 1 {
		t.Fatalf("silhouette %v above 1", sil)
	}
}

func TestSilhouetteRange(t *testing.T) {
	m := mat.NewDense(6, 2, []float64{
		0, 0, 1, 0, 0, 1,
		5, 5, 6, 5, 5, 6,
	})
	dist, err := Pairwise(context.Background(), m, Manhattan)
	if err != nil {
		t.Fatalf("Pairwise: %v", err)
	}
	// Deliberately poor assignment: still must stay within [-1, 1].
	sil, err := Silhouette(dist, cluster.Assignment{1, 2, 1, 2, 1, 2})
	if err != nil {
		t.Fatalf("Silhouette: %v", err)
	}
	if sil < -1 || sil > 1 {
		t.Fatalf("silhouette %v outside [-1, 1]", sil)
	}
}

func TestSilhouetteSingletonContributesZero(t *testing.T) {
	m := mat.NewDense(3, 1, []float64{0, 0.1, 100})
	dist, err := Pairwise(context.Background(), m, Manhattan)
	if err != nil {
		t.Fatalf("Pairwise: %v", err)
	}
	sil, err := Silhouette(dist, cluster.Assignment{1, 1, 2})
	if err != nil {
		t.Fatalf("Silhouette: %v", err)
	}

	// Cluster 1 members score near 1; the singleton adds exactly 0, so
	// the average is just under 2/3.
	if sil <= 0.6 || sil >= 0.67 {
		t.Fatalf("expected average reflecting a zero singleton term, got %v", sil)
	}
}

func TestSilhouetteAllSingletonsDegenerate(t *testing.T) {
	m := mat.NewDense(3, 1, []float64{0, 5, 10})
	dist, err := Pairwise(context.Background(), m, Euclidean)
	if err != nil {
		t.Fatalf("Pairwise: %v", err)
	}
	_, err = Silhouette(dist, cluster.Assignment{1, 2, 3})
	if !errors.Is(err, internalerr.ErrDegenerateCluster) {
		t.Fatalf("expected ErrDegenerateCluster for all-singleton partition, got %v", err)
	}
}

func TestSilhouetteSingleClusterInsufficient(t *testing.T) {
	dist, err := Pairwise(context.Background(), separated(), Euclidean)
	if err != nil {
		t.Fatalf("Pairwise: %v", err)
	}
	_, err = Silhouette(dist, cluster.Assignment{1, 1, 1, 1})
	if !errors.Is(err, internalerr.ErrInsufficientClusters) {
		t.Fatalf("expected ErrInsufficientClusters, got %v", err)
	}
}

func TestDaviesBouldinNonNegativeAndOrdering(t *testing.T) {
	m := separated()
	good, err := DaviesBouldin(m, cluster.Assignment{1, 1, 2, 2}, Euclidean)
	if err != nil {
		t.Fatalf("DaviesBouldin: %v", err)
	}
	bad, err := DaviesBouldin(m, cluster.Assignment{1, 2, 1, 2}, Euclidean)
	if err != nil {
		t.Fatalf("DaviesBouldin: %v", err)
	}
	if good < 0 || bad < 0 {
		t.Fatalf("Davies-Bouldin must be non-negative, got %v and %v", good, bad)
	}
	// Lower is better: the correct partition must score below the mixed one.
	if good >= bad {
		t.Fatalf("expected DB(good)=%v < DB(bad)=%v", good, bad)
	}
}

func TestDaviesBouldinSingleClusterInsufficient(t *testing.T) {
	_, err := DaviesBouldin(separated(), cluster.Assignment{1, 1, 1, 1}, Euclidean)
	if !errors.Is(err, internalerr.ErrInsufficientClusters) {
		t.Fatalf("expected ErrInsufficientClusters, got %v", err)
	}
}

func TestDaviesBouldinEmptyClusterDegenerate(t *testing.T) {
	_, err := DaviesBouldin(separated(), cluster.Assignment{1, 1, 3, 3}, Euclidean)
	if !errors.Is(err, internalerr.ErrDegenerateCluster) {
		t.Fatalf("expected ErrDegenerateCluster for empty cluster 2, got %v", err)
	}
}

func TestDistanceBases(t *testing.T) {
	a := []float64{0, 0}
	b := []float64{3, 4}
	if got := Euclidean.Between(a, b); math.Abs(got-5) > 1e-12 {
		t.Errorf("euclidean = %v, want 5", got)
	}
	if got := Manhattan.Between(a, b); math.Abs(got-7) > 1e-12 {
		t.Errorf("manhattan = %v, want 7", got)
	}
}

func TestScoresComputesBothOnSameBasis(t *testing.T) {
	sil, db, err := Scores(context.Background(), separated(), cluster.Assignment{1, 1, 2, 2}, Manhattan)
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if sil <= 0 {
		t.Errorf("expected positive silhouette, got %v", sil)
	}
	if db <= 0 {
		t.Errorf("expected positive Davies-Bouldin, got %v", db)
	}
}

func TestLabelAgreement(t *testing.T) {
	asg := cluster.Assignment{1, 1, 2, 2}
	if got := LabelAgreement(asg, []int{0, 0, 1, 1}); got != 1 {
		t.Errorf("perfect split purity = %v, want 1", got)
	}
	if got := LabelAgreement(asg, []int{0, 1, 0, 1}); got != 0.5 {
		t.Errorf("orthogonal split purity = %v, want 0.5", got)
	}
}
