package potts

import (
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// cliquesMatrix returns a matrix of consecutive cliques with the given
// sizes: -1 inside a clique, +1 between cliques.
func cliquesMatrix(t *testing.T, sizes ...int) *InteractionMatrix {
	t.Helper()
	n := 0
	var label []int
	for k, size := range sizes {
		for i := 0; i < size; i++ {
			label = append(label, k)
		}
		n += size
	}
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			switch {
			case i == j:
			case label[i] == label[j]:
				d.Set(i, j, -1)
			default:
				d.Set(i, j, 1)
			}
		}
	}
	m, err := FromDense(d)
	require.NoError(t, err)
	return m
}

// randomSymmetric returns a symmetric matrix with weights in [-1, 1)
func randomSymmetric(n int, seed uint64) *InteractionMatrix {
	rng := rand.New(rand.NewPCG(seed, 1))
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := 2*rng.Float64() - 1
			d.Set(i, j, w)
			d.Set(j, i, w)
		}
	}
	m, err := FromDense(d)
	if err != nil {
		panic(err)
	}
	return m
}

// randomAssignment assigns n nodes to at most k communities
func randomAssignment(n, k int, seed uint64) []int {
	rng := rand.New(rand.NewPCG(seed, 2))
	out := make([]int, n)
	for i := range out {
		out[i] = rng.IntN(k)
	}
	return out
}

func newTestMinimizer(t *testing.T, mutate func(*Options)) *Minimizer {
	t.Helper()
	opts := DefaultOptions()
	opts.CheckInvariants = true
	if mutate != nil {
		mutate(&opts)
	}
	mz, err := NewMinimizer(opts, zerolog.Nop())
	require.NoError(t, err)
	return mz
}
