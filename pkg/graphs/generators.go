package graphs

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/graph/simple"
)

// Complete returns the complete graph on n nodes with every edge weighted w
func Complete(n int, w float64) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(j), w))
		}
	}
	return g
}

// Lattice returns a hypercubic nearest-neighbor lattice with the given side
// lengths. Node IDs are row-major indices. With periodic set, the lattice
// wraps around in every dimension of length greater than 2.
func Lattice(dims []int, w float64, periodic bool) (*simple.WeightedUndirectedGraph, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("lattice needs at least one dimension")
	}
	total := 1
	for _, d := range dims {
		if d < 1 {
			return nil, fmt.Errorf("lattice side lengths must be positive, got %v", dims)
		}
		total *= d
	}

	g := simple.NewWeightedUndirectedGraph(0, 0)
	for id := 0; id < total; id++ {
		g.AddNode(simple.Node(id))
	}

	coord := make([]int, len(dims))
	for id := 0; id < total; id++ {
		latticeCoord(id, dims, coord)
		stride := 1
		for k := len(dims) - 1; k >= 0; k-- {
			next := -1
			switch {
			case coord[k]+1 < dims[k]:
				next = id + stride
			case periodic && dims[k] > 2:
				next = id - coord[k]*stride
			}
			if next >= 0 && next != id {
				g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(id), simple.Node(next), w))
			}
			stride *= dims[k]
		}
	}
	return g, nil
}

// LatticeCoords returns the integer coordinates of every lattice node, in
// node ID order.
func LatticeCoords(dims []int) [][]float64 {
	total := 1
	for _, d := range dims {
		total *= d
	}
	out := make([][]float64, total)
	coord := make([]int, len(dims))
	for id := range out {
		latticeCoord(id, dims, coord)
		out[id] = make([]float64, len(dims))
		for k, x := range coord {
			out[id][k] = float64(x)
		}
	}
	return out
}

func latticeCoord(id int, dims []int, coord []int) {
	for k := len(dims) - 1; k >= 0; k-- {
		coord[k] = id % dims[k]
		id /= dims[k]
	}
}

// PlantedPartition returns a random graph of consecutive groups with the
// given sizes. Pairs inside a group are joined with probability pIn and
// weight wIn, pairs across groups with probability pOut and weight wOut.
// The planted group of every node is returned alongside.
func PlantedPartition(sizes []int, pIn, pOut, wIn, wOut float64, src rand.Source) (*simple.WeightedUndirectedGraph, []int, error) {
	if pIn < 0 || pIn > 1 || pOut < 0 || pOut > 1 {
		return nil, nil, fmt.Errorf("probabilities must lie in [0,1]: pIn=%g pOut=%g", pIn, pOut)
	}
	var truth []int
	for group, size := range sizes {
		if size < 1 {
			return nil, nil, fmt.Errorf("group %d has size %d", group, size)
		}
		for i := 0; i < size; i++ {
			truth = append(truth, group)
		}
	}

	rng := rand.New(src)
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for i := range truth {
		g.AddNode(simple.Node(i))
	}
	for i := range truth {
		for j := i + 1; j < len(truth); j++ {
			p, w := pOut, wOut
			if truth[i] == truth[j] {
				p, w = pIn, wIn
			}
			if rng.Float64() < p {
				g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(j), w))
			}
		}
	}
	return g, truth, nil
}
