package potts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
)

func TestFromGraph(t *testing.T) {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(10), simple.Node(20), -2))
	g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(20), simple.Node(30), 3))

	diag := 5.0
	m, index, err := FromGraph(g, GraphOptions{DefaultWeight: 1, DiagonalWeight: &diag})
	require.NoError(t, err)

	require.Equal(t, 3, m.N())
	require.Equal(t, 3, index.Len())
	assert.Equal(t, int64(10), index.ID(0))
	assert.Equal(t, int64(30), index.ID(2))
	i, ok := index.Index(20)
	require.True(t, ok)
	assert.Equal(t, 1, i)

	assert.Equal(t, -2.0, m.At(0, 1))
	assert.Equal(t, -2.0, m.At(1, 0))
	assert.Equal(t, 3.0, m.At(1, 2))
	assert.Equal(t, 1.0, m.At(0, 2), "missing pair takes the default weight")
	assert.Equal(t, 5.0, m.At(1, 1))
	assert.True(t, m.Symmetric())
	assert.Nil(t, m.Asymmetry())

	assert.Equal(t, []int{1}, m.Partners(0, NeighborAttractive))
	assert.ElementsMatch(t, []int{1, 2}, m.Partners(0, NeighborNonzero))
	assert.Nil(t, m.Partners(0, NeighborAll))
}

func TestFromGraphEmpty(t *testing.T) {
	_, _, err := FromGraph(simple.NewWeightedUndirectedGraph(0, 0), GraphOptions{})
	assert.Error(t, err)
}

func TestFromGraphEdgeScale(t *testing.T) {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(0), simple.Node(1), 2))
	g.AddNode(simple.Node(2))

	m, _, err := FromGraph(g, GraphOptions{DefaultWeight: 1, EdgeScale: -1})
	require.NoError(t, err)
	assert.Equal(t, -2.0, m.At(0, 1))
	assert.Equal(t, 1.0, m.At(0, 2))
	assert.Equal(t, 1.0, m.At(2, 2), "diagonal keeps the default weight")
}

func TestFromDenseAsymmetry(t *testing.T) {
	d := mat.NewDense(3, 3, []float64{
		0, -1, 2,
		-1, 0, 4,
		3, 4, 0,
	})
	m, err := FromDense(d)
	require.NoError(t, err, "asymmetry is reported, not fatal")

	assert.False(t, m.Symmetric())
	w := m.Asymmetry()
	require.NotNil(t, w)
	assert.Equal(t, 1, w.Pairs)
	assert.Equal(t, 0, w.I)
	assert.Equal(t, 2, w.J)
	assert.Contains(t, w.String(), "not symmetric")

	_, err = FromDense(mat.NewDense(2, 3, nil))
	assert.Error(t, err)
}

func TestMatrixIsImmutable(t *testing.T) {
	d := mat.NewDense(2, 2, []float64{0, -1, -1, 0})
	m, err := FromDense(d)
	require.NoError(t, err)

	d.Set(0, 1, 7)
	assert.Equal(t, -1.0, m.At(0, 1), "source matrix changes must not leak in")

	out := m.Dense()
	out.Set(0, 1, 9)
	assert.Equal(t, -1.0, m.At(0, 1), "Dense must return a copy")
}

func TestFromCoordsPeriodic(t *testing.T) {
	coords := [][]float64{{0.5, 0}, {9.5, 0}, {5, 0}}
	efunc := func(d float64) float64 { return d }

	m, err := FromCoords(coords, efunc, []float64{10})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.At(0, 1), 1e-12, "minimum image across the boundary")
	assert.InDelta(t, 4.5, m.At(0, 2), 1e-12)
	assert.Equal(t, 0.0, m.At(2, 2))

	open, err := FromCoords(coords, efunc, nil)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, open.At(0, 1), 1e-12)

	_, err = FromCoords([][]float64{{0, 0}, {1}}, efunc, nil)
	assert.Error(t, err)
	_, err = FromCoords(coords, efunc, []float64{1, 2, 3})
	assert.Error(t, err)
}

func TestNewInteractionMatrix(t *testing.T) {
	m := NewInteractionMatrix(4, -1)
	assert.Equal(t, 4, m.N())
	assert.Equal(t, -1.0, m.At(3, 2))
	assert.Len(t, m.Partners(0, NeighborAttractive), 3)
	assert.True(t, m.Symmetric())

	assert.Panics(t, func() { NewInteractionMatrix(0, 1) })
}
