package potts

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/mat"
)

// InteractionMatrix holds the pairwise interaction weights J between N
// nodes. Negative weights are attractive, positive weights repulsive.
// The matrix is never mutated after construction and may be shared by any
// number of states.
type InteractionMatrix struct {
	n      int
	dense  *mat.Dense
	data   []float64
	stride int

	attractive [][]int // partners with J < 0
	nonzero    [][]int // partners with J != 0

	asymmetry *AsymmetryWarning
}

// AsymmetryWarning describes a matrix for which J[i][j] != J[j][i].
// Asymmetry is reported, never fatal.
type AsymmetryWarning struct {
	Pairs int     // number of unordered pairs that differ
	I, J  int     // first differing pair
	Wij   float64 // weight at (I, J)
	Wji   float64 // weight at (J, I)
}

func (w *AsymmetryWarning) String() string {
	return fmt.Sprintf("interaction matrix is not symmetric: %d pair(s) differ, first at (%d,%d): %g != %g",
		w.Pairs, w.I, w.J, w.Wij, w.Wji)
}

// GraphOptions controls how a weighted graph is turned into a matrix
type GraphOptions struct {
	DefaultWeight  float64  // weight of every pair not joined by an edge
	DiagonalWeight *float64 // self weight; nil keeps DefaultWeight
	EdgeScale      float64  // multiplies every edge weight; zero means 1
}

// NodeIndex maps between gonum node IDs and matrix indices
type NodeIndex struct {
	ids   []int64
	index map[int64]int
}

// ID returns the graph node ID at matrix index i
func (ni NodeIndex) ID(i int) int64 { return ni.ids[i] }

// Index returns the matrix index of a graph node ID
func (ni NodeIndex) Index(id int64) (int, bool) {
	i, ok := ni.index[id]
	return i, ok
}

// Len returns the number of indexed nodes
func (ni NodeIndex) Len() int { return len(ni.ids) }

// NewInteractionMatrix creates an n×n matrix filled with defaultWeight.
func NewInteractionMatrix(n int, defaultWeight float64) *InteractionMatrix {
	if n <= 0 {
		panic(fmt.Sprintf("potts: matrix size must be positive, got %d", n))
	}
	data := make([]float64, n*n)
	for i := range data {
		data[i] = defaultWeight
	}
	return newMatrix(mat.NewDense(n, n, data))
}

// FromDense copies a square matrix.
func FromDense(m mat.Matrix) (*InteractionMatrix, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("interaction matrix must be square, got %dx%d", r, c)
	}
	if r == 0 {
		return nil, fmt.Errorf("interaction matrix is empty")
	}
	return newMatrix(mat.DenseCopyOf(m)), nil
}

// FromGraph builds the matrix of a weighted graph. Nodes are ordered by
// ascending ID. Every pair starts at opts.DefaultWeight, the diagonal is
// optionally overridden, and explicit edge weights overwrite both.
func FromGraph(g graph.Weighted, opts GraphOptions) (*InteractionMatrix, NodeIndex, error) {
	nodes := graph.NodesOf(g.Nodes())
	if len(nodes) == 0 {
		return nil, NodeIndex{}, fmt.Errorf("graph has no nodes")
	}

	ids := make([]int64, len(nodes))
	for i, node := range nodes {
		ids[i] = node.ID()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	index := NodeIndex{ids: ids, index: make(map[int64]int, len(ids))}
	for i, id := range ids {
		index.index[id] = i
	}

	scale := opts.EdgeScale
	if scale == 0 {
		scale = 1
	}

	n := len(ids)
	data := make([]float64, n*n)
	for i := range data {
		data[i] = opts.DefaultWeight
	}
	if opts.DiagonalWeight != nil {
		for i := 0; i < n; i++ {
			data[i*n+i] = *opts.DiagonalWeight
		}
	}

	for i, uid := range ids {
		to := g.From(uid)
		for to.Next() {
			vid := to.Node().ID()
			j := index.index[vid]
			e := g.WeightedEdge(uid, vid)
			if e == nil {
				continue
			}
			data[i*n+j] = scale * e.Weight()
		}
	}

	return newMatrix(mat.NewDense(n, n, data)), index, nil
}

// FromCoords builds a matrix from point coordinates and a function mapping
// distance to interaction energy. When periodic is non-empty it holds the
// box length per dimension (a single value applies to all dimensions) and
// distances use the minimum image. The diagonal is efunc(0).
func FromCoords(coords [][]float64, efunc func(dist float64) float64, periodic []float64) (*InteractionMatrix, error) {
	n := len(coords)
	if n == 0 {
		return nil, fmt.Errorf("no coordinates given")
	}
	dim := len(coords[0])
	for i, p := range coords {
		if len(p) != dim {
			return nil, fmt.Errorf("coordinate %d has %d dimensions, expected %d", i, len(p), dim)
		}
	}
	if len(periodic) != 0 && len(periodic) != 1 && len(periodic) != dim {
		return nil, fmt.Errorf("periodic box has %d lengths for %d dimensions", len(periodic), dim)
	}

	boxLen := func(k int) float64 {
		if len(periodic) == 1 {
			return periodic[0]
		}
		return periodic[k]
	}

	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for k := 0; k < dim; k++ {
				d := coords[i][k] - coords[j][k]
				if len(periodic) != 0 {
					L := boxLen(k)
					d -= math.Round(d/L) * L
				}
				sum += d * d
			}
			data[i*n+j] = efunc(math.Sqrt(sum))
		}
	}
	return newMatrix(mat.NewDense(n, n, data)), nil
}

func newMatrix(d *mat.Dense) *InteractionMatrix {
	raw := d.RawMatrix()
	m := &InteractionMatrix{
		n:          raw.Rows,
		dense:      d,
		data:       raw.Data,
		stride:     raw.Stride,
		attractive: make([][]int, raw.Rows),
		nonzero:    make([][]int, raw.Rows),
	}

	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			if i == j {
				continue
			}
			w := m.At(i, j)
			if w != 0 {
				m.nonzero[i] = append(m.nonzero[i], j)
			}
			if w < 0 {
				m.attractive[i] = append(m.attractive[i], j)
			}
		}
	}

	if !mat.Equal(d, d.T()) {
		warning := &AsymmetryWarning{}
		for i := 0; i < m.n; i++ {
			for j := i + 1; j < m.n; j++ {
				if m.At(i, j) == m.At(j, i) {
					continue
				}
				if warning.Pairs == 0 {
					warning.I, warning.J = i, j
					warning.Wij, warning.Wji = m.At(i, j), m.At(j, i)
				}
				warning.Pairs++
			}
		}
		m.asymmetry = warning
	}
	return m
}

// N returns the number of nodes
func (m *InteractionMatrix) N() int { return m.n }

// At returns J[i][j]
func (m *InteractionMatrix) At(i, j int) float64 {
	return m.data[i*m.stride+j]
}

// Symmetric reports whether J equals its transpose
func (m *InteractionMatrix) Symmetric() bool { return m.asymmetry == nil }

// Asymmetry returns the asymmetry report, or nil for a symmetric matrix
func (m *InteractionMatrix) Asymmetry() *AsymmetryWarning { return m.asymmetry }

// Partners returns the interaction partners of node n under mode. The
// returned slice must not be modified. NeighborAll has no fixed partner
// list and returns nil.
func (m *InteractionMatrix) Partners(n int, mode NeighborMode) []int {
	switch mode {
	case NeighborAttractive:
		return m.attractive[n]
	case NeighborNonzero:
		return m.nonzero[n]
	default:
		return nil
	}
}

// Dense returns a copy of the weights
func (m *InteractionMatrix) Dense() *mat.Dense {
	return mat.DenseCopyOf(m.dense)
}
