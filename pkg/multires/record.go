package multires

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/potts-clustering/pkg/potts"
)

// ErrTooFewReplicas is returned when fewer than two replicas are compared
var ErrTooFewReplicas = errors.New("at least two replicas are required")

// ResolutionRecord holds the replica statistics of one gamma index
type ResolutionRecord struct {
	Index   int     `json:"index" yaml:"index"`
	Gamma   float64 `json:"gamma" yaml:"gamma"`
	N       int     `json:"n" yaml:"n"`
	Q       float64 `json:"q" yaml:"q"`             // mean number of communities
	QStd    float64 `json:"q_std" yaml:"q_std"`     // sample standard deviation of q
	QMin    int     `json:"q_min" yaml:"q_min"`     // q of the lowest energy replica
	E       float64 `json:"energy" yaml:"energy"`   // mean energy
	Entropy float64 `json:"entropy" yaml:"entropy"` // mean partition entropy
	I       float64 `json:"mi" yaml:"mi"`           // mean pairwise mutual information
	VI      float64 `json:"vi" yaml:"vi"`           // mean pairwise variation of information
	In      float64 `json:"nmi" yaml:"nmi"`         // mean pairwise normalized mutual information
	NMean   float64 `json:"n_mean" yaml:"n_mean"`   // mean community size

	NHist      []float64 `json:"n_hist" yaml:"n_hist"`
	NHistEdges []float64 `json:"n_hist_edges" yaml:"n_hist_edges"`

	Replicas int           `json:"replicas" yaml:"replicas"`
	Trials   int           `json:"trials" yaml:"trials"`
	Duration time.Duration `json:"duration" yaml:"duration"`

	Failed bool  `json:"failed" yaml:"failed"`
	Err    error `json:"-" yaml:"-"`
}

// NewResolutionRecord compares minimized replicas at gamma. Every pair of
// replicas contributes to the mutual information averages; pairs where
// both replicas form a single community are left out of the normalized
// average (In is 1 when every pair is such a pair).
func NewResolutionRecord(gamma float64, states []*potts.State, histBins int) (*ResolutionRecord, error) {
	if len(states) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewReplicas, len(states))
	}
	if histBins < 2 {
		return nil, fmt.Errorf("histogram needs at least 2 bin edges, got %d", histBins)
	}
	N := states[0].N()
	for i, s := range states {
		if s.N() != N {
			return nil, fmt.Errorf("replica %d has %d nodes, expected %d", i, s.N(), N)
		}
	}

	R := len(states)
	qs := make([]float64, R)
	energies := make([]float64, R)
	entropies := make([]float64, R)
	assignments := make([][]int, R)
	minIdx := 0
	for i, s := range states {
		qs[i] = float64(s.Q())
		energies[i] = s.Energy(gamma)
		entropies[i] = s.Entropy()
		assignments[i] = s.Assignment()
		if energies[i] < energies[minIdx] {
			minIdx = i
		}
	}

	var mis, vis, nmis []float64
	for i := 0; i < R; i++ {
		for j := i + 1; j < R; j++ {
			mi, err := MutualInformation(assignments[i], assignments[j])
			if err != nil {
				return nil, err
			}
			mis = append(mis, mi)
			vis = append(vis, VariationOfInformation(entropies[i], entropies[j], mi))
			if nmi, ok := NormalizedMutualInformation(entropies[i], entropies[j], mi); ok {
				nmis = append(nmis, nmi)
			}
		}
	}

	in := 1.0
	if len(nmis) > 0 {
		in = stat.Mean(nmis, nil)
	}

	nMean := 0.0
	var sizes []float64
	for _, s := range states {
		q := float64(s.Q())
		for size, count := range s.SizeCounts() {
			nMean += float64(size*count) / q
			for k := 0; k < count; k++ {
				sizes = append(sizes, float64(size))
			}
		}
	}
	nMean /= float64(R)

	slices.Sort(sizes)
	edges := floats.LogSpan(make([]float64, histBins), 1, float64(N+1))
	// Guard the upper edge against rounding in exp(log(N+1)).
	edges[len(edges)-1] = math.Max(edges[len(edges)-1], float64(N)+1)
	hist := stat.Histogram(nil, edges, sizes, nil)

	return &ResolutionRecord{
		Gamma:      gamma,
		N:          N,
		Q:          stat.Mean(qs, nil),
		QStd:       stat.StdDev(qs, nil),
		QMin:       states[minIdx].Q(),
		E:          stat.Mean(energies, nil),
		Entropy:    stat.Mean(entropies, nil),
		I:          stat.Mean(mis, nil),
		VI:         stat.Mean(vis, nil),
		In:         in,
		NMean:      nMean,
		NHist:      hist,
		NHistEdges: edges,
		Replicas:   R,
	}, nil
}
