package graphs

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/gilchrisn/potts-clustering/pkg/utils"
)

// GrowMode selects which neighborhood later links of a new node are drawn from
type GrowMode string

const (
	GrowAll           GrowMode = "all"            // neighbors of every node linked so far
	GrowAllNonrandom  GrowMode = "all_nonrandom"  // like all, skipping randomly chosen links
	GrowLast          GrowMode = "last"           // neighbors of the last linked node
	GrowLastNonrandom GrowMode = "last_nonrandom" // like last, skipping randomly chosen links
	GrowFirst         GrowMode = "first"          // neighbors of the first linked node
)

var ErrUnknownGrowMode = errors.New("unknown growth neighbor mode")

// GrowOptions configures the fitness growth model
type GrowOptions struct {
	P            float64  // probability that a later link goes to a random node
	Beta         float64  // fitness decay
	Kappa        float64  // fitness shape
	M            int      // links per new node
	NeighborMode GrowMode // defaults to GrowAll
	Weight       float64  // weight of every created edge
}

func (o GrowOptions) validate() error {
	switch o.NeighborMode {
	case GrowAll, GrowAllNonrandom, GrowLast, GrowLastNonrandom, GrowFirst:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGrowMode, o.NeighborMode)
	}
	if o.M < 1 {
		return fmt.Errorf("links per node must be at least 1, got %d", o.M)
	}
	if o.P < 0 || o.P > 1 {
		return fmt.Errorf("random link probability must lie in [0,1], got %g", o.P)
	}
	return nil
}

// FitnessGrowth grows a graph by fitness-weighted preferential attachment:
// each new node links to a node chosen by fitness, then to M-1 more nodes
// that are either random (probability P) or neighbors of nodes it already
// linked to.
type FitnessGrowth struct {
	opts      GrowOptions
	rng       *rand.Rand
	graph     *simple.WeightedUndirectedGraph
	fitnesses map[int64]float64
	chooser   *utils.WeightedChoice
}

// NewFitnessGrowth starts from a complete graph on M+1 nodes
func NewFitnessGrowth(opts GrowOptions, seed uint64) (*FitnessGrowth, error) {
	if opts.NeighborMode == "" {
		opts.NeighborMode = GrowAll
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	fg := &FitnessGrowth{
		opts:      opts,
		rng:       rand.New(rand.NewPCG(seed, seed+1)),
		graph:     Complete(opts.M+1, opts.Weight),
		fitnesses: make(map[int64]float64),
	}

	ids := make([]int, 0, opts.M+1)
	weights := make([]float64, 0, opts.M+1)
	for id := 0; id <= opts.M; id++ {
		f := fg.drawFitness()
		fg.fitnesses[int64(id)] = f
		ids = append(ids, id)
		weights = append(weights, f)
	}

	chooser, err := utils.NewWeightedChoice(ids, weights, rand.NewPCG(fg.rng.Uint64(), fg.rng.Uint64()))
	if err != nil {
		return nil, err
	}
	fg.chooser = chooser
	return fg, nil
}

func (fg *FitnessGrowth) drawFitness() float64 {
	return math.Exp(-fg.opts.Beta * math.Pow(fg.rng.Float64(), 1/(fg.opts.Kappa+1)))
}

// Graph returns the grown graph
func (fg *FitnessGrowth) Graph() *simple.WeightedUndirectedGraph { return fg.graph }

// Fitness returns the fitness of node id
func (fg *FitnessGrowth) Fitness(id int64) float64 { return fg.fitnesses[id] }

// Grow adds nodes until the graph holds n nodes
func (fg *FitnessGrowth) Grow(n int) error {
	for fg.graph.Nodes().Len() < n {
		if err := fg.Add(); err != nil {
			return err
		}
	}
	return nil
}

func (fg *FitnessGrowth) neighbors(id int64) []int64 {
	var out []int64
	to := fg.graph.From(id)
	for to.Next() {
		out = append(out, to.Node().ID())
	}
	return out
}

// Add inserts one node and links it into the graph
func (fg *FitnessGrowth) Add() error {
	n0 := int64(fg.graph.Nodes().Len())
	fg.graph.AddNode(simple.Node(n0))

	fitness := fg.drawFitness()
	fg.fitnesses[n0] = fitness
	if err := fg.chooser.Add(int(n0), fitness); err != nil {
		return err
	}

	exclude := map[int64]bool{n0: true}
	neighs := make(map[int64]bool)

	link := func(to int64) {
		fg.graph.SetWeightedEdge(fg.graph.NewWeightedEdge(simple.Node(n0), simple.Node(to), fg.opts.Weight))
		exclude[to] = true
	}

	first, ok := fg.chooseGlobal(exclude)
	if !ok {
		return fmt.Errorf("no node available to attach node %d", n0)
	}
	link(first)
	for _, m := range fg.neighbors(first) {
		neighs[m] = true
	}

	for k := 1; k < fg.opts.M; k++ {
		randomLink := false
		var next int64
		if fg.rng.Float64() < fg.opts.P {
			randomLink = true
			next, ok = fg.chooseGlobal(exclude)
		} else {
			next, ok = fg.chooseAmong(neighs, exclude)
			if !ok {
				randomLink = true
				next, ok = fg.chooseGlobal(exclude)
			}
		}
		if !ok {
			break
		}
		link(next)

		switch fg.opts.NeighborMode {
		case GrowAll:
			for _, m := range fg.neighbors(next) {
				neighs[m] = true
			}
		case GrowAllNonrandom:
			if !randomLink {
				for _, m := range fg.neighbors(next) {
					neighs[m] = true
				}
			}
		case GrowLast:
			neighs = make(map[int64]bool)
			for _, m := range fg.neighbors(next) {
				neighs[m] = true
			}
		case GrowLastNonrandom:
			if !randomLink {
				neighs = make(map[int64]bool)
				for _, m := range fg.neighbors(next) {
					neighs[m] = true
				}
			}
		case GrowFirst:
		}
	}
	return nil
}

// chooseGlobal draws a fitness-weighted node outside exclude
func (fg *FitnessGrowth) chooseGlobal(exclude map[int64]bool) (int64, bool) {
	if len(exclude) >= fg.chooser.Len() {
		return 0, false
	}
	for {
		item, ok := fg.chooser.Choice()
		if !ok {
			return 0, false
		}
		if !exclude[int64(item)] {
			return int64(item), true
		}
	}
}

// chooseAmong draws a fitness-weighted node from candidates outside exclude
func (fg *FitnessGrowth) chooseAmong(candidates, exclude map[int64]bool) (int64, bool) {
	ids := make([]int, 0, len(candidates))
	for id := range candidates {
		if !exclude[id] {
			ids = append(ids, int(id))
		}
	}
	if len(ids) == 0 {
		return 0, false
	}
	// Map iteration order is random; sort for reproducible draws.
	slices.Sort(ids)
	weights := make([]float64, len(ids))
	for i, id := range ids {
		weights[i] = fg.fitnesses[int64(id)]
	}

	chooser, err := utils.NewWeightedChoice(ids, weights, rand.NewPCG(fg.rng.Uint64(), fg.rng.Uint64()))
	if err != nil {
		return 0, false
	}
	item, ok := chooser.Choice()
	return int64(item), ok
}
