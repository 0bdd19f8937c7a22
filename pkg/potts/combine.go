package potts

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/potts-clustering/pkg/utils"
)

// supernodeMultiplier scales supernode interactions away from rounding noise
const supernodeMultiplier = 1000

// combinePairwise merges, for each community in ascending id order, the
// higher-id community with the most negative interaction energy, if that
// energy is negative. It returns the number of merges.
func (mz *Minimizer) combinePairwise(s *State, gamma float64, round int) int {
	merges := 0
	for c1 := 0; c1 < s.ncmty; c1++ {
		if len(s.members[c1]) == 0 {
			continue
		}
		best, bestE := -1, 0.0
		for c2 := c1 + 1; c2 < s.ncmty; c2++ {
			if len(s.members[c2]) == 0 {
				continue
			}
			if e := s.EnergyBetween(gamma, c1, c2); e < bestE {
				best, bestE = c2, e
			}
		}
		if best < 0 {
			continue
		}
		s.merge(c1, best)
		merges++
		mz.tracker.Log(utils.MoveKindMerge, round, -1, best, c1, bestE, gamma)
	}
	return merges
}

// SupernodeMatrix compacts the state and returns the q×q matrix whose
// entry (c1, c2) is multiplier*EnergyBetween(gamma, c1, c2). The diagonal
// is zero.
func (s *State) SupernodeMatrix(gamma, multiplier float64) *InteractionMatrix {
	s.Remap()
	q := s.Q()
	data := make([]float64, q*q)
	for c1 := 0; c1 < q; c1++ {
		for c2 := c1 + 1; c2 < q; c2++ {
			e := s.EnergyBetween(gamma, c1, c2) * multiplier
			data[c1*q+c2] = e
			data[c2*q+c1] = e
		}
	}
	return newMatrix(mat.NewDense(q, q, data))
}

// LoadFromSupernodes assigns every node to the community its supernode
// ended up in. The state must be compact and sub must have one node per
// community. It returns the reduction in q.
func (s *State) LoadFromSupernodes(sub *State) int {
	q := s.Q()
	if q != s.ncmty || sub.n != q {
		panic(fmt.Sprintf("potts: cannot load %d supernodes into state with q=%d ncmty=%d", sub.n, q, s.ncmty))
	}
	for n := range s.cmty {
		s.cmty[n] = sub.cmty[s.cmty[n]]
	}
	s.oneToOne = true
	s.rebuild()
	s.Remap()
	return q - s.Q()
}

// combineSupernodes coarse-grains the state into one node per community,
// minimizes that graph and loads the resulting grouping back. Supernode
// weights already hold the resolution, so the coarse graph is minimized
// at gamma 1.
func (mz *Minimizer) combineSupernodes(s *State, gamma float64) (int, error) {
	s.Remap()
	if s.Q() <= 1 {
		return 0, nil
	}

	sm := s.SupernodeMatrix(gamma, supernodeMultiplier)
	attractive := false
	for c := 0; c < sm.N() && !attractive; c++ {
		attractive = len(sm.Partners(c, NeighborAttractive)) > 0
	}
	if !attractive {
		return 0, nil
	}

	child := &Minimizer{
		opts:   mz.opts,
		logger: mz.logger.With().Int("depth", mz.depth+1).Logger(),
		depth:  mz.depth + 1,
	}
	child.opts.CheckInvariants = false

	sub := NewState(sm, s.rng.Uint64())
	res, err := child.Minimize(sub, 1)
	if err != nil {
		return 0, fmt.Errorf("supernode minimization: %w", err)
	}
	if res.Changes == 0 {
		return 0, nil
	}

	before := s.Q()
	merged := s.LoadFromSupernodes(sub)
	mz.logger.Debug().
		Int("depth", mz.depth).
		Int("q_before", before).
		Int("q_after", s.Q()).
		Msg("Loaded supernode grouping")
	return merged, nil
}
