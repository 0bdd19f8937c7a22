package potts

import (
	"fmt"

	"github.com/gilchrisn/potts-clustering/pkg/utils"
)

// OverlapMinimize lets nodes join additional communities. Each round runs
// an add phase (join c when E_n(c) < 0, which strictly lowers the total
// energy); when nothing was added, a remove phase drops memberships with
// E_n(c) >= 0 from nodes that keep at least one other. It stops when a
// round neither adds nor removes, or at the round cap. The state is left
// in overlap mode.
func (mz *Minimizer) OverlapMinimize(s *State, gamma float64) (Result, error) {
	s.SetOneToOne(false)

	var res Result
	for {
		res.Rounds++
		round := res.Rounds
		s.shuffleOrders()

		added := mz.overlapAdd(s, gamma, round)
		res.Moves += added

		converged := false
		removed := 0
		if added == 0 {
			removed = mz.overlapRemove(s, gamma, round)
			res.Merges += removed
			converged = removed == 0
		}

		mz.logger.Debug().
			Int("round", round).
			Int("added", added).
			Int("removed", removed).
			Msg("Overlap round finished")

		if mz.opts.CheckInvariants {
			if err := s.Check(); err != nil {
				return res, fmt.Errorf("overlap round %d: %w", round, err)
			}
		}

		if converged {
			break
		}
		if res.Rounds >= mz.opts.MaxRounds {
			res.Capped = true
			mz.tracker.Log(utils.MoveKindCapped, round, -1, -1, -1, 0, gamma)
			mz.logger.Warn().
				Int("max_rounds", mz.opts.MaxRounds).
				Float64("gamma", gamma).
				Msg("Exceeded maximum number of overlap rounds")
			break
		}
	}

	res.Changes = res.Moves + res.Merges
	res.Q = s.Q()
	res.Energy = s.Energy(gamma)
	return res, nil
}

func (mz *Minimizer) overlapAdd(s *State, gamma float64, round int) int {
	added := 0
	for _, n := range s.randomOrder {
		for c := 0; c < s.ncmty; c++ {
			if len(s.members[c]) == 0 || contains(s.members[c], n) {
				continue
			}
			if e := s.EnergyHypothetical(gamma, c, n); e < 0 {
				s.AddOverlap(c, n)
				added++
				mz.tracker.Log(utils.MoveKindAdd, round, n, s.cmty[n], c, e, gamma)
			}
		}
	}
	return added
}

func (mz *Minimizer) overlapRemove(s *State, gamma float64, round int) int {
	removed := 0
	for _, n := range s.randomOrder {
		for c := 0; c < s.ncmty && s.multiplicity[n] > 1; c++ {
			if !contains(s.members[c], n) {
				continue
			}
			if e := s.EnergyHypothetical(gamma, c, n); e >= 0 {
				s.RemoveOverlap(c, n)
				removed++
				mz.tracker.Log(utils.MoveKindRemove, round, n, c, s.cmty[n], -e, gamma)
			}
		}
	}
	return removed
}
