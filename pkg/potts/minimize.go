package potts

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/potts-clustering/pkg/utils"
)

// Result summarizes one minimization. For OverlapMinimize, Moves counts
// added memberships and Merges counts removed ones.
type Result struct {
	Changes int     `json:"changes"` // Moves + Merges
	Moves   int     `json:"moves"`
	Merges  int     `json:"merges"`
	Rounds  int     `json:"rounds"`
	Capped  bool    `json:"capped"` // stopped by the round cap before converging
	Q       int     `json:"q"`
	Energy  float64 `json:"energy"`
}

// Minimizer drives a State toward a local energy minimum at a fixed gamma.
// A Minimizer holds no per-run state and may be shared between goroutines
// as long as each works on its own State.
type Minimizer struct {
	opts    Options
	logger  zerolog.Logger
	tracker *utils.MoveTracker
	depth   int
}

// NewMinimizer validates opts and creates a minimizer
func NewMinimizer(opts Options, logger zerolog.Logger) (*Minimizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.NeighborMode, _ = ParseNeighborMode(string(opts.NeighborMode))
	opts.CombineMode, _ = ParseCombineMode(string(opts.CombineMode))

	return &Minimizer{
		opts:   opts,
		logger: logger,
	}, nil
}

// WithMoveTracker returns a copy of the minimizer that logs every move
func (mz *Minimizer) WithMoveTracker(tracker *utils.MoveTracker) *Minimizer {
	clone := *mz
	clone.tracker = tracker
	return &clone
}

// Options returns the validated options
func (mz *Minimizer) Options() Options { return mz.opts }

// Minimize runs sweeps until a sweep makes no moves, then tries to merge
// communities; it stops when neither moves nor merges happen or the round
// cap is hit. A state in overlap mode is returned to exclusive mode first.
func (mz *Minimizer) Minimize(s *State, gamma float64) (Result, error) {
	start := time.Now()
	if !s.oneToOne {
		s.SetOneToOne(true)
	}

	mz.logger.Debug().
		Int("n", s.n).
		Float64("gamma", gamma).
		Int("depth", mz.depth).
		Msg("Beginning minimization")

	var res Result
	for {
		res.Rounds++
		round := res.Rounds
		s.shuffleOrders()

		moves := mz.sweep(s, gamma, round)
		res.Moves += moves

		mz.logger.Debug().
			Int("round", round).
			Int("q", s.Q()).
			Int("moves", moves).
			Msg("Sweep finished")

		converged := false
		if moves == 0 {
			merges, err := mz.combine(s, gamma, round)
			if err != nil {
				return res, err
			}
			res.Merges += merges
			s.Remap()

			mz.logger.Debug().
				Int("round", round).
				Int("q", s.Q()).
				Int("merges", merges).
				Msg("Combined communities")

			converged = merges == 0
		}

		if mz.opts.CheckInvariants {
			if err := s.Check(); err != nil {
				return res, fmt.Errorf("round %d: %w", round, err)
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
				Msg("Exceeded maximum number of rounds")
			break
		}
	}

	res.Changes = res.Moves + res.Merges
	res.Q = s.Q()
	res.Energy = s.Energy(gamma)

	mz.logger.Debug().
		Int("rounds", res.Rounds).
		Int("changes", res.Changes).
		Int("q", res.Q).
		Float64("energy", res.Energy).
		Dur("runtime", time.Since(start)).
		Msg("Minimization finished")

	return res, nil
}

// sweep visits every node once in random order and moves it to the
// candidate community where its energy is strictly lowest. It returns the
// number of moves.
func (mz *Minimizer) sweep(s *State, gamma float64, round int) int {
	moves := 0
	seen := make([]int, s.n)
	stamp := 0

	for _, n := range s.randomOrder {
		stamp++
		old := s.cmty[n]
		oldE := s.EnergyHypothetical(gamma, old, n)
		best, bestE := old, oldE
		seen[old] = stamp

		consider := func(c int) {
			if seen[c] == stamp {
				return
			}
			seen[c] = stamp
			if e := s.EnergyHypothetical(gamma, c, n); e < bestE {
				best, bestE = c, e
			}
		}

		if mz.opts.NeighborMode == NeighborAll {
			// Scan from a per-node random offset.
			k := s.ncmty
			offset := s.randomOrder2[n] % k
			for i := 0; i < k; i++ {
				c := (offset + i) % k
				if len(s.members[c]) > 0 {
					consider(c)
				}
			}
		} else {
			partners := s.matrix.Partners(n, mz.opts.NeighborMode)
			if k := len(partners); k > 0 {
				offset := s.randomOrder2[n] % k
				for i := 0; i < k; i++ {
					consider(s.cmty[partners[(offset+i)%k]])
				}
			}
		}

		if best != old {
			s.move(n, old, best)
			moves++
			mz.tracker.Log(utils.MoveKindNode, round, n, old, best, bestE-oldE, gamma)
		}
	}
	return moves
}

// combine merges communities with the configured strategy
func (mz *Minimizer) combine(s *State, gamma float64, round int) (int, error) {
	switch mz.opts.CombineMode {
	case CombineNone:
		return 0, nil
	case CombineSupernode:
		if mz.depth < mz.opts.SupernodeDepth {
			return mz.combineSupernodes(s, gamma)
		}
	}
	return mz.combinePairwise(s, gamma, round), nil
}

// MinimizeTrials minimizes from trials independent random starting
// partitions and keeps the lowest energy result in s. Counters in the
// returned Result are summed over trials; Q and Energy describe the kept
// partition.
func (mz *Minimizer) MinimizeTrials(s *State, gamma float64, trials int) (Result, error) {
	if trials < 1 {
		return Result{}, fmt.Errorf("%w: trials must be at least 1, got %d", ErrInvalidOptions, trials)
	}

	var total Result
	minE := math.Inf(1)
	var best []int

	for t := 0; t < trials; t++ {
		s.Create(nil, true)
		res, err := mz.Minimize(s, gamma)
		if err != nil {
			return total, fmt.Errorf("trial %d: %w", t, err)
		}
		total.Changes += res.Changes
		total.Moves += res.Moves
		total.Merges += res.Merges
		total.Rounds += res.Rounds
		total.Capped = total.Capped || res.Capped

		if best == nil || res.Energy < minE {
			minE = res.Energy
			best = s.Assignment()
		}
	}

	s.Create(best, false)
	total.Q = s.Q()
	total.Energy = s.Energy(gamma)

	mz.logger.Debug().
		Float64("gamma", gamma).
		Int("trials", trials).
		Int("q", total.Q).
		Float64("energy", total.Energy).
		Msg("Trials finished")

	return total, nil
}
