package potts

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/potts-clustering/pkg/utils"
)

// sameGroups reports whether nodes in each group share a community and
// different groups use different communities.
func sameGroups(s *State, groups ...[]int) bool {
	used := make(map[int]bool)
	for _, group := range groups {
		c := s.Community(group[0])
		if used[c] {
			return false
		}
		used[c] = true
		for _, n := range group[1:] {
			if s.Community(n) != c {
				return false
			}
		}
	}
	return true
}

func TestNewMinimizerValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{"defaults", func(*Options) {}, nil},
		{"unknown neighbor mode", func(o *Options) { o.NeighborMode = "closest" }, ErrUnknownNeighborMode},
		{"unknown combine mode", func(o *Options) { o.CombineMode = "greedy" }, ErrUnknownCombineMode},
		{"zero rounds", func(o *Options) { o.MaxRounds = 0 }, ErrInvalidOptions},
		{"negative depth", func(o *Options) { o.SupernodeDepth = -1 }, ErrInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := NewMinimizer(opts, zerolog.Nop())
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestNewMinimizerNormalizesModes(t *testing.T) {
	opts := DefaultOptions()
	opts.NeighborMode = " NonZero "
	mz, err := NewMinimizer(opts, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, NeighborNonzero, mz.Options().NeighborMode)
}

func TestMinimizeDegenerateResolution(t *testing.T) {
	m := NewInteractionMatrix(20, -1)
	for seed := uint64(1); seed <= 3; seed++ {
		s := NewState(m, seed)
		res, err := newTestMinimizer(t, nil).Minimize(s, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, s.Q())
		assert.Equal(t, 1, res.Q)
		assert.False(t, res.Capped)
		assert.Equal(t, res.Moves+res.Merges, res.Changes)
		assert.InDelta(t, -190.0, res.Energy, 1e-9)
	}
}

func TestMinimizeRecoversCliques(t *testing.T) {
	m := cliquesMatrix(t, 5, 4, 6)
	groups := [][]int{{0, 1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12, 13, 14}}

	modes := []struct {
		name   string
		mutate func(*Options)
	}{
		{"attractive pairwise", nil},
		{"nonzero", func(o *Options) { o.NeighborMode = NeighborNonzero }},
		{"all", func(o *Options) { o.NeighborMode = NeighborAll }},
		{"supernode", func(o *Options) { o.CombineMode = CombineSupernode }},
		{"supernode deep", func(o *Options) {
			o.CombineMode = CombineSupernode
			o.SupernodeDepth = 3
		}},
	}

	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			mz := newTestMinimizer(t, mode.mutate)
			for seed := uint64(1); seed <= 4; seed++ {
				s := NewState(m, seed)
				res, err := mz.Minimize(s, 1)
				require.NoError(t, err)
				assert.Equal(t, 3, res.Q)
				assert.True(t, sameGroups(s, groups...), "seed %d: %v", seed, s.Assignment())
				assert.Equal(t, s.Q(), s.Ncmty(), "result is compact")
				require.NoError(t, s.Check())
			}
		})
	}
}

func TestMinimizeCombineNone(t *testing.T) {
	m := cliquesMatrix(t, 4, 4)
	mz := newTestMinimizer(t, func(o *Options) { o.CombineMode = CombineNone })
	s := NewState(m, 2)
	res, err := mz.Minimize(s, 1)
	require.NoError(t, err)
	assert.Zero(t, res.Merges)
	assert.GreaterOrEqual(t, res.Q, 2)
}

func TestMinimizeRoundCap(t *testing.T) {
	m := cliquesMatrix(t, 5, 5)
	mz := newTestMinimizer(t, func(o *Options) { o.MaxRounds = 1 })

	s := NewState(m, 3)
	res, err := mz.Minimize(s, 1)
	require.NoError(t, err, "hitting the cap is not an error")
	assert.True(t, res.Capped)
	assert.Equal(t, 1, res.Rounds)
	assert.Positive(t, res.Moves)
}

func TestMinimizeStrictImprovementOnly(t *testing.T) {
	// All weights zero: no move ever strictly improves.
	m := NewInteractionMatrix(6, 0)
	s := NewState(m, 4)
	before := s.Assignment()

	mz := newTestMinimizer(t, func(o *Options) { o.NeighborMode = NeighborAll })
	res, err := mz.Minimize(s, 1)
	require.NoError(t, err)
	assert.Zero(t, res.Changes)
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, 6, s.Q())
	assert.ElementsMatch(t, before, s.Assignment())
}

func TestMinimizeReturnsToExclusiveMode(t *testing.T) {
	m := cliquesMatrix(t, 3, 3)
	s := NewState(m, 1)
	s.Create([]int{0, 0, 0, 1, 1, 1}, false)
	require.True(t, s.AddOverlap(1, 0))

	_, err := newTestMinimizer(t, nil).Minimize(s, 1)
	require.NoError(t, err)
	assert.True(t, s.OneToOne())
	require.NoError(t, s.Check())
}

func TestMinimizeTrials(t *testing.T) {
	m := randomSymmetric(25, 3)
	mz := newTestMinimizer(t, nil)

	s := NewState(m, 8)
	res, err := mz.MinimizeTrials(s, 0.5, 4)
	require.NoError(t, err)
	require.NoError(t, s.Check())
	assert.Equal(t, s.Q(), res.Q)
	assert.InDelta(t, s.Energy(0.5), res.Energy, 1e-9)
	assert.GreaterOrEqual(t, res.Rounds, 4)

	_, err = mz.MinimizeTrials(s, 0.5, 0)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestMinimizeTrialsKeepsLowestEnergy(t *testing.T) {
	m := cliquesMatrix(t, 4, 4, 4)
	mz := newTestMinimizer(t, nil)
	s := NewState(m, 21)

	res, err := mz.MinimizeTrials(s, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Q)
	assert.InDelta(t, -18.0, res.Energy, 1e-9)
	assert.True(t, sameGroups(s, []int{0, 1, 2, 3}, []int{4, 5, 6, 7}, []int{8, 9, 10, 11}))
}

func TestMoveTracking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.jsonl")
	tracker, err := utils.NewMoveTracker(path)
	require.NoError(t, err)

	mz := newTestMinimizer(t, nil).WithMoveTracker(tracker)
	s := NewState(cliquesMatrix(t, 3, 3), 9)
	res, err := mz.Minimize(s, 1)
	require.NoError(t, err)
	require.NoError(t, tracker.Close())

	assert.Equal(t, res.Changes, tracker.Count())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, res.Changes)

	var first utils.MoveEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, 1, first.MoveNumber)
	assert.Equal(t, utils.MoveKindNode, first.Kind)
	assert.Negative(t, first.Delta)
}
