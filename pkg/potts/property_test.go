package potts

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
)

// TestStateProperties checks the state and energy invariants over random
// graphs and partitions.
func TestStateProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	mz, err := NewMinimizer(DefaultOptions(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	properties.Property("minimized partitions keep the partition invariant", prop.ForAll(
		func(n int, seed uint64, gamma float64) bool {
			s := NewState(randomSymmetric(n, seed), seed)
			if _, err := mz.Minimize(s, gamma); err != nil {
				return false
			}
			total := 0
			for c := range s.Communities() {
				total += len(s.Members(c))
			}
			return total == n && s.Check() == nil
		},
		gen.IntRange(2, 30),
		gen.UInt64(),
		gen.Float64Range(0, 5),
	))

	properties.Property("remap is idempotent", prop.ForAll(
		func(n int, k int, seed uint64) bool {
			s := NewState(NewInteractionMatrix(n, 0), seed)
			s.Create(randomAssignment(n, min(k, n), seed), false)
			s.Remap()
			if s.Q() != s.Ncmty() || s.Check() != nil {
				return false
			}
			hash := s.Hash()
			return s.Remap() == 0 && s.Hash() == hash
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 40),
		gen.UInt64(),
	))

	properties.Property("energy is additive", prop.ForAll(
		func(n int, seed uint64, gamma float64) bool {
			s := NewState(randomSymmetric(n, seed), seed)
			s.Create(randomAssignment(n, 5, seed), false)
			total := 0.0
			for c := range s.Communities() {
				sum := 0.0
				for _, m := range s.Members(c) {
					sum += s.EnergyNode(gamma, m)
				}
				if sum != s.EnergyCommunity(gamma, c) {
					return false
				}
				total += sum
			}
			return total == s.Energy(gamma)
		},
		gen.IntRange(5, 30),
		gen.UInt64(),
		gen.Float64Range(0, 10),
	))

	properties.Property("copies hash equal and stay isolated", prop.ForAll(
		func(n int, seed uint64) bool {
			s := NewState(randomSymmetric(n, seed), seed)
			hash := s.Hash()
			assignment := s.Assignment()

			clone := s.Copy()
			if clone.Hash() != hash {
				return false
			}
			if _, err := mz.Minimize(clone, 0.5); err != nil {
				return false
			}
			for i, c := range s.Assignment() {
				if assignment[i] != c {
					return false
				}
			}
			return s.Hash() == hash
		},
		gen.IntRange(2, 25),
		gen.UInt64(),
	))

	properties.Property("intersect plus union equals summed sizes", prop.ForAll(
		func(n int, seed uint64, extra []int) bool {
			s := NewState(NewInteractionMatrix(n, -1), seed)
			s.Create(randomAssignment(n, 3, seed), false)
			for i, node := range extra {
				s.AddOverlap(i%3, node%n)
			}
			if s.Check() != nil {
				return false
			}
			for c1 := 0; c1 < 3; c1++ {
				for c2 := 0; c2 < 3; c2++ {
					if len(s.Members(c1))+len(s.Members(c2)) != s.Intersect(c1, c2)+s.Union(c1, c2) {
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(3, 30),
		gen.UInt64(),
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
