package potts

// The Hamiltonian is the absolute Potts model: attractive weights count in
// full, repulsive weights are scaled by the resolution gamma. The energy of
// node n in community c is
//
//	E_n(c) = 1/2 * sum_{m in c, m != n} (J[n][m] < 0 ? J[n][m] : gamma*J[n][m])
//
// Low gamma makes repulsion cheap and favors few large communities; high
// gamma favors many small ones.

func (s *State) pairEnergy(gamma float64, n, m int) float64 {
	j := s.matrix.At(n, m)
	if j < 0 {
		return j
	}
	return gamma * j
}

// EnergyHypothetical returns the energy node n would have as a member of
// community c. The state is not modified.
func (s *State) EnergyHypothetical(gamma float64, c, n int) float64 {
	s.checkCmty(c)
	s.checkNode(n)
	e := 0.0
	for _, m := range s.members[c] {
		if m == n {
			continue
		}
		e += s.pairEnergy(gamma, n, m)
	}
	return 0.5 * e
}

// EnergyNode returns the energy of node n in its current community
func (s *State) EnergyNode(gamma float64, n int) float64 {
	s.checkNode(n)
	return s.EnergyHypothetical(gamma, s.cmty[n], n)
}

// EnergyCommunity returns the summed node energies of community c
func (s *State) EnergyCommunity(gamma float64, c int) float64 {
	s.checkCmty(c)
	e := 0.0
	for _, n := range s.members[c] {
		e += s.EnergyHypothetical(gamma, c, n)
	}
	return e
}

// Energy returns the total energy over all nonempty communities
func (s *State) Energy(gamma float64) float64 {
	e := 0.0
	for c := range s.Communities() {
		e += s.EnergyCommunity(gamma, c)
	}
	return e
}

// EnergyBetween returns the interaction energy between two communities.
// For a symmetric matrix this is exactly the change in total energy if c1
// and c2 were merged.
func (s *State) EnergyBetween(gamma float64, c1, c2 int) float64 {
	s.checkCmty(c1)
	s.checkCmty(c2)
	e := 0.0
	for _, n := range s.members[c1] {
		for _, m := range s.members[c2] {
			if m == n {
				continue
			}
			e += s.pairEnergy(gamma, n, m)
		}
	}
	return e
}
