package potts

// Contains reports whether node n is a member of community c
func (s *State) Contains(c, n int) bool {
	s.checkCmty(c)
	s.checkNode(n)
	return contains(s.members[c], n)
}

// AddOverlap makes n an additional member of c and switches the state to
// overlap mode. It reports whether anything changed.
func (s *State) AddOverlap(c, n int) bool {
	if s.Contains(c, n) {
		return false
	}
	s.oneToOne = false
	s.members[c] = append(s.members[c], n)
	s.multiplicity[n]++
	if c+1 > s.ncmty {
		s.ncmty = c + 1
	}
	return true
}

// RemoveOverlap drops n from c. A node's last membership is never
// removed. When c was the primary community, the lowest other community
// holding n becomes primary. It reports whether anything changed.
func (s *State) RemoveOverlap(c, n int) bool {
	if !s.Contains(c, n) || s.multiplicity[n] <= 1 {
		return false
	}
	s.oneToOne = false
	list := s.members[c]
	for i, m := range list {
		if m == n {
			s.members[c] = append(list[:i], list[i+1:]...)
			break
		}
	}
	s.multiplicity[n]--

	if s.cmty[n] == c {
		for other := 0; other < s.ncmty; other++ {
			if contains(s.members[other], n) {
				s.cmty[n] = other
				break
			}
		}
	}
	return true
}

// Intersect returns the number of nodes in both c1 and c2
func (s *State) Intersect(c1, c2 int) int {
	s.checkCmty(c1)
	s.checkCmty(c2)
	in := make(map[int]struct{}, len(s.members[c2]))
	for _, n := range s.members[c2] {
		in[n] = struct{}{}
	}
	count := 0
	for _, n := range s.members[c1] {
		if _, ok := in[n]; ok {
			count++
		}
	}
	return count
}

// Union returns the number of nodes in c1 or c2
func (s *State) Union(c1, c2 int) int {
	common := s.Intersect(c1, c2)
	return len(s.members[c1]) + len(s.members[c2]) - common
}
