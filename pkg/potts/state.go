package potts

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"strings"
)

// ErrInvariantViolation is wrapped by every consistency failure found by Check
var ErrInvariantViolation = errors.New("community state invariant violated")

// InvariantError lists every discrepancy found by a consistency audit
type InvariantError struct {
	Violations []string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %d violation(s): %s", ErrInvariantViolation, len(e.Violations), strings.Join(e.Violations, "; "))
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// State assigns the N nodes of an interaction matrix to communities.
//
// In exclusive (one-to-one) mode every node belongs to exactly one
// community, cmty[n], and members[c] lists exactly the nodes with
// cmty[n] == c. In overlap mode a node may appear in several member lists
// (at most once in each) and cmty[n] is its primary community.
//
// Community ids live in [0, N); members is an arena of N slots addressed
// by id. Ncmty is an upper bound on the ids in use.
type State struct {
	matrix *InteractionMatrix
	n      int

	cmty         []int
	members      [][]int
	multiplicity []int
	ncmty        int
	oneToOne     bool

	randomOrder  []int
	randomOrder2 []int
	rng          *rand.Rand
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewState creates a state over m with one node per community, in random
// order.
func NewState(m *InteractionMatrix, seed uint64) *State {
	n := m.N()
	s := &State{
		matrix:       m,
		n:            n,
		cmty:         make([]int, n),
		members:      make([][]int, n),
		multiplicity: make([]int, n),
		randomOrder:  make([]int, n),
		randomOrder2: make([]int, n),
		rng:          newRNG(seed),
	}
	for i := 0; i < n; i++ {
		s.randomOrder[i] = i
		s.randomOrder2[i] = i
	}
	s.Create(nil, true)
	return s
}

// Create installs an assignment and rebuilds the membership lists. A nil
// assignment means one community per node, shuffled when randomize is
// set; an explicit assignment is installed as given. The state returns to
// exclusive mode.
func (s *State) Create(assignment []int, randomize bool) {
	if assignment == nil {
		for i := range s.cmty {
			s.cmty[i] = i
		}
		if randomize {
			s.rng.Shuffle(s.n, func(i, j int) { s.cmty[i], s.cmty[j] = s.cmty[j], s.cmty[i] })
		}
	} else {
		if len(assignment) != s.n {
			panic(fmt.Sprintf("potts: assignment has %d entries for %d nodes", len(assignment), s.n))
		}
		for n, c := range assignment {
			if c < 0 || c >= s.n {
				panic(fmt.Sprintf("potts: node %d assigned to community %d outside [0,%d)", n, c, s.n))
			}
		}
		copy(s.cmty, assignment)
	}
	s.oneToOne = true
	s.rebuild()
}

// rebuild regenerates members and multiplicity from cmty
func (s *State) rebuild() {
	for c := range s.members {
		s.members[c] = s.members[c][:0]
	}
	s.ncmty = 0
	for n, c := range s.cmty {
		s.members[c] = append(s.members[c], n)
		s.multiplicity[n] = 1
		if c+1 > s.ncmty {
			s.ncmty = c + 1
		}
	}
}

func (s *State) checkNode(n int) {
	if n < 0 || n >= s.n {
		panic(fmt.Sprintf("potts: node %d out of range [0,%d)", n, s.n))
	}
}

func (s *State) checkCmty(c int) {
	if c < 0 || c >= s.n {
		panic(fmt.Sprintf("potts: community %d out of range [0,%d)", c, s.n))
	}
}

// N returns the number of nodes
func (s *State) N() int { return s.n }

// Matrix returns the shared interaction matrix
func (s *State) Matrix() *InteractionMatrix { return s.matrix }

// Community returns the (primary) community of node n
func (s *State) Community(n int) int {
	s.checkNode(n)
	return s.cmty[n]
}

// Members returns the live member list of community c. Callers must not
// modify it.
func (s *State) Members(c int) []int {
	s.checkCmty(c)
	return s.members[c]
}

// Multiplicity returns the number of communities node n belongs to
func (s *State) Multiplicity(n int) int {
	s.checkNode(n)
	return s.multiplicity[n]
}

// Ncmty returns the upper bound on community ids in use
func (s *State) Ncmty() int { return s.ncmty }

// OneToOne reports whether the state is in exclusive mode
func (s *State) OneToOne() bool { return s.oneToOne }

// SetOneToOne switches modes. Returning to exclusive mode drops every
// membership other than each node's primary community.
func (s *State) SetOneToOne(exclusive bool) {
	if exclusive && !s.oneToOne {
		s.oneToOne = true
		s.rebuild()
		return
	}
	s.oneToOne = exclusive
}

// Communities yields the ids of nonempty communities in ascending order
func (s *State) Communities() iter.Seq[int] {
	return func(yield func(int) bool) {
		for c := 0; c < s.ncmty; c++ {
			if len(s.members[c]) == 0 {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// Q returns the number of nonempty communities
func (s *State) Q() int {
	q := 0
	for c := 0; c < s.ncmty; c++ {
		if len(s.members[c]) > 0 {
			q++
		}
	}
	return q
}

// Assignment returns a copy of the node to community mapping
func (s *State) Assignment() []int {
	out := make([]int, s.n)
	copy(out, s.cmty)
	return out
}

// Sizes returns the sizes of the nonempty communities in id order
func (s *State) Sizes() []int {
	sizes := make([]int, 0, s.ncmty)
	for c := range s.Communities() {
		sizes = append(sizes, len(s.members[c]))
	}
	return sizes
}

// SizeCounts maps each community size to the number of communities of that size
func (s *State) SizeCounts() map[int]int {
	counts := make(map[int]int)
	for c := range s.Communities() {
		counts[len(s.members[c])]++
	}
	return counts
}

// Entropy returns the Shannon entropy (bits) of the community size
// distribution.
func (s *State) Entropy() float64 {
	N := float64(s.n)
	H := 0.0
	for c := range s.Communities() {
		p := float64(len(s.members[c])) / N
		H -= p * math.Log2(p)
	}
	return H
}

// move transfers node n between communities in exclusive mode
func (s *State) move(n, from, to int) {
	list := s.members[from]
	for i, m := range list {
		if m == n {
			s.members[from] = append(list[:i], list[i+1:]...)
			break
		}
	}
	s.members[to] = append(s.members[to], n)
	s.cmty[n] = to
	if to+1 > s.ncmty {
		s.ncmty = to + 1
	}
}

// merge moves every member of src into dst in exclusive mode
func (s *State) merge(dst, src int) {
	for _, n := range s.members[src] {
		s.cmty[n] = dst
	}
	s.members[dst] = append(s.members[dst], s.members[src]...)
	s.members[src] = s.members[src][:0]
}

// shuffleOrders draws fresh visit and tie-break permutations
func (s *State) shuffleOrders() {
	s.rng.Shuffle(s.n, func(i, j int) {
		s.randomOrder[i], s.randomOrder[j] = s.randomOrder[j], s.randomOrder[i]
	})
	s.rng.Shuffle(s.n, func(i, j int) {
		s.randomOrder2[i], s.randomOrder2[j] = s.randomOrder2[j], s.randomOrder2[i]
	})
}

// Remap compacts community ids into [0, q). Communities are taken from the
// highest id down and moved into the lowest empty id below them. It
// returns the number of communities moved; a compact state is unchanged.
func (s *State) Remap() int {
	moved := 0
	low := 0
	for old := s.ncmty - 1; old >= 0; old-- {
		if len(s.members[old]) == 0 {
			continue
		}
		for low < old && len(s.members[low]) > 0 {
			low++
		}
		if low >= old {
			break
		}
		s.members[low], s.members[old] = s.members[old], s.members[low][:0]
		for _, n := range s.members[low] {
			if s.cmty[n] == old {
				s.cmty[n] = low
			}
		}
		moved++
	}

	s.ncmty = 0
	for c := len(s.members) - 1; c >= 0; c-- {
		if len(s.members[c]) > 0 {
			s.ncmty = c + 1
			break
		}
	}
	return moved
}

// Copy returns a deep clone sharing only the interaction matrix. The
// clone's random source is seeded from this state's source, so Copy
// advances it.
func (s *State) Copy() *State {
	return s.CopySeeded(s.rng.Uint64())
}

// CopySeeded is Copy with an explicit seed for the clone's random source
func (s *State) CopySeeded(seed uint64) *State {
	c := &State{
		matrix:       s.matrix,
		n:            s.n,
		cmty:         append([]int(nil), s.cmty...),
		members:      make([][]int, s.n),
		multiplicity: append([]int(nil), s.multiplicity...),
		ncmty:        s.ncmty,
		oneToOne:     s.oneToOne,
		randomOrder:  append([]int(nil), s.randomOrder...),
		randomOrder2: append([]int(nil), s.randomOrder2...),
		rng:          newRNG(seed),
	}
	for i, list := range s.members {
		if len(list) > 0 {
			c.members[i] = append([]int(nil), list...)
		}
	}
	return c
}

// Check audits the state and returns an *InvariantError listing every
// discrepancy, or nil.
func (s *State) Check() error {
	var violations []string
	report := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	if s.ncmty < 0 || s.ncmty > s.n {
		report("ncmty %d outside [0,%d]", s.ncmty, s.n)
	}
	for c := s.ncmty; c < s.n && c >= 0; c++ {
		if len(s.members[c]) > 0 {
			report("community %d at or above ncmty %d has %d members", c, s.ncmty, len(s.members[c]))
		}
	}

	seen := make([]int, s.n)
	total := 0
	for c, list := range s.members {
		inList := make(map[int]bool, len(list))
		for _, n := range list {
			if n < 0 || n >= s.n {
				report("community %d holds invalid node %d", c, n)
				continue
			}
			if inList[n] {
				report("node %d listed twice in community %d", n, c)
				continue
			}
			inList[n] = true
			seen[n]++
			total++
			if s.oneToOne && s.cmty[n] != c {
				report("node %d listed in community %d but assigned to %d", n, c, s.cmty[n])
			}
		}
	}

	distinct := make(map[int]struct{})
	for n, c := range s.cmty {
		if c < 0 || c >= s.n {
			report("node %d assigned to invalid community %d", n, c)
			continue
		}
		distinct[c] = struct{}{}
		if seen[n] == 0 {
			report("node %d is in no community", n)
		}
		if s.multiplicity[n] != seen[n] {
			report("node %d has multiplicity %d but appears in %d communities", n, s.multiplicity[n], seen[n])
		}
		if !s.oneToOne && !contains(s.members[c], n) {
			report("node %d missing from its primary community %d", n, c)
		}
	}

	if s.oneToOne {
		if total != s.n {
			report("membership sizes sum to %d, expected %d", total, s.n)
		}
		if q := s.Q(); q != len(distinct) {
			report("q is %d but %d distinct communities are assigned", q, len(distinct))
		}
	}

	if len(violations) > 0 {
		return &InvariantError{Violations: violations}
	}
	return nil
}

func contains(list []int, n int) bool {
	for _, m := range list {
		if m == n {
			return true
		}
	}
	return false
}

// Snapshot is a saved copy of a state's assignment and membership
type Snapshot struct {
	N        int     `json:"n"`
	Cmty     []int   `json:"cmty"`
	Members  [][]int `json:"members"`
	Ncmty    int     `json:"ncmty"`
	OneToOne bool    `json:"one_to_one"`
}

// Snapshot captures the current assignment and membership
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		N:        s.n,
		Cmty:     s.Assignment(),
		Members:  make([][]int, s.ncmty),
		Ncmty:    s.ncmty,
		OneToOne: s.oneToOne,
	}
	for c := 0; c < s.ncmty; c++ {
		snap.Members[c] = append([]int(nil), s.members[c]...)
	}
	return snap
}

// Restore reinstalls a snapshot taken from a state of the same size
func (s *State) Restore(snap Snapshot) {
	if snap.N != s.n || len(snap.Cmty) != s.n || len(snap.Members) > s.n {
		panic(fmt.Sprintf("potts: snapshot of %d nodes restored into state of %d nodes", snap.N, s.n))
	}
	copy(s.cmty, snap.Cmty)
	for c := range s.members {
		s.members[c] = s.members[c][:0]
	}
	for n := range s.multiplicity {
		s.multiplicity[n] = 0
	}
	for c, list := range snap.Members {
		s.members[c] = append(s.members[c], list...)
		for _, n := range list {
			s.multiplicity[n]++
		}
	}
	s.ncmty = snap.Ncmty
	s.oneToOne = snap.OneToOne
}
