package potts

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a structural hash over N, the assignment and the member
// set of every nonempty community. Equal states hash equal; states that
// differ in any of those hash differently with high probability.
func (s *State) Hash() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 8*(s.n+2))

	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.n))
	for _, c := range s.cmty {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(c))
	}
	d.Write(buf)

	sorted := make([]int, 0, s.n)
	for c := range s.Communities() {
		sorted = append(sorted[:0], s.members[c]...)
		slices.Sort(sorted)

		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint64(buf, uint64(c))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(sorted)))
		for _, n := range sorted {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(n))
		}
		d.Write(buf)
	}
	return d.Sum64()
}
