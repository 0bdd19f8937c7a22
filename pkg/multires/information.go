package multires

import (
	"fmt"
	"math"
)

// Information-theoretic comparison of two partitions of the same nodes.
// All logarithms are base 2.

// Entropy returns the Shannon entropy of a partition given as a node to
// community assignment.
func Entropy(assignment []int) float64 {
	counts := make(map[int]int)
	for _, c := range assignment {
		counts[c]++
	}

	n := float64(len(assignment))
	entropy := 0.0
	for _, count := range counts {
		p := float64(count) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// contingency counts how many nodes fall in each (community in a,
// community in b) pair.
func contingency(a, b []int) (table map[[2]int]int, countsA, countsB map[int]int) {
	table = make(map[[2]int]int)
	countsA = make(map[int]int)
	countsB = make(map[int]int)
	for i := range a {
		table[[2]int{a[i], b[i]}]++
		countsA[a[i]]++
		countsB[b[i]]++
	}
	return table, countsA, countsB
}

// MutualInformation returns I(a; b) between two assignments
func MutualInformation(a, b []int) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("partitions must cover the same nodes: %d != %d", len(a), len(b))
	}
	n := len(a)
	if n == 0 {
		return 0, nil
	}

	table, countsA, countsB := contingency(a, b)
	mi := 0.0
	for key, nij := range table {
		ni := countsA[key[0]]
		nj := countsB[key[1]]
		mi += float64(nij) / float64(n) * math.Log2(float64(nij)*float64(n)/(float64(ni)*float64(nj)))
	}
	// Rounding can leave identical partitions a hair below zero.
	return math.Max(mi, 0), nil
}

// VariationOfInformation returns H(a) + H(b) - 2 I(a; b)
func VariationOfInformation(ha, hb, mi float64) float64 {
	return ha + hb - 2*mi
}

// NormalizedMutualInformation returns 2 I(a; b) / (H(a) + H(b)). It is
// undefined when both partitions are a single community; ok is false then.
func NormalizedMutualInformation(ha, hb, mi float64) (nmi float64, ok bool) {
	if ha+hb == 0 {
		return 0, false
	}
	return 2 * mi / (ha + hb), true
}
