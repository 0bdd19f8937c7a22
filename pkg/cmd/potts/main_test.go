package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/potts-clustering/pkg/potts"
)

const twoTriangles = `# two triangles joined by one edge
a b
b c
a c
x y
y z
x z
c x 0.1
`

func TestLoadGraphAndLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.txt")
	require.NoError(t, os.WriteFile(path, []byte(twoTriangles), 0o644))

	el, m, index, err := loadGraph(path, potts.GraphOptions{DefaultWeight: 1, EdgeScale: -1}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, 6, m.N())
	assert.Equal(t, -1.0, m.At(0, 1))
	assert.InDelta(t, -0.1, m.At(2, 3), 1e-12)
	assert.Equal(t, 1.0, m.At(0, 5))

	mz, err := potts.NewMinimizer(potts.DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	s := potts.NewState(m, 7)
	_, err = mz.MinimizeTrials(s, 1, 3)
	require.NoError(t, err)

	labels := communityLabels(s, el, index)
	require.Len(t, labels, 2)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, findWith(labels, "a"))
	assert.ElementsMatch(t, []string{"x", "y", "z"}, findWith(labels, "x"))

	_, _, _, err = loadGraph("", potts.GraphOptions{}, zerolog.Nop())
	assert.Error(t, err)
}

func findWith(sets [][]string, label string) []string {
	for _, set := range sets {
		for _, l := range set {
			if l == label {
				return set
			}
		}
	}
	return nil
}
