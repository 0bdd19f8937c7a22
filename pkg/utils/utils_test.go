package utils

import (
	"bufio"
	"encoding/json"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogInterval(t *testing.T) {
	_, err := NewLogInterval(0)
	assert.Error(t, err)

	li, err := NewLogInterval(10)
	require.NoError(t, err)

	assert.Equal(t, 1.0, li.Value(0))
	assert.Equal(t, 10.0, li.Value(10))
	assert.InDelta(t, 0.01, li.Value(-20), 1e-15)
	assert.InDelta(t, 15.0, li.Index(li.Value(15)), 1e-9)
	assert.InDelta(t, -7.0, li.Index(li.Value(-7)), 1e-9)

	low, high, err := li.Range(0.015, 80)
	require.NoError(t, err)
	assert.Equal(t, -19, low)
	assert.Equal(t, 20, high)
	assert.LessOrEqual(t, li.Value(low), 0.015)
	assert.GreaterOrEqual(t, li.Value(high), 80.0)

	_, _, err = li.Range(0, 1)
	assert.Error(t, err)
	_, _, err = li.Range(2, 1)
	assert.Error(t, err)
}

func TestWeightedChoiceDistribution(t *testing.T) {
	wc, err := NewWeightedChoice([]int{1, 2, 3}, []float64{1, 0, 3}, rand.NewPCG(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, wc.Len())

	counts := map[int]int{}
	for i := 0; i < 4000; i++ {
		item, ok := wc.Choice()
		require.True(t, ok)
		counts[item]++
	}
	assert.Zero(t, counts[2], "zero weight items are never drawn")
	assert.InDelta(t, 3000, counts[3], 300)
	assert.InDelta(t, 1000, counts[1], 300)
}

func TestWeightedChoiceUpdates(t *testing.T) {
	wc, err := NewWeightedChoice([]int{7}, []float64{0}, rand.NewPCG(3, 4))
	require.NoError(t, err)

	_, ok := wc.Choice()
	assert.False(t, ok, "all weights zero")

	require.NoError(t, wc.Add(9, 2))
	for i := 0; i < 50; i++ {
		item, ok := wc.Choice()
		require.True(t, ok)
		assert.Equal(t, 9, item)
	}

	require.NoError(t, wc.Set(9, 0))
	require.NoError(t, wc.Set(7, 1))
	for i := 0; i < 50; i++ {
		item, ok := wc.Choice()
		require.True(t, ok)
		assert.Equal(t, 7, item)
	}

	assert.Error(t, wc.Add(7, 1), "duplicate")
	assert.Error(t, wc.Add(8, -1), "negative")
	assert.Error(t, wc.Set(8, 1), "unknown")
	assert.Error(t, wc.Set(7, -1), "negative")

	_, err = NewWeightedChoice([]int{1, 2}, []float64{1}, nil)
	assert.Error(t, err)

	empty, err := NewWeightedChoice(nil, nil, rand.NewPCG(1, 1))
	require.NoError(t, err)
	_, ok = empty.Choice()
	assert.False(t, ok)
}

func TestMoveTracker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.jsonl")
	mt, err := NewMoveTracker(path)
	require.NoError(t, err)

	mt.Log(MoveKindNode, 1, 4, 0, 2, -1.5, 0.5)
	mt.Log(MoveKindMerge, 1, -1, 3, 2, -0.25, 0.5)
	assert.Equal(t, 2, mt.Count())
	require.NoError(t, mt.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []MoveEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev MoveEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, events, 2)

	assert.Equal(t, 1, events[0].MoveNumber)
	assert.Equal(t, MoveKindNode, events[0].Kind)
	assert.Equal(t, 4, events[0].Node)
	assert.Equal(t, 2, events[0].ToCmty)
	assert.Equal(t, -1.5, events[0].Delta)

	assert.Equal(t, 2, events[1].MoveNumber)
	assert.Equal(t, MoveKindMerge, events[1].Kind)
	assert.Equal(t, -1, events[1].Node)
	assert.Equal(t, 3, events[1].FromCmty)
}

func TestMoveTrackerNil(t *testing.T) {
	var mt *MoveTracker
	assert.NotPanics(t, func() { mt.Log(MoveKindNode, 0, 0, 0, 0, 0, 0) })
	assert.Zero(t, mt.Count())
	assert.NoError(t, mt.Close())

	_, err := NewMoveTracker(filepath.Join(t.TempDir(), "missing", "moves.jsonl"))
	assert.Error(t, err)
}
