package utils

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// WeightedChoice draws items with replacement, with probability
// proportional to their weight. Items can be added and reweighted after
// construction.
type WeightedChoice struct {
	items   []int
	weights []float64
	index   map[int]int
	src     rand.Source
	sampler sampleuv.Weighted
}

// NewWeightedChoice builds a chooser over items with the given weights.
func NewWeightedChoice(items []int, weights []float64, src rand.Source) (*WeightedChoice, error) {
	if len(items) != len(weights) {
		return nil, fmt.Errorf("items and weights length mismatch: %d != %d", len(items), len(weights))
	}
	wc := &WeightedChoice{
		items:   make([]int, 0, len(items)),
		weights: make([]float64, 0, len(weights)),
		index:   make(map[int]int, len(items)),
		src:     src,
	}
	for i, item := range items {
		if err := wc.push(item, weights[i]); err != nil {
			return nil, err
		}
	}
	wc.rebuild()
	return wc, nil
}

func (wc *WeightedChoice) push(item int, weight float64) error {
	if weight < 0 {
		return fmt.Errorf("negative weight %g for item %d", weight, item)
	}
	if _, exists := wc.index[item]; exists {
		return fmt.Errorf("duplicate item %d", item)
	}
	wc.index[item] = len(wc.items)
	wc.items = append(wc.items, item)
	wc.weights = append(wc.weights, weight)
	return nil
}

func (wc *WeightedChoice) rebuild() {
	wc.sampler = sampleuv.NewWeighted(wc.weights, wc.src)
}

// Len returns the number of items held.
func (wc *WeightedChoice) Len() int { return len(wc.items) }

// Add inserts a new item.
func (wc *WeightedChoice) Add(item int, weight float64) error {
	if err := wc.push(item, weight); err != nil {
		return err
	}
	wc.rebuild()
	return nil
}

// Set changes the weight of an existing item.
func (wc *WeightedChoice) Set(item int, weight float64) error {
	if weight < 0 {
		return fmt.Errorf("negative weight %g for item %d", weight, item)
	}
	i, ok := wc.index[item]
	if !ok {
		return fmt.Errorf("unknown item %d", item)
	}
	wc.weights[i] = weight
	wc.sampler.Reweight(i, weight)
	return nil
}

// Choice returns an item; ok is false when every weight is zero.
func (wc *WeightedChoice) Choice() (item int, ok bool) {
	if len(wc.items) == 0 {
		return 0, false
	}
	i, ok := wc.sampler.Take()
	if !ok {
		return 0, false
	}
	// Take removes the item; put it back so draws are with replacement.
	wc.sampler.Reweight(i, wc.weights[i])
	return wc.items[i], true
}
