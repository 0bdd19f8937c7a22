package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Move event kinds
const (
	MoveKindNode   = "move"
	MoveKindMerge  = "merge"
	MoveKindAdd    = "overlap_add"
	MoveKindRemove = "overlap_remove"
	MoveKindCapped = "max_rounds"
)

// MoveEvent is one line of the move log
type MoveEvent struct {
	MoveNumber int     `json:"move"`
	Kind       string  `json:"kind"`
	Round      int     `json:"round"`
	Node       int     `json:"node"`
	FromCmty   int     `json:"from_cmty"`
	ToCmty     int     `json:"to_cmty"`
	Delta      float64 `json:"delta"`
	Gamma      float64 `json:"gamma"`
	Timestamp  int64   `json:"timestamp"`
}

// MoveTracker appends minimizer events to a JSON-lines file. A nil tracker
// is valid and discards everything.
type MoveTracker struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	count   int
}

// NewMoveTracker creates the tracking file
func NewMoveTracker(filename string) (*MoveTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create move tracking file: %w", err)
	}

	return &MoveTracker{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// Log records one event. Node is -1 for community-level events.
func (mt *MoveTracker) Log(kind string, round, node, from, to int, delta, gamma float64) {
	if mt == nil {
		return
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.count++
	event := MoveEvent{
		MoveNumber: mt.count,
		Kind:       kind,
		Round:      round,
		Node:       node,
		FromCmty:   from,
		ToCmty:     to,
		Delta:      delta,
		Gamma:      gamma,
		Timestamp:  time.Now().Unix(),
	}

	// Tracking is best effort; a failed write must not abort minimization.
	_ = mt.encoder.Encode(event)
}

// Count returns the number of events logged so far
func (mt *MoveTracker) Count() int {
	if mt == nil {
		return 0
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.count
}

// Close flushes and closes the tracking file
func (mt *MoveTracker) Close() error {
	if mt == nil || mt.file == nil {
		return nil
	}
	return mt.file.Close()
}
