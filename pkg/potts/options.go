package potts

import (
	"errors"
	"fmt"
	"strings"
)

// NeighborMode selects which communities a node considers during a sweep
type NeighborMode string

const (
	// NeighborAttractive considers communities of nodes with J < 0
	NeighborAttractive NeighborMode = "attractive"
	// NeighborNonzero considers communities of nodes with J != 0
	NeighborNonzero NeighborMode = "nonzero"
	// NeighborAll considers every nonempty community
	NeighborAll NeighborMode = "all"
)

// CombineMode selects the community merge strategy used when a sweep
// makes no moves.
type CombineMode string

const (
	CombinePairwise  CombineMode = "pairwise"
	CombineSupernode CombineMode = "supernode"
	CombineNone      CombineMode = "none"
)

// DefaultMaxRounds is the round cap of a minimization
const DefaultMaxRounds = 250

var (
	ErrUnknownNeighborMode = errors.New("unknown neighbor mode")
	ErrUnknownCombineMode  = errors.New("unknown combine mode")
	ErrInvalidOptions      = errors.New("invalid minimizer options")
)

// ParseNeighborMode validates a neighbor mode name
func ParseNeighborMode(s string) (NeighborMode, error) {
	switch mode := NeighborMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case NeighborAttractive, NeighborNonzero, NeighborAll:
		return mode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNeighborMode, s)
}

// ParseCombineMode validates a combine mode name
func ParseCombineMode(s string) (CombineMode, error) {
	switch mode := CombineMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case CombinePairwise, CombineSupernode, CombineNone:
		return mode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCombineMode, s)
}

// Options configures a Minimizer
type Options struct {
	MaxRounds       int
	NeighborMode    NeighborMode
	CombineMode     CombineMode
	SupernodeDepth  int
	CheckInvariants bool
}

// DefaultOptions returns the standard minimizer settings
func DefaultOptions() Options {
	return Options{
		MaxRounds:      DefaultMaxRounds,
		NeighborMode:   NeighborAttractive,
		CombineMode:    CombinePairwise,
		SupernodeDepth: 1,
	}
}

// Validate checks every option against its closed set of values
func (o Options) Validate() error {
	if o.MaxRounds < 1 {
		return fmt.Errorf("%w: max rounds must be at least 1, got %d", ErrInvalidOptions, o.MaxRounds)
	}
	if _, err := ParseNeighborMode(string(o.NeighborMode)); err != nil {
		return err
	}
	if _, err := ParseCombineMode(string(o.CombineMode)); err != nil {
		return err
	}
	if o.SupernodeDepth < 0 {
		return fmt.Errorf("%w: supernode depth must not be negative, got %d", ErrInvalidOptions, o.SupernodeDepth)
	}
	return nil
}
