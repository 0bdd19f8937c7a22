package utils

import (
	"fmt"
	"math"
)

// LogInterval maps resolution values onto integer indices with a fixed
// number of indices per decade: Value(i) = 10^(i/Number).
type LogInterval struct {
	Number int `json:"number"`
}

// NewLogInterval creates a log interval with number indices per decade
func NewLogInterval(number int) (LogInterval, error) {
	if number <= 0 {
		return LogInterval{}, fmt.Errorf("log interval density must be positive, got %d", number)
	}
	return LogInterval{Number: number}, nil
}

// Index returns the (real valued) index of value. Index and Value are
// inverses of each other.
func (li LogInterval) Index(value float64) float64 {
	return float64(li.Number) * math.Log10(value)
}

// Value returns the resolution value at index.
func (li LogInterval) Value(index int) float64 {
	return math.Pow(10, float64(index)/float64(li.Number))
}

// Range returns the inclusive integer index range covering [low, high].
func (li LogInterval) Range(low, high float64) (int, int, error) {
	if low <= 0 || high <= 0 {
		return 0, 0, fmt.Errorf("resolution bounds must be positive: low=%g high=%g", low, high)
	}
	if low > high {
		return 0, 0, fmt.Errorf("low resolution %g exceeds high resolution %g", low, high)
	}
	return int(math.Floor(li.Index(low))), int(math.Ceil(li.Index(high))), nil
}
