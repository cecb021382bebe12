package taper

import (
	"fmt"
	"math"
	"strings"
)

// Reduction is the load-reduction shape applied inside the taper window.
type Reduction int

const (
	Linear Reduction = iota
	Step
	Exponential
)

// String returns the lowercase name of the reduction.
func (r Reduction) String() string {
	switch r {
	case Linear:
		return "linear"
	case Step:
		return "step"
	case Exponential:
		return "exponential"
	default:
		return fmt.Sprintf("reduction(%d)", int(r))
	}
}

// ParseReduction maps a name to its Reduction.
func ParseReduction(s string) (Reduction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return Linear, nil
	case "step":
		return Step, nil
	case "exponential":
		return Exponential, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownReduction, s)
}

// Shape returns the day load for a given baseline at progress in (0, 1]
// through the taper window.
func (r Reduction) Shape(baseline, progress float64) float64 {
	switch r {
	case Step:
		if progress < 0.5 {
			return baseline * 0.6
		}
		return baseline * 0.3
	case Exponential:
		return baseline * math.Exp(-2*progress)
	default:
		return baseline * (1 - 0.6*progress)
	}
}
