package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sum returns the sum of all values
func Sum(values []float64) float64 {
	return floats.Sum(values)
}

// Min returns the minimum value, 0 for an empty slice
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Min(values)
}

// Max returns the maximum value, 0 for an empty slice
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Max(values)
}

// Clamp01 clamps v into [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v > 0 {
		return v
	}
	return 0
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// SqrtRange normalizes magnitudes on a square-root scale against a comparison set.
// The square root compresses the long tail of large values while still separating
// small ones.
type SqrtRange struct {
	lo float64
	hi float64
}

// NewSqrtRange builds the comparison range from the set's min and max
func NewSqrtRange(values []float64) SqrtRange {
	return SqrtRange{
		lo: math.Sqrt(math.Max(Min(values), 0)),
		hi: math.Sqrt(math.Max(Max(values), 0)),
	}
}

// Weight returns the normalized weight of v in [0, 1].
// A degenerate range (all values equal) yields 1 for every member.
func (r SqrtRange) Weight(v float64) float64 {
	if r.hi <= r.lo {
		return 1
	}
	return Clamp01((math.Sqrt(math.Max(v, 0)) - r.lo) / (r.hi - r.lo))
}

// SqrtNormalize returns the square-root normalized weight of every value
func SqrtNormalize(values []float64) []float64 {
	r := NewSqrtRange(values)
	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = r.Weight(v)
	}
	return result
}

// NearlyEqual reports whether a and b agree within a relative tolerance.
// Tolerance is taken against max(|a|, |b|, 1).
func NearlyEqual(a, b, tol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tol*scale
}
