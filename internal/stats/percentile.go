package stats

import (
	"math"
	"sort"
)

// Quantile returns the q-th quantile (0~1) of values.
// Uses linear interpolation between closest ranks.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sortedQuantile(sorted, q)
}

func sortedQuantile(sorted []float64, q float64) float64 {
	q = Clamp01(q)
	index := q * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// PercentileRank calculates the percentile rank of a value
// Returns the percentage of values less than or equal to the given value
func PercentileRank(values []float64, value float64) float64 {
	if len(values) == 0 {
		return 0
	}

	count := 0
	for _, v := range values {
		if v <= value {
			count++
		}
	}

	return float64(count) / float64(len(values)) * 100.0
}

// FiveNumber is a five-number summary
type FiveNumber struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// FiveNumberSummary returns the five-number summary (min, Q1, median, Q3, max)
func FiveNumberSummary(values []float64) FiveNumber {
	if len(values) == 0 {
		return FiveNumber{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return FiveNumber{
		Min:    sorted[0],
		Q1:     sortedQuantile(sorted, 0.25),
		Median: sortedQuantile(sorted, 0.5),
		Q3:     sortedQuantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}
}
