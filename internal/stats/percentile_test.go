package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.Equal(t, 1.0, Quantile(values, 0))
	assert.Equal(t, 4.0, Quantile(values, 1))
	assert.InDelta(t, 2.5, Quantile(values, 0.5), 1e-12)
	assert.InDelta(t, 1.75, Quantile(values, 0.25), 1e-12)
	assert.Equal(t, 0.0, Quantile(nil, 0.5))
	assert.Equal(t, []float64{4, 1, 3, 2}, values, "input is not reordered")
}

func TestPercentileRank(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	assert.Equal(t, 50.0, PercentileRank(values, 2))
	assert.Equal(t, 100.0, PercentileRank(values, 9))
	assert.Equal(t, 0.0, PercentileRank(nil, 1))
}

func TestFiveNumberSummary(t *testing.T) {
	s := FiveNumberSummary([]float64{5, 1, 3})
	assert.Equal(t, FiveNumber{Min: 1, Q1: 2, Median: 3, Q3: 4, Max: 5}, s)
	assert.Equal(t, FiveNumber{}, FiveNumberSummary(nil))
}

func TestNormalizedEntropy(t *testing.T) {
	assert.InDelta(t, 1.0, NormalizedEntropy([]float64{1, 1, 1, 1}), 1e-12)
	assert.Equal(t, 0.0, NormalizedEntropy([]float64{0, 7, 0, 0}))
	assert.Equal(t, 0.0, NormalizedEntropy([]float64{0, 0}))
	assert.InDelta(t, 1.0, ShannonEntropy([]float64{3, 3}), 1e-12)
}
