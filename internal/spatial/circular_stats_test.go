package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearing(t *testing.T) {
	assert.InDelta(t, 0.0, Bearing(0, 0, 0, 5), 1e-9)
	assert.InDelta(t, 90.0, Bearing(0, 0, 5, 0), 1e-9)
	assert.InDelta(t, 180.0, Bearing(0, 0, 0, -5), 1e-9)
	assert.InDelta(t, 270.0, Bearing(0, 0, -5, 0), 1e-9)
	assert.Equal(t, 0.0, Bearing(1, 1, 1, 1))
}

func TestCircularMeanDegrees_WrapsAroundNorth(t *testing.T) {
	mean := CircularMeanDegrees([]float64{350, 10}, nil)
	assert.True(t, mean < 1e-9 || mean > 360-1e-9, "mean %v", mean)

	weighted := CircularMeanDegrees([]float64{0, 90}, []float64{1, 0})
	assert.InDelta(t, 0.0, weighted, 1e-9)
}

func TestMeanResultantLength(t *testing.T) {
	assert.InDelta(t, 1.0, MeanResultantLength([]float64{45, 45, 45}, nil), 1e-12)
	assert.InDelta(t, 0.0, MeanResultantLength([]float64{0, 180}, nil), 1e-12)
	assert.Equal(t, 0.0, MeanResultantLength(nil, nil))
	assert.Equal(t, 0.0, MeanResultantLength([]float64{10}, []float64{0}))
}
