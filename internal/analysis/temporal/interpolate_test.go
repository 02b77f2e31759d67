package temporal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition(t *testing.T) {
	tests := []struct {
		pos   float64
		lower int
		upper int
		blend float64
	}{
		{0, 0, 1, 0},
		{3.25, 3, 4, 0.25},
		{23.5, 23, 0, 0.5},
		{24, 0, 1, 0},
		{-0.5, 23, 0, 0.5},
		{49, 1, 2, 0},
		{math.NaN(), 0, 1, 0},
	}
	for _, tt := range tests {
		lower, upper, blend := Position(tt.pos)
		assert.Equal(t, tt.lower, lower, "pos %v", tt.pos)
		assert.Equal(t, tt.upper, upper, "pos %v", tt.pos)
		assert.InDelta(t, tt.blend, blend, 1e-12, "pos %v", tt.pos)
	}
}

func TestInterpolator_IntegerHourReproducesFrame(t *testing.T) {
	frames := BuildFrames(sampleFlows())
	in := NewInterpolator(frames)
	for h := 0; h < 24; h++ {
		assert.Equal(t, frames[h].Flows, in.At(float64(h)), "hour %d", h)
	}
}

func TestInterpolator_BlendsAndFades(t *testing.T) {
	in := NewInterpolator(BuildFrames(sampleFlows()))

	flows := in.At(3.5)
	// hour 3: n1->d0 40, n0->d0 10; hour 4: n1->d1 9
	require.Len(t, flows, 3)
	assert.Equal(t, "n1", flows[0].O)
	assert.InDelta(t, 20.0, flows[0].Total, 1e-9)
	assert.Equal(t, 1.0, flows[0].W)
	assert.InDelta(t, 5.0, flows[1].Total, 1e-9)
	assert.Equal(t, "d1", flows[2].D)
	assert.InDelta(t, 4.5, flows[2].Total, 1e-9)
	assert.Equal(t, 0.0, flows[2].W)
	for _, f := range flows {
		assertFlowInvariants(t, f)
	}
}

func TestInterpolator_DropsGhosts(t *testing.T) {
	in := NewInterpolator(BuildFrames(sampleFlows()))
	flows := in.At(2.9999999999)
	for _, f := range flows {
		assert.GreaterOrEqual(t, f.Total, GhostEpsilon)
	}
	assert.Empty(t, in.At(8.5), "hours 8 and 9 are both empty")
}

func TestInterpolator_CutsFromBlendedBins(t *testing.T) {
	in := NewInterpolator(BuildFrames(sampleFlows()))
	// n0->d0 exists at 3 (bin 0) and 15 (bin 2); neither is adjacent to 14.5,
	// so only the fade-in at 15 contributes.
	flows := in.At(14.5)
	require.Len(t, flows, 2)
	for _, f := range flows {
		assert.Equal(t, [3]float64{0, 0, 0.99}, f.Cuts)
		assert.Equal(t, 1.0, f.W)
	}
}
