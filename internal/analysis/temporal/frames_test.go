package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weipengdeng/flowmap/internal/models"
)

func sampleFlows() []models.Flow {
	a := NewAggregator()
	a.Add("n0", "d0", 3, 10)
	a.Add("n0", "d0", 15, 5)
	a.Add("n1", "d0", 3, 40)
	a.Add("n1", "d1", 4, 9)
	a.Add("n2", "d1", 15, 5)
	return a.Flows()
}

func TestBuildFrames_OnePerHour(t *testing.T) {
	frames := BuildFrames(sampleFlows())
	require.Len(t, frames, models.HoursPerDay)
	for h, fr := range frames {
		assert.Equal(t, h, fr.Hour)
		assert.NotNil(t, fr.Flows, "empty hours still carry an empty list")
	}
	assert.Empty(t, frames[0].Flows)
}

func TestBuildFrames_PerHourReweighting(t *testing.T) {
	frames := BuildFrames(sampleFlows())

	h3 := frames[3].Flows
	require.Len(t, h3, 2)
	assert.Equal(t, "n1", h3[0].O)
	assert.Equal(t, 40.0, h3[0].Total)
	assert.Equal(t, 1.0, h3[0].W)
	assert.Equal(t, 0.0, h3[1].W)
	assert.Equal(t, [4]float64{10, 0, 0, 0}, h3[1].Bins)

	// n0->d0 and n2->d1 carry identical totals at 15:00
	h15 := frames[15].Flows
	require.Len(t, h15, 2)
	for _, f := range h15 {
		assert.Equal(t, 5.0, f.Total)
		assert.Equal(t, 1.0, f.W)
		assert.Equal(t, [4]float64{0, 0, 5, 0}, f.Bins)
		assertFlowInvariants(t, f)
	}
}

func TestBuildFrames_InactiveDestinationAbsent(t *testing.T) {
	frames := BuildFrames(sampleFlows())
	for _, f := range frames[4].Flows {
		assert.NotEqual(t, "d0", f.D, "d0 receives nothing at 04:00")
	}
	require.Len(t, frames[4].Flows, 1)
	assert.Equal(t, "d1", frames[4].Flows[0].D)
}
