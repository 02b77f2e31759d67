package retention

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weipengdeng/flowmap/internal/models"
)

type point struct{ x, y float64 }

type mapLocator struct {
	origins map[string]point
	dests   map[string]point
}

func (m mapLocator) OriginXY(id string) (float64, float64, bool) {
	p, ok := m.origins[id]
	return p.x, p.y, ok
}

func (m mapLocator) DestinationXY(id string) (float64, float64, bool) {
	p, ok := m.dests[id]
	return p.x, p.y, ok
}

func fixture() ([]models.Flow, mapLocator) {
	loc := mapLocator{
		origins: map[string]point{"n0": {0, 0}, "n1": {13, -2}, "n2": {40, 40}},
		dests:   map[string]point{"d0": {31, 1}, "d1": {-20, 17}, "d2": {1, 2}},
	}
	flows := []models.Flow{
		{O: "n0", D: "d0", Total: 100},
		{O: "n1", D: "d0", Total: 40},
		{O: "n2", D: "d1", Total: 25},
		{O: "n0", D: "d2", Total: 7}, // origin and destination share a cell
		{O: "n9", D: "d0", Total: 5}, // unknown origin is ignored
	}
	return flows, loc
}

func TestSnap(t *testing.T) {
	assert.Equal(t, 6.0, Snap(4, 6))
	assert.Equal(t, 0.0, Snap(2.9, 6))
	assert.Equal(t, -6.0, Snap(-3.1, 6))
	assert.False(t, math.Signbit(Snap(-0.2, 6)), "negative zero is folded")
	assert.Equal(t, 4.2, Snap(4.2, 0), "non-positive spacing leaves values as is")
}

func TestRawNet_Conserves(t *testing.T) {
	flows, loc := fixture()
	for _, spacing := range []float64{0.5, 3, 6, 25, 1000} {
		net := RawNet(flows, loc, spacing)
		sum := 0.0
		for _, v := range net {
			sum += v
		}
		assert.InDelta(t, 0, sum, 1e-9, "spacing %v", spacing)
	}

	net := RawNet(flows, loc, 6)
	assert.Equal(t, 140.0, net[models.CellKey{X: 30, Y: 0}])
	assert.Equal(t, -107.0+7.0, net[models.CellKey{X: 0, Y: 0}])
}

func TestAggregate_ConvergesToTarget(t *testing.T) {
	flows, loc := fixture()
	raw := RawNet(flows, loc, 6)
	state := NewState(6)

	for i := 0; i < 80; i++ {
		Aggregate(state, flows, loc, 6)
	}
	for key, target := range raw {
		if target == 0 {
			continue
		}
		assert.InDelta(t, target, state.Smoothed(key), 1e-3*math.Abs(target), "cell %v", key)
	}
	assert.InDelta(t, 140.0, state.SmoothedMax(), 1e-3*140)
}

func TestAggregate_FirstCallMovesByAlpha(t *testing.T) {
	flows, loc := fixture()
	state := NewState(6)

	snap := Aggregate(state, flows, loc, 6)
	require.NotEmpty(t, snap.Cells)
	top := snap.Cells[0]
	assert.Equal(t, 30.0, top.X)
	assert.InDelta(t, 140*Alpha, top.Net, 1e-9)
	assert.Equal(t, 1.0, top.Magnitude)
	for _, c := range snap.Cells {
		assert.Greater(t, c.Net, 0.0, "only net inflow cells are visualized")
		assert.GreaterOrEqual(t, c.Magnitude, 0.0)
		assert.LessOrEqual(t, c.Magnitude, 1.0)
	}
}

func TestAggregate_EmptyInputDecaysAndEvicts(t *testing.T) {
	flows, loc := fixture()
	state := NewState(6)
	for i := 0; i < 10; i++ {
		Aggregate(state, flows, loc, 6)
	}
	require.Positive(t, state.Len())

	for i := 0; i < 200 && state.Len() > 0; i++ {
		snap := Aggregate(state, nil, loc, 6)
		for _, c := range snap.Cells {
			assert.Greater(t, c.Net, 0.0)
		}
	}
	assert.Equal(t, 0, state.Len())

	snap := Aggregate(state, nil, loc, 6)
	assert.Empty(t, snap.Cells)
	assert.Empty(t, snap.Particles)
}

func TestAggregate_SpacingChangeResetsState(t *testing.T) {
	flows, loc := fixture()
	state := NewState(6)
	for i := 0; i < 5; i++ {
		Aggregate(state, flows, loc, 6)
	}

	snap := Aggregate(state, flows, loc, 10)
	assert.Equal(t, 10.0, state.Spacing())
	require.NotEmpty(t, snap.Cells)
	assert.InDelta(t, 140*Alpha, snap.Cells[0].Net, 1e-9, "history from the old grid is discarded")
}

func TestAggregate_Deterministic(t *testing.T) {
	flows, loc := fixture()
	a, b := NewState(6), NewState(6)
	for i := 0; i < 4; i++ {
		sa := Aggregate(a, flows, loc, 6)
		sb := Aggregate(b, flows, loc, 6)
		assert.Equal(t, sa, sb)
	}
}

func TestAggregate_ParticleCeilingAndTaper(t *testing.T) {
	loc := mapLocator{origins: map[string]point{"n0": {0, 0}}, dests: map[string]point{}}
	var flows []models.Flow
	for i := 0; i < 300; i++ {
		id := fmt.Sprintf("d%d", i)
		loc.dests[id] = point{float64(i%20) * 10, float64(i/20)*10 + 50}
		flows = append(flows, models.Flow{O: "n0", D: id, Total: 1000})
	}

	state := NewState(5)
	snap := Aggregate(state, flows, loc, 5)
	assert.Len(t, snap.Particles, MaxParticles)

	perLayer := map[int]int{}
	for _, p := range snap.Particles {
		assert.GreaterOrEqual(t, p.Activity, MinActivity)
		assert.LessOrEqual(t, p.Activity, 1.0)
		assert.GreaterOrEqual(t, p.Phase, 0.0)
		assert.Less(t, p.Phase, 1.0)
		perLayer[p.Layer]++
	}
	assert.Greater(t, perLayer[0], perLayer[MaxLayers-2], "upper layers carry fewer particles")

	// Layers reports what was emitted, including cells cut off by the ceiling
	radius := 5*jitterFraction + 1e-9
	starved := 0
	for _, c := range snap.Cells {
		top := 0
		for _, p := range snap.Particles {
			if math.Hypot(p.X-c.X, p.Y-c.Y) <= radius && p.Layer+1 > top {
				top = p.Layer + 1
			}
		}
		assert.Equal(t, top, c.Layers, "cell (%v, %v)", c.X, c.Y)
		if c.Magnitude > 0 && c.Layers == 0 {
			starved++
		}
	}
	assert.Greater(t, starved, 0, "ceiling leaves some positive cells unseeded")
}
