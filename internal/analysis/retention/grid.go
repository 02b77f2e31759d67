package retention

import (
	"math"
	"sort"

	"github.com/weipengdeng/flowmap/internal/models"
	"github.com/weipengdeng/flowmap/internal/stats"
)

const (
	// Alpha is the exponential smoothing rate applied per aggregation call
	Alpha = 0.17
	// EvictThreshold is the smoothed magnitude under which an idle cell is dropped
	EvictThreshold = 1e-3
	// MaxLayers bounds the stacked layers of one cell
	MaxLayers = 28
	// LayerSpacing is the vertical distance between layers
	LayerSpacing = 0.9
	// MaxParticles bounds the particles emitted by one call
	MaxParticles = 6000
	// MinActivity is the activity under which a layer is not emitted
	MinActivity = 0.02

	minSmoothedMax = 1e-9
)

// Locator resolves flow endpoint ids to projected positions
type Locator interface {
	OriginXY(id string) (x, y float64, ok bool)
	DestinationXY(id string) (x, y float64, ok bool)
}

// Snap rounds v to the nearest multiple of spacing
func Snap(v, spacing float64) float64 {
	if spacing <= 0 {
		return v
	}
	s := math.Round(v/spacing) * spacing
	if s == 0 {
		return 0 // fold -0
	}
	return s
}

// CellOf returns the grid cell containing x, y
func CellOf(x, y, spacing float64) models.CellKey {
	return models.CellKey{X: Snap(x, spacing), Y: Snap(y, spacing)}
}

// RawNet accumulates signed net retention per cell: each flow's total is
// subtracted at its origin cell and added at its destination cell, so the
// values of all cells sum to zero.
func RawNet(flows []models.Flow, loc Locator, spacing float64) map[models.CellKey]float64 {
	net := make(map[models.CellKey]float64)
	for _, f := range flows {
		ox, oy, ok := loc.OriginXY(f.O)
		if !ok {
			continue
		}
		dx, dy, ok := loc.DestinationXY(f.D)
		if !ok {
			continue
		}
		net[CellOf(ox, oy, spacing)] -= f.Total
		net[CellOf(dx, dy, spacing)] += f.Total
	}
	return net
}

// State is the smoothing memory threaded across aggregation calls.
// It is not safe for concurrent use; one owner calls Aggregate sequentially.
type State struct {
	spacing     float64
	smoothed    map[models.CellKey]float64
	smoothedMax float64
}

// NewState creates empty smoothing state for a grid spacing
func NewState(spacing float64) *State {
	return &State{spacing: spacing, smoothed: make(map[models.CellKey]float64)}
}

// Reset clears all smoothing memory and adopts a new grid spacing
func (s *State) Reset(spacing float64) {
	s.spacing = spacing
	s.smoothed = make(map[models.CellKey]float64)
	s.smoothedMax = 0
}

// Spacing returns the grid spacing the state was built for
func (s *State) Spacing() float64 { return s.spacing }

// Len returns the number of cells currently held
func (s *State) Len() int { return len(s.smoothed) }

// Smoothed returns the smoothed net value of a cell
func (s *State) Smoothed(key models.CellKey) float64 { return s.smoothed[key] }

// SmoothedMax returns the smoothed running maximum of positive cells
func (s *State) SmoothedMax() float64 { return s.smoothedMax }

// blend moves every known cell towards its raw target and evicts decayed idle cells
func (s *State) blend(raw map[models.CellKey]float64) {
	for key := range raw {
		if _, ok := s.smoothed[key]; !ok {
			s.smoothed[key] = 0
		}
	}
	for key, prev := range s.smoothed {
		target := raw[key]
		next := prev + (target-prev)*Alpha
		if target == 0 && math.Abs(next) < EvictThreshold {
			delete(s.smoothed, key)
			continue
		}
		s.smoothed[key] = next
	}
}

// Aggregate runs one grid aggregation over the active flow set and updates state.
// A spacing different from the state's resets the state first. It never fails:
// an empty flow set yields no cells while the state keeps decaying.
func Aggregate(state *State, flows []models.Flow, loc Locator, spacing float64) models.RetentionSnapshot {
	if spacing != state.spacing {
		state.Reset(spacing)
	}

	state.blend(RawNet(flows, loc, spacing))

	cells := make([]models.RetentionCell, 0)
	frameMax := 0.0
	for key, net := range state.smoothed {
		if net <= 0 {
			continue
		}
		cells = append(cells, models.RetentionCell{X: key.X, Y: key.Y, Net: net})
		frameMax = math.Max(frameMax, net)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Net != cells[j].Net {
			return cells[i].Net > cells[j].Net
		}
		if cells[i].X != cells[j].X {
			return cells[i].X < cells[j].X
		}
		return cells[i].Y < cells[j].Y
	})

	if state.smoothedMax <= minSmoothedMax {
		state.smoothedMax = frameMax
	} else {
		state.smoothedMax += (frameMax - state.smoothedMax) * Alpha
	}
	ref := math.Max(state.smoothedMax, minSmoothedMax)

	for i := range cells {
		cells[i].Magnitude = stats.Clamp01(math.Sqrt(cells[i].Net / ref))
	}

	particles := seedParticles(cells, spacing)
	return models.RetentionSnapshot{
		Cells:       cells,
		Particles:   particles,
		SmoothedMax: state.smoothedMax,
	}
}
