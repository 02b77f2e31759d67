package temporal

import (
	"math"

	"github.com/weipengdeng/flowmap/internal/models"
)

// GhostEpsilon drops blended flows whose total is effectively zero
const GhostEpsilon = 1e-6

// Interpolator blends adjacent hourly frames for a continuous time cursor
type Interpolator struct {
	frames [models.HoursPerDay][]models.Flow
}

// NewInterpolator indexes frames by hour. Missing hours are treated as empty.
func NewInterpolator(frames []models.HourlyFrame) *Interpolator {
	in := &Interpolator{}
	for _, fr := range frames {
		if fr.Hour >= 0 && fr.Hour < models.HoursPerDay {
			in.frames[fr.Hour] = fr.Flows
		}
	}
	return in
}

// WrapHour maps any hour position into [0, 24). Non-finite input maps to 0.
func WrapHour(hourPosition float64) float64 {
	if math.IsNaN(hourPosition) || math.IsInf(hourPosition, 0) {
		return 0
	}
	w := math.Mod(hourPosition, models.HoursPerDay)
	if w < 0 {
		w += models.HoursPerDay
	}
	if w >= models.HoursPerDay {
		w = 0
	}
	return w
}

// Position splits an hour position into the two neighbouring hours and the blend between them
func Position(hourPosition float64) (lower, upper int, blend float64) {
	w := WrapHour(hourPosition)
	lower = int(math.Floor(w))
	upper = (lower + 1) % models.HoursPerDay
	return lower, upper, w - float64(lower)
}

// At returns the synthetic flow set for hourPosition. Flows present on only one
// side fade in or out against zero. Cuts are recomputed from the blended bins.
func (in *Interpolator) At(hourPosition float64) []models.Flow {
	lower, upper, blend := Position(hourPosition)
	lo, hi := in.frames[lower], in.frames[upper]

	upperIndex := make(map[models.FlowKey]int, len(hi))
	for i, f := range hi {
		upperIndex[f.Key()] = i
	}

	merged := make([]models.Flow, 0, len(lo)+len(hi))
	seen := make(map[models.FlowKey]bool, len(lo))
	for _, a := range lo {
		key := a.Key()
		seen[key] = true
		var b models.Flow
		if i, ok := upperIndex[key]; ok {
			b = hi[i]
		}
		if f, ok := blendFlow(a, b, key, blend); ok {
			merged = append(merged, f)
		}
	}
	for _, b := range hi {
		key := b.Key()
		if seen[key] {
			continue
		}
		if f, ok := blendFlow(models.Flow{}, b, key, blend); ok {
			merged = append(merged, f)
		}
	}

	SortFlows(merged)
	NormalizeWeights(merged)
	return merged
}

func blendFlow(a, b models.Flow, key models.FlowKey, blend float64) (models.Flow, bool) {
	wa, wb := 1-blend, blend
	out := models.Flow{O: key.O, D: key.D}
	out.Total = a.Total*wa + b.Total*wb
	if out.Total < GhostEpsilon {
		return models.Flow{}, false
	}
	for i := range out.Bins {
		out.Bins[i] = a.Bins[i]*wa + b.Bins[i]*wb
	}
	for h := range out.Hourly {
		out.Hourly[h] = a.Hourly[h]*wa + b.Hourly[h]*wb
	}
	out.Cuts = CutsFromBins(out.Bins, out.Total)
	return out, true
}
