package temporal

import (
	"sort"

	"github.com/weipengdeng/flowmap/internal/models"
	"github.com/weipengdeng/flowmap/internal/stats"
)

const (
	// BinCount is the number of six-hour bins per flow
	BinCount = 4
	// hoursPerBin is the width of one bin
	hoursPerBin = models.HoursPerDay / BinCount
	// MaxCut caps every band cut
	MaxCut = 0.99
)

// DefaultCuts are used when a flow has no volume
var DefaultCuts = [3]float64{0.25, 0.5, 0.75}

// Aggregator accumulates per-flow hourly totals during one ingestion pass
type Aggregator struct {
	index map[models.FlowKey]int
	flows []models.Flow
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{index: make(map[models.FlowKey]int)}
}

// Add accumulates quantity into the (o, d) flow at the given hour
func (a *Aggregator) Add(o, d string, hour int, quantity float64) {
	key := models.FlowKey{O: o, D: d}
	i, ok := a.index[key]
	if !ok {
		i = len(a.flows)
		a.index[key] = i
		a.flows = append(a.flows, models.Flow{O: o, D: d})
	}
	f := &a.flows[i]
	f.Total += quantity
	f.Hourly[hour] += quantity
}

// Len returns the number of distinct flows seen so far
func (a *Aggregator) Len() int {
	return len(a.flows)
}

// Flows derives bins, cuts and weights and returns the flows sorted by total
func (a *Aggregator) Flows() []models.Flow {
	flows := make([]models.Flow, len(a.flows))
	copy(flows, a.flows)
	for i := range flows {
		Derive(&flows[i])
	}
	NormalizeWeights(flows)
	SortFlows(flows)
	return flows
}

// Derive recomputes bins and cuts of f from its hourly histogram
func Derive(f *models.Flow) {
	f.Bins = BinsFromHourly(f.Hourly)
	f.Cuts = CutsFromBins(f.Bins, f.Total)
}

// BinsFromHourly sums the histogram over [0,6) [6,12) [12,18) [18,24)
func BinsFromHourly(hourly [models.HoursPerDay]float64) [BinCount]float64 {
	var bins [BinCount]float64
	for h, v := range hourly {
		bins[h/hoursPerBin] += v
	}
	return bins
}

// BinOf returns the bin index of an hour
func BinOf(hour int) int {
	return hour / hoursPerBin
}

// CutsFromBins returns cumulative band boundaries as fractions of total.
// Cuts are non-decreasing, clamped to [0, 0.99] and rounded to 3 decimals.
func CutsFromBins(bins [BinCount]float64, total float64) [3]float64 {
	if !(total > 0) {
		return DefaultCuts
	}
	var cuts [3]float64
	var acc, prev float64
	for i := 0; i < 3; i++ {
		acc += bins[i]
		c := stats.Round(min(stats.Clamp01(acc/total), MaxCut), 3)
		if c < prev {
			c = prev
		}
		cuts[i] = c
		prev = c
	}
	return cuts
}

// NormalizeWeights sets w of every flow against the set's own min/max total
func NormalizeWeights(flows []models.Flow) {
	totals := make([]float64, len(flows))
	for i, f := range flows {
		totals[i] = f.Total
	}
	r := stats.NewSqrtRange(totals)
	for i := range flows {
		flows[i].W = stats.Round(r.Weight(flows[i].Total), 4)
	}
}

// SortFlows orders flows by total descending, ties broken by origin then destination id
func SortFlows(flows []models.Flow) {
	sort.SliceStable(flows, func(i, j int) bool {
		if flows[i].Total != flows[j].Total {
			return flows[i].Total > flows[j].Total
		}
		if flows[i].O != flows[j].O {
			return flows[i].O < flows[j].O
		}
		return flows[i].D < flows[j].D
	})
}
