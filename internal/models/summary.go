package models

import "github.com/weipengdeng/flowmap/internal/stats"

// DestinationRank is one entry of the busiest destination list
type DestinationRank struct {
	ID      string  `json:"id"`
	Inbound float64 `json:"inbound"`
	Share   float64 `json:"share"` // Fraction of all trips
}

// Summary describes the distribution of a dataset's flows
type Summary struct {
	TotalTrips      float64              `json:"totalTrips"`
	FlowTotals      stats.FiveNumber     `json:"flowTotals"`
	HourlyTotals    [HoursPerDay]float64 `json:"hourlyTotals"`
	PeakHour        int                  `json:"peakHour"`
	HourlySpread    float64              `json:"hourlySpread"`    // Normalized entropy of hourly totals, 0~1
	MeanBearing     float64              `json:"meanBearing"`     // Trip-weighted plane bearing, degrees
	BearingStrength float64              `json:"bearingStrength"` // Mean resultant length, 0~1
	TopDestinations []DestinationRank    `json:"topDestinations"`
}
