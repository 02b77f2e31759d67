package stats

import "math"

// Hash01 maps a seed index to a reproducible pseudo-random value in [0, 1).
// It is the sine-fractional hash used by shader noise, so identical inputs
// always produce identical particle layouts.
func Hash01(seed int) float64 {
	v := math.Sin(float64(seed)*12.9898) * 43758.5453
	f := v - math.Floor(v)
	if f >= 1 || f < 0 {
		return 0
	}
	return f
}

// Seeder hands out hash values for a monotonically increasing seed index
type Seeder struct {
	Next int
}

// Float returns the hash of the current seed index and advances it
func (s *Seeder) Float() float64 {
	v := Hash01(s.Next)
	s.Next++
	return v
}
