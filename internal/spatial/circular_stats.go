package spatial

import (
	"math"
)

// Bearing returns the plane bearing from (ox, oy) to (dx, dy) in degrees,
// clockwise from +y, in [0, 360). Coincident points yield 0.
func Bearing(ox, oy, dx, dy float64) float64 {
	if ox == dx && oy == dy {
		return 0
	}
	deg := math.Atan2(dx-ox, dy-oy) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

func resultant(angles []float64, weights []float64) (sumSin, sumCos, sumWeights float64) {
	for i, angle := range angles {
		w := 1.0
		if weights != nil && i < len(weights) {
			w = weights[i]
		}
		rad := angle * math.Pi / 180
		sumSin += w * math.Sin(rad)
		sumCos += w * math.Cos(rad)
		sumWeights += w
	}
	return
}

// CircularMeanDegrees calculates the weighted mean of angles in degrees, in [0, 360).
// weights can be nil for equal weights.
func CircularMeanDegrees(angles []float64, weights []float64) float64 {
	if len(angles) == 0 {
		return 0
	}
	sumSin, sumCos, _ := resultant(angles, weights)
	meanDeg := math.Atan2(sumSin, sumCos) * 180 / math.Pi
	if meanDeg < 0 {
		meanDeg += 360
	}
	return meanDeg
}

// MeanResultantLength calculates the mean resultant length (R) of angles in degrees
// R ranges from 0 (uniform distribution) to 1 (all angles identical)
func MeanResultantLength(angles []float64, weights []float64) float64 {
	if len(angles) == 0 {
		return 0
	}
	sumSin, sumCos, sumWeights := resultant(angles, weights)
	if sumWeights == 0 {
		return 0
	}
	return math.Sqrt(sumSin*sumSin+sumCos*sumCos) / sumWeights
}
