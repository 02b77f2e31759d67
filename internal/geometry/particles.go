package geometry

import (
	"math"

	"github.com/weipengdeng/flowmap/internal/stats"
)

const (
	// MaxParticlesPerFlow is the instance count of a full-weight flow
	MaxParticlesPerFlow = 12
	// ParticleSpread is the maximum lateral offset of a full-weight flow
	ParticleSpread = 1.6
)

// ParticleInstance carries the per-instance timing and offset of one particle.
// The curve is evaluated at playback time from the shared control points.
type ParticleInstance struct {
	Offset  float32 `json:"offset"`  // Start phase along the curve, 0~1
	Speed   float32 `json:"speed"`   // Curve lengths per second
	Lateral float32 `json:"lateral"` // Signed sideways offset
}

// ParticleSet is the control points of one arc plus its particle instances
type ParticleSet struct {
	Curve     Curve              `json:"curve"`
	Instances []ParticleInstance `json:"instances"`
}

// ParticleCount returns the number of particles for a visual weight
func ParticleCount(w float64) int {
	return 1 + int(math.Round(stats.Clamp01(w)*(MaxParticlesPerFlow-1)))
}

// BuildParticles emits the particle instances of one flow. seed is the first
// seed index the flow may use; at most MaxParticlesPerFlow*3 indices are consumed.
func BuildParticles(c Curve, w float64, seed int) ParticleSet {
	n := ParticleCount(w)
	spread := float32(ParticleSpread * (0.3 + 0.7*stats.Clamp01(w)))
	seeds := &stats.Seeder{Next: seed}

	instances := make([]ParticleInstance, n)
	for i := range instances {
		instances[i] = ParticleInstance{
			Offset:  float32(seeds.Float()),
			Speed:   float32(0.08 + 0.12*seeds.Float()),
			Lateral: (float32(seeds.Float())*2 - 1) * spread,
		}
	}
	return ParticleSet{Curve: c, Instances: instances}
}
