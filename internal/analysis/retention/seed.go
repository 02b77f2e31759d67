package retention

import (
	"math"

	"github.com/weipengdeng/flowmap/internal/models"
	"github.com/weipengdeng/flowmap/internal/stats"
)

const (
	// fadeStart is the relative column height where layers begin to fade
	fadeStart = 0.55
	// jitterFraction is the jitter radius as a fraction of grid spacing
	jitterFraction = 0.35
	// maxParticlesPerLayer bounds particles on the bottom layer of the strongest cell
	maxParticlesPerLayer = 4
)

// seedParticles stacks layers of particles over each positive cell.
// Cells arrive strongest first so the global ceiling trims the weakest columns.
// Each cell's Layers is set to the layers that actually received particles, so
// cells past the ceiling report 0.
// Layer count grows with magnitude; particle count and activity taper towards the
// top of the column so it fades out instead of ending in a hard edge.
func seedParticles(cells []models.RetentionCell, spacing float64) []models.RetentionParticle {
	particles := make([]models.RetentionParticle, 0)
	seeds := &stats.Seeder{}

	for ci := range cells {
		c := &cells[ci]
		c.Layers = 0
		if len(particles) >= MaxParticles {
			continue
		}
		layers := int(math.Ceil(c.Magnitude * MaxLayers))
		if layers < 1 {
			layers = 1
		}
		if layers > MaxLayers {
			layers = MaxLayers
		}

		for layer := 0; layer < layers; layer++ {
			t := float64(layer) / float64(layers)
			activity := (1 - smoothstep(fadeStart, 1, t)) * (0.35 + 0.65*c.Magnitude)
			if activity < MinActivity {
				continue
			}

			count := int(math.Round(float64(maxParticlesPerLayer) * c.Magnitude * (1 - 0.6*t)))
			if count < 1 {
				count = 1
			}
			for k := 0; k < count; k++ {
				if len(particles) >= MaxParticles {
					break
				}
				angle := 2 * math.Pi * seeds.Float()
				radius := spacing * jitterFraction * math.Sqrt(seeds.Float())
				particles = append(particles, models.RetentionParticle{
					X:           c.X + math.Cos(angle)*radius,
					Y:           c.Y + math.Sin(angle)*radius,
					Z:           (float64(layer) + 0.6*seeds.Float()) * LayerSpacing,
					Layer:       layer,
					Activity:    activity,
					Phase:       seeds.Float(),
					OrbitRadius: spacing * (0.05 + 0.2*seeds.Float()) * (1 - 0.5*t),
					OrbitSpeed:  0.3 + 0.9*seeds.Float(),
				})
				c.Layers = layer + 1
			}
		}
	}
	return particles
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}
