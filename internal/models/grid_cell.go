package models

// CellKey is a grid-snapped position in the projected plane
type CellKey struct {
	X float64
	Y float64
}

// RetentionCell is a grid cell with positive smoothed net inflow
type RetentionCell struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Net       float64 `json:"net"`       // Smoothed net retention (inbound - outbound)
	Magnitude float64 `json:"magnitude"` // sqrt(net / smoothedMax), 0~1
	Layers    int     `json:"layers"`    // Stacked layers that received particles
}

// RetentionParticle is one seeded particle of a retention column
type RetentionParticle struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`           // Stack height
	Layer       int     `json:"layer"`
	Activity    float64 `json:"activity"`    // 0~1, fades out towards the top of the column
	Phase       float64 `json:"phase"`       // 0~1 animation phase
	OrbitRadius float64 `json:"orbitRadius"`
	OrbitSpeed  float64 `json:"orbitSpeed"`
}

// RetentionSnapshot is the output of one grid aggregation call
type RetentionSnapshot struct {
	Cells       []RetentionCell     `json:"cells"`
	Particles   []RetentionParticle `json:"particles"`
	SmoothedMax float64             `json:"smoothedMax"`
}
