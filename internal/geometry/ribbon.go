package geometry

const (
	// RibbonSegments is the number of sampled segments per ribbon
	RibbonSegments = 48

	MinRibbonWidth   = 0.25
	RibbonWidthRange = 2.25
)

// RibbonWidth maps a visual weight to ribbon width
func RibbonWidth(w float64) float32 {
	return float32(MinRibbonWidth + RibbonWidthRange*w)
}

// Ribbon is a triangle strip mesh laid along a curve.
// Positions are xyz triples, UVs are (progress along curve, side) pairs.
type Ribbon struct {
	Positions []float32 `json:"positions"`
	UVs       []float32 `json:"uvs"`
	Indices   []uint32  `json:"indices"`
}

// BuildRibbon samples c at segments+1 steps and emits two side-offset vertices
// per sample, triangulating consecutive sample pairs.
func BuildRibbon(c Curve, width float32, segments int) Ribbon {
	if segments < 1 {
		segments = 1
	}
	samples := segments + 1
	hw := width / 2
	r := Ribbon{
		Positions: make([]float32, 0, samples*2*3),
		UVs:       make([]float32, 0, samples*2*2),
		Indices:   make([]uint32, 0, segments*6),
	}

	for i := 0; i < samples; i++ {
		t := float32(i) / float32(segments)
		p := c.At(t)
		side := c.Side(t).MulScalar(hw)
		left, right := p.Add(side), p.Sub(side)
		r.Positions = append(r.Positions, left.X, left.Y, left.Z, right.X, right.Y, right.Z)
		r.UVs = append(r.UVs, t, 0, t, 1)
	}

	for i := 0; i < segments; i++ {
		a := uint32(2 * i)
		b, cc, d := a+1, a+2, a+3
		r.Indices = append(r.Indices, a, b, cc, b, d, cc)
	}
	return r
}
