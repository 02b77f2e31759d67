package geometry

import (
	"github.com/chewxy/math32"
)

const (
	// Control point positions as fractions of the straight-line span
	NearControl = 0.2
	FarControl  = 0.78

	// Arc height = max(MinArc, destHeight*HeightFactor + span*SpanFactor)
	MinArc       = 6.0
	HeightFactor = 0.6
	SpanFactor   = 0.28

	degenerateLength = 1e-6
)

var (
	up = Vec3{0, 0, 1}
	// fallbackSide is used when the tangent has no horizontal component
	fallbackSide = Vec3{1, 0, 0}
)

// Curve is a cubic Bezier arc
type Curve struct {
	P0 Vec3 `json:"p0"`
	P1 Vec3 `json:"p1"`
	P2 Vec3 `json:"p2"`
	P3 Vec3 `json:"p3"`
}

// ArcHeight returns the control height of an arc.
// Taller destinations and longer hops arc higher.
func ArcHeight(destHeight, span float32) float32 {
	return math32.Max(MinArc, destHeight*HeightFactor+span*SpanFactor)
}

// NewArc builds the arc from an origin on the ground plane to a destination
// lifted by destHeight.
func NewArc(ox, oy, dx, dy, destHeight float32) Curve {
	p0 := V3(ox, oy, 0)
	p3 := V3(dx, dy, destHeight)
	dir := V3(dx-ox, dy-oy, 0)
	span := dir.Length()
	arc := ArcHeight(destHeight, span)

	p1 := p0.Add(dir.MulScalar(NearControl))
	p1.Z = arc
	p2 := p0.Add(dir.MulScalar(FarControl))
	p2.Z = arc + destHeight*0.5
	return Curve{P0: p0, P1: p1, P2: p2, P3: p3}
}

// At evaluates the curve at t in [0, 1]
func (c Curve) At(t float32) Vec3 {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return c.P0.MulScalar(b0).Add(c.P1.MulScalar(b1)).Add(c.P2.MulScalar(b2)).Add(c.P3.MulScalar(b3))
}

// Tangent returns the first derivative at t
func (c Curve) Tangent(t float32) Vec3 {
	u := 1 - t
	d0 := c.P1.Sub(c.P0).MulScalar(3 * u * u)
	d1 := c.P2.Sub(c.P1).MulScalar(6 * u * t)
	d2 := c.P3.Sub(c.P2).MulScalar(3 * t * t)
	return d0.Add(d1).Add(d2)
}

// Side returns the horizontal unit vector perpendicular to the tangent at t
func (c Curve) Side(t float32) Vec3 {
	return c.Tangent(t).Cross(up).Normal(fallbackSide)
}
