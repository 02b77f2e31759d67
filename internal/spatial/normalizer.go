package spatial

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/weipengdeng/flowmap/internal/models"
	"github.com/weipengdeng/flowmap/internal/stats"
)

const (
	// PlaneExtent is the size of the local plane the longer bbox side is scaled to
	PlaneExtent = 220.0
	// spanEpsilon keeps the scale finite for a zero-span bounding box
	spanEpsilon = 1e-6

	// Destination column heights
	MinDestinationHeight   = 2.0
	DestinationHeightRange = 22.0
)

// CoordKey is the identity key of a coordinate: lon/lat rounded to 6 decimals.
// Points closer than ~0.1m collapse onto one identity; raise the precision
// before reusing this for survey-grade input.
func CoordKey(lon, lat float64) string {
	return fmt.Sprintf("%.6f,%.6f", round6(lon), round6(lat))
}

func round6(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		return 0 // fold -0
	}
	return r
}

// Projection maps lon/lat into the local plane with one uniform scale
type Projection struct {
	CenterLon float64
	CenterLat float64
	Scale     float64
}

// Project maps a coordinate to plane x, y
func (p Projection) Project(lon, lat float64) (float64, float64) {
	return (lon - p.CenterLon) * p.Scale, (lat - p.CenterLat) * p.Scale
}

// Unproject maps plane x, y back to lon, lat
func (p Projection) Unproject(x, y float64) (float64, float64) {
	if p.Scale == 0 {
		return p.CenterLon, p.CenterLat
	}
	return x/p.Scale + p.CenterLon, y/p.Scale + p.CenterLat
}

type site struct {
	lon     float64
	lat     float64
	inbound float64
}

// Normalizer deduplicates coordinates into node and destination identities and
// derives the shared projection. It is owned by one ingestion pass.
type Normalizer struct {
	nodeIndex map[string]int
	nodes     []site
	destIndex map[string]int
	dests     []site
	bound     orb.Bound
	empty     bool
}

// NewNormalizer creates an empty normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{
		nodeIndex: make(map[string]int),
		destIndex: make(map[string]int),
		empty:     true,
	}
}

// Origin returns the node id for a coordinate, creating it on first sight
func (n *Normalizer) Origin(lon, lat float64) string {
	key := CoordKey(lon, lat)
	i, ok := n.nodeIndex[key]
	if !ok {
		i = len(n.nodes)
		n.nodeIndex[key] = i
		n.nodes = append(n.nodes, site{lon: lon, lat: lat})
		n.extend(lon, lat)
	}
	return nodeID(i)
}

// Destination returns the destination id for a coordinate and adds quantity to its inbound total
func (n *Normalizer) Destination(lon, lat, quantity float64) string {
	key := CoordKey(lon, lat)
	i, ok := n.destIndex[key]
	if !ok {
		i = len(n.dests)
		n.destIndex[key] = i
		n.dests = append(n.dests, site{lon: lon, lat: lat})
		n.extend(lon, lat)
	}
	n.dests[i].inbound += quantity
	return destID(i)
}

func (n *Normalizer) extend(lon, lat float64) {
	p := orb.Point{lon, lat}
	if n.empty {
		n.bound = orb.Bound{Min: p, Max: p}
		n.empty = false
		return
	}
	n.bound = n.bound.Extend(p)
}

// Projection returns the shared projection: bbox midpoint and 220 / longer span
func (n *Normalizer) Projection() Projection {
	if n.empty {
		return Projection{Scale: PlaneExtent / spanEpsilon}
	}
	c := n.bound.Center()
	lonSpan := n.bound.Max.Lon() - n.bound.Min.Lon()
	latSpan := n.bound.Max.Lat() - n.bound.Min.Lat()
	return Projection{
		CenterLon: c.Lon(),
		CenterLat: c.Lat(),
		Scale:     PlaneExtent / math.Max(math.Max(lonSpan, latSpan), spanEpsilon),
	}
}

// ExtentKm returns the great-circle length of the bbox diagonal
func (n *Normalizer) ExtentKm() float64 {
	if n.empty {
		return 0
	}
	d := HaversineDistance(n.bound.Min.Lat(), n.bound.Min.Lon(), n.bound.Max.Lat(), n.bound.Max.Lon())
	return stats.Round(d/1000, 3)
}

// Nodes returns the projected nodes in first-seen order
func (n *Normalizer) Nodes(p Projection) []models.Node {
	nodes := make([]models.Node, len(n.nodes))
	for i, s := range n.nodes {
		x, y := p.Project(s.lon, s.lat)
		nodes[i] = models.Node{ID: nodeID(i), X: stats.Round(x, 3), Y: stats.Round(y, 3)}
	}
	return nodes
}

// Destinations returns the projected destinations in first-seen order.
// Height grows with the square-root normalized inbound total.
func (n *Normalizer) Destinations(p Projection) []models.Destination {
	inbound := make([]float64, len(n.dests))
	for i, s := range n.dests {
		inbound[i] = s.inbound
	}
	r := stats.NewSqrtRange(inbound)

	dests := make([]models.Destination, len(n.dests))
	for i, s := range n.dests {
		x, y := p.Project(s.lon, s.lat)
		dests[i] = models.Destination{
			ID:      destID(i),
			X:       stats.Round(x, 3),
			Y:       stats.Round(y, 3),
			Inbound: s.inbound,
			Height:  stats.Round(MinDestinationHeight+DestinationHeightRange*r.Weight(s.inbound), 3),
		}
	}
	return dests
}

// ProjectedBounds returns the plane extent of all nodes and destinations
func ProjectedBounds(nodes []models.Node, dests []models.Destination) models.Bounds {
	var b models.Bounds
	first := true
	add := func(x, y float64) {
		if first {
			b = models.Bounds{MinX: x, MaxX: x, MinY: y, MaxY: y}
			first = false
			return
		}
		b.MinX = math.Min(b.MinX, x)
		b.MaxX = math.Max(b.MaxX, x)
		b.MinY = math.Min(b.MinY, y)
		b.MaxY = math.Max(b.MaxY, y)
	}
	for _, nd := range nodes {
		add(nd.X, nd.Y)
	}
	for _, d := range dests {
		add(d.X, d.Y)
	}
	return b
}

func nodeID(i int) string { return fmt.Sprintf("n%d", i) }
func destID(i int) string { return fmt.Sprintf("d%d", i) }
