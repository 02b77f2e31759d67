// Package dataset assembles the OD flow dataset from raw trip rows and
// reads/writes it as a set of independent JSON artifacts.
package dataset

import (
	"github.com/weipengdeng/flowmap/internal/models"
)

// Dataset is the immutable output of one ingestion pass
type Dataset struct {
	Meta         models.Meta
	Nodes        []models.Node
	Destinations []models.Destination
	Flows        []models.Flow
	Frames       []models.HourlyFrame
	Stats        models.IngestStats

	nodeIndex map[string]int
	destIndex map[string]int
}

// New indexes the parts of a dataset
func New(meta models.Meta, nodes []models.Node, dests []models.Destination, flows []models.Flow, frames []models.HourlyFrame) *Dataset {
	ds := &Dataset{
		Meta:         meta,
		Nodes:        nodes,
		Destinations: dests,
		Flows:        flows,
		Frames:       frames,
		nodeIndex:    make(map[string]int, len(nodes)),
		destIndex:    make(map[string]int, len(dests)),
	}
	for i, n := range nodes {
		ds.nodeIndex[n.ID] = i
	}
	for i, d := range dests {
		ds.destIndex[d.ID] = i
	}
	return ds
}

// Node returns a node by id
func (ds *Dataset) Node(id string) (models.Node, bool) {
	i, ok := ds.nodeIndex[id]
	if !ok {
		return models.Node{}, false
	}
	return ds.Nodes[i], true
}

// Destination returns a destination by id
func (ds *Dataset) Destination(id string) (models.Destination, bool) {
	i, ok := ds.destIndex[id]
	if !ok {
		return models.Destination{}, false
	}
	return ds.Destinations[i], true
}

// OriginXY implements retention.Locator
func (ds *Dataset) OriginXY(id string) (float64, float64, bool) {
	n, ok := ds.Node(id)
	return n.X, n.Y, ok
}

// DestinationXY implements retention.Locator
func (ds *Dataset) DestinationXY(id string) (float64, float64, bool) {
	d, ok := ds.Destination(id)
	return d.X, d.Y, ok
}

// Flow returns the aggregated flow for an origin/destination pair
func (ds *Dataset) Flow(o, d string) (models.Flow, bool) {
	for _, f := range ds.Flows {
		if f.O == o && f.D == d {
			return f, true
		}
	}
	return models.Flow{}, false
}

// HourlyFrames returns the flows-hourly.json document
func (ds *Dataset) HourlyFrames() models.HourlyFrames {
	hours := make([]int, len(ds.Frames))
	for i, fr := range ds.Frames {
		hours[i] = fr.Hour
	}
	return models.HourlyFrames{Hours: hours, Frames: ds.Frames}
}
