package dataset

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/weipengdeng/flowmap/internal/analysis/temporal"
	"github.com/weipengdeng/flowmap/internal/ingest"
	"github.com/weipengdeng/flowmap/internal/models"
	"github.com/weipengdeng/flowmap/internal/spatial"
)

// Options configures a build
type Options struct {
	Source  string // Recorded in meta.json
	Ingest  ingest.Options
	NowFunc func() time.Time
}

// Build runs ingestion, normalization, temporal aggregation and frame building
// over raw delimited text. Fatal input problems are returned before anything is produced.
func Build(ctx context.Context, data []byte, opts Options) (*Dataset, error) {
	records, st, err := ingest.Parse(data, opts.Ingest)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return FromRecords(records, st, opts), nil
}

// BuildFile reads path and builds the dataset from it
func BuildFile(ctx context.Context, path string, opts Options) (*Dataset, error) {
	records, st, err := ingest.ReadFile(path, opts.Ingest)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Source == "" {
		opts.Source = path
	}
	return FromRecords(records, st, opts), nil
}

// FromRecords aggregates accepted trip records into a dataset
func FromRecords(records []models.TripRecord, st models.IngestStats, opts Options) *Dataset {
	norm := spatial.NewNormalizer()
	agg := temporal.NewAggregator()
	for _, r := range records {
		o := norm.Origin(r.OriginLon, r.OriginLat)
		d := norm.Destination(r.DestLon, r.DestLat, r.Quantity)
		agg.Add(o, d, r.Hour, r.Quantity)
	}

	proj := norm.Projection()
	nodes := norm.Nodes(proj)
	dests := norm.Destinations(proj)
	flows := agg.Flows()
	frames := temporal.BuildFrames(flows)

	now := time.Now
	if opts.NowFunc != nil {
		now = opts.NowFunc
	}
	meta := models.Meta{
		Source:           opts.Source,
		CreatedAt:        now().UTC().Format(time.RFC3339Nano),
		RunID:            uuid.NewString(),
		Bounds:           spatial.ProjectedBounds(nodes, dests),
		Center:           [2]float64{proj.CenterLon, proj.CenterLat},
		Scale:            proj.Scale,
		ExtentKm:         norm.ExtentKm(),
		NodeCount:        len(nodes),
		DestinationCount: len(dests),
		FlowCount:        len(flows),
		RowsRead:         st.RowsRead,
		RowsAccepted:     st.RowsAccepted,
	}

	log.Printf("[Dataset] Built %d nodes, %d destinations, %d flows (scale=%.3f)",
		len(nodes), len(dests), len(flows), proj.Scale)
	ds := New(meta, nodes, dests, flows, frames)
	ds.Stats = st
	return ds
}

// Projection returns the projection recorded in meta
func (ds *Dataset) Projection() spatial.Projection {
	return spatial.Projection{CenterLon: ds.Meta.Center[0], CenterLat: ds.Meta.Center[1], Scale: ds.Meta.Scale}
}
