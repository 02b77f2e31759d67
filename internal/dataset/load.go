package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/weipengdeng/flowmap/internal/models"
)

// Load reads a dataset previously produced by Write
func Load(dir string) (*Dataset, error) {
	var (
		meta   models.Meta
		nodes  []models.Node
		dests  []models.Destination
		flows  []models.Flow
		hourly models.HourlyFrames
	)
	targets := map[string]interface{}{
		MetaFile:         &meta,
		NodesFile:        &nodes,
		DestinationsFile: &dests,
		FlowsFile:        &flows,
		HourlyFile:       &hourly,
	}
	for _, name := range Artifacts {
		if err := readJSON(filepath.Join(dir, name), targets[name]); err != nil {
			return nil, err
		}
	}

	frames := hourly.Frames
	if len(frames) != models.HoursPerDay {
		return nil, fmt.Errorf("failed to load %s: expected %d frames, got %d", HourlyFile, models.HoursPerDay, len(frames))
	}
	for i := range frames {
		if frames[i].Flows == nil {
			frames[i].Flows = []models.Flow{}
		}
	}
	restoreHourly(flows, frames)

	ds := New(meta, nodes, dests, flows, frames)
	ds.Stats = models.IngestStats{
		RowsRead:     meta.RowsRead,
		RowsAccepted: meta.RowsAccepted,
		RowsSkipped:  meta.RowsRead - meta.RowsAccepted,
	}
	return ds, nil
}

// restoreHourly rebuilds the hourly histograms, which are not serialized,
// from the per-hour frame totals.
func restoreHourly(flows []models.Flow, frames []models.HourlyFrame) {
	index := make(map[models.FlowKey]int, len(flows))
	for i, f := range flows {
		index[f.Key()] = i
	}
	for _, fr := range frames {
		for j := range fr.Flows {
			ff := &fr.Flows[j]
			ff.Hourly[fr.Hour] = ff.Total
			if i, ok := index[ff.Key()]; ok {
				flows[i].Hourly[fr.Hour] = ff.Total
			}
		}
	}
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
