package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Artifact file names
const (
	MetaFile         = "meta.json"
	NodesFile        = "nodes.json"
	DestinationsFile = "destinations.json"
	FlowsFile        = "flows.json"
	HourlyFile       = "flows-hourly.json"
)

// Artifacts lists every file written for a dataset
var Artifacts = []string{MetaFile, NodesFile, DestinationsFile, FlowsFile, HourlyFile}

// rename is replaced in tests to inject failures
var rename = os.Rename

// Write serializes the dataset into dir. The artifacts are written concurrently
// into a staging directory and only moved into place once all of them succeeded.
// Other files in dir are left alone.
func Write(ctx context.Context, dir string, ds *Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	staging, err := os.MkdirTemp(dir, ".staging-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	docs := map[string]interface{}{
		MetaFile:         ds.Meta,
		NodesFile:        ds.Nodes,
		DestinationsFile: ds.Destinations,
		FlowsFile:        ds.Flows,
		HourlyFile:       ds.HourlyFrames(),
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range Artifacts {
		name := name
		doc := docs[name]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return writeJSON(filepath.Join(staging, name), doc)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := swapIn(staging, dir); err != nil {
		return err
	}

	log.Printf("[Dataset] Wrote %d artifacts to %s", len(Artifacts), dir)
	return nil
}

// swapIn moves the staged artifacts into dir. Existing artifacts are parked
// under staging first; if any move fails every artifact is put back so dir
// keeps the previous complete set.
func swapIn(staging, dir string) error {
	previous := filepath.Join(staging, ".previous")
	if err := os.Mkdir(previous, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	var parked, placed []string
	rollback := func() {
		for i := len(placed) - 1; i >= 0; i-- {
			os.Remove(filepath.Join(dir, placed[i]))
		}
		for _, name := range parked {
			if err := rename(filepath.Join(previous, name), filepath.Join(dir, name)); err != nil {
				log.Printf("[Dataset] Failed to restore %s: %v", name, err)
			}
		}
	}

	for _, name := range Artifacts {
		target := filepath.Join(dir, name)
		if _, err := os.Lstat(target); err == nil {
			if err := rename(target, filepath.Join(previous, name)); err != nil {
				rollback()
				return fmt.Errorf("failed to back up %s: %w", name, err)
			}
			parked = append(parked, name)
		}
		if err := rename(filepath.Join(staging, name), target); err != nil {
			rollback()
			return fmt.Errorf("failed to move %s into place: %w", name, err)
		}
		placed = append(placed, name)
	}
	return nil
}

// Marshal returns the canonical encoding of one artifact
func Marshal(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func writeJSON(path string, v interface{}) error {
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
