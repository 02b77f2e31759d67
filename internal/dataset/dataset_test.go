package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weipengdeng/flowmap/internal/ingest"
)

const scenarioCSV = "origin_lon,origin_lat,dest_lon,dest_lat,quantity,hour\n" +
	"0,0,1,0,10,3\n" +
	"0,0,1,0,5,15\n"

const cityCSV = "o_lon;o_lat;d_lon;d_lat;count;hour\n" +
	"113.26;23.13;113.32;23.11;12;8\n" +
	"113.26;23.13;113.38;23.05;3;8\n" +
	"113.30;23.16;113.32;23.11;7;18\n" +
	"113.30;23.16;113.32;23.11;7;19\n" +
	"113.26;23.13;113.32;23.11;oops;9\n" +
	"113.38;23.05;113.26;23.13;4;23\n"

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
}

func TestBuild_TwoRowScenario(t *testing.T) {
	ds, err := Build(context.Background(), []byte(scenarioCSV), Options{Source: "scenario.csv", NowFunc: fixedClock})
	require.NoError(t, err)

	require.Len(t, ds.Nodes, 1)
	require.Len(t, ds.Destinations, 1)
	require.Len(t, ds.Flows, 1)

	dest := ds.Destinations[0]
	assert.Equal(t, 15.0, dest.Inbound)
	assert.Greater(t, dest.Height, 2.0)

	f := ds.Flows[0]
	assert.Equal(t, "n0", f.O)
	assert.Equal(t, "d0", f.D)
	assert.Equal(t, 15.0, f.Total)
	assert.Equal(t, [4]float64{10, 0, 5, 0}, f.Bins)
	assert.Equal(t, 1.0, f.W)

	assert.Equal(t, "scenario.csv", ds.Meta.Source)
	assert.Equal(t, "2024-05-01T08:00:00Z", ds.Meta.CreatedAt)
	assert.NotEmpty(t, ds.Meta.RunID)
	assert.Equal(t, 1, ds.Meta.FlowCount)
	assert.Equal(t, 2, ds.Meta.RowsAccepted)
	assert.Len(t, ds.Frames, 24)
	assert.Len(t, ds.Frames[3].Flows, 1)
	assert.Len(t, ds.Frames[15].Flows, 1)
}

func TestBuild_SharedCoordinatesGetSeparateIDs(t *testing.T) {
	ds, err := Build(context.Background(), []byte(cityCSV), Options{})
	require.NoError(t, err)

	// 113.32,23.11 is only ever a destination, 113.26,23.13 is both
	assert.Len(t, ds.Nodes, 3)
	assert.Len(t, ds.Destinations, 3)
	assert.Equal(t, 6, ds.Stats.RowsRead)
	assert.Equal(t, 5, ds.Stats.RowsAccepted)
	assert.Equal(t, 1, ds.Stats.RowsSkipped)

	for i := 1; i < len(ds.Flows); i++ {
		assert.GreaterOrEqual(t, ds.Flows[i-1].Total, ds.Flows[i].Total)
	}
	assert.Greater(t, ds.Meta.ExtentKm, 0.0)

	x, y, ok := ds.DestinationXY("d0")
	require.True(t, ok)
	d, _ := ds.Destination("d0")
	assert.Equal(t, d.X, x)
	assert.Equal(t, d.Y, y)

	_, _, ok = ds.OriginXY("n99")
	assert.False(t, ok)
}

func TestBuild_FatalErrors(t *testing.T) {
	_, err := Build(context.Background(), []byte("origin_lon,origin_lat\n"), Options{})
	assert.True(t, errors.Is(err, ingest.ErrTooFewLines))

	_, err = Build(context.Background(), []byte("a,b,c\n1,2,3\n"), Options{})
	assert.True(t, errors.Is(err, ingest.ErrMissingColumn))

	_, err = BuildFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.True(t, errors.Is(err, ingest.ErrUnreadableInput))
}

func TestWrite_DeterministicArtifacts(t *testing.T) {
	ctx := context.Background()
	dirA := t.TempDir()
	dirB := t.TempDir()

	dsA, err := Build(ctx, []byte(cityCSV), Options{NowFunc: fixedClock})
	require.NoError(t, err)
	require.NoError(t, Write(ctx, dirA, dsA))

	dsB, err := Build(ctx, []byte(cityCSV), Options{NowFunc: fixedClock})
	require.NoError(t, err)
	require.NoError(t, Write(ctx, dirB, dsB))

	for _, name := range []string{NodesFile, DestinationsFile, FlowsFile, HourlyFile} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, name))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), name)
	}

	entries, err := os.ReadDir(dirA)
	require.NoError(t, err)
	assert.Len(t, entries, len(Artifacts), "staging directory is removed")
}

func TestWrite_CancelledContextLeavesNoOutput(t *testing.T) {
	ds, err := Build(context.Background(), []byte(scenarioCSV), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	require.Error(t, Write(ctx, dir, ds))
	for _, name := range Artifacts {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), name)
	}
}

func TestWrite_FailedSwapKeepsPreviousArtifacts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flowmap.db"), []byte("keep"), 0o644))

	first, err := Build(ctx, []byte(scenarioCSV), Options{NowFunc: fixedClock})
	require.NoError(t, err)
	require.NoError(t, Write(ctx, dir, first))

	before := map[string]string{}
	for _, name := range Artifacts {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		before[name] = string(data)
	}

	rename = func(from, to string) error {
		if to == filepath.Join(dir, FlowsFile) && filepath.Base(from) == FlowsFile &&
			filepath.Base(filepath.Dir(from)) != ".previous" {
			return errors.New("disk full")
		}
		return os.Rename(from, to)
	}
	t.Cleanup(func() { rename = os.Rename })

	second, err := Build(ctx, []byte(cityCSV), Options{})
	require.NoError(t, err)
	err = Write(ctx, dir, second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FlowsFile)

	for _, name := range Artifacts {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, before[name], string(data), name)
	}
	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, first.Meta.RunID, loaded.Meta.RunID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(Artifacts)+1, "unrelated files survive, staging is removed")
}

func TestLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	ds, err := Build(ctx, []byte(cityCSV), Options{NowFunc: fixedClock})
	require.NoError(t, err)
	require.NoError(t, Write(ctx, dir, ds))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ds.Meta, loaded.Meta)
	assert.Equal(t, ds.Nodes, loaded.Nodes)
	assert.Equal(t, ds.Destinations, loaded.Destinations)
	assert.Equal(t, ds.Flows, loaded.Flows, "hourly histograms are restored from frames")
	assert.Equal(t, ds.Frames, loaded.Frames)
	assert.Equal(t, ds.Stats, loaded.Stats)

	f, ok := loaded.Flow(ds.Flows[0].O, ds.Flows[0].D)
	require.True(t, ok)
	assert.Equal(t, ds.Flows[0].Total, f.Total)
}

func TestLoad_MissingArtifact(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
