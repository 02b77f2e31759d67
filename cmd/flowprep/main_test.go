package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weipengdeng/flowmap/internal/database"
	"github.com/weipengdeng/flowmap/internal/dataset"
	"github.com/weipengdeng/flowmap/internal/ingest"
	"github.com/weipengdeng/flowmap/internal/repository"
	"github.com/weipengdeng/flowmap/internal/service"
)

func TestRun_WritesArtifactsAndMirror(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(in, []byte("lon_o,lat_o,lon_d,lat_d,n,h\n0,0,1,0,10,3\n0,0,1,0,5,15\n"), 0o644))
	aliases := filepath.Join(dir, "aliases.toml")
	require.NoError(t, os.WriteFile(aliases, []byte(`[aliases]
origin_lon = ["lon_o"]
origin_lat = ["lat_o"]
dest_lon = ["lon_d"]
dest_lat = ["lat_d"]
quantity = ["n"]
hour = ["h"]
`), 0o644))

	out := filepath.Join(dir, "out")
	db := filepath.Join(dir, "flowmap.db")
	require.NoError(t, run(context.Background(), in, out, aliases, "", db))

	ds, err := dataset.Load(out)
	require.NoError(t, err)
	assert.Equal(t, in, ds.Meta.Source)
	assert.Len(t, ds.Flows, 1)

	_, err = os.Stat(db)
	assert.NoError(t, err)
}

func TestRun_FatalInputWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(in, []byte("a,b\n1,2\n"), 0o644))

	out := filepath.Join(dir, "out")
	err := run(context.Background(), in, out, "", "", "")
	assert.True(t, errors.Is(err, ingest.ErrMissingColumn))

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_RerunWithoutMirrorIsServed(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(in, []byte("origin_lon,origin_lat,dest_lon,dest_lat,quantity,hour\n0,0,1,0,10,3\n"), 0o644))
	out := filepath.Join(dir, "out")
	db := filepath.Join(dir, "flowmap.db")

	require.NoError(t, run(context.Background(), in, out, "", "first", db))

	require.NoError(t, os.WriteFile(in, []byte("origin_lon,origin_lat,dest_lon,dest_lat,quantity,hour\n0,0,1,0,10,3\n0,0,2,0,4,9\n"), 0o644))
	require.NoError(t, run(context.Background(), in, out, "", "second", ""))

	conn, err := database.Open(database.Config{Path: db})
	require.NoError(t, err)
	defer conn.Close()

	s := service.NewDatasetService(out, repository.NewDatasetRepository(conn))
	l, err := s.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", l.Dataset.Meta.Source)
	assert.Len(t, l.Dataset.Flows, 2)
}
