package db

import (
	"context"
	"io/fs"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tdaseries/internal/config"
	"github.com/banshee-data/tdaseries/internal/tda/features"
	"github.com/banshee-data/tdaseries/internal/tda/homology"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := OpenMigrated(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestEmbeddedMigrationsFS(t *testing.T) {
	migrations, err := MigrationsFS()
	require.NoError(t, err)

	names, err := fs.Glob(migrations, "*.up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_create_runs.up.sql", "000002_create_intervals.up.sql"}, names)
}

func TestMigrateUp(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer database.Close()

	migrations, err := MigrationsFS()
	require.NoError(t, err)

	version, dirty, err := database.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, database.MigrateUp(migrations))
	version, dirty, err = database.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Idempotent.
	require.NoError(t, database.MigrateUp(migrations))

	for _, table := range []string{"runs", "feature_rows", "intervals"} {
		var n int
		err := database.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestMigrateUp_NilFS(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "nil.db"))
	require.NoError(t, err)
	defer database.Close()
	assert.Error(t, database.MigrateUp(nil))
}

func TestPragmasApplied(t *testing.T) {
	database := setupTestDB(t)

	var journalMode string
	require.NoError(t, database.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout, foreignKeys int
	require.NoError(t, database.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)
	require.NoError(t, database.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

func testRun() *Run {
	p := config.Default()
	p.MaxDimension = 2
	return &Run{
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Input:     "series.txt",
		Version:   "dev",
		Params:    p,
	}
}

// persisted keeps only the stored parameter fields.
func persisted(p config.Pipeline) config.Pipeline {
	p.Workers, p.OnWindowError, p.ProgressEvery = 0, "", 0
	return p
}

func TestInsertRun_AndRuns(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	first := testRun()
	require.NoError(t, database.InsertRun(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := testRun()
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	second.Params.MaxEdgeLength = 0.75
	require.NoError(t, database.InsertRun(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)

	runs, err := database.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	want := []Run{*first, *second}
	for i := range want {
		want[i].Params = persisted(want[i].Params)
	}
	if diff := cmp.Diff(want, runs); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, math.IsInf(runs[0].Params.MaxEdgeLength, 1))
}

func TestInsertRun_Duplicate(t *testing.T) {
	database := setupTestDB(t)
	run := testRun()
	require.NoError(t, database.InsertRun(context.Background(), run))

	dup := testRun()
	dup.ID = run.ID
	assert.Error(t, database.InsertRun(context.Background(), dup))
}

func TestInsertRows_RoundTrip(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	run := testRun()
	require.NoError(t, database.InsertRun(ctx, run))

	table := features.Table{
		{Index: 0, Coords: []float64{0.5, -1.25}, Norm: 0.125, Label: 1},
		{Index: 1, Coords: []float64{math.NaN(), 2}, Norm: math.NaN(), Label: 0},
		{Index: 2, Coords: []float64{1e-9, 3}, Norm: 0, Label: 1},
	}
	require.NoError(t, database.InsertRows(ctx, run.ID, table))

	got, err := database.Rows(ctx, run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(table, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	runs, err := database.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, runs[0].Windows)
}

func TestInsertRows_UnknownRun(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	err := database.InsertRows(ctx, "missing", features.Table{{Coords: []float64{1}, Norm: 1}})
	assert.Error(t, err)

	_, err = database.Rows(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestInsertIntervals_RoundTrip(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	run := testRun()
	require.NoError(t, database.InsertRun(ctx, run))

	inf := math.Inf(1)
	diagrams := []homology.Diagram{
		{{Dim: 1, Birth: 0.5, Death: 0.75}, {Dim: 1, Birth: 0.25, Death: inf}},
		nil,
		{{Dim: 1, Birth: 1, Death: 2}},
	}
	require.NoError(t, database.InsertIntervals(ctx, run.ID, diagrams))

	got, err := database.Intervals(ctx, run.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, homology.Diagram{{Dim: 1, Birth: 0.25, Death: inf}, {Dim: 1, Birth: 0.5, Death: 0.75}}, got)

	got, err = database.Intervals(ctx, run.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = database.Intervals(ctx, run.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, homology.Diagram{{Dim: 1, Birth: 1, Death: 2}}, got)
}
