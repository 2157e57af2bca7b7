package unitdb_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/askiada/drihop/internal/symbology"
	"github.com/askiada/drihop/internal/unitdb"
	"github.com/askiada/drihop/internal/unitdb/unitdbtest"
)

func sampleDatabase() unitdbtest.Database {
	return unitdbtest.Database{
		WithValBump: true,
		Units: []unitdbtest.Unit{
			{MapUnit: "Qal", Symbol: "1", ValBump: 5.0},
			{MapUnit: "Tb", Symbol: 12},
			{MapUnit: "Heading"},
			{MapUnit: "Kg", Symbol: "<Null>"},
		},
		Polys: []unitdbtest.Poly{
			{MapUnit: "Qal", Geom: unitdbtest.Square(0, 0, 4, 4)},
			{MapUnit: "Tb", Geom: geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
				{{{4, 0}, {8, 0}, {8, 4}, {4, 4}, {4, 0}}},
			})},
		},
	}
}

func openSample(t *testing.T, d unitdbtest.Database) *unitdb.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "map.gpkg")
	unitdbtest.Build(t, path, d)

	db, err := unitdb.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestOpenMissing(t *testing.T) {
	t.Parallel()

	_, err := unitdb.Open(context.Background(), filepath.Join(t.TempDir(), "missing.gpkg"))
	assert.ErrorIs(t, err, unitdb.ErrNotFound)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.NoError(t, openSample(t, sampleDatabase()).Validate(ctx))

	noUnits := sampleDatabase()
	noUnits.SkipUnits = true
	err := openSample(t, noUnits).Validate(ctx)
	require.ErrorIs(t, err, unitdb.ErrNotFound)
	assert.Contains(t, err.Error(), unitdb.UnitsTable)

	noPolys := sampleDatabase()
	noPolys.SkipPolys = true
	err = openSample(t, noPolys).Validate(ctx)
	require.ErrorIs(t, err, unitdb.ErrNotFound)
	assert.Contains(t, err.Error(), unitdb.PolysTable)
}

func TestColumns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openSample(t, sampleDatabase())

	columns, err := db.Columns(ctx, unitdb.UnitsTable)
	require.NoError(t, err)
	assert.Equal(t, []string{"OBJECTID", "MapUnit", "Name", "Symbol", "ValBump"}, columns)

	ok, err := db.HasValBump(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.HasColumn(ctx, unitdb.UnitsTable, "red")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = db.HasTable(ctx, "mapunitpolys")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnits(t *testing.T) {
	t.Parallel()

	units, err := openSample(t, sampleDatabase()).Units(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 4)

	assert.Equal(t, "Qal", units[0].MapUnit)
	assert.Equal(t, "1", units[0].Symbol.String)
	assert.InDelta(t, 5.0, units[0].ValBump.Float64, 0)
	assert.True(t, units[0].ValBump.Valid)
	assert.Equal(t, "12", units[1].Symbol.String)
	assert.False(t, units[1].ValBump.Valid)
	assert.False(t, units[2].Symbol.Valid)
	assert.Nil(t, units[0].Color)
}

func TestFeatures(t *testing.T) {
	t.Parallel()

	features, err := openSample(t, sampleDatabase()).Features(context.Background())
	require.NoError(t, err)
	require.Len(t, features, 2)

	assert.Equal(t, "Qal", features[0].MapUnit)
	polygon, ok := features[0].Geom.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 0, 4, 0, 4, 4, 0, 4, 0, 0}, polygon.FlatCoords())

	multi, ok := features[1].Geom.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 1, multi.NumPolygons())
	assert.Equal(t, []float64{4, 0, 8, 4}, []float64{multi.Bounds().Min(0), multi.Bounds().Min(1), multi.Bounds().Max(0), multi.Bounds().Max(1)})
}

func TestCopyAndAssignColors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := openSample(t, sampleDatabase())

	dst, err := unitdb.Create(ctx, filepath.Join(t.TempDir(), "scratch.gpkg"))
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, src.CopyUnits(ctx, dst))

	table, err := symbology.Parse(strings.NewReader("1: \"255,255,191\"\n12: \"10,20,30\"\n"))
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	n, err := dst.AssignColors(ctx, table, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, logs.FilterMessage("assigned color").Len())
	assert.Equal(t, "10,20,30", logs.All()[1].ContextMap()["rgb"])

	units, err := dst.Units(ctx)
	require.NoError(t, err)
	require.Len(t, units, 4)
	assert.Equal(t, &symbology.RGB{R: 255, G: 255, B: 191}, units[0].Color)
	assert.Equal(t, &symbology.RGB{R: 10, G: 20, B: 30}, units[1].Color)
	assert.Nil(t, units[2].Color)
	assert.Nil(t, units[3].Color)

	srcUnits, err := src.Units(ctx)
	require.NoError(t, err)
	assert.Nil(t, srcUnits[0].Color)

	n, err = dst.AssignColors(ctx, table, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAssignColorsUnknownSymbol(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openSample(t, sampleDatabase())

	table, err := symbology.Parse(strings.NewReader("1: \"255,255,191\"\n"))
	require.NoError(t, err)

	_, err = db.AssignColors(ctx, table, zap.NewNop())
	require.ErrorIs(t, err, unitdb.ErrUnknownSymbol)
	assert.Contains(t, err.Error(), "Tb")
	assert.Contains(t, err.Error(), "--symbols")

	units, err := db.Units(ctx)
	require.NoError(t, err)
	assert.Nil(t, units[0].Color)
}

func TestCreateExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "map.gpkg")
	unitdbtest.Build(t, path, sampleDatabase())

	_, err := unitdb.Create(context.Background(), path)
	assert.Error(t, err)
}

func TestGeometryRoundTrip(t *testing.T) {
	t.Parallel()

	polygon := unitdbtest.Square(1, 2, 3, 4)
	blob, err := unitdb.EncodeGeometry(polygon, 4326)
	require.NoError(t, err)
	assert.Equal(t, "GP", string(blob[:2]))
	assert.Equal(t, byte(0x03), blob[3])

	decoded, err := unitdb.DecodeGeometry(blob)
	require.NoError(t, err)
	assert.Equal(t, polygon.FlatCoords(), decoded.FlatCoords())

	_, err = unitdb.DecodeGeometry([]byte("nope"))
	assert.ErrorIs(t, err, unitdb.ErrGeometry)

	blob[3] = 0x0e
	_, err = unitdb.DecodeGeometry(blob)
	assert.ErrorIs(t, err, unitdb.ErrGeometry)
}
