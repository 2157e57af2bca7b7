// Package unitdbtest builds small GeoPackage map databases for tests.
package unitdbtest

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/askiada/drihop/internal/unitdb"
)

// Unit is a unit table row. Nil values are stored as NULL.
type Unit struct {
	MapUnit string
	Symbol  any
	ValBump any
}

// Poly is a polygon layer row.
type Poly struct {
	MapUnit string
	Geom    geom.T
}

// Database describes a database to build.
type Database struct {
	Units []Unit
	Polys []Poly
	// WithValBump adds the ValBump column to the unit table.
	WithValBump bool
	// SkipUnits and SkipPolys leave the corresponding table out.
	SkipUnits bool
	SkipPolys bool
}

// Build writes d as a GeoPackage at path.
func Build(tb testing.TB, path string, d Database) {
	tb.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(tb, err)
	defer db.Close()

	exec := func(query string, args ...any) {
		tb.Helper()
		_, err := db.Exec(query, args...)
		require.NoError(tb, err, query)
	}

	exec(`CREATE TABLE gpkg_geometry_columns (
		table_name TEXT NOT NULL, column_name TEXT NOT NULL, geometry_type_name TEXT NOT NULL,
		srs_id INTEGER NOT NULL, z TINYINT NOT NULL, m TINYINT NOT NULL)`)

	if !d.SkipUnits {
		if d.WithValBump {
			exec(`CREATE TABLE DescriptionOfMapUnits (OBJECTID INTEGER PRIMARY KEY, MapUnit TEXT, Name TEXT, Symbol TEXT, ValBump REAL)`)
		} else {
			exec(`CREATE TABLE DescriptionOfMapUnits (OBJECTID INTEGER PRIMARY KEY, MapUnit TEXT, Name TEXT, Symbol TEXT)`)
		}
		for _, u := range d.Units {
			if d.WithValBump {
				exec(`INSERT INTO DescriptionOfMapUnits (MapUnit, Name, Symbol, ValBump) VALUES (?, ?, ?, ?)`,
					u.MapUnit, u.MapUnit+" unit", u.Symbol, u.ValBump)
			} else {
				exec(`INSERT INTO DescriptionOfMapUnits (MapUnit, Name, Symbol) VALUES (?, ?, ?)`,
					u.MapUnit, u.MapUnit+" unit", u.Symbol)
			}
		}
	}

	if !d.SkipPolys {
		exec(`CREATE TABLE MapUnitPolys (fid INTEGER PRIMARY KEY, MapUnit TEXT, geom BLOB)`)
		exec(`INSERT INTO gpkg_geometry_columns VALUES ('MapUnitPolys', 'geom', 'MULTIPOLYGON', 0, 0, 0)`)
		for _, p := range d.Polys {
			blob, err := unitdb.EncodeGeometry(p.Geom, 0)
			require.NoError(tb, err)
			exec(`INSERT INTO MapUnitPolys (MapUnit, geom) VALUES (?, ?)`, p.MapUnit, blob)
		}
	}
}

// Square returns the polygon of the axis-aligned square with corners minX, minY and maxX, maxY.
func Square(minX, minY, maxX, maxY float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}},
	})
}
