package unitdb

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/askiada/drihop/internal/symbology"
)

// Unit is a row of the unit table.
type Unit struct {
	MapUnit string
	Symbol  sql.NullString
	ValBump sql.NullFloat64
	// Color is nil until colors have been assigned.
	Color *symbology.RGB
}

// Feature is a map-unit polygon.
type Feature struct {
	ID      int64
	MapUnit string
	Geom    geom.T
}

// optionalColumn selects column when present and NULL otherwise.
func (d *DB) optionalColumn(ctx context.Context, table, column string) (string, error) {
	ok, err := d.HasColumn(ctx, table, column)
	if err != nil {
		return "", err
	}
	if !ok {
		return "NULL", nil
	}

	return quote(column), nil
}

// HasValBump reports whether the unit table carries brightness bumps.
func (d *DB) HasValBump(ctx context.Context) (bool, error) {
	return d.HasColumn(ctx, UnitsTable, colValBump)
}

// Units reads the unit table in row order.
func (d *DB) Units(ctx context.Context) ([]Unit, error) {
	selected := []string{quote(colMapUnit)}
	for _, column := range []string{colSymbol, colValBump, colRed, colGreen, colBlue} {
		expr, err := d.optionalColumn(ctx, UnitsTable, column)
		if err != nil {
			return nil, err
		}
		selected = append(selected, expr)
	}

	query := "SELECT " + strings.Join(selected, ", ") + " FROM " + quote(UnitsTable) + " ORDER BY rowid"
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", UnitsTable)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var (
			unit             Unit
			mapUnit          sql.NullString
			red, green, blue sql.NullInt64
		)
		err := rows.Scan(&mapUnit, &unit.Symbol, &unit.ValBump, &red, &green, &blue)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read %s", UnitsTable)
		}
		unit.MapUnit = mapUnit.String
		if red.Valid && green.Valid && blue.Valid {
			unit.Color = &symbology.RGB{R: uint8(red.Int64), G: uint8(green.Int64), B: uint8(blue.Int64)}
		}
		units = append(units, unit)
	}

	return units, errors.Wrapf(rows.Err(), "unable to read %s", UnitsTable)
}

// geometryColumn returns the geometry column of the polygon layer.
func (d *DB) geometryColumn(ctx context.Context) (string, error) {
	var column string
	err := d.db.QueryRowContext(ctx,
		`SELECT column_name FROM gpkg_geometry_columns WHERE table_name = ? COLLATE NOCASE`, PolysTable,
	).Scan(&column)
	if err == nil {
		return column, nil
	}

	for _, candidate := range []string{"geom", "Shape", "geometry"} {
		ok, cerr := d.HasColumn(ctx, PolysTable, candidate)
		if cerr != nil {
			return "", cerr
		}
		if ok {
			return candidate, nil
		}
	}

	return "", errors.Wrapf(ErrNotFound, "geometry column of %s", PolysTable)
}

// Features reads the polygon layer in row order. Rows without geometry are skipped.
func (d *DB) Features(ctx context.Context) ([]Feature, error) {
	column, err := d.geometryColumn(ctx)
	if err != nil {
		return nil, err
	}

	query := "SELECT rowid, " + quote(colMapUnit) + ", " + quote(column) + " FROM " + quote(PolysTable) + " ORDER BY rowid"
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", PolysTable)
	}
	defer rows.Close()

	var features []Feature
	for rows.Next() {
		var (
			feature Feature
			mapUnit sql.NullString
			blob    []byte
		)
		if err := rows.Scan(&feature.ID, &mapUnit, &blob); err != nil {
			return nil, errors.Wrapf(err, "unable to read %s", PolysTable)
		}
		if len(blob) == 0 {
			continue
		}
		feature.MapUnit = mapUnit.String
		feature.Geom, err = DecodeGeometry(blob)
		if err != nil {
			return nil, errors.Wrapf(err, "%s feature %d", PolysTable, feature.ID)
		}
		features = append(features, feature)
	}

	return features, errors.Wrapf(rows.Err(), "unable to read %s", PolysTable)
}

// CopyUnits copies the unit table into dst.
func (d *DB) CopyUnits(ctx context.Context, dst *DB) error {
	conn, err := dst.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to get connection")
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE ? AS src`, d.path); err != nil {
		return errors.Wrapf(err, "unable to attach %s", d.path)
	}

	_, err = conn.ExecContext(ctx,
		"CREATE TABLE main."+quote(UnitsTable)+" AS SELECT * FROM src."+quote(UnitsTable)+" ORDER BY rowid")
	_, derr := conn.ExecContext(context.WithoutCancel(ctx), `DETACH DATABASE src`)
	if err != nil {
		return errors.Wrapf(err, "unable to copy %s", UnitsTable)
	}

	return errors.Wrapf(derr, "unable to detach %s", d.path)
}

type colorRow struct {
	rowID   int64
	mapUnit string
	code    int
	color   symbology.RGB
}

// AssignColors adds Red, Green and Blue columns to the unit table and sets
// them from the symbol code of every row that has one. It returns the
// number of rows updated.
func (d *DB) AssignColors(ctx context.Context, table *symbology.Table, logger *zap.Logger) (int, error) {
	hasSymbol, err := d.HasColumn(ctx, UnitsTable, colSymbol)
	if err != nil {
		return 0, err
	}
	if !hasSymbol {
		return 0, errors.Wrapf(ErrNotFound, "column %s.%s", UnitsTable, colSymbol)
	}

	for _, column := range []string{colRed, colGreen, colBlue} {
		ok, err := d.HasColumn(ctx, UnitsTable, column)
		if err != nil {
			return 0, err
		}
		if ok {
			continue
		}
		_, err = d.db.ExecContext(ctx, "ALTER TABLE "+quote(UnitsTable)+" ADD COLUMN "+quote(column)+" INTEGER")
		if err != nil {
			return 0, errors.Wrapf(err, "unable to add column %s", column)
		}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "unable to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	updates, err := colorRows(ctx, tx, table)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		"UPDATE "+quote(UnitsTable)+" SET "+quote(colRed)+" = ?, "+quote(colGreen)+" = ?, "+quote(colBlue)+" = ? WHERE rowid = ?")
	if err != nil {
		return 0, errors.Wrap(err, "unable to prepare color update")
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.color.R, u.color.G, u.color.B, u.rowID); err != nil {
			return 0, errors.Wrapf(err, "unable to set color of %s", u.mapUnit)
		}
		logger.Info("assigned color",
			zap.String("mapUnit", u.mapUnit),
			zap.Int("symbol", u.code),
			zap.String("rgb", u.color.String()),
		)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "unable to commit colors")
	}

	return len(updates), nil
}

func colorRows(ctx context.Context, tx *sql.Tx, table *symbology.Table) ([]colorRow, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT rowid, "+quote(colMapUnit)+", "+quote(colSymbol)+" FROM "+quote(UnitsTable)+" ORDER BY rowid")
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", UnitsTable)
	}
	defer rows.Close()

	var updates []colorRow
	for rows.Next() {
		var (
			rowID   int64
			mapUnit sql.NullString
			symbol  sql.NullString
		)
		if err := rows.Scan(&rowID, &mapUnit, &symbol); err != nil {
			return nil, errors.Wrapf(err, "unable to read %s", UnitsTable)
		}
		if !symbol.Valid {
			continue
		}

		code, ok, err := symbology.ParseCode(symbol.String)
		if err != nil {
			return nil, errors.Wrapf(err, "map unit %s", mapUnit.String)
		}
		if !ok {
			continue
		}

		color, ok := table.Lookup(code)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownSymbol, "map unit %s symbol %d, pass a complete table with --symbols", mapUnit.String, code)
		}
		updates = append(updates, colorRow{rowID: rowID, mapUnit: mapUnit.String, code: code, color: color})
	}

	return updates, errors.Wrapf(rows.Err(), "unable to read %s", UnitsTable)
}
