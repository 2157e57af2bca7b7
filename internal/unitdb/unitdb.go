// Package unitdb reads and updates the map-unit tables of a GeoPackage
// geologic map database.
package unitdb

import (
	"context"
	"database/sql"
	"os"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // database/sql driver "sqlite"
)

const (
	// UnitsTable describes the map units.
	UnitsTable = "DescriptionOfMapUnits"
	// PolysTable holds the map-unit polygons.
	PolysTable = "MapUnitPolys"

	colMapUnit = "MapUnit"
	colSymbol  = "Symbol"
	colValBump = "ValBump"
	colRed     = "Red"
	colGreen   = "Green"
	colBlue    = "Blue"
)

var (
	// ErrNotFound is returned when the database or one of its tables is missing.
	ErrNotFound = errors.New("not found")
	// ErrUnknownSymbol is returned for a symbol code missing from the symbol table.
	ErrUnknownSymbol = errors.New("unknown symbol code")
)

// DB is an open map database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens an existing database.
func Open(ctx context.Context, path string) (*DB, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, errors.Wrapf(ErrNotFound, "database %s", path)
	}

	return open(ctx, path)
}

// Create creates an empty database at path.
func Create(ctx context.Context, path string) (*DB, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, errors.Errorf("database %s already exists", path)
	}

	return open(ctx, path)
}

func open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	// ATTACH is per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, errors.Wrapf(err, "unable to open %s", path)
	}

	return &DB{db: db, path: path}, nil
}

// Path returns the database file.
func (d *DB) Path() string {
	return d.path
}

// Close closes the database.
func (d *DB) Close() error {
	return errors.Wrapf(d.db.Close(), "unable to close %s", d.path)
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// HasTable reports whether a table named name exists.
func (d *DB) HasTable(ctx context.Context, name string) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ? COLLATE NOCASE`, name,
	).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "unable to look up table %s", name)
	}

	return n > 0, nil
}

// Columns returns the column names of table in declaration order.
func (d *DB) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list columns of %s", table)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrapf(err, "unable to list columns of %s", table)
		}
		columns = append(columns, name)
	}

	return columns, errors.Wrapf(rows.Err(), "unable to list columns of %s", table)
}

// HasColumn reports whether table has a column named column.
func (d *DB) HasColumn(ctx context.Context, table, column string) (bool, error) {
	columns, err := d.Columns(ctx, table)
	if err != nil {
		return false, err
	}
	for _, c := range columns {
		if strings.EqualFold(c, column) {
			return true, nil
		}
	}

	return false, nil
}

// Validate checks that the unit table and the polygon layer exist.
func (d *DB) Validate(ctx context.Context) error {
	for _, table := range []string{UnitsTable, PolysTable} {
		ok, err := d.HasTable(ctx, table)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(ErrNotFound, "table %s in %s", table, d.path)
		}
	}

	ok, err := d.HasColumn(ctx, UnitsTable, colMapUnit)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrNotFound, "column %s.%s in %s", UnitsTable, colMapUnit, d.path)
	}

	return nil
}
