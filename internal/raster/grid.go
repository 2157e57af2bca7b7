// Package raster holds north-up grids of float64 cells and reads them from
// ESRI ASCII grids and GeoTIFF files. NoData cells are NaN.
package raster

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoValidCells is returned by Stats for a grid holding only NoData.
	ErrNoValidCells = errors.New("grid has no valid cells")
	// ErrGridSize is returned for grids with a non-positive size or cell size.
	ErrGridSize = errors.New("invalid grid size")
)

// NoData is the value stored in cells without data.
var NoData = math.NaN()

// IsNoData reports whether v is a NoData cell value.
func IsNoData(v float64) bool {
	return math.IsNaN(v)
}

// Geo places a grid: OriginX and OriginY are the coordinates of the
// top-left corner of the top-left cell, CellSize is the side of a square cell.
type Geo struct {
	OriginX  float64
	OriginY  float64
	CellSize float64
}

// Bounds is an axis-aligned rectangle in map coordinates.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyBounds returns bounds that any Extend call replaces.
func EmptyBounds() Bounds {
	return Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

// Empty reports whether b covers no area.
func (b Bounds) Empty() bool {
	return !(b.MinX < b.MaxX && b.MinY < b.MaxY)
}

// Extend grows b to contain the point x, y.
func (b *Bounds) Extend(x, y float64) {
	b.MinX = math.Min(b.MinX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxX = math.Max(b.MaxX, x)
	b.MaxY = math.Max(b.MaxY, y)
}

// Grid is a raster of Width × Height cells stored row-major from the top.
type Grid struct {
	Geo
	Width  int
	Height int
	Data   []float64
}

// New returns a grid with every cell set to NoData.
func New(geo Geo, width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 || !(geo.CellSize > 0) {
		return nil, errors.Wrapf(ErrGridSize, "%dx%d cells of %v", width, height, geo.CellSize)
	}

	data := make([]float64, width*height)
	for i := range data {
		data[i] = NoData
	}

	return &Grid{Geo: geo, Width: width, Height: height, Data: data}, nil
}

// At returns the value of cell col, row.
func (g *Grid) At(col, row int) float64 {
	return g.Data[row*g.Width+col]
}

// Set sets the value of cell col, row.
func (g *Grid) Set(col, row int, v float64) {
	g.Data[row*g.Width+col] = v
}

// Row returns the cells of row y. The slice aliases the grid.
func (g *Grid) Row(y int) []float64 {
	return g.Data[y*g.Width : (y+1)*g.Width]
}

// Bounds returns the extent covered by the grid.
func (g *Grid) Bounds() Bounds {
	return Bounds{
		MinX: g.OriginX,
		MinY: g.OriginY - float64(g.Height)*g.CellSize,
		MaxX: g.OriginX + float64(g.Width)*g.CellSize,
		MaxY: g.OriginY,
	}
}

// CellCenter returns the map coordinates of the center of cell col, row.
func (g *Grid) CellCenter(col, row int) (x, y float64) {
	return g.OriginX + (float64(col)+0.5)*g.CellSize, g.OriginY - (float64(row)+0.5)*g.CellSize
}

// Sample returns the value of the cell containing x, y, NoData outside the grid.
func (g *Grid) Sample(x, y float64) float64 {
	col := int(math.Floor((x - g.OriginX) / g.CellSize))
	row := int(math.Floor((g.OriginY - y) / g.CellSize))
	if col < 0 || row < 0 || col >= g.Width || row >= g.Height {
		return NoData
	}

	return g.At(col, row)
}

// Stats describes the valid cells of a grid.
type Stats struct {
	Mean   float64
	StdDev float64
	Valid  int
}

// Stats computes mean and standard deviation over the valid cells.
func (g *Grid) Stats() (Stats, error) {
	valid := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if !IsNoData(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return Stats{}, ErrNoValidCells
	}

	mean, std := stat.MeanStdDev(valid, nil)
	if len(valid) == 1 {
		std = 0
	}

	return Stats{Mean: mean, StdDev: std, Valid: len(valid)}, nil
}

// Resample returns a grid placed at geo whose cells take the value of the
// cell of g containing their center.
func (g *Grid) Resample(geo Geo, width, height int) (*Grid, error) {
	out, err := New(geo, width, height)
	if err != nil {
		return nil, err
	}

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			x, y := out.CellCenter(col, row)
			out.Set(col, row, g.Sample(x, y))
		}
	}

	return out, nil
}
