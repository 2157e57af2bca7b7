// Package rasterize burns polygons into raster grids.
package rasterize

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"golang.org/x/image/vector"

	"github.com/askiada/drihop/internal/raster"
)

// ErrGeometry is returned for geometries that are neither polygons nor multipolygons.
var ErrGeometry = errors.New("unsupported geometry")

// fullAlpha is the mask value of a cell the geometry covers entirely.
const fullAlpha = 0xffff

// Mask is the set of cells of a grid whose center lies inside a geometry.
type Mask struct {
	// Rect is the window of the grid the geometry can cover.
	Rect   image.Rectangle
	inside []bool
}

// Cover computes the cells of a grid placed at geo whose center lies
// inside g. Cells fully covered by g are taken from the coverage raster;
// every other cell of the window is decided by testing its center against
// the rings of g. Parts of a multipolygon must not overlap.
func Cover(geo raster.Geo, width, height int, g geom.T) (*Mask, error) {
	var polygons []*geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		polygons = []*geom.Polygon{t}
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			polygons = append(polygons, t.Polygon(i))
		}
	default:
		return nil, errors.Wrapf(ErrGeometry, "%T", g)
	}

	rect := window(geo, width, height, g.Bounds())
	mask := &Mask{Rect: rect}
	if rect.Empty() {
		return mask, nil
	}

	toPixel := func(x, y float64) (float32, float32) {
		px := (x-geo.OriginX)/geo.CellSize - float64(rect.Min.X)
		py := (geo.OriginY-y)/geo.CellSize - float64(rect.Min.Y)

		return float32(px), float32(py)
	}

	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	for _, polygon := range polygons {
		stride := polygon.Stride()
		for i := 0; i < polygon.NumLinearRings(); i++ {
			flat := polygon.LinearRing(i).FlatCoords()
			if len(flat) < 3*stride {
				continue
			}
			// Holes wind against the exterior so their coverage cancels out.
			reverse := (signedArea(flat, stride) > 0) != (i == 0)
			addRing(z, flat, stride, reverse, toPixel)
		}
	}

	alpha := image.NewAlpha16(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	z.Draw(alpha, alpha.Bounds(), image.Opaque, image.Point{})

	mask.inside = make([]bool, rect.Dx()*rect.Dy())
	for row := 0; row < rect.Dy(); row++ {
		for col := 0; col < rect.Dx(); col++ {
			inside := alpha.Alpha16At(col, row).A == fullAlpha
			if !inside {
				x := geo.OriginX + (float64(rect.Min.X+col)+0.5)*geo.CellSize
				y := geo.OriginY - (float64(rect.Min.Y+row)+0.5)*geo.CellSize
				inside = containsPoint(polygons, x, y)
			}
			mask.inside[row*rect.Dx()+col] = inside
		}
	}

	return mask, nil
}

// containsPoint reports whether x, y lies inside one of polygons, holes
// excluded, by the even-odd rule.
func containsPoint(polygons []*geom.Polygon, x, y float64) bool {
	for _, polygon := range polygons {
		stride := polygon.Stride()
		inside := false
		for i := 0; i < polygon.NumLinearRings(); i++ {
			flat := polygon.LinearRing(i).FlatCoords()
			n := len(flat) / stride
			for a, b := 0, n-1; a < n; b, a = a, a+1 {
				xa, ya := flat[a*stride], flat[a*stride+1]
				xb, yb := flat[b*stride], flat[b*stride+1]
				if (ya > y) != (yb > y) && x < (xb-xa)*(y-ya)/(yb-ya)+xa {
					inside = !inside
				}
			}
		}
		if inside {
			return true
		}
	}

	return false
}

// Contains reports whether cell col, row of the grid is covered.
func (m *Mask) Contains(col, row int) bool {
	if !image.Pt(col, row).In(m.Rect) {
		return false
	}

	return m.inside[(row-m.Rect.Min.Y)*m.Rect.Dx()+col-m.Rect.Min.X]
}

// Cells returns the number of covered cells.
func (m *Mask) Cells() int {
	n := 0
	for row := m.Rect.Min.Y; row < m.Rect.Max.Y; row++ {
		for col := m.Rect.Min.X; col < m.Rect.Max.X; col++ {
			if m.Contains(col, row) {
				n++
			}
		}
	}

	return n
}

// Burn writes value into every covered cell of grid, replacing what is there.
func (m *Mask) Burn(grid *raster.Grid, value float64) {
	for row := m.Rect.Min.Y; row < m.Rect.Max.Y; row++ {
		for col := m.Rect.Min.X; col < m.Rect.Max.X; col++ {
			if m.Contains(col, row) {
				grid.Set(col, row, value)
			}
		}
	}
}

// Burn writes value into the cells of grid covered by g.
func Burn(grid *raster.Grid, g geom.T, value float64) error {
	mask, err := Cover(grid.Geo, grid.Width, grid.Height, g)
	if err != nil {
		return err
	}
	mask.Burn(grid, value)

	return nil
}

// window returns the cells of the grid intersecting b.
func window(geo raster.Geo, width, height int, b *geom.Bounds) image.Rectangle {
	if b == nil || b.IsEmpty() {
		return image.Rectangle{}
	}

	minCol := math.Floor((b.Min(0) - geo.OriginX) / geo.CellSize)
	maxCol := math.Ceil((b.Max(0) - geo.OriginX) / geo.CellSize)
	minRow := math.Floor((geo.OriginY - b.Max(1)) / geo.CellSize)
	maxRow := math.Ceil((geo.OriginY - b.Min(1)) / geo.CellSize)

	rect := image.Rect(
		int(math.Max(minCol, 0)), int(math.Max(minRow, 0)),
		int(math.Min(maxCol, float64(width))), int(math.Min(maxRow, float64(height))),
	)

	return rect.Intersect(image.Rect(0, 0, width, height))
}

func signedArea(flat []float64, stride int) float64 {
	area := 0.0
	n := len(flat) / stride
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += flat[i*stride]*flat[j*stride+1] - flat[j*stride]*flat[i*stride+1]
	}

	return area / 2
}

func addRing(z *vector.Rasterizer, flat []float64, stride int, reverse bool, toPixel func(x, y float64) (float32, float32)) {
	n := len(flat) / stride
	at := func(i int) (float32, float32) {
		if reverse {
			i = n - 1 - i
		}

		return toPixel(flat[i*stride], flat[i*stride+1])
	}

	z.MoveTo(at(0))
	for i := 1; i < n; i++ {
		z.LineTo(at(i))
	}
	z.ClosePath()
}
