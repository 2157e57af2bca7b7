package rasterize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/askiada/drihop/internal/raster"
	"github.com/askiada/drihop/internal/rasterize"
)

func square(minX, minY, maxX, maxY float64) []geom.Coord {
	return []geom.Coord{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}
}

func reversed(coords []geom.Coord) []geom.Coord {
	out := make([]geom.Coord, len(coords))
	for i, c := range coords {
		out[len(coords)-1-i] = c
	}

	return out
}

func newGrid(t *testing.T) *raster.Grid {
	t.Helper()

	grid, err := raster.New(raster.Geo{OriginX: 0, OriginY: 10, CellSize: 1}, 10, 10)
	require.NoError(t, err)

	return grid
}

func count(grid *raster.Grid, value float64) int {
	n := 0
	for _, v := range grid.Data {
		if v == value {
			n++
		}
	}

	return n
}

func TestBurnSquare(t *testing.T) {
	t.Parallel()

	grid := newGrid(t)
	polygon := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(2, 2, 5, 5)})

	require.NoError(t, rasterize.Burn(grid, polygon, 7))
	assert.Equal(t, 9, count(grid, 7))
	assert.Equal(t, 7.0, grid.At(2, 5))
	assert.Equal(t, 7.0, grid.At(4, 7))
	assert.True(t, raster.IsNoData(grid.At(5, 5)))
	assert.True(t, raster.IsNoData(grid.At(2, 4)))
}

func TestBurnHoles(t *testing.T) {
	t.Parallel()

	for name, hole := range map[string][]geom.Coord{
		"opposite winding": reversed(square(3, 3, 7, 7)),
		"same winding":     square(3, 3, 7, 7),
	} {
		grid := newGrid(t)
		polygon := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(0, 0, 10, 10), hole})

		require.NoError(t, rasterize.Burn(grid, polygon, 1), name)
		assert.Equal(t, 84, count(grid, 1), name)
		assert.True(t, raster.IsNoData(grid.At(5, 5)), name)
	}
}

func TestBurnMultiPolygon(t *testing.T) {
	t.Parallel()

	grid := newGrid(t)
	multi := geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
		{square(0, 0, 2, 2)},
		{reversed(square(8, 8, 10, 10))},
	})

	require.NoError(t, rasterize.Burn(grid, multi, 3))
	assert.Equal(t, 8, count(grid, 3))
	assert.Equal(t, 3.0, grid.At(0, 9))
	assert.Equal(t, 3.0, grid.At(9, 0))
}

func TestBurnCoverage(t *testing.T) {
	t.Parallel()

	grid := newGrid(t)
	thin := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(0, 0, 10, 0.3)})
	require.NoError(t, rasterize.Burn(grid, thin, 1))
	assert.Equal(t, 0, count(grid, 1))

	thick := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(0, 0, 10, 0.7)})
	require.NoError(t, rasterize.Burn(grid, thick, 2))
	assert.Equal(t, 10, count(grid, 2))
	assert.Equal(t, []float64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2}, grid.Row(9))
}

func TestBurnOverwrites(t *testing.T) {
	t.Parallel()

	grid := newGrid(t)
	first := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(0, 0, 6, 6)})
	second := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(4, 4, 10, 10)})

	require.NoError(t, rasterize.Burn(grid, first, 1))
	require.NoError(t, rasterize.Burn(grid, second, 2))
	assert.Equal(t, 32, count(grid, 1))
	assert.Equal(t, 36, count(grid, 2))
	assert.Equal(t, 2.0, grid.At(5, 5))
}

func TestCoverOutsideGrid(t *testing.T) {
	t.Parallel()

	geo := raster.Geo{OriginX: 0, OriginY: 10, CellSize: 1}
	far := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(20, 20, 30, 30)})

	mask, err := rasterize.Cover(geo, 10, 10, far)
	require.NoError(t, err)
	assert.True(t, mask.Rect.Empty())
	assert.Equal(t, 0, mask.Cells())
	assert.False(t, mask.Contains(0, 0))

	partial := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(-5, -5, 2, 2)})
	mask, err = rasterize.Cover(geo, 10, 10, partial)
	require.NoError(t, err)
	assert.Equal(t, 4, mask.Cells())
	assert.True(t, mask.Contains(1, 9))
	assert.False(t, mask.Contains(2, 9))
}

func TestCoverUnsupported(t *testing.T) {
	t.Parallel()

	point := geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{1, 1})
	_, err := rasterize.Cover(raster.Geo{CellSize: 1}, 1, 1, point)
	assert.ErrorIs(t, err, rasterize.ErrGeometry)
}

func TestBurnJunctionCellCenter(t *testing.T) {
	t.Parallel()

	grid, err := raster.New(raster.Geo{OriginX: 0, OriginY: 3, CellSize: 1}, 3, 3)
	require.NoError(t, err)

	// The three squares meet inside cell 1, 1 without any covering half of it.
	squares := []*geom.Polygon{
		geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(0, 0, 1.2, 3)}),
		geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(1.2, 1.4, 3, 3)}),
		geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{square(1.2, 0, 3, 1.4)}),
	}
	for i, polygon := range squares {
		require.NoError(t, rasterize.Burn(grid, polygon, float64(i+1)))
	}

	assert.Equal(t, []float64{1, 2, 2, 1, 2, 2, 1, 3, 3}, grid.Data)
}

func TestCoverSmallHoleAtCenter(t *testing.T) {
	t.Parallel()

	geo := raster.Geo{OriginX: 0, OriginY: 3, CellSize: 1}
	polygon := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		square(0, 0, 3, 3),
		square(1.4, 1.4, 1.6, 1.6),
	})

	mask, err := rasterize.Cover(geo, 3, 3, polygon)
	require.NoError(t, err)
	assert.Equal(t, 8, mask.Cells())
	assert.False(t, mask.Contains(1, 1))
	assert.True(t, mask.Contains(0, 0))
}
