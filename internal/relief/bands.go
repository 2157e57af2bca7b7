package relief

import (
	"github.com/pkg/errors"

	"github.com/askiada/drihop/internal/blend"
	"github.com/askiada/drihop/internal/raster"
	"github.com/askiada/drihop/internal/rasterize"
	"github.com/askiada/drihop/internal/unitdb"
)

// bands are the unit attributes rasterized on the output grid.
type bands struct {
	red, green, blue *raster.Grid
	// bump is nil when the unit table has no ValBump column.
	bump *raster.Grid
}

// featureExtent returns the bounds of every feature geometry.
func featureExtent(features []unitdb.Feature) raster.Bounds {
	extent := raster.EmptyBounds()
	for _, f := range features {
		b := f.Geom.Bounds()
		if b.IsEmpty() {
			continue
		}
		extent.Extend(b.Min(0), b.Min(1))
		extent.Extend(b.Max(0), b.Max(1))
	}

	return extent
}

// unitValues are the band values a feature burns.
type unitValues struct {
	red, green, blue, bump float64
}

// valuesByUnit joins units by MapUnit; the first row of a MapUnit wins.
func valuesByUnit(units []unitdb.Unit) map[string]unitValues {
	values := make(map[string]unitValues, len(units))
	for _, u := range units {
		if _, ok := values[u.MapUnit]; ok {
			continue
		}
		v := unitValues{red: raster.NoData, green: raster.NoData, blue: raster.NoData, bump: raster.NoData}
		if u.Color != nil {
			v.red, v.green, v.blue = float64(u.Color.R), float64(u.Color.G), float64(u.Color.B)
		}
		if u.ValBump.Valid {
			v.bump = u.ValBump.Float64
		}
		values[u.MapUnit] = v
	}

	return values
}

func burnBands(geo raster.Geo, width, height int, features []unitdb.Feature, units []unitdb.Unit, withBump bool) (*bands, error) {
	grids := make([]*raster.Grid, 4)
	for i := range grids {
		grid, err := raster.New(geo, width, height)
		if err != nil {
			return nil, err
		}
		grids[i] = grid
	}
	b := &bands{red: grids[0], green: grids[1], blue: grids[2]}
	if withBump {
		b.bump = grids[3]
	}

	missing := unitValues{red: raster.NoData, green: raster.NoData, blue: raster.NoData, bump: raster.NoData}
	values := valuesByUnit(units)
	for _, f := range features {
		mask, err := rasterize.Cover(geo, width, height, f.Geom)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %d", f.ID)
		}

		v, ok := values[f.MapUnit]
		if !ok {
			v = missing
		}
		mask.Burn(b.red, v.red)
		mask.Burn(b.green, v.green)
		mask.Burn(b.blue, v.blue)
		if b.bump != nil {
			mask.Burn(b.bump, v.bump)
		}
	}

	return b, nil
}

// input gathers the source rows of output row y.
func (b *bands) input(shade *raster.Grid, y int) blend.Input {
	in := blend.Input{
		Index:     y,
		Hillshade: shade.Row(y),
		Red:       b.red.Row(y),
		Green:     b.green.Row(y),
		Blue:      b.blue.Row(y),
	}
	if b.bump != nil {
		in.Bump = b.bump.Row(y)
	}

	return in
}
