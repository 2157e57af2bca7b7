package blend

import (
	"github.com/pkg/errors"
)

// ErrRowLength is returned when the input rows of Params.Row differ in length.
var ErrRowLength = errors.New("row length mismatch")

// Stats counts the cells of a row whose brightness sits at either clamp bound.
type Stats struct {
	Cells     int
	AtCeiling int
	AtFloor   int
	White     int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Cells += other.Cells
	s.AtCeiling += other.AtCeiling
	s.AtFloor += other.AtFloor
	s.White += other.White
}

// Row is one blended row of the output grid.
type Row struct {
	Index int
	// Brightness holds the clamped brightness of every cell.
	Brightness []uint8
	Red        []uint8
	Green      []uint8
	Blue       []uint8
	Stats      Stats
}

// Input holds the aligned source rows of one output row. Bump may be nil.
type Input struct {
	Index     int
	Hillshade []float64
	Bump      []float64
	Red       []float64
	Green     []float64
	Blue      []float64
}

// Row blends every cell of in.
func (p Params) Row(in Input) (Row, error) {
	width := len(in.Hillshade)
	if len(in.Red) != width || len(in.Green) != width || len(in.Blue) != width {
		return Row{}, errors.Wrapf(ErrRowLength, "row %d", in.Index)
	}
	if in.Bump != nil && len(in.Bump) != width {
		return Row{}, errors.Wrapf(ErrRowLength, "row %d bump", in.Index)
	}

	row := Row{
		Index:      in.Index,
		Brightness: make([]uint8, width),
		Red:        make([]uint8, width),
		Green:      make([]uint8, width),
		Blue:       make([]uint8, width),
		Stats:      Stats{Cells: width},
	}

	bump := 0.0
	for i := 0; i < width; i++ {
		if in.Bump != nil {
			bump = in.Bump[i]
		}

		blended, r, g, b := p.Cell(in.Hillshade[i], bump, in.Red[i], in.Green[i], in.Blue[i])
		row.Brightness[i] = uint8(blended)
		row.Red[i], row.Green[i], row.Blue[i] = r, g, b

		switch {
		case blended == MaxValue:
			row.Stats.AtCeiling++
		case blended == p.Floor:
			row.Stats.AtFloor++
		}
		if missing(in.Red[i]) && missing(in.Green[i]) && missing(in.Blue[i]) {
			row.Stats.White++
		}
	}

	return row, nil
}
