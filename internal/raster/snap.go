package raster

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyExtent is returned when the area to cover is empty.
	ErrEmptyExtent = errors.New("empty extent")
	// ErrMultiplier is returned for a non-positive cell-size multiplier.
	ErrMultiplier = errors.New("cell size multiplier must be positive")
)

// Snap returns the placement of a grid covering extent whose cell size is
// multiplier times the reference cell size and whose origin lies on a
// reference cell corner.
func Snap(ref Geo, extent Bounds, multiplier float64) (Geo, int, int, error) {
	if !(multiplier > 0) || math.IsInf(multiplier, 0) {
		return Geo{}, 0, 0, errors.Wrapf(ErrMultiplier, "%v", multiplier)
	}
	if extent.Empty() {
		return Geo{}, 0, 0, ErrEmptyExtent
	}
	if !(ref.CellSize > 0) {
		return Geo{}, 0, 0, errors.Wrapf(ErrGridSize, "reference cell size %v", ref.CellSize)
	}

	cellSize := ref.CellSize * multiplier
	left := ref.OriginX + math.Floor((extent.MinX-ref.OriginX)/ref.CellSize)*ref.CellSize
	top := ref.OriginY - math.Floor((ref.OriginY-extent.MaxY)/ref.CellSize)*ref.CellSize

	width := int(math.Ceil((extent.MaxX - left) / cellSize))
	height := int(math.Ceil((top - extent.MinY) / cellSize))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	return Geo{OriginX: left, OriginY: top, CellSize: cellSize}, width, height, nil
}
