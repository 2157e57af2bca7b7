// Package blend derives illuminated colors from a hillshade and per-unit colors.
//
// Brightness is computed first: the hillshade is stretched around its mean,
// shifted to a target mean, bumped per unit and clamped to [floor, 255].
// Each color channel is then darkened by 255 minus that brightness.
// Missing hillshade cells count as 255 and missing colors render white.
package blend

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// MaxValue is the ceiling of every brightness and channel value.
	MaxValue = 255
	// White is the channel value used where no unit color exists.
	White = MaxValue
)

// ErrParams is returned for parameters outside their valid range.
var ErrParams = errors.New("invalid blend parameters")

// Params holds the scalars of the illumination blend.
type Params struct {
	// Mean is the mean of the hillshade over its valid cells.
	Mean float64
	// Stretch scales the hillshade deviation from Mean.
	Stretch float64
	// TargetMean is the brightness a cell at Mean gets before bumping.
	TargetMean int
	// Floor is the smallest brightness allowed.
	Floor int
}

// Validate checks that TargetMean and Floor are valid byte values.
func (p Params) Validate() error {
	if p.TargetMean < 0 || p.TargetMean > MaxValue {
		return errors.Wrapf(ErrParams, "target mean %d not in [0,255]", p.TargetMean)
	}
	if p.Floor < 0 || p.Floor > MaxValue {
		return errors.Wrapf(ErrParams, "floor %d not in [0,255]", p.Floor)
	}
	if math.IsNaN(p.Stretch) || math.IsInf(p.Stretch, 0) {
		return errors.Wrapf(ErrParams, "stretch %v is not finite", p.Stretch)
	}

	return nil
}

// missing reports whether v is a NoData value.
func missing(v float64) bool {
	return math.IsNaN(v)
}

// Brightness returns the clamped brightness for hillshade value h and bump k.
// A NaN h is treated as 255 and a NaN k as 0.
func (p Params) Brightness(h, k float64) int {
	if missing(h) {
		h = MaxValue
	}
	if missing(k) {
		k = 0
	}

	v := math.Floor((h-p.Mean)*p.Stretch + float64(p.TargetMean) + k + 0.5)
	if v > MaxValue {
		return MaxValue
	}
	if v < float64(p.Floor) {
		return p.Floor
	}

	return int(v)
}

// Channel darkens color c by 255 minus blended. A NaN c yields White.
func Channel(c float64, blended int) uint8 {
	if missing(c) {
		return White
	}

	v := math.Floor(c) - MaxValue + float64(blended)
	if v < 0 {
		return 0
	}
	if v > MaxValue {
		return MaxValue
	}

	return uint8(v)
}

// Cell blends one cell and returns the brightness and the three channels.
func (p Params) Cell(h, k, r, g, b float64) (blended int, red, green, blue uint8) {
	blended = p.Brightness(h, k)

	return blended, Channel(r, blended), Channel(g, blended), Channel(b, blended)
}
