package raster

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"
)

// ErrGeoTIFF is returned for TIFF files without usable georeferencing.
var ErrGeoTIFF = errors.New("invalid GeoTIFF")

const (
	tagModelPixelScale    = 33550
	tagModelTiepoint      = 33922
	tagGeoKeyDirectory    = 34735
	tagGDALNoData         = 42113
	keyGTRasterType       = 1025
	rasterPixelIsPoint    = 2
	tiffTypeASCII         = 2
	tiffTypeShort         = 3
	tiffTypeLong          = 4
	tiffTypeDouble        = 12
	tiffHeaderSize        = 8
	tiffIFDEntrySize      = 12
	tiffInlineValueLength = 4
)

// geoTags holds the GeoTIFF tags of the first image file directory.
type geoTags struct {
	pixelScale []float64
	tiepoint   []float64
	geoKeys    []uint16
	noData     string
}

func typeSize(typ uint16) int {
	switch typ {
	case tiffTypeASCII:
		return 1
	case tiffTypeShort:
		return 2
	case tiffTypeLong:
		return 4
	case tiffTypeDouble:
		return 8
	}

	return 0
}

// readGeoTags scans the first IFD of a classic TIFF for GeoTIFF tags.
func readGeoTags(data []byte) (geoTags, error) {
	var tags geoTags
	if len(data) < tiffHeaderSize {
		return tags, errors.Wrap(ErrGeoTIFF, "short header")
	}

	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return tags, errors.Wrap(ErrGeoTIFF, "bad byte order")
	}
	if order.Uint16(data[2:4]) != 42 {
		return tags, errors.Wrap(ErrGeoTIFF, "not a classic TIFF")
	}

	ifd := int(order.Uint32(data[4:8]))
	if ifd+2 > len(data) {
		return tags, errors.Wrap(ErrGeoTIFF, "IFD out of range")
	}
	count := int(order.Uint16(data[ifd : ifd+2]))

	for i := 0; i < count; i++ {
		entry := ifd + 2 + i*tiffIFDEntrySize
		if entry+tiffIFDEntrySize > len(data) {
			return tags, errors.Wrap(ErrGeoTIFF, "IFD entry out of range")
		}
		tag := order.Uint16(data[entry : entry+2])
		typ := order.Uint16(data[entry+2 : entry+4])
		n := int(order.Uint32(data[entry+4 : entry+8]))

		size := typeSize(typ) * n
		if size == 0 {
			continue
		}
		value := data[entry+8 : entry+12]
		if size > tiffInlineValueLength {
			offset := int(order.Uint32(value))
			if offset < 0 || offset+size > len(data) {
				return tags, errors.Wrapf(ErrGeoTIFF, "tag %d out of range", tag)
			}
			value = data[offset : offset+size]
		}

		switch {
		case tag == tagModelPixelScale && typ == tiffTypeDouble:
			tags.pixelScale = doubles(order, value, n)
		case tag == tagModelTiepoint && typ == tiffTypeDouble:
			tags.tiepoint = doubles(order, value, n)
		case tag == tagGeoKeyDirectory && typ == tiffTypeShort:
			tags.geoKeys = shorts(order, value, n)
		case tag == tagGDALNoData && typ == tiffTypeASCII:
			tags.noData = strings.TrimRight(string(value[:n]), "\x00 ")
		}
	}

	return tags, nil
}

func doubles(order binary.ByteOrder, b []byte, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(order.Uint64(b[i*8:]))
	}

	return out
}

func shorts(order binary.ByteOrder, b []byte, n int) []uint16 {
	out := make([]uint16, n)
	for i := range out {
		out[i] = order.Uint16(b[i*2:])
	}

	return out
}

// pixelIsPoint reports whether the GeoKey directory declares RasterPixelIsPoint.
func (t geoTags) pixelIsPoint() bool {
	if len(t.geoKeys) < 4 {
		return false
	}
	keys := int(t.geoKeys[3])
	for i := 0; i < keys; i++ {
		entry := 4 + i*4
		if entry+4 > len(t.geoKeys) {
			return false
		}
		if t.geoKeys[entry] == keyGTRasterType && t.geoKeys[entry+1] == 0 {
			return t.geoKeys[entry+3] == rasterPixelIsPoint
		}
	}

	return false
}

// geo derives the grid placement from ModelPixelScale and ModelTiepoint.
func (t geoTags) geo() (Geo, bool, error) {
	if len(t.pixelScale) < 2 || len(t.tiepoint) < 6 {
		return Geo{}, false, nil
	}

	sx, sy := t.pixelScale[0], t.pixelScale[1]
	if !(sx > 0) || !nearlyEqual(sx, sy) {
		return Geo{}, false, errors.Wrapf(ErrGeoTIFF, "cells are not square: %v x %v", sx, sy)
	}

	i, j, x, y := t.tiepoint[0], t.tiepoint[1], t.tiepoint[3], t.tiepoint[4]
	geo := Geo{OriginX: x - i*sx, OriginY: y + j*sy, CellSize: sx}
	if t.pixelIsPoint() {
		geo.OriginX -= sx / 2
		geo.OriginY += sy / 2
	}

	return geo, true, nil
}

// cellValue converts a decoded pixel to a cell value.
func cellValue(img image.Image, x, y int) float64 {
	switch im := img.(type) {
	case *image.Gray:
		return float64(im.GrayAt(x, y).Y)
	case *image.Gray16:
		return float64(im.Gray16At(x, y).Y)
	}

	return float64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
}

// ReadGeoTIFF reads the first band of a GeoTIFF. Placement comes from the
// GeoTIFF tags or, without them, from a world file next to path.
func ReadGeoTIFF(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	tags, err := readGeoTags(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}

	geo, ok, err := tags.geo()
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if !ok {
		worldFile, found := worldFileFor(path)
		if !found {
			return nil, errors.Wrapf(ErrGeoTIFF, "%s has no georeferencing", path)
		}
		file, err := os.Open(worldFile)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to open %s", worldFile)
		}
		defer file.Close()

		geo, err = ParseWorldFile(file)
		if err != nil {
			return nil, errors.Wrap(err, worldFile)
		}
	}

	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", path)
	}

	bounds := img.Bounds()
	grid, err := New(geo, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	noData, hasNoData := 0.0, false
	if tags.noData != "" {
		noData, err = strconv.ParseFloat(tags.noData, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrGeoTIFF, "GDAL_NODATA %q", tags.noData)
		}
		hasNoData = true
	}

	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			v := cellValue(img, bounds.Min.X+col, bounds.Min.Y+row)
			if hasNoData && v == noData {
				continue
			}
			grid.Set(col, row, v)
		}
	}

	return grid, nil
}
