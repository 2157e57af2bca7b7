package unitdb

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// ErrGeometry is returned for blobs that are not GeoPackage geometries.
var ErrGeometry = errors.New("invalid GeoPackage geometry")

const (
	gpkgMagic         = "GP"
	gpkgHeaderSize    = 8
	gpkgFlagLittle    = 0x01
	gpkgFlagEmpty     = 0x10
	gpkgEnvelopeShift = 1
	gpkgEnvelopeMask  = 0x07
)

// envelopeSize returns the byte length of the envelope for indicator e.
func envelopeSize(e byte) (int, bool) {
	switch e {
	case 0:
		return 0, true
	case 1:
		return 32, true
	case 2, 3:
		return 48, true
	case 4:
		return 64, true
	}

	return 0, false
}

// DecodeGeometry decodes a GeoPackage geometry blob: the "GP" header,
// an optional envelope and a WKB geometry.
func DecodeGeometry(blob []byte) (geom.T, error) {
	if len(blob) < gpkgHeaderSize || string(blob[:2]) != gpkgMagic {
		return nil, errors.Wrap(ErrGeometry, "missing GP header")
	}

	flags := blob[3]
	envelope, ok := envelopeSize((flags >> gpkgEnvelopeShift) & gpkgEnvelopeMask)
	if !ok {
		return nil, errors.Wrapf(ErrGeometry, "envelope indicator in flags %#x", flags)
	}

	start := gpkgHeaderSize + envelope
	if len(blob) < start {
		return nil, errors.Wrap(ErrGeometry, "truncated envelope")
	}

	g, err := wkb.Unmarshal(blob[start:])
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode WKB")
	}

	return g, nil
}

// EncodeGeometry renders g as a little-endian GeoPackage geometry blob
// with an XY envelope.
func EncodeGeometry(g geom.T, srsID int32) ([]byte, error) {
	body, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode WKB")
	}

	flags := byte(gpkgFlagLittle)
	bounds := g.Bounds()
	envelope := []float64{}
	if bounds.IsEmpty() {
		flags |= gpkgFlagEmpty
	} else {
		flags |= 1 << gpkgEnvelopeShift
		envelope = []float64{bounds.Min(0), bounds.Max(0), bounds.Min(1), bounds.Max(1)}
	}

	blob := make([]byte, 0, gpkgHeaderSize+8*len(envelope)+len(body))
	blob = append(blob, gpkgMagic[0], gpkgMagic[1], 0, flags)
	blob = binary.LittleEndian.AppendUint32(blob, uint32(srsID))
	for _, v := range envelope {
		blob = binary.LittleEndian.AppendUint64(blob, math.Float64bits(v))
	}

	return append(blob, body...), nil
}
