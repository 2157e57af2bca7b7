package raster

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrWorldFile is returned for world files that do not describe a north-up square grid.
var ErrWorldFile = errors.New("invalid world file")

// WorldFile renders the six lines of a world file for geo. The reference
// point is the center of the top-left cell.
func WorldFile(geo Geo) string {
	values := []float64{
		geo.CellSize,
		0,
		0,
		-geo.CellSize,
		geo.OriginX + geo.CellSize/2,
		geo.OriginY - geo.CellSize/2,
	}

	var b strings.Builder
	for _, v := range values {
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		b.WriteByte('\n')
	}

	return b.String()
}

// ParseWorldFile reads the first six lines of a world file.
func ParseWorldFile(r io.Reader) (Geo, error) {
	scanner := bufio.NewScanner(r)
	values := make([]float64, 0, 6)
	for len(values) < 6 && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return Geo{}, errors.Wrapf(ErrWorldFile, "line %q", line)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return Geo{}, errors.Wrap(err, "unable to read world file")
	}
	if len(values) < 6 {
		return Geo{}, errors.Wrapf(ErrWorldFile, "%d values", len(values))
	}

	a, d, b, e, c, f := values[0], values[1], values[2], values[3], values[4], values[5]
	if d != 0 || b != 0 || !(a > 0) || !nearlyEqual(a, -e) {
		return Geo{}, errors.Wrap(ErrWorldFile, "grid is rotated or cells are not square")
	}

	return Geo{OriginX: c - a/2, OriginY: f + a/2, CellSize: a}, nil
}

// worldFileFor finds the world file of an image, e.g. .tfw or .tifw for .tif.
func worldFileFor(path string) (string, bool) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	candidates := []string{stem + ".wld", path + "w"}
	if len(ext) >= 3 {
		candidates = append([]string{stem + ext[:2] + ext[len(ext)-1:] + "w"}, candidates...)
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	return "", false
}

func nearlyEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}

	scale := a
	if scale < 0 {
		scale = -scale
	}

	return diff <= 1e-9*scale
}
