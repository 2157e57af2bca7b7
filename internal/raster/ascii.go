package raster

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrASCIIGrid is returned for malformed ESRI ASCII grids.
var ErrASCIIGrid = errors.New("invalid ESRI ASCII grid")

// maxASCIICells is the largest ncols*nrows accepted.
const maxASCIICells = 1 << 28

type asciiHeader struct {
	ncols, nrows int
	x, y         float64
	center       bool
	cellSize     float64
	noData       float64
	hasNoData    bool
	seen         map[string]bool
}

func (h *asciiHeader) set(key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return errors.Wrapf(ErrASCIIGrid, "header %s=%q", key, value)
	}

	switch key {
	case "ncols", "nrows":
		if v < 1 || v > maxASCIICells || v != float64(int(v)) {
			return errors.Wrapf(ErrASCIIGrid, "header %s=%q out of range", key, value)
		}
		if key == "ncols" {
			h.ncols = int(v)
		} else {
			h.nrows = int(v)
		}
	case "xllcorner":
		h.x = v
	case "xllcenter":
		h.x, h.center = v, true
	case "yllcorner":
		h.y = v
	case "yllcenter":
		h.y, h.center = v, true
	case "cellsize":
		h.cellSize = v
	case "nodata_value":
		h.noData, h.hasNoData = v, true
	}
	h.seen[key] = true

	return nil
}

func isASCIIHeaderKey(key string) bool {
	switch key {
	case "ncols", "nrows", "xllcorner", "xllcenter", "yllcorner", "yllcenter", "cellsize", "nodata_value":
		return true
	}

	return false
}

// ReadASCII reads an ESRI ASCII grid.
func ReadASCII(r io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)

	header := asciiHeader{seen: map[string]bool{}}
	var first string
	for scanner.Scan() {
		key := strings.ToLower(scanner.Text())
		if !isASCIIHeaderKey(key) {
			first = scanner.Text()

			break
		}
		if !scanner.Scan() {
			return nil, errors.Wrapf(ErrASCIIGrid, "missing value for %s", key)
		}
		err := header.set(key, scanner.Text())
		if err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read ESRI ASCII grid")
	}

	for _, key := range []string{"ncols", "nrows", "cellsize"} {
		if !header.seen[key] {
			return nil, errors.Wrapf(ErrASCIIGrid, "missing %s", key)
		}
	}

	if header.ncols > maxASCIICells/header.nrows {
		return nil, errors.Wrapf(ErrASCIIGrid, "%dx%d cells exceeds %d", header.ncols, header.nrows, maxASCIICells)
	}

	originX, bottom := header.x, header.y
	if header.center {
		originX -= header.cellSize / 2
		bottom -= header.cellSize / 2
	}
	geo := Geo{
		OriginX:  originX,
		OriginY:  bottom + float64(header.nrows)*header.cellSize,
		CellSize: header.cellSize,
	}

	grid, err := New(geo, header.ncols, header.nrows)
	if err != nil {
		return nil, err
	}

	next := func() (string, bool) {
		if first != "" {
			token := first
			first = ""

			return token, true
		}
		if scanner.Scan() {
			return scanner.Text(), true
		}

		return "", false
	}

	for i := range grid.Data {
		token, ok := next()
		if !ok {
			return nil, errors.Wrapf(ErrASCIIGrid, "expected %d values, got %d", len(grid.Data), i)
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrASCIIGrid, "value %q", token)
		}
		if header.hasNoData && v == header.noData {
			continue
		}
		grid.Data[i] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read ESRI ASCII grid")
	}

	return grid, nil
}
