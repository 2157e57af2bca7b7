package raster

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrFormat is returned for raster files whose extension is not supported.
var ErrFormat = errors.New("unsupported raster format")

// Exists reports whether path names a readable regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

// Open reads a raster, picking the format from the extension: .asc and
// .asc.gz for ESRI ASCII grids, .tif and .tiff for GeoTIFF.
func Open(path string) (*Grid, error) {
	name := strings.ToLower(filepath.Base(path))

	switch {
	case strings.HasSuffix(name, ".asc"):
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to open %s", path)
		}
		defer file.Close()

		grid, err := ReadASCII(file)

		return grid, errors.Wrap(err, path)
	case strings.HasSuffix(name, ".asc.gz"):
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to open %s", path)
		}
		defer file.Close()

		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to decompress %s", path)
		}
		defer gz.Close()

		grid, err := ReadASCII(gz)

		return grid, errors.Wrap(err, path)
	case strings.HasSuffix(name, ".tif"), strings.HasSuffix(name, ".tiff"):
		return ReadGeoTIFF(path)
	}

	return nil, errors.Wrapf(ErrFormat, "%s", path)
}
