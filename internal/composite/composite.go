// Package composite assembles blended rows into an RGB image and writes it
// with its world file.
package composite

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/drihop/internal/blend"
)

const (
	suffix        = "_rgbComposite"
	pngExtension  = ".png"
	pgwExtension  = ".pgw"
	fileMode      = 0o644
	tempPNGPrefix = ".drihop-"
)

// ErrRowOutOfRange is returned for a row that does not fit the image.
var ErrRowOutOfRange = errors.New("row out of range")

// Name returns the composite image path for the database at dbPath:
// <dir>/<stem>_rgbComposite.png.
func Name(dbPath string) string {
	dir, base := filepath.Split(dbPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(dir, stem+suffix+pngExtension)
}

// SidecarName returns the world file path of the image at pngPath.
func SidecarName(pngPath string) string {
	return strings.TrimSuffix(pngPath, filepath.Ext(pngPath)) + pgwExtension
}

// Image is an opaque RGB image filled row by row.
type Image struct {
	*image.RGBA
}

// New returns a white image.
func New(width, height int) *Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = blend.White
	}

	return &Image{RGBA: img}
}

// SetRow writes the channels of a blended row.
func (img *Image) SetRow(row blend.Row) error {
	bounds := img.Bounds()
	if row.Index < 0 || row.Index >= bounds.Dy() || len(row.Red) != bounds.Dx() {
		return errors.Wrapf(ErrRowOutOfRange, "row %d of width %d", row.Index, len(row.Red))
	}

	for x := range row.Red {
		img.SetRGBA(x, row.Index, color.RGBA{R: row.Red[x], G: row.Green[x], B: row.Blue[x], A: 0xff})
	}

	return nil
}

// WritePNG encodes img to path, replacing any previous file.
func WritePNG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPNGPrefix+"*"+pngExtension)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()

		return errors.Wrapf(err, "unable to encode %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "unable to write %s", path)
	}
	if err := os.Chmod(tmp.Name(), fileMode); err != nil {
		return errors.Wrapf(err, "unable to write %s", path)
	}

	return errors.Wrapf(os.Rename(tmp.Name(), path), "unable to replace %s", path)
}
