package composite_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/drihop/internal/blend"
	"github.com/askiada/drihop/internal/composite"
	"github.com/askiada/drihop/internal/raster"
)

func TestName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("maps", "Quad_rgbComposite.png"), composite.Name(filepath.Join("maps", "Quad.gpkg")))
	assert.Equal(t, "Quad_rgbComposite.png", composite.Name("Quad.gdb"))
	assert.Equal(t, filepath.Join("maps", "Quad_rgbComposite.pgw"),
		composite.SidecarName(composite.Name(filepath.Join("maps", "Quad.gpkg"))))
}

func TestImageSetRow(t *testing.T) {
	t.Parallel()

	img := composite.New(2, 2)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(0, 0))

	require.NoError(t, img.SetRow(blend.Row{Index: 1, Red: []uint8{1, 2}, Green: []uint8{3, 4}, Blue: []uint8{5, 6}}))
	assert.Equal(t, color.RGBA{R: 2, G: 4, B: 6, A: 255}, img.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(1, 0))

	err := img.SetRow(blend.Row{Index: 2, Red: []uint8{1, 2}, Green: []uint8{3, 4}, Blue: []uint8{5, 6}})
	assert.ErrorIs(t, err, composite.ErrRowOutOfRange)
	err = img.SetRow(blend.Row{Index: 0, Red: []uint8{1}, Green: []uint8{3}, Blue: []uint8{5}})
	assert.ErrorIs(t, err, composite.ErrRowOutOfRange)
}

func TestWritePNGReplaces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "Quad_rgbComposite.png")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	img := composite.New(3, 1)
	require.NoError(t, img.SetRow(blend.Row{Index: 0, Red: []uint8{0, 128, 255}, Green: []uint8{0, 0, 0}, Blue: []uint8{9, 9, 9}}))
	require.NoError(t, composite.WritePNG(path, img))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	decoded, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 1), decoded.Bounds())
	r, g, b, a := decoded.At(1, 0).RGBA()
	assert.Equal(t, []uint32{128, 0, 9, 255}, []uint32{r >> 8, g >> 8, b >> 8, a >> 8})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteSidecar(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Quad_rgbComposite.pgw")
	geo := raster.Geo{OriginX: 100, OriginY: 200, CellSize: 10}
	params := composite.Params{
		Version:    "drihop test",
		Polygons:   "Quad.gpkg/MapUnitPolys",
		Hillshade:  "hs.asc",
		Stretch:    0.9,
		TargetMean: 225,
		Floor:      0,
		Multiplier: 1,
	}

	require.NoError(t, composite.WriteSidecar(path, geo, params))
	block := "\n\ndrihop test\n" +
		"mup = Quad.gpkg/MapUnitPolys\n" +
		"hillshade = hs.asc\n" +
		"stretch = 0.9\n" +
		"newMean = 225\n" +
		"floor = 0\n" +
		"cellMultiplier = 1.0\n"
	first := "10\n0\n0\n-10\n105\n195\n" + block

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, string(content))

	params.Multiplier = 2.5
	coarse := raster.Geo{OriginX: 100, OriginY: 200, CellSize: 25}
	require.NoError(t, composite.WriteSidecar(path, coarse, params))
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "25\n0\n0\n-25\n112.5\n187.5\n"+block+"\n\ndrihop test\n"+
		"mup = Quad.gpkg/MapUnitPolys\n"+
		"hillshade = hs.asc\n"+
		"stretch = 0.9\n"+
		"newMean = 225\n"+
		"floor = 0\n"+
		"cellMultiplier = 2.5\n", string(content))

	parsed, err := raster.ParseWorldFile(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, coarse, parsed)
}
