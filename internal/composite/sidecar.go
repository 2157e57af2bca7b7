package composite

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/drihop/internal/raster"
)

// Params are the run parameters recorded in the sidecar.
type Params struct {
	Version    string
	Polygons   string
	Hillshade  string
	Stretch    float64
	TargetMean int
	Floor      int
	Multiplier float64
}

// block renders the parameter block appended to the sidecar.
func (p Params) block() string {
	var b strings.Builder
	b.WriteString("\n\n" + p.Version + "\n")
	b.WriteString("mup = " + p.Polygons + "\n")
	b.WriteString("hillshade = " + p.Hillshade + "\n")
	b.WriteString("stretch = " + formatFloat(p.Stretch) + "\n")
	b.WriteString("newMean = " + strconv.Itoa(p.TargetMean) + "\n")
	b.WriteString("floor = " + strconv.Itoa(p.Floor) + "\n")
	b.WriteString("cellMultiplier = " + formatFloat(p.Multiplier) + "\n")

	return b.String()
}

// formatFloat keeps a decimal point on integral values: 1 is written 1.0.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}

	return s
}

// worldFileLines is the number of lines of the world file heading a sidecar.
const worldFileLines = 6

// WriteSidecar writes the world file of geo at the top of the sidecar at
// path, replacing the one of an earlier run, keeps the parameter blocks of
// earlier runs and appends the block of params.
func WriteSidecar(path string, geo raster.Geo, params Params) error {
	previous, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "unable to read %s", path)
	}

	var b strings.Builder
	b.WriteString(raster.WorldFile(geo))
	b.WriteString(parameterBlocks(string(previous)))
	b.WriteString(params.block())

	return errors.Wrapf(os.WriteFile(path, []byte(b.String()), fileMode), "unable to write %s", path)
}

// parameterBlocks returns what follows the world file of an existing sidecar.
func parameterBlocks(sidecar string) string {
	rest := sidecar
	for i := 0; i < worldFileLines; i++ {
		end := strings.IndexByte(rest, '\n')
		if end < 0 {
			return ""
		}
		rest = rest[end+1:]
	}

	return rest
}
