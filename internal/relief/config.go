package relief

import (
	"runtime"
	"strconv"

	"github.com/pkg/errors"

	"github.com/askiada/drihop/internal/blend"
)

// Args is the number of positional arguments of a run.
const Args = 8

// ErrArgs is returned for positional arguments that cannot be parsed.
var ErrArgs = errors.New("invalid arguments")

// Config holds the parameters of a run.
type Config struct {
	Hillshade    string
	Database     string
	Diagnostic   bool
	Stretch      float64
	TargetMean   int
	Floor        int
	Multiplier   float64
	ForceFailure bool

	// Workers is the number of goroutines blending rows. Zero means one per CPU.
	Workers int
	// Symbols is an optional symbol table file replacing the embedded one.
	Symbols string
	// Graph is an optional DOT file receiving the blend pipeline graph.
	Graph string
	// Measure logs the duration of every pipeline step.
	Measure bool
}

// ParseArgs reads the positional arguments
// HILLSHADE DATABASE DIAGNOSTIC STRETCH MEAN FLOOR MULTIPLIER FORCEFAIL.
// Flags are set only by the literal "true".
func ParseArgs(args []string) (Config, error) {
	if len(args) != Args {
		return Config{}, errors.Wrapf(ErrArgs, "expected %d arguments, got %d", Args, len(args))
	}

	cfg := Config{
		Hillshade:    args[0],
		Database:     args[1],
		Diagnostic:   args[2] == "true",
		ForceFailure: args[7] == "true",
	}

	var err error
	cfg.Stretch, err = strconv.ParseFloat(args[3], 64)
	if err != nil {
		return Config{}, errors.Wrapf(ErrArgs, "stretch %q", args[3])
	}
	cfg.TargetMean, err = strconv.Atoi(args[4])
	if err != nil {
		return Config{}, errors.Wrapf(ErrArgs, "mean %q", args[4])
	}
	cfg.Floor, err = strconv.Atoi(args[5])
	if err != nil {
		return Config{}, errors.Wrapf(ErrArgs, "floor %q", args[5])
	}
	cfg.Multiplier, err = strconv.ParseFloat(args[6], 64)
	if err != nil {
		return Config{}, errors.Wrapf(ErrArgs, "cell multiplier %q", args[6])
	}

	return cfg, nil
}

// params returns the blend parameters for a hillshade of mean mean.
func (c Config) params(mean float64) blend.Params {
	return blend.Params{Mean: mean, Stretch: c.Stretch, TargetMean: c.TargetMean, Floor: c.Floor}
}

// Validate checks the numeric parameters.
func (c Config) Validate() error {
	if err := c.params(0).Validate(); err != nil {
		return err
	}
	if !(c.Multiplier > 0) {
		return errors.Wrapf(ErrArgs, "cell multiplier must be positive, got %v", c.Multiplier)
	}
	if c.Workers < 0 {
		return errors.Wrapf(ErrArgs, "workers must not be negative, got %d", c.Workers)
	}

	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}

	return runtime.NumCPU()
}
