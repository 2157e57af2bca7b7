// Package relief runs direct relief integration: it colors the map units of
// a geologic map database, rasterizes them on the grid of a hillshade,
// blends both and writes the composite image beside the database.
package relief

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/askiada/drihop/internal/composite"
	"github.com/askiada/drihop/internal/raster"
	"github.com/askiada/drihop/internal/scratch"
	"github.com/askiada/drihop/internal/symbology"
	"github.com/askiada/drihop/internal/unitdb"
)

// Version is recorded in the composite sidecar.
var Version = "drihop, version of 19 October 2026"

// NothingIsWrong is logged when a run stops on purpose.
const NothingIsWrong = "==========NOTHING IS WRONG=========="

const scratchUnits = "units.gpkg"

var (
	// ErrMissingInput is returned when the database, one of its tables or the hillshade is missing.
	ErrMissingInput = errors.New("missing input")
	// ErrIntentionalAbort is returned after a diagnostic run or a forced failure.
	ErrIntentionalAbort = errors.New("intentional abort")
)

// Result describes the outputs of a successful run.
type Result struct {
	Image   string
	Sidecar string
	Width   int
	Height  int
	Colored int
}

// Run executes a full run. The scratch workspace is removed on every path.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) (res Result, err error) {
	if err := cfg.Validate(); err != nil {
		return res, err
	}

	db, err := openInputs(ctx, cfg, logger)
	if err != nil {
		return res, err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(db))

	logger.Info("getting hillshade properties", zap.String("hillshade", cfg.Hillshade))
	hillshade, err := raster.Open(cfg.Hillshade)
	if err != nil {
		return res, err
	}
	stats, err := hillshade.Stats()
	if err != nil {
		return res, errors.Wrap(err, cfg.Hillshade)
	}

	if cfg.Diagnostic {
		logger.Info("hillshade properties",
			zap.String("hillshade", cfg.Hillshade),
			zap.Float64("mean", stats.Mean),
			zap.Float64("stdDev", stats.StdDev),
			zap.Float64("cellSize", hillshade.CellSize),
		)
		logger.Warn(NothingIsWrong)

		return res, ErrIntentionalAbort
	}

	table, err := symbolTable(cfg)
	if err != nil {
		return res, err
	}

	ws, err := scratch.New(filepath.Dir(cfg.Database))
	if err != nil {
		return res, err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(ws))

	units, withBump, err := colorUnits(ctx, db, ws, table, logger)
	if err != nil {
		return res, err
	}
	res.Colored = units.colored

	features, err := db.Features(ctx)
	if err != nil {
		return res, err
	}
	geo, width, height, err := raster.Snap(hillshade.Geo, featureExtent(features), cfg.Multiplier)
	if err != nil {
		return res, errors.Wrapf(err, "unable to build output grid of %s", unitdb.PolysTable)
	}
	res.Width, res.Height = width, height
	logger.Info("rasterizing map units",
		zap.Int("features", len(features)),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float64("cellSize", geo.CellSize),
		zap.Bool("valBump", withBump),
	)

	b, err := burnBands(geo, width, height, features, units.rows, withBump)
	if err != nil {
		return res, err
	}
	shade, err := hillshade.Resample(geo, width, height)
	if err != nil {
		return res, err
	}

	logger.Info("blending", zap.Float64("mean", stats.Mean), zap.Int("workers", cfg.workers()))
	img, blendStats, err := render(ctx, cfg, cfg.params(stats.Mean), shade, b, logger)
	if err != nil {
		return res, err
	}
	logger.Debug("blend statistics",
		zap.Int("cells", blendStats.Cells),
		zap.Int("atCeiling", blendStats.AtCeiling),
		zap.Int("atFloor", blendStats.AtFloor),
		zap.Int("white", blendStats.White),
	)

	res.Image = composite.Name(cfg.Database)
	res.Sidecar = composite.SidecarName(res.Image)
	logger.Info("compositing", zap.String("image", res.Image))
	if err := composite.WritePNG(res.Image, img.RGBA); err != nil {
		return res, err
	}
	err = composite.WriteSidecar(res.Sidecar, geo, composite.Params{
		Version:    Version,
		Polygons:   cfg.Database + "/" + unitdb.PolysTable,
		Hillshade:  cfg.Hillshade,
		Stretch:    cfg.Stretch,
		TargetMean: cfg.TargetMean,
		Floor:      cfg.Floor,
		Multiplier: cfg.Multiplier,
	})
	if err != nil {
		return res, err
	}

	logger.Info("done")
	if cfg.ForceFailure {
		logger.Warn(NothingIsWrong)

		return res, ErrIntentionalAbort
	}

	return res, nil
}

// openInputs checks that every input exists and opens the database.
func openInputs(ctx context.Context, cfg Config, logger *zap.Logger) (*unitdb.DB, error) {
	db, err := unitdb.Open(ctx, cfg.Database)
	if errors.Is(err, unitdb.ErrNotFound) {
		logger.Error("cannot find database", zap.String("database", cfg.Database))

		return nil, errors.Wrapf(ErrMissingInput, "%v", err)
	}
	if err != nil {
		return nil, err
	}

	err = db.Validate(ctx)
	if err == nil && !raster.Exists(cfg.Hillshade) {
		logger.Error("cannot find hillshade", zap.String("hillshade", cfg.Hillshade))
		err = errors.Wrapf(ErrMissingInput, "hillshade %s", cfg.Hillshade)
	} else if errors.Is(err, unitdb.ErrNotFound) {
		logger.Error("cannot find table", zap.String("database", cfg.Database), zap.Error(err))
		err = errors.Wrapf(ErrMissingInput, "%v", err)
	}
	if err != nil {
		return nil, multierr.Append(err, db.Close())
	}

	return db, nil
}

func symbolTable(cfg Config) (*symbology.Table, error) {
	if cfg.Symbols != "" {
		return symbology.Load(cfg.Symbols)
	}

	return symbology.Default()
}

type coloredUnits struct {
	rows    []unitdb.Unit
	colored int
}

// colorUnits copies the unit table into the scratch workspace and assigns
// colors there, leaving the source database untouched.
func colorUnits(ctx context.Context, db *unitdb.DB, ws *scratch.Workspace, table *symbology.Table, logger *zap.Logger) (units coloredUnits, withBump bool, err error) {
	scratchDB, err := unitdb.Create(ctx, ws.Path(scratchUnits))
	if err != nil {
		return units, false, err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(scratchDB))

	if err := db.CopyUnits(ctx, scratchDB); err != nil {
		return units, false, err
	}

	logger.Info("updating unit colors", zap.String("scratch", scratchDB.Path()))
	units.colored, err = scratchDB.AssignColors(ctx, table, logger)
	if err != nil {
		return units, false, err
	}

	withBump, err = scratchDB.HasValBump(ctx)
	if err != nil {
		return units, false, err
	}
	units.rows, err = scratchDB.Units(ctx)

	return units, withBump, err
}
