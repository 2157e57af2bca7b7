package relief

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/drihop/internal/blend"
	"github.com/askiada/drihop/internal/composite"
	"github.com/askiada/drihop/internal/raster"
	"github.com/askiada/drihop/pkg/pipeline"
	"github.com/askiada/drihop/pkg/pipeline/drawer"
	"github.com/askiada/drihop/pkg/pipeline/measure"
	"github.com/askiada/drihop/pkg/pipeline/model"
)

const (
	stepRows       = "rows"
	stepBlend      = "blend"
	stepSplit      = "split"
	stepComposite  = "composite"
	stepStatistics = "statistics"
)

// render blends every row of the output grid through the pipeline and
// returns the composite image with the clamp statistics.
func render(ctx context.Context, cfg Config, params blend.Params, shade *raster.Grid, b *bands, logger *zap.Logger) (*composite.Image, blend.Stats, error) {
	var (
		stats blend.Stats
		msr   *measure.DefaultMeasure
		opts  []model.PipelineOption
	)
	if cfg.Measure || cfg.Graph != "" {
		msr = measure.NewDefaultMeasure()
		opts = append(opts, measure.PipelineMeasure(msr))
	}
	if cfg.Graph != "" {
		opts = append(opts, drawer.PipelineDrawer(drawer.NewDOTDrawer(cfg.Graph), msr))
	}

	pipe, err := pipeline.New(ctx, opts...)
	if err != nil {
		return nil, stats, err
	}
	// Steps run as soon as they are added; stop them if the wiring fails.
	defer pipe.Cancel()

	rows, err := pipeline.AddRootStep(pipe, stepRows, func(ctx context.Context, out chan<- int) error {
		for y := 0; y < shade.Height; y++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- y:
			}
		}

		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	blended, err := pipeline.AddStepOneToOne(pipe, stepBlend, rows, func(_ context.Context, y int) (blend.Row, error) {
		return params.Row(b.input(shade, y))
	}, pipeline.StepConcurrency[blend.Row](cfg.workers()))
	if err != nil {
		return nil, stats, err
	}

	split, err := pipeline.AddSplitter(pipe, stepSplit, blended, 2)
	if err != nil {
		return nil, stats, err
	}
	toImage, _ := split.Get()
	toStats, _ := split.Get()

	img := composite.New(shade.Width, shade.Height)
	err = pipeline.AddSink(pipe, stepComposite, toImage, func(_ context.Context, row blend.Row) error {
		return img.SetRow(row)
	})
	if err != nil {
		return nil, stats, err
	}
	err = pipeline.AddSink(pipe, stepStatistics, toStats, func(_ context.Context, row blend.Row) error {
		stats.Add(row.Stats)

		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	if err := pipe.Run(); err != nil {
		return nil, stats, errors.Wrap(err, "unable to blend rows")
	}

	if msr != nil && cfg.Measure {
		logMeasure(msr, logger)
	}

	return img, stats, nil
}

func logMeasure(msr *measure.DefaultMeasure, logger *zap.Logger) {
	for _, name := range msr.StepNames() {
		mt := msr.GetMetric(name)
		if mt == nil || mt.Count() == 0 {
			continue
		}
		logger.Info("step measure",
			zap.String("step", name),
			zap.Int64("count", mt.Count()),
			zap.Duration("avg", mt.AVGDuration()),
			zap.Duration("total", mt.GetTotalDuration()),
		)
	}
}
