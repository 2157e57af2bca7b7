package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/drihop/pkg/pipeline/model"
)

// Pipeline is a pipeline of steps.
type Pipeline struct {
	ctx       context.Context
	cancel    context.CancelFunc
	errcList  *errorChans
	opts      []model.PipelineOption
	startTime time.Time
}

// New creates a new pipeline. Steps start as soon as they are added and stop when ctx is cancelled.
func New(ctx context.Context, opts ...model.PipelineOption) (*Pipeline, error) {
	dCtx, cancel := context.WithCancel(ctx)
	pipe := &Pipeline{
		ctx:       dCtx,
		cancel:    cancel,
		errcList:  &errorChans{},
		startTime: time.Now(),
		opts:      opts,
	}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			cancel()

			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// waitForPipeline waits for results from all error channels.
// It returns early on the first error.
func waitForPipeline(errs ...*errorChan) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}

	return nil
}

// Run waits for every step to finish. On the first error the remaining steps are cancelled.
func (p *Pipeline) Run() error {
	defer p.cancel()

	err := waitForPipeline(p.errcList.list...)
	if err != nil {
		return err
	}

	return p.finishRun()
}

// Cancel stops every step added so far. It is safe to call after Run.
func (p *Pipeline) Cancel() {
	p.cancel()
}

func (p *Pipeline) finishRun() error {
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}
