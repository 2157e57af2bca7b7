package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/drihop/pkg/pipeline/model"
)

type onOutputFn func(iterationDuration, computationDuration time.Duration) error

func sequentialOneToOne[I any, O any](ctx context.Context, goIdx int, input *model.Step[I], output *model.Step[O], oneToOneFn func(context.Context, I) (O, error), onOutput onOutputFn) error {
	for {
		startIter := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				return nil
			}
			startFn := time.Now()
			out, err := oneToOneFn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d", goIdx)
			}
			endFn := time.Since(startFn)

			// we check the context again to make sure all go routines currently running
			// stop to add new elements to the pipeline
			select {
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
			case output.Output <- out:
				if onOutput != nil {
					err := onOutput(time.Since(startIter)-endFn, endFn)
					if err != nil {
						return errors.Wrap(err, "unable to run step output function")
					}
				}
			}
		}
	}
}

func concurrentOneToOne[I any, O any](ctx context.Context, input *model.Step[I], output *model.Step[O], oneToOneFn func(context.Context, I) (O, error), onOutput onOutputFn) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(output.Details.Concurrent)
	// each consumer stops as soon as an error happens
	for goIdx := 0; goIdx < output.Details.Concurrent; goIdx++ {
		localGoIdx := goIdx
		errGrp.Go(func() error {
			return sequentialOneToOne(dCtx, localGoIdx, input, output, oneToOneFn, onOutput)
		})
	}

	return errGrp.Wait()
}

func runOneToOne[I any, O any](ctx context.Context, input *model.Step[I], output *model.Step[O], oneToOneFn func(context.Context, I) (O, error), onOutput onOutputFn) error {
	if output.Details.Concurrent <= 1 {
		output.Details.Concurrent = 1

		return sequentialOneToOne(ctx, 0, input, output, oneToOneFn, onOutput)
	}

	return concurrentOneToOne(ctx, input, output, oneToOneFn, onOutput)
}

func prepareStep[I, O any](pipe *Pipeline, name string, input *model.Step[I], opts ...StepOption[O]) (*model.Step[O], error) {
	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.NormalStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: make(chan O),
	}
	for _, opt := range opts {
		opt(step)
	}

	for _, opt := range pipe.opts {
		err := opt.PrepareStep(input.Details, step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before step function")
		}
	}

	return step, nil
}

// AddStepOneToOne adds a step applying oneToOneFn to every element of input.
// With StepConcurrency greater than one the output order is not preserved.
func AddStepOneToOne[I any, O any](pipe *Pipeline, name string, input *model.Step[I], oneToOneFn func(context.Context, I) (O, error), opts ...StepOption[O]) (*model.Step[O], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}

	step, err := prepareStep(pipe, name, input, opts...)
	if err != nil {
		return nil, err
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)

	onOutput := func(iterationDuration, computationDuration time.Duration) error {
		for _, opt := range pipe.opts {
			err := opt.OnStepOutput(input.Details, step.Details, iterationDuration, computationDuration)
			if err != nil {
				return err
			}
		}

		return nil
	}

	go func() {
		defer func() {
			close(step.Output)
			close(errC)
		}()
		err := runOneToOne(pipe.ctx, input, step, oneToOneFn, onOutput)
		if err != nil {
			errC <- err
		}
	}()
	pipe.errcList.add(decoratedError)

	return step, nil
}
