package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/drihop/pkg/pipeline/model"
)

// AddSink adds a step consuming every element of input with sinkFn.
func AddSink[I any](pipe *Pipeline, name string, input *model.Step[I], sinkFn func(ctx context.Context, input I) error) error {
	if pipe == nil {
		return ErrPipelineMustBeSet
	}
	if input == nil {
		return ErrInputMustBeSet
	}
	step := &model.Step[I]{
		Details: &model.StepInfo{
			Type:       model.SinkStepType,
			Name:       name,
			Concurrent: 1,
		},
	}
	for _, opt := range pipe.opts {
		err := opt.PrepareSink(input.Details, step.Details)
		if err != nil {
			return errors.Wrap(err, "unable to run before sink function")
		}
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)
	go func() {
		defer close(errC)

		err := runSink(pipe, input, step, sinkFn)
		if err != nil {
			errC <- err

			return
		}

		for _, opt := range pipe.opts {
			err := opt.AfterSink(step.Details, time.Since(pipe.startTime))
			if err != nil {
				errC <- errors.Wrap(err, "unable to run after sink function")

				return
			}
		}
	}()
	pipe.errcList.add(decoratedError)

	return nil
}

func runSink[I any](pipe *Pipeline, input, step *model.Step[I], sinkFn func(ctx context.Context, input I) error) error {
	for {
		startIter := time.Now()
		select {
		case <-pipe.ctx.Done():
			return pipe.ctx.Err()
		case in, ok := <-input.Output:
			if !ok {
				return nil
			}

			startFn := time.Now()
			err := sinkFn(pipe.ctx, in)
			if err != nil {
				return err
			}
			endFn := time.Since(startFn)

			for _, opt := range pipe.opts {
				err := opt.OnSinkOutput(input.Details, step.Details, time.Since(startIter)-endFn, endFn)
				if err != nil {
					return errors.Wrap(err, "unable to run sink output function")
				}
			}
		}
	}
}
