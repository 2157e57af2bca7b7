package pipeline

import "github.com/askiada/drihop/pkg/pipeline/model"

type StepOption[O any] func(s *model.Step[O])

// StepConcurrency sets the number of goroutines running the step function.
func StepConcurrency[O any](concurrent int) StepOption[O] {
	return func(s *model.Step[O]) {
		s.Details.Concurrent = concurrent
	}
}

// StepKeepOpen leaves the output channel of a root step open when the step function returns.
func StepKeepOpen[O any]() StepOption[O] {
	return func(s *model.Step[O]) {
		s.KeepOpen = true
	}
}

type SplitterOption[I any] func(s *Splitter[I])

func SplitterBufferSize[I any](bufferSize int) SplitterOption[I] {
	return func(s *Splitter[I]) {
		s.bufferSize = bufferSize
	}
}
