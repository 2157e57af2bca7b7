package model

// StepType identifies the role of a step inside a pipeline.
type StepType string

const (
	RootStepType     StepType = "root"
	NormalStepType   StepType = "step"
	SplitterStepType StepType = "splitter"
	SinkStepType     StepType = "sink"
)

// StepInfo holds the static details of a step.
type StepInfo struct {
	Type       StepType
	Name       string
	Concurrent int
	BufferSize int
}

var (
	StartStep = &Step[any]{Details: &StepInfo{Name: "start"}}
	EndStep   = &Step[any]{Details: &StepInfo{Name: "end"}}
)

// Step is a node of the pipeline. Output is closed once the step is done,
// unless KeepOpen is set.
type Step[O any] struct {
	Output   chan O
	KeepOpen bool
	Details  *StepInfo
}
