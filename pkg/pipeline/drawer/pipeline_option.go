package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/drihop/pkg/pipeline/measure"
	"github.com/askiada/drihop/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m         measure.Measure
	startTime time.Time
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStep(model.StartStep.Details.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}
	err = pd.AddStep(model.EndStep.Details.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) link(parentStep, step *model.StepInfo) error {
	err := pd.AddStep(step.Name)
	if err != nil {
		return err
	}
	if parentStep == nil {
		return nil
	}

	return pd.AddLink(parentStep.Name, step.Name)
}

func (pd *pipelineDrawer) PrepareStep(parentStep, step *model.StepInfo) error {
	return pd.link(parentStep, step)
}

func (pd *pipelineDrawer) PrepareSplitter(parentStep, splitterStep *model.StepInfo) error {
	return pd.link(parentStep, splitterStep)
}

func (pd *pipelineDrawer) PrepareSink(parentStep, step *model.StepInfo) error {
	err := pd.link(parentStep, step)
	if err != nil {
		return err
	}

	return pd.AddLink(step.Name, model.EndStep.Details.Name)
}

func (pd *pipelineDrawer) Finish() error {
	if pd.m != nil {
		err := pd.SetTotalTime(model.EndStep.Details.Name, pd.startTime)
		if err != nil {
			return errors.Wrap(err, "unable to set total time")
		}
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

func (pd *pipelineDrawer) OnStepOutput(_, _ *model.StepInfo, _, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) OnSplitterOutput(_, _ *model.StepInfo, _, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) OnSinkOutput(_, _ *model.StepInfo, _, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) AfterSink(_ *model.StepInfo, _ time.Duration) error {
	return nil
}

// PipelineDrawer returns a pipeline option drawing the pipeline when it finishes.
// When measure is not nil, steps and edges are annotated with its durations.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{drawer, measure, time.Now()}
}
